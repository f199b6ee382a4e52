package load

import "fmt"

// A RequestToken identifies one logical request. Tokens increase
// monotonically within a controller. A completion is applied only if its
// token matches the controller's current token, so completions of
// superseded requests are discarded.
type RequestToken uint64

// Phase tells which variant of the request state is active.
type Phase int

// The possible phases of a request.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

// Name returns the phase as a string.
func (p Phase) Name() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseLoading:
		return "Loading"
	case PhaseSucceeded:
		return "Succeeded"
	case PhaseFailed:
		return "Failed"
	default:
		panic("unknown phase")
	}
}

// Payload is the simulated record that a successful load returns.
type Payload struct {
	Name  string
	Email string
}

// DefaultPayload is returned by controllers that are not configured with a
// custom payload.
var DefaultPayload = Payload{
	Name:  "Ada Lovelace",
	Email: "ada@example.com",
}

// A LoadFailure is the error of a simulated failed load. It carries the
// random draw that decided the outcome.
type LoadFailure struct {
	Draw float64
}

func (e LoadFailure) Error() string {
	return fmt.Sprintf("simulated load failure, draw %.2f", e.Draw)
}

// State is the observable state of a request controller. A controller holds
// exactly one State value at a time, so exactly one phase is observable.
//
// Payload is only meaningful in the Succeeded phase. Failure is only set in
// the Failed phase. Draw is set in the Succeeded and Failed phases.
type State struct {
	Phase   Phase
	Token   RequestToken
	Payload Payload
	Draw    float64
	Failure error
}
