package load

import "fmt"

// Render returns the display panel for a state. Exactly one panel is
// produced per state: a loading indicator, a success panel with the payload
// fields and the drawn value, or a failure panel with the drawn value and a
// retry hint.
func Render(s State) string {
	switch s.Phase {
	case PhaseLoading:
		return "Loading..."
	case PhaseSucceeded:
		return fmt.Sprintf("Loaded %s <%s>, draw %.2f",
			s.Payload.Name, s.Payload.Email, s.Draw)
	case PhaseFailed:
		return fmt.Sprintf("Load failed, draw %.2f. Retry to start over.",
			s.Draw)
	default:
		return "Idle"
	}
}
