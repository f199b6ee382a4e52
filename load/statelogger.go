package load

import (
	"log"

	"github.com/sarchlab/loadsim/sim"
)

// StateLogger is a hook that prints request state transitions.
type StateLogger struct {
	sim.LogHookBase
}

// NewStateLogger returns a new StateLogger which will write into the logger.
func NewStateLogger(logger *log.Logger) *StateLogger {
	h := new(StateLogger)
	h.Logger = logger
	return h
}

// Func writes the transition into the logger.
func (h *StateLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosStateChange {
		return
	}

	sc, ok := ctx.Item.(StateChange)
	if !ok {
		return
	}

	name := ""
	if named, ok := ctx.Domain.(sim.Named); ok {
		name = named.Name()
	}

	h.Logger.Printf("%.10f, %s, token %d, %s -> %s",
		sc.Time, name, sc.Next.Token,
		sc.Prev.Phase.Name(), sc.Next.Phase.Name())
}
