package simulation

import (
	"github.com/sarchlab/loadsim/datarecording"
	"github.com/sarchlab/loadsim/load"
	"github.com/sarchlab/loadsim/sim"
)

const transitionTableName = "request_transitions"

type transitionEntry struct {
	Time       float64
	Controller string
	Token      uint64
	Phase      string
	Draw       float64
}

// transitionRecorder records every observable controller transition into the
// data recorder, one row per transition.
type transitionRecorder struct {
	recorder datarecording.DataRecorder
}

func newTransitionRecorder(
	recorder datarecording.DataRecorder,
) *transitionRecorder {
	recorder.CreateTable(transitionTableName, transitionEntry{})

	return &transitionRecorder{recorder: recorder}
}

// Func records state-change hook invocations.
func (h *transitionRecorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != load.HookPosStateChange {
		return
	}

	sc, ok := ctx.Item.(load.StateChange)
	if !ok {
		return
	}

	name := ""
	if named, ok := ctx.Domain.(sim.Named); ok {
		name = named.Name()
	}

	h.recorder.InsertData(transitionTableName, transitionEntry{
		Time:       float64(sc.Time),
		Controller: name,
		Token:      uint64(sc.Next.Token),
		Phase:      sc.Next.Phase.Name(),
		Draw:       sc.Next.Draw,
	})
}
