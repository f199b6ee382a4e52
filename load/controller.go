package load

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/loadsim/sim"
	"github.com/sarchlab/loadsim/tracing"
)

// A RandSource provides the uniform draws in [0, 1) that decide request
// outcomes. *rand.Rand satisfies this interface.
type RandSource interface {
	Float64() float64
}

// HookPosStateChange is triggered on every observable state transition of a
// controller. The hook context item is a StateChange.
var HookPosStateChange = &sim.HookPos{Name: "StateChange"}

// HookPosStaleCompletion is triggered when a completion is discarded because
// its token no longer matches the controller's current token, or because the
// controller is disposed. The hook context item is the stale RequestToken.
var HookPosStaleCompletion = &sim.HookPos{Name: "StaleCompletion"}

// A StateChange describes one observable transition of a controller.
type StateChange struct {
	Time sim.VTimeInSec
	Prev State
	Next State
}

// completionEvent resolves the in-flight request that carries the same token.
type completionEvent struct {
	*sim.EventBase

	token RequestToken
}

// A Controller owns the lifecycle of simulated load requests. Start begins a
// new request and supersedes any in-flight one. After the configured latency,
// the request resolves to Succeeded or Failed based on a uniform draw against
// the success rate.
//
// The controller stores a single State value, so Succeeded and Failed can
// never be observable at the same time.
type Controller struct {
	*sim.ComponentBase

	engine      sim.Engine
	latency     sim.VTimeInSec
	successRate float64
	rand        RandSource
	payload     Payload

	token    RequestToken
	state    State
	disposed bool
}

// Start begins a new simulated request. Any in-flight request is superseded:
// its token is invalidated, so its completion becomes a no-op when it fires.
func (c *Controller) Start() {
	c.Lock()
	defer c.Unlock()

	if c.disposed {
		panic("start on disposed controller " + c.Name())
	}

	if c.state.Phase == PhaseLoading {
		tracing.AddTaskStep(c.taskID(c.token), c, "superseded")
		tracing.EndTask(c.taskID(c.token), c)
	}

	c.token++
	now := c.engine.CurrentTime()

	c.applyState(now, State{Phase: PhaseLoading, Token: c.token})

	evt := completionEvent{
		EventBase: sim.NewEventBase(now+c.latency, c),
		token:     c.token,
	}
	c.engine.Schedule(evt)

	tracing.StartTask(c.taskID(c.token), "", c, "request", "load", nil)
}

// Handle applies a completion event. Completions that carry a stale token,
// or that fire after the controller is disposed, do not mutate state.
func (c *Controller) Handle(e sim.Event) error {
	evt, ok := e.(completionEvent)
	if !ok {
		return fmt.Errorf("cannot handle event %T", e)
	}

	c.Lock()
	defer c.Unlock()

	now := c.engine.CurrentTime()

	if c.disposed || evt.token != c.token {
		ctx := sim.HookCtx{
			Domain: c,
			Pos:    HookPosStaleCompletion,
			Item:   evt.token,
		}
		c.InvokeHook(ctx)

		return nil
	}

	draw := c.rand.Float64()

	var next State
	if draw < c.successRate {
		next = State{
			Phase:   PhaseSucceeded,
			Token:   evt.token,
			Payload: c.payload,
			Draw:    draw,
		}
	} else {
		next = State{
			Phase:   PhaseFailed,
			Token:   evt.token,
			Draw:    draw,
			Failure: LoadFailure{Draw: draw},
		}
	}

	c.applyState(now, next)

	tracing.EndTask(c.taskID(evt.token), c)

	return nil
}

// State returns the current observable state.
func (c *Controller) State() State {
	c.Lock()
	defer c.Unlock()

	return c.state
}

// Dispose tears the controller down. The current token is invalidated so a
// pending completion cannot mutate state after disposal. The state returns
// to Idle and the controller cannot be started again.
func (c *Controller) Dispose() {
	c.Lock()
	defer c.Unlock()

	if c.disposed {
		return
	}

	if c.state.Phase == PhaseLoading {
		tracing.EndTask(c.taskID(c.token), c)
	}

	c.token++
	c.applyState(c.engine.CurrentTime(), State{Phase: PhaseIdle, Token: c.token})
	c.disposed = true
}

// applyState must be called with the controller lock held.
func (c *Controller) applyState(now sim.VTimeInSec, next State) {
	prev := c.state
	c.state = next

	ctx := sim.HookCtx{
		Domain: c,
		Pos:    HookPosStateChange,
		Item: StateChange{
			Time: now,
			Prev: prev,
			Next: next,
		},
	}
	c.InvokeHook(ctx)
}

func (c *Controller) taskID(token RequestToken) string {
	return c.Name() + "." + strconv.FormatUint(uint64(token), 10)
}
