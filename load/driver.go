package load

import (
	"reflect"

	"github.com/sarchlab/loadsim/sim"
)

// startEvent triggers the driver to start a request on its controller.
type startEvent struct {
	*sim.EventBase
}

// A Driver plays the role of the user of a controller. It starts the first
// request, watches the outcome through the controller's state-change hook,
// and re-triggers Start after failures up to a retry budget. It can also
// inject an extra Start while a request is still in flight, superseding it.
//
// The controller never retries on its own; all retries come from a driver.
type Driver struct {
	*sim.ComponentBase

	engine     sim.Engine
	controller *Controller
	maxRetries int
	retryDelay sim.VTimeInSec

	starts  int
	retries int
}

// Handle triggers a start on the driven controller.
func (d *Driver) Handle(e sim.Event) error {
	switch e := e.(type) {
	case startEvent:
		d.Lock()
		d.starts++
		d.Unlock()

		d.controller.Start()
	default:
		panic("cannot handle event of type " + reflect.TypeOf(e).String())
	}

	return nil
}

// Func observes the controller's transitions. A failure schedules a retry if
// the budget allows.
func (d *Driver) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosStateChange {
		return
	}

	sc, ok := ctx.Item.(StateChange)
	if !ok {
		return
	}

	if sc.Next.Phase != PhaseFailed {
		return
	}

	d.Lock()
	defer d.Unlock()

	if d.retries >= d.maxRetries {
		return
	}

	d.retries++
	evt := startEvent{
		EventBase: sim.NewEventBase(sc.Time+d.retryDelay, d),
	}
	d.engine.Schedule(evt)
}

// Starts returns how many times the driver has triggered Start.
func (d *Driver) Starts() int {
	d.Lock()
	defer d.Unlock()

	return d.starts
}

// Retries returns how many retries the driver has issued.
func (d *Driver) Retries() int {
	d.Lock()
	defer d.Unlock()

	return d.retries
}

// DriverBuilder can build drivers.
type DriverBuilder struct {
	engine       sim.Engine
	controller   *Controller
	maxRetries   int
	retryDelay   sim.VTimeInSec
	startTime    sim.VTimeInSec
	reentrantAt  sim.VTimeInSec
	hasReentrant bool
}

// MakeDriverBuilder creates a builder with default parameters: no retries
// and a 0.5-second retry delay.
func MakeDriverBuilder() DriverBuilder {
	return DriverBuilder{
		retryDelay: 0.5,
	}
}

// WithEngine sets the engine that the driver schedules starts on.
func (b DriverBuilder) WithEngine(engine sim.Engine) DriverBuilder {
	b.engine = engine
	return b
}

// WithController sets the controller to drive.
func (b DriverBuilder) WithController(c *Controller) DriverBuilder {
	b.controller = c
	return b
}

// WithMaxRetries sets the retry budget for failed requests.
func (b DriverBuilder) WithMaxRetries(n int) DriverBuilder {
	b.maxRetries = n
	return b
}

// WithRetryDelay sets the delay between a failure and the retry.
func (b DriverBuilder) WithRetryDelay(delay sim.VTimeInSec) DriverBuilder {
	b.retryDelay = delay
	return b
}

// WithStartTime sets when the first request starts.
func (b DriverBuilder) WithStartTime(t sim.VTimeInSec) DriverBuilder {
	b.startTime = t
	return b
}

// WithReentrantStartAt schedules an extra start at the given time. Placing
// it between the first start and its completion supersedes the first
// request, whose completion is then discarded.
func (b DriverBuilder) WithReentrantStartAt(t sim.VTimeInSec) DriverBuilder {
	b.reentrantAt = t
	b.hasReentrant = true
	return b
}

func (b DriverBuilder) parametersMustBeValid() {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.controller == nil {
		panic("controller is not set")
	}

	if b.maxRetries < 0 {
		panic("max retries must not be negative")
	}
}

// Build builds a driver with the given name, hooks it to its controller,
// and schedules the initial start events.
func (b DriverBuilder) Build(name string) *Driver {
	b.parametersMustBeValid()

	d := &Driver{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		controller:    b.controller,
		maxRetries:    b.maxRetries,
		retryDelay:    b.retryDelay,
	}

	d.controller.AcceptHook(d)

	d.engine.Schedule(startEvent{
		EventBase: sim.NewEventBase(b.startTime, d),
	})

	if b.hasReentrant {
		d.engine.Schedule(startEvent{
			EventBase: sim.NewEventBase(b.reentrantAt, d),
		})
	}

	return d
}
