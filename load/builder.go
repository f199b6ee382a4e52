package load

import (
	"math/rand"
	"time"

	"github.com/sarchlab/loadsim/sim"
)

// ControllerBuilder can build load controllers.
type ControllerBuilder struct {
	engine      sim.Engine
	latency     sim.VTimeInSec
	successRate float64
	rand        RandSource
	payload     Payload
}

// MakeControllerBuilder creates a builder with default parameters: 1-second
// latency and a 0.7 success rate.
func MakeControllerBuilder() ControllerBuilder {
	return ControllerBuilder{
		latency:     1,
		successRate: 0.7,
		payload:     DefaultPayload,
	}
}

// WithEngine sets the engine that the controller schedules completions on.
func (b ControllerBuilder) WithEngine(engine sim.Engine) ControllerBuilder {
	b.engine = engine
	return b
}

// WithLatency sets the simulated delay between Start and completion.
func (b ControllerBuilder) WithLatency(latency sim.VTimeInSec) ControllerBuilder {
	b.latency = latency
	return b
}

// WithSuccessRate sets the probability that a request succeeds.
func (b ControllerBuilder) WithSuccessRate(rate float64) ControllerBuilder {
	b.successRate = rate
	return b
}

// WithRand sets the source of the uniform draws that decide outcomes. Inject
// a seeded source for deterministic runs.
func (b ControllerBuilder) WithRand(src RandSource) ControllerBuilder {
	b.rand = src
	return b
}

// WithPayload sets the payload that successful loads return.
func (b ControllerBuilder) WithPayload(p Payload) ControllerBuilder {
	b.payload = p
	return b
}

func (b ControllerBuilder) parametersMustBeValid() {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.latency <= 0 {
		panic("latency must be positive")
	}

	if b.successRate < 0 || b.successRate > 1 {
		panic("success rate must be in [0, 1]")
	}
}

// Build builds a controller with the given name.
func (b ControllerBuilder) Build(name string) *Controller {
	b.parametersMustBeValid()

	c := &Controller{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		latency:       b.latency,
		successRate:   b.successRate,
		rand:          b.rand,
		payload:       b.payload,
	}

	if c.rand == nil {
		c.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return c
}
