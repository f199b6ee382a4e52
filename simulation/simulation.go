package simulation

import (
	"github.com/sarchlab/loadsim/datarecording"
	"github.com/sarchlab/loadsim/load"
	"github.com/sarchlab/loadsim/monitoring"
	"github.com/sarchlab/loadsim/sim"
	"github.com/sarchlab/loadsim/tracing"
)

// A Simulation provides the services required to define a simulation.
type Simulation struct {
	id string

	engine       sim.Engine
	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	tracer       *tracing.DBTracer
	transitions  *transitionRecorder

	controllers   []*load.Controller
	ctrlNameIndex map[string]int
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetTracer returns the tracer used in the simulation.
func (s *Simulation) GetTracer() *tracing.DBTracer {
	return s.tracer
}

// RegisterController registers a request controller with the simulation. The
// controller is hooked to the tracer and the transition recorder, and
// registered with the monitor if monitoring is on.
func (s *Simulation) RegisterController(c *load.Controller) {
	name := c.Name()
	if _, ok := s.ctrlNameIndex[name]; ok {
		panic("controller " + name + " already registered")
	}

	s.controllers = append(s.controllers, c)
	s.ctrlNameIndex[name] = len(s.controllers) - 1

	tracing.CollectTrace(c, s.tracer)
	c.AcceptHook(s.transitions)

	if s.monitor != nil {
		s.monitor.RegisterController(c)
	}
}

// Controllers returns all the registered controllers.
func (s *Simulation) Controllers() []*load.Controller {
	return s.controllers
}

// GetControllerByName returns the controller with the given name.
func (s *Simulation) GetControllerByName(name string) *load.Controller {
	return s.controllers[s.ctrlNameIndex[name]]
}

// Terminate terminates the simulation.
func (s *Simulation) Terminate() {
	s.dataRecorder.Close()
}
