package simulation

import (
	"github.com/rs/xid"

	"github.com/sarchlab/loadsim/datarecording"
	"github.com/sarchlab/loadsim/monitoring"
	"github.com/sarchlab/loadsim/sim"
	"github.com/sarchlab/loadsim/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn       bool
	monitorPort     int
	browserOnLaunch bool
	outputFileName  string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowserOnLaunch makes the monitor open the dashboard in a browser.
func (b Builder) WithBrowserOnLaunch() Builder {
	b.browserOnLaunch = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.browserOnLaunch {
		panic("browser cannot be opened when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		ctrlNameIndex: make(map[string]int),
	}

	s.id = xid.New().String()

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "loadsim_" + s.id
	}
	s.dataRecorder = datarecording.NewDataRecorder(outputPath)

	s.engine = sim.NewSerialEngine()

	s.tracer = tracing.NewDBTracer(s.engine, s.dataRecorder)
	s.transitions = newTransitionRecorder(s.dataRecorder)

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		if b.browserOnLaunch {
			s.monitor.WithBrowserOnLaunch()
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()
	}

	return s
}
