package tracing

import (
	"sync"

	"github.com/sarchlab/loadsim/datarecording"
	"github.com/sarchlab/loadsim/sim"
)

type taskTableEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
}

// DBTracer is a tracer that stores finished tasks through a data recorder,
// one row per task.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	backend datarecording.DataRecorder,
) *DBTracer {
	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      backend,
		tracingTasks: make(map[string]Task),
	}

	t.backend.CreateTable("trace", taskTableEntry{})

	return t
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startingTaskMustBeValid(task)

	task.StartTime = t.timeTeller.CurrentTime()
	t.tracingTasks[task.ID] = task
}

// StepTask records a milestone of an in-flight task.
func (t *DBTracer) StepTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracing, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	steps := task.Steps
	for i := range steps {
		steps[i].Time = t.timeTeller.CurrentTime()
	}

	tracing.Steps = append(tracing.Steps, steps...)
	t.tracingTasks[task.ID] = tracing
}

// EndTask marks the end of a task and persists it.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracing, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	tracing.EndTime = t.timeTeller.CurrentTime()

	t.backend.InsertData("trace", taskTableEntry{
		ID:        tracing.ID,
		ParentID:  tracing.ParentID,
		Kind:      tracing.Kind,
		What:      tracing.What,
		Location:  tracing.Where,
		StartTime: float64(tracing.StartTime),
		EndTime:   float64(tracing.EndTime),
	})
}

func (t *DBTracer) startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task where must be set")
	}
}
