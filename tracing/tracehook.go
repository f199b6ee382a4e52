package tracing

import "github.com/sarchlab/loadsim/sim"

// traceHook converts hook invocations into tracer calls.
type traceHook struct {
	tracer Tracer
}

// Func forwards task starts, steps, and ends to the tracer.
func (h *traceHook) Func(ctx sim.HookCtx) {
	task, ok := ctx.Item.(Task)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosTaskStart:
		h.tracer.StartTask(task)
	case HookPosTaskStep:
		h.tracer.StepTask(task)
	case HookPosTaskEnd:
		h.tracer.EndTask(task)
	}
}
