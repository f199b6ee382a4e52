package load

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/loadsim/sim"
)

var _ = Describe("Controller", func() {
	var (
		engine   *recordingEngine
		source   *scriptedRand
		recorder *hookRecorder
		ctrl     *Controller
	)

	BeforeEach(func() {
		engine = &recordingEngine{}
		source = &scriptedRand{}
		recorder = &hookRecorder{}

		ctrl = MakeControllerBuilder().
			WithEngine(engine).
			WithLatency(2).
			WithRand(source).
			Build("Ctrl")
		ctrl.AcceptHook(recorder)
	})

	It("should start in Idle", func() {
		Expect(ctrl.State().Phase).To(Equal(PhaseIdle))
	})

	It("should transition to Loading and schedule a completion", func() {
		ctrl.Start()

		Expect(ctrl.State().Phase).To(Equal(PhaseLoading))
		Expect(ctrl.State().Token).To(Equal(RequestToken(1)))
		Expect(engine.scheduled).To(HaveLen(1))
		Expect(engine.scheduled[0].Time()).To(Equal(sim.VTimeInSec(2)))
	})

	It("should succeed when the draw is below the success rate", func() {
		source.draws = []float64{0.4}

		ctrl.Start()
		engine.fire(0)

		state := ctrl.State()
		Expect(state.Phase).To(Equal(PhaseSucceeded))
		Expect(state.Payload).To(Equal(DefaultPayload))
		Expect(state.Draw).To(Equal(0.4))
		Expect(state.Failure).To(BeNil())
	})

	It("should fail when the draw is at or above the success rate", func() {
		source.draws = []float64{0.9}

		ctrl.Start()
		engine.fire(0)

		state := ctrl.State()
		Expect(state.Phase).To(Equal(PhaseFailed))
		Expect(state.Draw).To(Equal(0.9))
		Expect(state.Failure).To(Equal(LoadFailure{Draw: 0.9}))
	})

	It("should discard the completion of a superseded request", func() {
		source.draws = []float64{0.9}

		ctrl.Start()
		engine.now = 1
		ctrl.Start()

		engine.fire(0)
		Expect(ctrl.State().Phase).To(Equal(PhaseLoading))
		Expect(recorder.stale).To(Equal([]RequestToken{1}))

		engine.fire(1)
		state := ctrl.State()
		Expect(state.Phase).To(Equal(PhaseFailed))
		Expect(state.Token).To(Equal(RequestToken(2)))
		Expect(source.next).To(Equal(1))
	})

	It("should drop a stale completion that fires after a newer one", func() {
		source.draws = []float64{0.4}

		ctrl.Start()
		engine.now = 1
		ctrl.Start()

		engine.fire(1)
		Expect(ctrl.State().Phase).To(Equal(PhaseSucceeded))

		engine.fire(0)
		state := ctrl.State()
		Expect(state.Phase).To(Equal(PhaseSucceeded))
		Expect(state.Token).To(Equal(RequestToken(2)))
		Expect(recorder.stale).To(Equal([]RequestToken{1}))
	})

	It("should not mutate state after disposal", func() {
		ctrl.Start()
		ctrl.Dispose()
		Expect(ctrl.State().Phase).To(Equal(PhaseIdle))

		engine.fire(0)

		Expect(ctrl.State().Phase).To(Equal(PhaseIdle))
		Expect(source.next).To(Equal(0))
	})

	It("should be restartable after a failure", func() {
		source.draws = []float64{0.9, 0.4}

		ctrl.Start()
		engine.fire(0)
		Expect(ctrl.State().Phase).To(Equal(PhaseFailed))

		engine.now = 3
		ctrl.Start()
		Expect(ctrl.State().Phase).To(Equal(PhaseLoading))

		engine.fire(1)
		Expect(ctrl.State().Phase).To(Equal(PhaseSucceeded))
		Expect(ctrl.State().Token).To(Equal(RequestToken(2)))
	})

	It("should apply at most one completion per token", func() {
		source.draws = []float64{0.9}

		ctrl.Start()
		engine.now = 1
		ctrl.Start()
		engine.fire(0)
		engine.fire(1)

		phases := []Phase{}
		tokens := []RequestToken{}
		for _, sc := range recorder.changes {
			phases = append(phases, sc.Next.Phase)
			tokens = append(tokens, sc.Next.Token)
		}

		Expect(phases).To(Equal(
			[]Phase{PhaseLoading, PhaseLoading, PhaseFailed}))
		Expect(tokens).To(Equal(
			[]RequestToken{1, 2, 2}))
	})

	It("should never carry fields of another variant", func() {
		source.draws = []float64{0.9, 0.4}

		ctrl.Start()
		engine.fire(0)
		engine.now = 3
		ctrl.Start()
		engine.fire(1)

		for _, sc := range recorder.changes {
			switch sc.Next.Phase {
			case PhaseSucceeded:
				Expect(sc.Next.Failure).To(BeNil())
			case PhaseFailed:
				Expect(sc.Next.Payload).To(Equal(Payload{}))
			case PhaseIdle, PhaseLoading:
				Expect(sc.Next.Failure).To(BeNil())
				Expect(sc.Next.Payload).To(Equal(Payload{}))
			}
		}
	})
})

var _ = Describe("ControllerBuilder", func() {
	It("should reject a missing engine", func() {
		Expect(func() {
			MakeControllerBuilder().Build("Ctrl")
		}).To(Panic())
	})

	It("should reject an out-of-range success rate", func() {
		Expect(func() {
			MakeControllerBuilder().
				WithEngine(&recordingEngine{}).
				WithSuccessRate(1.5).
				Build("Ctrl")
		}).To(Panic())
	})

	It("should reject a non-positive latency", func() {
		Expect(func() {
			MakeControllerBuilder().
				WithEngine(&recordingEngine{}).
				WithLatency(0).
				Build("Ctrl")
		}).To(Panic())
	})
})
