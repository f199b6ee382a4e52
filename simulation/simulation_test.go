package simulation

import (
	"context"
	"math/rand"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/loadsim/datarecording"
	"github.com/sarchlab/loadsim/load"
)

var _ = Describe("Simulation", func() {
	var (
		s *Simulation
	)

	BeforeEach(func() {
		s = MakeBuilder().WithoutMonitoring().Build()
	})

	AfterEach(func() {
		s.Terminate()
		os.Remove("loadsim_" + s.ID() + ".sqlite3")
	})

	newController := func(name string) *load.Controller {
		return load.MakeControllerBuilder().
			WithEngine(s.GetEngine()).
			WithRand(rand.New(rand.NewSource(1))).
			Build(name)
	}

	It("should register a controller", func() {
		ctrl := newController("Ctrl0")

		s.RegisterController(ctrl)

		Expect(s.Controllers()).To(HaveLen(1))
		Expect(s.GetControllerByName("Ctrl0")).To(Equal(ctrl))
	})

	It("should reject duplicated controller names", func() {
		s.RegisterController(newController("Ctrl0"))

		Expect(func() {
			s.RegisterController(newController("Ctrl0"))
		}).To(Panic())
	})

	It("should record the transitions of a request", func() {
		ctrl := newController("Ctrl0")
		s.RegisterController(ctrl)

		load.MakeDriverBuilder().
			WithEngine(s.GetEngine()).
			WithController(ctrl).
			Build("Driver0")

		err := s.GetEngine().Run()
		Expect(err).To(BeNil())

		s.GetDataRecorder().Flush()

		reader := datarecording.NewReader("loadsim_" + s.ID())
		defer reader.Close()

		// One row for Loading, one for the completion.
		reader.MapTable("request_transitions", transitionEntry{})
		results, count, err := reader.Query(
			context.Background(), "request_transitions",
			datarecording.QueryParams{OrderBy: "Time"})
		Expect(err).To(BeNil())
		Expect(count).To(Equal(2))
		Expect(results[0].(*transitionEntry).Phase).To(Equal("Loading"))
	})
})

var _ = Describe("Builder", func() {
	It("should allow a custom output file name", func() {
		s := MakeBuilder().
			WithoutMonitoring().
			WithOutputFileName("test_custom_output").
			Build()
		defer func() {
			s.Terminate()
			os.Remove("test_custom_output.sqlite3")
		}()

		Expect(s.GetDataRecorder()).ToNot(BeNil())
	})

	It("should reject a monitor port without monitoring", func() {
		Expect(func() {
			MakeBuilder().
				WithoutMonitoring().
				WithMonitorPort(8080).
				Build()
		}).To(Panic())
	})
})
