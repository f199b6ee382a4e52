package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/loadsim/load"
	"github.com/sarchlab/loadsim/monitoring"
	"github.com/sarchlab/loadsim/sim"
	"github.com/sarchlab/loadsim/simulation"
)

var (
	seed        int64
	numRequests int
	latency     float64
	successRate float64
	maxRetries  int
	retryDelay  float64
	reentrantAt float64
	monitorPort int
	noMonitor   bool
	openBrowser bool
	output      string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "loadsim",
	Short: "loadsim runs simulated asynchronous load requests.",
	Long: `loadsim runs a discrete event simulation of asynchronous load ` +
		`requests. Each request resolves after a fixed latency to a success ` +
		`or a failure, decided by a uniform random draw. Superseded requests ` +
		`are discarded by token comparison, and failed requests can be ` +
		`retried by a driver that plays the role of the user.`,
	Run: run,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func init() {
	f := rootCmd.Flags()
	f.Int64Var(&seed, "seed", 0,
		"seed of the random source that decides request outcomes")
	f.IntVar(&numRequests, "requests", 1,
		"number of request controllers to simulate")
	f.Float64Var(&latency, "latency", 1,
		"simulated delay between start and completion, in seconds")
	f.Float64Var(&successRate, "success-rate", 0.7,
		"probability that a request succeeds")
	f.IntVar(&maxRetries, "max-retries", 0,
		"how many times the driver retries a failed request")
	f.Float64Var(&retryDelay, "retry-delay", 0.5,
		"delay between a failure and the retry, in seconds")
	f.Float64Var(&reentrantAt, "reentrant-at", 0,
		"inject an extra start at this time to supersede the in-flight "+
			"request, 0 to disable")
	f.IntVar(&monitorPort, "monitor-port", 0,
		"port of the monitoring server, 0 for a random port")
	f.BoolVar(&noMonitor, "no-monitor", false,
		"disable the monitoring server")
	f.BoolVar(&openBrowser, "open-browser", false,
		"open the monitoring dashboard in a browser")
	f.StringVar(&output, "output", "",
		"name of the output database file")
	f.BoolVar(&verbose, "verbose", false,
		"log every state transition to stderr")
}

func run(cmd *cobra.Command, _ []string) {
	applyEnvDefaults(cmd)

	s := buildSimulation()
	engine := s.GetEngine()

	rng := rand.New(rand.NewSource(seed))

	var bar *monitoring.ProgressBar
	if !noMonitor {
		bar = s.GetMonitor().
			CreateProgressBar("requests", uint64(numRequests))
	}

	logger := log.New(os.Stderr, "", 0)

	for i := 0; i < numRequests; i++ {
		ctrl := load.MakeControllerBuilder().
			WithEngine(engine).
			WithLatency(sim.VTimeInSec(latency)).
			WithSuccessRate(successRate).
			WithRand(rng).
			Build(fmt.Sprintf("Ctrl%d", i))

		if verbose {
			ctrl.AcceptHook(load.NewStateLogger(logger))
		}

		if bar != nil {
			ctrl.AcceptHook(&progressHook{bar: bar})
		}

		s.RegisterController(ctrl)

		driverBuilder := load.MakeDriverBuilder().
			WithEngine(engine).
			WithController(ctrl).
			WithMaxRetries(maxRetries).
			WithRetryDelay(sim.VTimeInSec(retryDelay))
		if reentrantAt > 0 {
			driverBuilder = driverBuilder.
				WithReentrantStartAt(sim.VTimeInSec(reentrantAt))
		}
		driverBuilder.Build(fmt.Sprintf("Driver%d", i))
	}

	err := engine.Run()
	dieOnErr(err)

	engine.Finished()

	for _, c := range s.Controllers() {
		fmt.Printf("%s: %s\n", c.Name(), load.Render(c.State()))
	}

	if bar != nil {
		s.GetMonitor().CompleteProgressBar(bar)
	}

	s.Terminate()
	atexit.Exit(0)
}

func buildSimulation() *simulation.Simulation {
	builder := simulation.MakeBuilder()

	if noMonitor {
		builder = builder.WithoutMonitoring()
	} else {
		if monitorPort > 0 {
			builder = builder.WithMonitorPort(monitorPort)
		}
		if openBrowser {
			builder = builder.WithBrowserOnLaunch()
		}
	}

	if output != "" {
		builder = builder.WithOutputFileName(output)
	}

	return builder.Build()
}

// applyEnvDefaults lets a .env file or the environment provide defaults for
// flags that are not set on the command line. The variable for a flag named
// success-rate is LOADSIM_SUCCESS_RATE.
func applyEnvDefaults(cmd *cobra.Command) {
	_ = godotenv.Load()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}

		key := "LOADSIM_" +
			strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if v, ok := os.LookupEnv(key); ok {
			err := f.Value.Set(v)
			if err != nil {
				log.Panicf("invalid value for %s: %s", key, v)
			}
		}
	})
}

// progressHook moves a progress bar as requests start and complete.
type progressHook struct {
	bar *monitoring.ProgressBar
}

func (h *progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != load.HookPosStateChange {
		return
	}

	sc, ok := ctx.Item.(load.StateChange)
	if !ok {
		return
	}

	switch sc.Next.Phase {
	case load.PhaseLoading:
		if sc.Prev.Phase != load.PhaseLoading {
			h.bar.IncrementInProgress(1)
		}
	case load.PhaseSucceeded, load.PhaseFailed:
		h.bar.MoveInProgressToFinished(1)
	}
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
