package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/ChristopherRabotin/windtunnel"
	kitlog "github.com/go-kit/kit/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// This computes the level flight envelope of the scenario vessel and prints it.

const defaultScenario = "~~unset~~"

var (
	scenarioPath string
	cpus         int
	debug        bool
	logFile      string
)

func init() {
	flag.StringVar(&scenarioPath, "scenario", defaultScenario, "envelope scenario TOML file")
	flag.IntVar(&cpus, "cpus", 0, "number of workers, defaults to the configuration")
	flag.BoolVar(&debug, "debug", false, "log the search fallbacks")
	flag.StringVar(&logFile, "log", "", "rotating log file instead of stderr")
}

func main() {
	flag.Parse()
	if scenarioPath == defaultScenario {
		log.Fatal("no scenario provided")
	}
	cfg, err := windtunnel.ConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if cpus > 0 {
		cfg.Workers = cpus
	} else if cpus < 0 {
		cfg.Workers = runtime.NumCPU()
	}
	scen, err := loadScenario(scenarioPath)
	if err != nil {
		log.Fatalf("%s: %s", scenarioPath, err)
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		w = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    32, // MB
			MaxBackups: 1,
		}
	}
	logger := windtunnel.NewLogger(w)
	searchLogger := kitlog.NewNopLogger()
	if debug {
		searchLogger = logger
	}
	logger.Log("level", "notice", "subsys", "envelope", "scenario", scen, "workers", cfg.Workers)

	start := time.Now()
	aeroOpts, momentOpts := cfg.AeroOptions(), cfg.MomentOptions()
	aeroOpts.Logger, momentOpts.Logger = searchLogger, searchLogger
	model, err := windtunnel.SampleAeroModel(windtunnel.ReferenceWing, scen.grid, aeroOpts, momentOpts, scen.area, scen.mass, scen.thrust)
	if err != nil {
		log.Fatalf("could not sample the aerodynamic model: %s", err)
	}
	defer model.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	opt := windtunnel.NewOptimizer(cfg, searchLogger)
	env, err := windtunnel.ComputeEnvelope(ctx, opt, model, scen.body, scen.speeds, scen.altitudes, windtunnel.EnvelopeOptions{Workers: cfg.Workers, Logger: logger})
	if err != nil {
		log.Fatalf("envelope: %s", err)
	}
	logger.Log("level", "notice", "subsys", "envelope", "status", "finished", "duration", time.Since(start))
	printEnvelope(os.Stdout, env)
}

// printEnvelope writes the level flight AoA table, speeds as rows. Infeasible points are
// shown with a star next to their closest approach.
func printEnvelope(out io.Writer, env *windtunnel.Envelope) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "V (m/s) \\ h (m)\t")
	for _, h := range env.Altitudes {
		fmt.Fprintf(tw, "%.0f\t", h)
	}
	fmt.Fprintln(tw)
	for i, v := range env.Speeds {
		fmt.Fprintf(tw, "%.0f\t", v)
		for j := range env.Altitudes {
			p := env.Point(i, j)
			mark := ""
			if !p.Feasible() {
				mark = "*"
			}
			fmt.Fprintf(tw, "%.2f%s\t", windtunnel.Rad2deg(p.AoA), mark)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}
