package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ChristopherRabotin/lambert"
	"github.com/ChristopherRabotin/lambert/tools"
	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/cobra"
)

// This tool solves the transfer of a scenario file, and optionally verifies or disperses it.

var (
	scenarioPath string
	verbose      bool
	verify       bool
	step         float64
	metricsPath  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lambert",
		Short:         "Lambert transfer solver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&scenarioPath, "scenario", "s", "", "scenario TOML file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log every iteration of the root finding")
	if err := root.MarkPersistentFlagRequired("scenario"); err != nil {
		panic(err)
	}

	solve := &cobra.Command{
		Use:   "solve",
		Short: "Solve the transfer of the scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(newLogger())
		},
	}
	solve.Flags().BoolVar(&verify, "verify", false, "propagate every solution and report the arrival miss distance")
	solve.Flags().Float64Var(&step, "step", lambert.DefaultStep, "integration step of the verification, in seconds")

	disperse := &cobra.Command{
		Use:   "disperse",
		Short: "Monte Carlo dispersion of the positions of the scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisperse(cmd.Context(), newLogger())
		},
	}
	disperse.Flags().StringVar(&metricsPath, "metrics", "", "write the Prometheus metrics of the solves to this file")

	root.AddCommand(solve, disperse)
	return root
}

func newLogger() kitlog.Logger {
	return kitlog.With(kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout)), "ts", kitlog.DefaultTimestampUTC)
}

func loadSolver(logger kitlog.Logger) (sc scenario, solver lambert.Solver, err error) {
	if sc, err = loadScenario(scenarioPath); err != nil {
		return
	}
	if solver, err = sc.conf.Solver(); err != nil {
		return
	}
	if verbose {
		sc.conf.Options.Logger = logger
	}
	logger.Log("level", "info", "subsys", "conf", "algorithm", sc.conf.Algorithm, "direction", sc.conf.Options.Direction, "body", sc.body.Name, "tof(s)", sc.Δt, "M", sc.revs)
	if !sc.departure.IsZero() {
		logger.Log("level", "info", "subsys", "conf", "departure", sc.departure, "departure(JDE)", julian.TimeToJD(sc.departure), "arrival", sc.arrival, "arrival(JDE)", julian.TimeToJD(sc.arrival))
	}
	return
}

func runSolve(logger kitlog.Logger) error {
	sc, solver, err := loadSolver(logger)
	if err != nil {
		return err
	}
	sols, err := lambert.Lambert(solver, sc.body.GM(), sc.Ri, sc.Rf, sc.Δt, sc.revs, sc.conf.Options)
	if err != nil {
		return err
	}
	logger.Log("level", "info", "subsys", "lambert", "geometry", sols.Geometry, "bounds", sols.Bounds)
	for sols.Next() {
		tr := sols.Transfer()
		orbit := tr.Orbit()
		logger.Log("level", "notice", "subsys", "lambert", "M", tr.Revolutions, "branch", tr.Branch, "iter", tr.Iterations,
			"Vi", fmt.Sprintf("%+v", mat64.Formatted(tr.Vi.T())), "Vf", fmt.Sprintf("%+v", mat64.Formatted(tr.Vf.T())), "orbit", orbit)
		if sc.body.BelowSurface(orbit) {
			logger.Log("level", "warning", "subsys", "lambert", "branch", tr.Branch, "periapsis", orbit.Periapsis(), "radius", sc.body.Radius)
		}
		if verify {
			ΔR, ΔV, err := tr.Verify(step)
			if err != nil {
				return err
			}
			logger.Log("level", "info", "subsys", "verify", "branch", tr.Branch, "ΔR", ΔR, "ΔV", ΔV)
		}
	}
	return sols.Err()
}

func runDisperse(ctx context.Context, logger kitlog.Logger) error {
	sc, solver, err := loadSolver(logger)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	disp := tools.NewDispersion(solver, sc.body.GM(), sc.Ri, sc.Rf, sc.Δt, sc.revs, sc.σR, sc.samples)
	disp.Options = sc.conf.Options
	disp.Workers = sc.workers
	disp.Logger = logger
	reg := prometheus.NewRegistry()
	disp.Metrics = tools.NewMetrics(reg)
	report, err := disp.Run(ctx)
	if err != nil {
		return err
	}
	logger.Log("level", "notice", "subsys", "dispersion", "report", report)
	for kind, count := range report.FailuresByKind {
		logger.Log("level", "info", "subsys", "dispersion", "failure", kind, "count", count)
	}
	if metricsPath != "" {
		return prometheus.WriteToTextfile(metricsPath, reg)
	}
	return nil
}
