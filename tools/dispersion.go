package tools

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/ChristopherRabotin/lambert"
	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat"
	"github.com/gonum/stat/distmv"
)

// Dispersion is a Monte Carlo analysis of a transfer: both position vectors are dispersed with an isotropic
// Gaussian error, every sample is solved, and the departure velocities are compared to the nominal one.
type Dispersion struct {
	Solver  lambert.Solver
	Options lambert.Options
	μ       float64
	Ri, Rf  *mat64.Vector
	Δt      float64
	Revs    uint
	Branch  lambert.Branch // solution kept for multiple revolution transfers
	σR      float64        // 1σ position error, same units as Ri and Rf
	Samples int
	Workers int // defaults to the number of CPUs
	Seed    int64
	Metrics *Metrics // optional
	Logger  kitlog.Logger
}

// NewDispersion returns a dispersion of the provided transfer, with a 1σ position error of σR.
func NewDispersion(solver lambert.Solver, μ float64, Ri, Rf *mat64.Vector, Δt float64, revs uint, σR float64, samples int) *Dispersion {
	return &Dispersion{
		Solver:  solver,
		Options: lambert.DefaultOptions(),
		μ:       μ,
		Ri:      Ri,
		Rf:      Rf,
		Δt:      Δt,
		Revs:    revs,
		Branch:  lambert.Left,
		σR:      σR,
		Samples: samples,
		Seed:    1,
		Logger:  kitlog.NewNopLogger(),
	}
}

// DispersionReport summarizes a dispersion.
type DispersionReport struct {
	Nominal        lambert.Transfer
	Samples        int
	Failures       int
	FailuresByKind map[string]int
	ΔVi            []float64 // norm of the departure velocity difference to the nominal, for each solved sample
	Mean, StdDev   float64
	Min, Max       float64
}

func (r DispersionReport) String() string {
	return fmt.Sprintf("%d samples (%d failed): |ΔVi| mean=%.6f σ=%.6f min=%.6f max=%.6f", r.Samples, r.Failures, r.Mean, r.StdDev, r.Min, r.Max)
}

type dispersionJob struct {
	Ri, Rf *mat64.Vector
}

type dispersionResult struct {
	tr  lambert.Transfer
	err error
}

// Run solves the nominal transfer and all the samples. The nominal must be solvable.
func (d *Dispersion) Run(ctx context.Context) (report DispersionReport, err error) {
	if d.Samples <= 0 || !(d.σR > 0) {
		err = fmt.Errorf("%w: need a positive number of samples and a positive σ", lambert.ErrInvalidInput)
		return
	}
	logger := d.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	report.Nominal, err = d.solve(d.Ri, d.Rf)
	if err != nil {
		err = fmt.Errorf("nominal transfer: %w", err)
		return
	}
	jobs, err := d.draw()
	if err != nil {
		return
	}
	workers := d.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobChan := make(chan dispersionJob, workers*2)
	results := make(chan dispersionResult, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				tr, err := d.solve(job.Ri, job.Rf)
				select {
				case results <- dispersionResult{tr, err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		defer close(jobChan)
		for _, job := range jobs {
			select {
			case jobChan <- job:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	report.FailuresByKind = make(map[string]int)
	diff := mat64.NewVector(3, nil)
	for res := range results {
		report.Samples++
		kind := ErrorKind(res.err)
		if d.Metrics != nil {
			d.Metrics.observe(kind, res.tr)
		}
		if res.err != nil {
			report.Failures++
			report.FailuresByKind[kind]++
			logger.Log("level", "warning", "subsys", "dispersion", "err", res.err)
			continue
		}
		diff.SubVec(res.tr.Vi, report.Nominal.Vi)
		report.ΔVi = append(report.ΔVi, mat64.Norm(diff, 2))
	}
	if err = ctx.Err(); err != nil {
		return
	}
	if len(report.ΔVi) > 0 {
		report.Mean, report.StdDev = stat.MeanStdDev(report.ΔVi, nil)
		report.Min = floats.Min(report.ΔVi)
		report.Max = floats.Max(report.ΔVi)
	}
	logger.Log("level", "notice", "subsys", "dispersion", "samples", report.Samples, "failures", report.Failures, "mean", report.Mean, "max", report.Max)
	return
}

// draw samples all the dispersed positions up front: the random source is not safe for concurrent use.
func (d *Dispersion) draw() ([]dispersionJob, error) {
	σ2 := d.σR * d.σR
	cov := mat64.NewSymDense(6, nil)
	for i := 0; i < 6; i++ {
		cov.SetSym(i, i, σ2)
	}
	noise, ok := distmv.NewNormal(make([]float64, 6), cov, rand.New(rand.NewSource(d.Seed)))
	if !ok {
		return nil, errors.New("dispersion covariance is not positive definite")
	}
	jobs := make([]dispersionJob, d.Samples)
	for n := range jobs {
		δ := noise.Rand(nil)
		Ri := mat64.NewVector(3, nil)
		Ri.AddVec(d.Ri, mat64.NewVector(3, δ[:3]))
		Rf := mat64.NewVector(3, nil)
		Rf.AddVec(d.Rf, mat64.NewVector(3, δ[3:]))
		jobs[n] = dispersionJob{Ri, Rf}
	}
	return jobs, nil
}

// solve returns the requested branch of the transfer between Ri and Rf.
func (d *Dispersion) solve(Ri, Rf *mat64.Vector) (tr lambert.Transfer, err error) {
	sols, err := lambert.Lambert(d.Solver, d.μ, Ri, Rf, d.Δt, d.Revs, d.Options)
	if err != nil {
		return
	}
	for sols.Next() {
		tr = sols.Transfer()
		if d.Revs == 0 || tr.Branch == d.Branch {
			// Stop early: the other branch is never computed.
			return
		}
	}
	tr = lambert.Transfer{}
	if err = sols.Err(); err == nil {
		err = fmt.Errorf("no %s branch in the solutions", d.Branch)
	}
	return
}

// ErrorKind returns a short label of the error kind, used in reports and metrics.
func ErrorKind(err error) string {
	var (
		geomErr       *lambert.GeometryError
		infeasibleErr *lambert.InfeasibleSolutionError
		convErr       *lambert.NonConvergenceError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &geomErr):
		return "geometry"
	case errors.As(err, &infeasibleErr):
		return "infeasible"
	case errors.As(err, &convErr):
		return "nonconvergence"
	case errors.Is(err, lambert.ErrInvalidInput):
		return "invalid"
	default:
		return "other"
	}
}
