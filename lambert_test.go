package lambert

import (
	"fmt"
	"math"
	"strings"
	"testing"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/require"
)

// velocityWithin returns whether each component of v is within tol of exp.
func velocityWithin(v *mat64.Vector, exp []float64, tol float64) bool {
	if v == nil || v.Len() != len(exp) {
		return false
	}
	for i := range exp {
		if !floats.EqualWithinAbs(v.At(i, 0), exp[i], tol) {
			return false
		}
	}
	return true
}

type lambertCase struct {
	name   string
	Ri, Rf []float64
	Δt     float64
	revs   uint
	dir    Direction
	Vi, Vf []float64 // expected velocities of each branch, in order
	tolVi  float64
	tolVf  float64
}

func (c lambertCase) check(t *testing.T, solver Solver, branch int, tr Transfer) {
	if !velocityWithin(tr.Vi, c.Vi[3*branch:3*branch+3], c.tolVi) {
		t.Fatalf("[%s/%s] %s Vi=%+v expected %v", solver, c.name, tr.Branch, mat64.Formatted(tr.Vi.T()), c.Vi[3*branch:3*branch+3])
	}
	if !velocityWithin(tr.Vf, c.Vf[3*branch:3*branch+3], c.tolVf) {
		t.Fatalf("[%s/%s] %s Vf=%+v expected %v", solver, c.name, tr.Branch, mat64.Formatted(tr.Vf.T()), c.Vf[3*branch:3*branch+3])
	}
}

var zeroRevCases = []lambertCase{
	{
		// Vallado 4th edition, example 7-5
		name: "vallado", Ri: []float64{15945.34, 0, 0}, Rf: []float64{12214.83399, 10249.46731, 0}, Δt: 76 * 60,
		Vi: []float64{2.058925, 2.915956, 0}, Vf: []float64{-3.451569, 0.910301, 0}, tolVi: 1.5e-4, tolVf: 1.5e-5,
	},
	{
		// Vallado 4th edition, long way by retrograde motion
		name: "vallado retrograde", Ri: []float64{15945.34, 0, 0}, Rf: []float64{12214.83899, 10249.46731, 0}, Δt: 76 * 60, dir: Retrograde,
		Vi: []float64{-3.811158, -2.003854, 0}, Vf: []float64{4.207569, 0.914724, 0}, tolVi: 1.5e-5, tolVf: 1.5e-5,
	},
	{
		// Curtis, example 5.2
		name: "curtis 5.2", Ri: []float64{5000, 10000, 2100}, Rf: []float64{-14600, 2500, 7000}, Δt: 3600,
		Vi: []float64{-5.9925, 1.9254, 3.2456}, Vf: []float64{-3.3125, -4.1966, -0.38529}, tolVi: 1.5e-4, tolVf: 1.5e-4,
	},
	{
		// Curtis, example 5.3
		name: "curtis 5.3", Ri: []float64{273378, 0, 0}, Rf: []float64{145820, 12758, 0}, Δt: 13.5 * 3600,
		Vi: []float64{-2.4356, 0.26741, 0}, Vf: []float64{-2.910884, 0.246670, 0}, tolVi: 1.5e-3, tolVf: 1.5e-5,
	},
	{
		name: "izzo", Ri: vecData(multiRevRi), Rf: vecData(multiRevRf), Δt: 10 * 3600,
		Vi: []float64{2.000652697, 0.387688615, -2.666947760}, Vf: []float64{-3.79246619, -1.77707641, 6.856814395}, tolVi: 1.5e-3, tolVf: 1.5e-4,
	},
}

func TestLambertZeroRevolution(t *testing.T) {
	for _, solver := range []Solver{Universal{}, Izzo{}} {
		for _, c := range zeroRevCases {
			opts := DefaultOptions()
			opts.Direction = c.dir
			sols, err := Lambert(solver, Earth.GM(), mat64.NewVector(3, c.Ri), mat64.NewVector(3, c.Rf), c.Δt, 0, opts)
			require.NoError(t, err, c.name)
			if sols.Remaining() != 1 {
				t.Fatalf("[%s/%s] %d solutions", solver, c.name, sols.Remaining())
			}
			transfers, err := sols.All()
			require.NoError(t, err, c.name)
			tr := transfers[0]
			if tr.Branch != Single || tr.Revolutions != 0 || tr.Iterations == 0 {
				t.Fatalf("[%s/%s] unexpected transfer %s", solver, c.name, tr)
			}
			c.check(t, solver, 0, tr)
			if !floats.EqualWithinAbs(tr.Lagrange.Determinant(), 1, 1e-6) {
				t.Fatalf("[%s/%s] f ġ - ḟ g = %f", solver, c.name, tr.Lagrange.Determinant())
			}
			t.Logf("[OK] %s/%s: %s", solver, c.name, tr)
		}
	}
}

func TestLambertMultiRevolution(t *testing.T) {
	c := lambertCase{
		name: "izzo M=1", Ri: vecData(multiRevRi), Rf: vecData(multiRevRf), Δt: 10 * 3600, revs: 1,
		Vi:    []float64{0.50335770, 0.61869408, -1.57176904, -2.45759553, 1.16945801, 0.43161258},
		Vf:    []float64{-4.18334626, -1.13262727, 6.13307091, -5.53841370, 0.01822220, 5.49641054},
		tolVi: 1.5e-3, tolVf: 1.5e-4,
	}
	sols, err := Lambert(Izzo{}, Earth.GM(), multiRevRi, multiRevRf, c.Δt, c.revs, DefaultOptions())
	require.NoError(t, err)
	branch := 0
	for sols.Next() {
		tr := sols.Transfer()
		if tr.Revolutions != 1 {
			t.Fatalf("M=%d", tr.Revolutions)
		}
		c.check(t, Izzo{}, branch, tr)
		branch++
	}
	require.NoError(t, sols.Err())
	if branch != 2 {
		t.Fatalf("expected two solutions, got %d", branch)
	}
	// Exhausted sequences cannot be restarted.
	if sols.Next() || sols.Remaining() != 0 {
		t.Fatal("sequence restarted")
	}
}

func TestLambertInfeasible(t *testing.T) {
	_, err := Lambert(Izzo{}, Earth.GM(), multiRevRi, multiRevRf, 5*3600, 1, DefaultOptions())
	var infErr *InfeasibleSolutionError
	require.ErrorAs(t, err, &infErr)
	if !strings.Contains(err.Error(), "no feasible solution for M=1, try M<=0") {
		t.Fatalf("unexpected message: %s", err)
	}
}

// recordingLogger records the solver of each converged root finding.
type recordingLogger struct {
	converged []string
}

func (l *recordingLogger) Log(keyvals ...interface{}) error {
	var solver, status string
	for i := 0; i+1 < len(keyvals); i += 2 {
		switch keyvals[i] {
		case "solver":
			solver = fmt.Sprintf("%v", keyvals[i+1])
		case "status":
			status = fmt.Sprintf("%v", keyvals[i+1])
		}
	}
	if status == "converged" {
		l.converged = append(l.converged, solver)
	}
	return nil
}

func TestLambertLazyBranches(t *testing.T) {
	rec := &recordingLogger{}
	opts := DefaultOptions()
	opts.Logger = rec
	sols, err := Lambert(Izzo{}, Earth.GM(), multiRevRi, multiRevRf, 10*3600, 1, opts)
	require.NoError(t, err)
	// Only the minimum time of flight is computed on Solve.
	if len(rec.converged) != 1 || !strings.HasPrefix(rec.converged[0], "minimum time of flight") {
		t.Fatalf("converged on Solve: %v", rec.converged)
	}
	if !sols.Next() {
		t.Fatalf("err %s", sols.Err())
	}
	if sols.Transfer().Branch != Left || sols.Remaining() != 1 {
		t.Fatalf("first solution %s with %d remaining", sols.Transfer().Branch, sols.Remaining())
	}
	for _, subject := range rec.converged {
		if strings.Contains(subject, "right") {
			t.Fatalf("right branch computed before it was requested: %v", rec.converged)
		}
	}
	if !sols.Next() || sols.Transfer().Branch != Right {
		t.Fatalf("second solution missing: %v", sols.Err())
	}
	if len(rec.converged) != 3 {
		t.Fatalf("converged: %v", rec.converged)
	}
}

func TestLambertNonConvergence(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = 1
	for _, solver := range []Solver{Universal{}, Izzo{}} {
		sols, err := Lambert(solver, Earth.GM(), mat64.NewVector(3, []float64{5000, 10000, 2100}), mat64.NewVector(3, []float64{-14600, 2500, 7000}), 3600, 0, opts)
		require.NoError(t, err)
		if sols.Next() {
			t.Fatalf("[%s] converged in one iteration", solver)
		}
		var convErr *NonConvergenceError
		require.ErrorAs(t, sols.Err(), &convErr)
		if convErr.Iterations != 1 || sols.Remaining() != 0 {
			t.Fatalf("[%s] %s", solver, convErr)
		}
		_, err = sols.All()
		require.ErrorAs(t, err, &convErr)
	}
}

func TestLambertAgreement(t *testing.T) {
	Ri := mat64.NewVector(3, []float64{7000, 1000, -500})
	for _, Rf := range [][]float64{{-2000, 9000, 1500}, {-12000, -3000, 2000}, {3000, -8000, 800}} {
		for _, dir := range []Direction{Prograde, Retrograde} {
			for _, Δt := range []float64{1200, 3600, 3 * 3600} {
				opts := DefaultOptions()
				opts.Direction = dir
				var results [2]Transfer
				for i, solver := range []Solver{Universal{}, Izzo{}} {
					sols, err := Lambert(solver, Earth.GM(), Ri, mat64.NewVector(3, Rf), Δt, 0, opts)
					require.NoError(t, err)
					all, err := sols.All()
					require.NoError(t, err, "%s %v %s %f", solver, Rf, dir, Δt)
					results[i] = all[0]
				}
				if !mat64.EqualApprox(results[0].Vi, results[1].Vi, 1e-6) || !mat64.EqualApprox(results[0].Vf, results[1].Vf, 1e-6) {
					t.Fatalf("%v %s %fs: universal %s != izzo %s", Rf, dir, Δt, results[0], results[1])
				}
			}
		}
	}
}

func TestLambertEnergy(t *testing.T) {
	// Up to the minimum energy transfer, longer flights on the short way leave slower.
	Ri := mat64.NewVector(3, []float64{15945.34, 0, 0})
	Rf := mat64.NewVector(3, []float64{12214.83399, 10249.46731, 0})
	prev := math.Inf(1)
	for _, Δt := range []float64{600, 1200, 2400, 4560} {
		sols, err := Lambert(Izzo{}, Earth.GM(), Ri, Rf, Δt, 0, DefaultOptions())
		require.NoError(t, err)
		all, err := sols.All()
		require.NoError(t, err)
		v := mat64.Norm(all[0].Vi, 2)
		if v >= prev {
			t.Fatalf("|Vi|=%f for %fs is not slower than %f", v, Δt, prev)
		}
		prev = v
	}
}

func TestLambertInvalid(t *testing.T) {
	Ri := mat64.NewVector(3, []float64{15945.34, 0, 0})
	Rf := mat64.NewVector(3, []float64{12214.83399, 10249.46731, 0})
	_, err := Lambert(nil, Earth.GM(), Ri, Rf, 3600, 0, DefaultOptions())
	require.ErrorIs(t, err, ErrInvalidInput)
	for _, solver := range []Solver{Universal{}, Izzo{}} {
		for name, opts := range map[string]Options{
			"negative tolerance": {Tolerance: -1},
			"nan tolerance":      {Tolerance: math.NaN()},
			"inf tolerance":      {Tolerance: math.Inf(1)},
			"direction":          {Direction: Direction(7)},
		} {
			_, err = Lambert(solver, Earth.GM(), Ri, Rf, 3600, 0, opts)
			require.ErrorIs(t, err, ErrInvalidInput, name)
		}
		_, err = Lambert(solver, Earth.GM(), Ri, Rf, -3600, 0, DefaultOptions())
		require.ErrorIs(t, err, ErrInvalidInput)
		_, err = Lambert(solver, 0, Ri, Rf, 3600, 0, DefaultOptions())
		require.ErrorIs(t, err, ErrInvalidInput)
		var geomErr *GeometryError
		_, err = Lambert(solver, Earth.GM(), Ri, mat64.NewVector(3, []float64{-20000, 0, 0}), 3600, 0, DefaultOptions())
		require.ErrorAs(t, err, &geomErr)
	}
}

func TestOptions(t *testing.T) {
	opts, err := Options{}.validate()
	require.NoError(t, err)
	if opts.Tolerance != DefaultTolerance || opts.MaxIterations != DefaultMaxIterations || opts.Direction != Prograde {
		t.Fatalf("zero options not defaulted: %+v", opts)
	}
	if opts.logger() == nil {
		t.Fatal("nil logger should be replaced")
	}
	opts.Logger = kitlog.NewNopLogger()
	if opts.logger() != opts.Logger {
		t.Fatal("logger was replaced")
	}
	if DefaultOptions() != (Options{Tolerance: 1e-8, MaxIterations: 35}) {
		t.Fatalf("%+v", DefaultOptions())
	}
}

func TestSolverFromString(t *testing.T) {
	for name, exp := range map[string]Solver{"": Izzo{}, "izzo": Izzo{}, "universal": Universal{}} {
		solver, err := SolverFromString(name)
		require.NoError(t, err)
		if solver != exp {
			t.Fatalf("`%s` -> %s", name, solver)
		}
	}
	_, err := SolverFromString("gauss")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestBranchString(t *testing.T) {
	for b, exp := range map[Branch]string{Single: "single", Left: "left", Right: "right"} {
		if b.String() != exp {
			t.Fatalf("%s != %s", b, exp)
		}
	}
	require.Panics(t, func() { _ = Branch(9).String() })
}
