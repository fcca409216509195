// Package lambert solves Lambert's boundary value problem: given two position vectors, a gravitational parameter
// and a time of flight, it finds the departure and arrival velocities of the Keplerian arc joining them.
//
// Two interchangeable algorithms implement the Solver interface: Universal, a universal variable formulation for
// zero revolution transfers, and Izzo, which also solves multiple revolution transfers. The solutions are
// returned as a lazy sequence: the right branch of a multiple revolution transfer is only computed when requested.
package lambert

import (
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
)

const (
	// DefaultTolerance is the default relative tolerance on the time of flight.
	DefaultTolerance = 1e-8
	// DefaultMaxIterations is the default iteration cap of each root finding.
	DefaultMaxIterations = 35
)

// Solver is implemented by the algorithms solving Lambert's problem.
type Solver interface {
	// Solve returns the solutions of the transfer from Ri to Rf in Δt with revs full revolutions.
	// Units are those of μ: for example km and s with μ in km^3/s^2.
	Solve(μ float64, Ri, Rf *mat64.Vector, Δt float64, revs uint, opts Options) (*Solutions, error)
}

// Lambert solves the Lambert problem with the provided solver.
func Lambert(solver Solver, μ float64, Ri, Rf *mat64.Vector, Δt float64, revs uint, opts Options) (*Solutions, error) {
	if solver == nil {
		return nil, invalidInputf("nil solver")
	}
	return solver.Solve(μ, Ri, Rf, Δt, revs, opts)
}

// SolverFromString returns the solver from its name.
func SolverFromString(name string) (Solver, error) {
	switch name {
	case "izzo", "":
		return Izzo{}, nil
	case "universal":
		return Universal{}, nil
	default:
		return nil, invalidInputf("unknown algorithm `%s`", name)
	}
}

// Options are the numerical parameters of a solve. The zero value uses the default tolerance and iteration cap.
type Options struct {
	Tolerance     float64
	MaxIterations uint
	Direction     Direction
	Logger        kitlog.Logger
}

// DefaultOptions returns the default options: prograde, relative tolerance of 1e-8, at most 35 iterations.
func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance, MaxIterations: DefaultMaxIterations, Direction: Prograde}
}

// validate returns a copy of the options with the defaults filled in.
func (o Options) validate() (Options, error) {
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if !(o.Tolerance > 0) || math.IsInf(o.Tolerance, 1) {
		return o, invalidInputf("tolerance must be positive, got %g", o.Tolerance)
	}
	if o.Direction != Prograde && o.Direction != Retrograde {
		return o, invalidInputf("unknown direction of motion %s", o.Direction)
	}
	return o, nil
}

func (o Options) logger() kitlog.Logger {
	if o.Logger == nil {
		return kitlog.NewNopLogger()
	}
	return o.Logger
}

// Branch identifies the solution of a transfer: multiple revolution transfers have a left and a right branch.
type Branch uint8

const (
	// Single is the only solution of a zero revolution transfer.
	Single Branch = iota
	// Left is the multiple revolution solution with the larger semi-major axis (x < x_Tmin).
	Left
	// Right is the multiple revolution solution with the smaller semi-major axis (x > x_Tmin).
	Right
)

func (b Branch) String() string {
	switch b {
	case Single:
		return "single"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		panic("unknown branch")
	}
}

// VelocityPair are the departure and arrival velocities.
type VelocityPair struct {
	Vi, Vf *mat64.Vector
}

// Transfer is one solution of the Lambert problem.
type Transfer struct {
	VelocityPair
	Branch      Branch
	Revolutions uint
	Variable    float64 // converged iteration variable: ψ (universal) or x (Izzo)
	Iterations  uint
	Lagrange    LagrangeCoefficients
	geom        TransferGeometry
	μ, Δt       float64
}

// Geometry returns the geometry of the transfer.
func (t Transfer) Geometry() TransferGeometry {
	return t.geom
}

func (t Transfer) String() string {
	return fmt.Sprintf("M=%d (%s) Vi=%+v Vf=%+v [%d iterations]", t.Revolutions, t.Branch, mat64.Formatted(t.Vi.T()), mat64.Formatted(t.Vf.T()), t.Iterations)
}

// Solutions is the finite, ordered sequence of the solutions of a transfer. Each solution is computed on the
// call to Next which reaches it, so a caller which stops early never pays for the remaining branches.
// It cannot be restarted.
//
//	sols, err := lambert.Lambert(lambert.Izzo{}, μ, Ri, Rf, Δt, 1, lambert.DefaultOptions())
//	for sols.Next() {
//		tr := sols.Transfer()
//	}
//	if err := sols.Err(); err != nil {
//	}
type Solutions struct {
	Geometry TransferGeometry
	Bounds   FeasibilityBounds
	pending  []func() (Transfer, error)
	cur      Transfer
	err      error
}

func newSolutions(geom TransferGeometry, bounds FeasibilityBounds, branches ...func() (Transfer, error)) *Solutions {
	return &Solutions{Geometry: geom, Bounds: bounds, pending: branches}
}

// Next computes the next solution. It returns false when the sequence is exhausted or on the first error.
func (s *Solutions) Next() bool {
	if s.err != nil || len(s.pending) == 0 {
		return false
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	s.cur, s.err = next()
	if s.err != nil {
		s.pending = nil
		s.cur = Transfer{}
		return false
	}
	return true
}

// Transfer returns the solution computed by the last call to Next.
func (s *Solutions) Transfer() Transfer {
	return s.cur
}

// Err returns the error which stopped the sequence, if any.
func (s *Solutions) Err() error {
	return s.err
}

// Remaining returns the number of solutions which have not been computed yet.
func (s *Solutions) Remaining() int {
	return len(s.pending)
}

// All computes the remaining solutions. No solution is returned if any of them fails.
func (s *Solutions) All() ([]Transfer, error) {
	var all []Transfer
	for s.Next() {
		all = append(all, s.Transfer())
	}
	if s.err != nil {
		return nil, s.err
	}
	return all, nil
}
