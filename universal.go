package lambert

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

const (
	// |ψ| below which the Stumpff functions use their series expansion.
	stumpffSeriesLimit = 0.1
	stumpffSeriesTerms = 9
	// Bracket of ψ for zero revolution transfers: deep hyperbolic up to one full revolution.
	universalψLow  = -1e4
	universalψHigh = 4 * math.Pi * math.Pi
)

// stumpff returns the Stumpff functions c2(ψ) and c3(ψ) along with their derivatives with respect to ψ.
func stumpff(ψ float64) (c2, c3, dc2, dc3 float64) {
	if math.Abs(ψ) < stumpffSeriesLimit {
		// c2 = Σ (-ψ)^k/(2k+2)! and c3 = Σ (-ψ)^k/(2k+3)!
		f2, f3 := 2.0, 6.0   // (2k+2)! and (2k+3)!
		pk, pkm1 := 1.0, 0.0 // (-ψ)^k and (-ψ)^(k-1)
		for k := 0; k < stumpffSeriesTerms; k++ {
			c2 += pk / f2
			c3 += pk / f3
			if k > 0 {
				dc2 -= float64(k) * pkm1 / f2
				dc3 -= float64(k) * pkm1 / f3
			}
			pkm1 = pk
			pk *= -ψ
			f2 *= float64((2*k + 3) * (2*k + 4))
			f3 *= float64((2*k + 4) * (2*k + 5))
		}
		return
	}
	if ψ > 0 {
		sψ := math.Sqrt(ψ)
		ssψ := math.Sin(sψ)
		c2 = 2 * math.Pow(math.Sin(sψ/2), 2) / ψ // 1-cos cancels close to a full revolution
		c3 = (sψ - ssψ) / (ψ * sψ)
	} else {
		sψ := math.Sqrt(-ψ)
		c2 = (1 - math.Cosh(sψ)) / ψ
		c3 = (math.Sinh(sψ) - sψ) / (-ψ * sψ)
	}
	dc2 = (1 - ψ*c3 - 2*c2) / (2 * ψ)
	dc3 = (c2 - 3*c3) / (2 * ψ)
	return
}

// Universal solves zero revolution transfers with the universal variable ψ, the square of the change in
// eccentric anomaly (Bate, Mueller & White; Vallado algorithm 58), with Newton iterations and an analytical
// derivative of the time of flight.
type Universal struct{}

// Solve implements the Solver interface. Only zero revolution transfers are supported.
func (Universal) Solve(μ float64, Ri, Rf *mat64.Vector, Δt float64, revs uint, opts Options) (*Solutions, error) {
	if revs > 0 {
		return nil, invalidInputf("universal variable solver only supports zero revolution transfers, got M=%d", revs)
	}
	opts, err := opts.validate()
	if err != nil {
		return nil, err
	}
	geom, err := NewTransferGeometry(Ri, Rf, opts.Direction)
	if err != nil {
		return nil, err
	}
	bounds, err := NewFeasibilityBounds(geom, μ, Δt, revs, opts)
	if err != nil {
		return nil, err
	}
	branch := func() (Transfer, error) {
		return solveUniversal(geom, bounds, μ, Δt, opts)
	}
	return newSolutions(geom, bounds, branch), nil
}

func (Universal) String() string {
	return "universal"
}

// universalTOF returns y(ψ), the time of flight for ψ, and dt/dψ. The time of flight is not defined when y < 0.
func universalTOF(geom TransferGeometry, μ, ψ float64) (y, t, dt float64) {
	A := geom.A()
	c2, c3, dc2, dc3 := stumpff(ψ)
	sc2 := math.Sqrt(c2)
	y = geom.R0n + geom.R1n + A*(ψ*c3-1)/sc2
	if y < 0 || (A > 0 && y == 0) {
		return y, math.NaN(), math.NaN()
	}
	sμ := math.Sqrt(μ)
	sy := math.Sqrt(y)
	dy := A * ((c3+ψ*dc3)/sc2 - (ψ*c3-1)*dc2/(2*c2*sc2))
	χ3 := math.Pow(y/c2, 1.5)
	t = (χ3*c3 + A*sy) / sμ
	dt = (1.5*math.Sqrt(y/c2)*(dy*c2-y*dc2)/(c2*c2)*c3 + χ3*dc3 + A*dy/(2*sy)) / sμ
	return
}

func solveUniversal(geom TransferGeometry, bounds FeasibilityBounds, μ, Δt float64, opts Options) (tr Transfer, err error) {
	finder := rootFinder{
		subject:    "universal variable",
		method:     newton,
		lo:         universalψLow,
		hi:         universalψHigh,
		increasing: true,
		tol:        opts.Tolerance,
		maxIter:    opts.MaxIterations,
		maxStep:    4 * math.Pi,
		logger:     opts.logger(),
	}
	// ψ = 0 is the parabola: the energy of the transfer gives the half of the bracket to search.
	if Δt > bounds.TParabolic {
		finder.lo = 0
	} else {
		finder.hi = 0
	}
	ψ, iter, err := finder.find(0, func(ψ float64) (f, df, d2f, d3f float64) {
		_, t, dt := universalTOF(geom, μ, ψ)
		if math.IsNaN(t) {
			// y < 0 only happens below the root: move up.
			return -1, 0, 0, 0
		}
		return t/Δt - 1, dt / Δt, 0, 0
	})
	if err != nil {
		return
	}
	y, _, _ := universalTOF(geom, μ, ψ)
	p := geom.R0n * geom.R1n * (1 - geom.cosΔθ) / y
	lc, err := NewLagrangeCoefficients(geom, p, μ, Δt)
	if err != nil {
		return
	}
	Vi, Vf := lc.Velocities()
	tr = Transfer{
		Branch:      Single,
		Revolutions: 0,
		VelocityPair: VelocityPair{
			Vi: Vi,
			Vf: Vf,
		},
		Variable:   ψ,
		Iterations: iter,
		Lagrange:   lc,
		geom:       geom,
		μ:          μ,
		Δt:         Δt,
	}
	return
}
