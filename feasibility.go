package lambert

import (
	"fmt"
	"math"
)

// ParabolicTOF returns the time of flight of the zero revolution parabolic transfer for this geometry,
// i.e. the boundary between elliptical and hyperbolic transfers (Lancaster & Blanchard).
func ParabolicTOF(geom TransferGeometry, μ float64) float64 {
	return math.Sqrt2 / 3 * (math.Pow(geom.S, 1.5) - geom.tm*math.Pow(geom.S-geom.Chord, 1.5)) / math.Sqrt(μ)
}

// FeasibilityBounds stores the time of flight boundaries of a transfer, for the requested number of revolutions.
// Non-dimensional times are scaled by √(2μ/s³).
type FeasibilityBounds struct {
	TParabolic     float64 // parabolic time of flight, in the units of μ
	T              float64 // requested non-dimensional time of flight
	Revolutions    uint    // requested number of revolutions
	MaxRevolutions uint    // largest number of revolutions which reaches the requested time of flight
	TMin           float64 // non-dimensional minimum time of flight for Revolutions, only set when Revolutions > 0
	XTmin          float64 // x at which TMin occurs, splits the left and right branches
	scale          float64 // seconds per non-dimensional time unit
}

// NewFeasibilityBounds computes the feasibility boundaries of the transfer. It returns an InfeasibleSolutionError
// if the requested time of flight cannot be reached in revs revolutions.
func NewFeasibilityBounds(geom TransferGeometry, μ, Δt float64, revs uint, opts Options) (b FeasibilityBounds, err error) {
	if !(μ > 0) || !(Δt > 0) || !isFinite(μ, Δt) {
		err = invalidInputf("μ and Δt must be positive (μ=%g, Δt=%g)", μ, Δt)
		return
	}
	b.TParabolic = ParabolicTOF(geom, μ)
	b.scale = math.Sqrt(math.Pow(geom.S, 3) / (2 * μ))
	b.T = Δt / b.scale
	b.Revolutions = revs
	λ := geom.λ
	Mmax := math.Floor(b.T / math.Pi)
	if !isFinite(Mmax) || Mmax > math.MaxUint32 {
		err = invalidInputf("time of flight too long for geometry (T=%g)", b.T)
		return
	}
	b.MaxRevolutions = uint(Mmax)
	// Zero revolution time of flight for x = 0, i.e. the minimum energy transfer.
	T00 := math.Acos(λ) + λ*math.Sqrt(1-λ*λ)
	if b.MaxRevolutions > 0 && b.T < T00+Mmax*math.Pi {
		xMin, tMin, tErr := minimumTOF(λ, b.MaxRevolutions, opts)
		if tErr != nil {
			err = tErr
			return
		}
		if b.T < tMin {
			b.MaxRevolutions--
		} else if b.MaxRevolutions == revs {
			b.XTmin, b.TMin = xMin, tMin
		}
	}
	if revs > b.MaxRevolutions {
		err = &InfeasibleSolutionError{Revolutions: revs, MaxRevolutions: b.MaxRevolutions, TOF: Δt}
		return
	}
	if revs > 0 && b.TMin == 0 {
		b.XTmin, b.TMin, err = minimumTOF(λ, revs, opts)
	}
	opts.logger().Log("level", "debug", "subsys", "lambert", "T", b.T, "M", revs, "Mmax", b.MaxRevolutions, "Tmin", b.TMin)
	return
}

// MinimumTOF returns the minimum time of flight for the requested number of revolutions, in the units of μ.
// It is zero for zero revolution transfers.
func (b FeasibilityBounds) MinimumTOF() float64 {
	return b.TMin * b.scale
}

func (b FeasibilityBounds) String() string {
	return fmt.Sprintf("T=%.6f M=%d Mmax=%d Tmin=%.6f (x=%.6f) Tparabolic=%.3f", b.T, b.Revolutions, b.MaxRevolutions, b.TMin, b.XTmin, b.TParabolic)
}

// minimumTOF returns the stationary point of the non-dimensional time of flight of M revolutions,
// found with Halley iterations on dT/dx which increases through zero on (-1, 1).
func minimumTOF(λ float64, M uint, opts Options) (x, T float64, err error) {
	finder := rootFinder{
		subject:    fmt.Sprintf("minimum time of flight (M=%d)", M),
		method:     halley,
		lo:         -1,
		hi:         1,
		increasing: true,
		tol:        opts.Tolerance,
		maxIter:    opts.MaxIterations,
		maxStep:    0.5,
		logger:     opts.logger(),
	}
	x, _, err = finder.find(0.1, func(x float64) (f, df, d2f, d3f float64) {
		y, T := izzoTOF(x, λ, M)
		f, df, d2f = izzoDerivatives(x, y, T, λ)
		return
	})
	if err != nil {
		return
	}
	_, T = izzoTOF(x, λ, M)
	return
}
