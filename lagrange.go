package lambert

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
)

// gε is the smallest |g| accepted, relative to the time of flight.
const gε = 1e-10

// LagrangeCoefficients are the f and g functions of a conic arc between the two positions of a transfer.
// They map the initial state to the final one: R1 = F R0 + G V0 and V1 = FDot R0 + GDot V0.
type LagrangeCoefficients struct {
	F, G, FDot, GDot float64
	geom             TransferGeometry
}

// NewLagrangeCoefficients returns the Lagrange coefficients of the transfer orbit of semi-parameter p.
// It returns a GeometryError if g is too small (relative to the time of flight) to divide by.
func NewLagrangeCoefficients(geom TransferGeometry, p, μ, Δt float64) (lc LagrangeCoefficients, err error) {
	if !(p > 0) {
		err = &GeometryError{fmt.Sprintf("non positive semi-parameter p=%g", p)}
		return
	}
	oneMinusCos := 1 - geom.cosΔθ
	lc.geom = geom
	lc.F = 1 - geom.R1n*oneMinusCos/p
	lc.G = geom.R0n * geom.R1n * geom.sinΔθ / math.Sqrt(μ*p)
	lc.GDot = 1 - geom.R0n*oneMinusCos/p
	lc.FDot = math.Sqrt(μ/p) * math.Tan(geom.Δθ/2) * (oneMinusCos/p - 1/geom.R0n - 1/geom.R1n)
	if !isFinite(lc.F, lc.G, lc.FDot, lc.GDot) {
		err = &GeometryError{fmt.Sprintf("non finite Lagrange coefficients for p=%g", p)}
		return
	}
	if math.Abs(lc.G) < gε*Δt {
		err = &GeometryError{fmt.Sprintf("Lagrange coefficient g=%g too close to zero", lc.G)}
	}
	return
}

// Velocities returns the departure and arrival velocities.
func (lc LagrangeCoefficients) Velocities() (Vi, Vf *mat64.Vector) {
	Ri := mat64.NewVector(3, lc.geom.R0)
	Rf := mat64.NewVector(3, lc.geom.R1)
	Vi = mat64.NewVector(3, nil)
	Vi.AddScaledVec(Rf, -lc.F, Ri)
	Vi.ScaleVec(1/lc.G, Vi)
	Vf = mat64.NewVector(3, nil)
	Vf.ScaleVec(lc.GDot, Rf)
	Vf.AddScaledVec(Vf, -1, Ri)
	Vf.ScaleVec(1/lc.G, Vf)
	return
}

// Determinant returns f ġ - ḟ g, which is one for a Keplerian arc.
func (lc LagrangeCoefficients) Determinant() float64 {
	return lc.F*lc.GDot - lc.FDot*lc.G
}

func (lc LagrangeCoefficients) String() string {
	return fmt.Sprintf("f=%g g=%g ḟ=%g ġ=%g", lc.F, lc.G, lc.FDot, lc.GDot)
}
