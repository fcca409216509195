package lambert

import (
	"fmt"
	"math"
	"time"

	"github.com/gonum/floats"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
)

// Orbit defines the conic of a transfer via its orbital elements.
type Orbit struct {
	a, e, i, Ω, ω, ν float64
	μ                float64
	R, V             []float64
}

// Energyξ returns the specific mechanical energy ξ.
func (o Orbit) Energyξ() float64 {
	return -o.μ / (2 * o.a)
}

// SemiParameter returns the semi parameter, also for hyperbolic orbits (where a < 0).
func (o Orbit) SemiParameter() float64 {
	return o.a * (1 - o.e*o.e)
}

// Apoapsis returns the apoapsis, which is infinite for open orbits.
func (o Orbit) Apoapsis() float64 {
	if o.e >= 1 {
		return math.Inf(1)
	}
	return o.a * (1 + o.e)
}

// Periapsis returns the periapsis.
func (o Orbit) Periapsis() float64 {
	return o.SemiParameter() / (1 + o.e)
}

// Period returns the period of this orbit, zero for open orbits.
func (o Orbit) Period() time.Duration {
	if o.e >= 1 {
		return 0
	}
	seconds := 2 * math.Pi * math.Sqrt(math.Pow(o.a, 3)/o.μ)
	return time.Duration(seconds * float64(time.Second))
}

// Elements returns the classical orbital elements, angles in radians.
func (o Orbit) Elements() (a, e, i, Ω, ω, ν float64) {
	return o.a, o.e, o.i, o.Ω, o.ω, o.ν
}

// String implements the stringer interface (hence the value receiver)
func (o Orbit) String() string {
	if o.e < eccentricityε {
		// Circular orbit
		return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f u=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω+o.ν))
	}
	return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.ν))
}

// NewOrbitFromRV returns orbital elements from the R and V vectors.
// Equatorial orbits have Ω=0 and ω measured from the X axis; circular orbits have ω=0.
func NewOrbitFromRV(R, V []float64, μ float64) *Orbit {
	// From Vallado's RV2COE, page 113
	hVec := cross(R, V)
	n := cross([]float64{0, 0, 1}, hVec)
	v := norm(V)
	r := norm(R)
	ξ := (v*v)/2 - μ/r
	a := -μ / (2 * ξ)
	eVec := make([]float64, 3, 3)
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-μ/r)*R[i] - dot(R, V)*V[i]) / μ
	}
	e := norm(eVec)
	i := math.Acos(hVec[2] / norm(hVec))
	equatorial := i < angleε || math.Pi-i < angleε
	circular := e < eccentricityε

	var Ω, ω float64
	if !equatorial {
		Ω = math.Acos(clampCos(n[0] / norm(n)))
		if n[1] < 0 {
			Ω = 2*math.Pi - Ω
		}
	}
	switch {
	case circular:
		ω = 0
	case equatorial:
		ω = math.Atan2(eVec[1], eVec[0])
		if hVec[2] < 0 {
			ω = -ω
		}
	default:
		ω = math.Acos(clampCos(dot(n, eVec) / (norm(n) * e)))
		if eVec[2] < 0 {
			ω = 2*math.Pi - ω
		}
	}

	var ν float64
	if circular {
		// Argument of latitude, or true longitude when equatorial.
		ref := unit(n)
		if equatorial {
			ref = []float64{1, 0, 0}
		}
		ν = math.Acos(clampCos(dot(ref, R) / r))
		if (equatorial && R[1]*sign(hVec[2]) < 0) || (!equatorial && R[2] < 0) {
			ν = 2*math.Pi - ν
		}
	} else {
		ν = math.Acos(clampCos(dot(eVec, R) / (e * r)))
		if dot(R, V) < 0 {
			ν = 2*math.Pi - ν
		}
	}
	// Fix rounding errors.
	i = math.Mod(i, 2*math.Pi)
	Ω = math.Mod(Ω+2*math.Pi, 2*math.Pi)
	ω = math.Mod(ω+2*math.Pi, 2*math.Pi)
	ν = math.Mod(ν, 2*math.Pi)

	return &Orbit{a: a, e: e, i: i, Ω: Ω, ω: ω, ν: ν, μ: μ, R: R, V: V}
}

// RV returns the position and velocity on this conic at the true anomaly ν (in radians). For circular orbits, ν is
// the argument of latitude (or the true longitude when also equatorial), as returned by Elements.
func (o Orbit) RV(ν float64) (R, V []float64) {
	p := o.SemiParameter()
	sinν, cosν := math.Sincos(ν)
	R = []float64{p * cosν / (1 + o.e*cosν), p * sinν / (1 + o.e*cosν), 0}
	V = []float64{-math.Sqrt(o.μ/p) * sinν, math.Sqrt(o.μ/p) * (o.e + cosν), 0}
	rot := PQW2ECI(o.i, o.ω, o.Ω)
	return MxV33(rot, R), MxV33(rot, V)
}

// clampCos brings a cosine which is off by a rounding error back into [-1, 1].
func clampCos(cosθ float64) float64 {
	if abscosθ := math.Abs(cosθ); abscosθ > 1 && floats.EqualWithinAbs(abscosθ, 1, 1e-12) {
		return sign(cosθ) // acos would return NaN
	}
	return cosθ
}

// Orbit returns the transfer orbit at departure.
func (t Transfer) Orbit() *Orbit {
	return NewOrbitFromRV(t.geom.R0, vecData(t.Vi), t.μ)
}
