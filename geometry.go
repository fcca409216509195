package lambert

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
)

// collinearε is the sine of the smallest transfer angle, 0.00005 degrees.
var collinearε = math.Sin(Deg2rad(5e-5))

// Direction is the direction of motion of the transfer.
type Direction uint8

const (
	// Prograde is counter-clockwise motion seen from the +Z half space.
	Prograde Direction = iota
	// Retrograde is clockwise motion seen from the +Z half space.
	Retrograde
)

func (d Direction) String() string {
	switch d {
	case Prograde:
		return "prograde"
	case Retrograde:
		return "retrograde"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// DirectionFromString returns the direction of motion from its name.
func DirectionFromString(name string) (Direction, error) {
	switch name {
	case "", "prograde":
		return Prograde, nil
	case "retrograde":
		return Retrograde, nil
	default:
		return Prograde, invalidInputf("unknown direction of motion `%s`", name)
	}
}

// TransferGeometry stores the geometry of the transfer between two position vectors.
type TransferGeometry struct {
	R0, R1    []float64 // initial and final position vectors
	R0n, R1n  float64   // norms of the position vectors
	Chord     float64
	S         float64 // semi-perimeter
	Δθ        float64 // transfer angle, in (0, 2π)
	Direction Direction
	cosΔθ     float64
	sinΔθ     float64
	tm        float64 // +1 when Δθ < π (short way), -1 otherwise
	λ         float64 // Izzo's λ, signed as tm
}

// NewTransferGeometry resolves the transfer geometry between Ri and Rf.
// The transfer angle is measured in the direction of motion: for a prograde transfer, the long way is used
// when the Z component of Ri x Rf is negative. A null Z component (polar transfer plane) counts as positive.
func NewTransferGeometry(Ri, Rf *mat64.Vector, dir Direction) (g TransferGeometry, err error) {
	if Ri == nil || Rf == nil {
		err = &GeometryError{"nil position vector"}
		return
	}
	Rir, Ric := Ri.Dims()
	Rfr, Rfc := Rf.Dims()
	if Rir != 3 || Rfr != 3 || Ric != 1 || Rfc != 1 {
		err = &GeometryError{"initial and final radii must be 3x1 vectors"}
		return
	}
	if dir != Prograde && dir != Retrograde {
		err = invalidInputf("unknown direction of motion %s", dir)
		return
	}
	R0 := vecData(Ri)
	R1 := vecData(Rf)
	g.R0, g.R1 = R0, R1
	g.R0n = norm(R0)
	g.R1n = norm(R1)
	if !isFinite(g.R0n, g.R1n) {
		err = invalidInputf("position vectors must be finite")
		return
	}
	if g.R0n == 0 || g.R1n == 0 {
		err = &GeometryError{"zero length position vector"}
		return
	}
	h := cross(R0, R1)
	// atan2 keeps the precision near 0 and π where acos does not.
	g.Δθ = math.Atan2(norm(h), dot(R0, R1))
	if math.Sin(g.Δθ) < collinearε {
		err = &GeometryError{fmt.Sprintf("position vectors are collinear (Δθ=%f deg)", Rad2deg(g.Δθ))}
		return
	}
	longWay := h[2] < 0
	if dir == Retrograde {
		longWay = !longWay
	}
	if longWay {
		g.Δθ = 2*math.Pi - g.Δθ
	}
	g.Direction = dir
	g.sinΔθ, g.cosΔθ = math.Sincos(g.Δθ)
	g.tm = 1
	if g.Δθ > math.Pi {
		g.tm = -1
	}
	g.Chord = math.Sqrt(math.Pow(R1[0]-R0[0], 2) + math.Pow(R1[1]-R0[1], 2) + math.Pow(R1[2]-R0[2], 2))
	g.S = (g.R0n + g.R1n + g.Chord) / 2
	g.λ = g.tm * math.Sqrt(1-math.Min(1, g.Chord/g.S))
	return
}

// LongWay returns whether the transfer angle is larger than π.
func (g TransferGeometry) LongWay() bool {
	return g.tm < 0
}

// A returns the A constant of the universal variable formulation (cf. Vallado, algorithm 58).
func (g TransferGeometry) A() float64 {
	return g.tm * math.Sqrt(g.R0n*g.R1n*(1+g.cosΔθ))
}

// Lambda returns Izzo's λ parameter, in (-1, 1).
func (g TransferGeometry) Lambda() float64 {
	return g.λ
}

func (g TransferGeometry) String() string {
	way := "short"
	if g.LongWay() {
		way = "long"
	}
	return fmt.Sprintf("r0=%.3f r1=%.3f c=%.3f s=%.3f Δθ=%.3f deg (%s, %s way)", g.R0n, g.R1n, g.Chord, g.S, g.Δθ/deg2rad, g.Direction, way)
}
