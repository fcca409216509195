package lambert

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// PQW2ECI returns the rotation from the perifocal frame of an orbit to the inertial frame.
// It is the 3-1-3 Euler rotation of (-Ω, -i, -ω).
func PQW2ECI(i, ω, Ω float64) *mat64.Dense {
	var r31, rot mat64.Dense
	r31.Mul(R3(-Ω), R1(-i))
	rot.Mul(&r31, R3(-ω))
	return &rot
}

// R1 rotation about the 1st axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat64.Matrix, v []float64) []float64 {
	var rVec mat64.Vector
	rVec.MulVec(m, mat64.NewVector(len(v), v))
	return []float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}
