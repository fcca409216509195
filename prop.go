package lambert

import (
	"fmt"
	"math"

	"github.com/ChristopherRabotin/ode"
	"github.com/gonum/matrix/mat64"
)

// DefaultStep is the default integration step of the two body propagation, in the time units of μ.
const DefaultStep = 1.0

// TwoBody is an ode.Integrable of the Keplerian two body problem. It integrates for a fixed number of
// uniform steps, so that the final state is exactly at the requested time.
type TwoBody struct {
	μ     float64
	R, V  []float64
	steps uint64 // number of steps to integrate
	done  uint64 // number of steps integrated
}

// NewTwoBody returns the propagation of the state (R, V) for Δt, with steps no longer than step.
func NewTwoBody(μ float64, R, V []float64, Δt, step float64) (*TwoBody, float64) {
	n := math.Ceil(Δt / step)
	if n < 1 {
		n = 1
	}
	tb := &TwoBody{μ: μ, R: make([]float64, 3), V: make([]float64, 3), steps: uint64(n)}
	copy(tb.R, R)
	copy(tb.V, V)
	return tb, Δt / n
}

// GetState implements the ode.Integrable interface.
func (tb *TwoBody) GetState() []float64 {
	return []float64{tb.R[0], tb.R[1], tb.R[2], tb.V[0], tb.V[1], tb.V[2]}
}

// SetState implements the ode.Integrable interface.
func (tb *TwoBody) SetState(t float64, s []float64) {
	copy(tb.R, s[:3])
	copy(tb.V, s[3:6])
	tb.done++
}

// Stop implements the ode.Integrable interface.
func (tb *TwoBody) Stop(t float64) bool {
	return tb.done >= tb.steps
}

// Func implements the ode.Integrable interface.
func (tb *TwoBody) Func(t float64, f []float64) (fDot []float64) {
	fDot = make([]float64, 6)
	r := norm(f[:3])
	bodyAcc := -tb.μ / (r * r * r)
	// d\vec{R}/dt
	fDot[0] = f[3]
	fDot[1] = f[4]
	fDot[2] = f[5]
	// d\vec{V}/dt
	fDot[3] = bodyAcc * f[0]
	fDot[4] = bodyAcc * f[1]
	fDot[5] = bodyAcc * f[2]
	return
}

// PropagateTwoBody integrates the state (R, V) for Δt with an RK4 of at most the provided step.
func PropagateTwoBody(μ float64, R, V *mat64.Vector, Δt, step float64) (Rf, Vf *mat64.Vector, err error) {
	if !(μ > 0) || !(Δt > 0) || !(step > 0) {
		err = invalidInputf("μ, Δt and step must be positive (μ=%g, Δt=%g, step=%g)", μ, Δt, step)
		return
	}
	tb, h := NewTwoBody(μ, vecData(R), vecData(V), Δt, step)
	ode.NewRK4(0, h, tb).Solve() // Blocking.
	if !isFinite(tb.GetState()...) {
		err = fmt.Errorf("two body propagation diverged: R=%+v V=%+v", tb.R, tb.V)
		return
	}
	Rf = mat64.NewVector(3, tb.R)
	Vf = mat64.NewVector(3, tb.V)
	return
}

// Verify propagates the departure state of the transfer for its time of flight and returns the distance between
// the propagated position and the arrival position, along with the difference in arrival velocity.
func (t Transfer) Verify(step float64) (ΔR, ΔV float64, err error) {
	if t.Vi == nil || t.Vf == nil {
		err = invalidInputf("transfer has no velocities")
		return
	}
	Rf, Vf, err := PropagateTwoBody(t.μ, mat64.NewVector(3, t.geom.R0), t.Vi, t.Δt, step)
	if err != nil {
		return
	}
	diff := mat64.NewVector(3, nil)
	diff.SubVec(Rf, mat64.NewVector(3, t.geom.R1))
	ΔR = mat64.Norm(diff, 2)
	diff.SubVec(Vf, t.Vf)
	ΔV = mat64.Norm(diff, 2)
	return
}
