package lambert

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
)

const hyp2f1MaxTerms = 1000

// Izzo solves single and multiple revolution transfers on Izzo's x variable (Izzo, 2015, "Revisiting
// Lambert's problem"), with Householder iterations. Multiple revolution transfers have two solutions: the left
// branch (x < x_Tmin) is returned first, then the right branch (x > x_Tmin).
type Izzo struct{}

// Solve implements the Solver interface.
func (Izzo) Solve(μ float64, Ri, Rf *mat64.Vector, Δt float64, revs uint, opts Options) (*Solutions, error) {
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
	T := bounds.T
	λ := geom.λ
	if revs == 0 {
		// Izzo's interpolation between the minimum energy (T00) and the T1 = T(x=1) regimes.
		T0 := math.Acos(λ) + λ*math.Sqrt(1-λ*λ)
		T1 := 2 * (1 - λ*λ*λ) / 3
		var x0 float64
		switch {
		case T >= T0:
			x0 = math.Pow(T0/T, 2./3) - 1
		case T < T1:
			x0 = 2.5*T1/T*(T1-T)/(1-math.Pow(λ, 5)) + 1
		default:
			x0 = math.Pow(T0/T, math.Log2(T1/T0)) - 1
		}
		single := izzoBranch{Branch: Single, x0: x0, lo: -1, hi: math.Inf(1)}
		return newSolutions(geom, bounds, single.solver(geom, bounds, μ, Δt, opts)), nil
	}
	M := float64(revs)
	a := math.Pow((M*math.Pi+math.Pi)/(8*T), 2./3)
	b := math.Pow(8*T/(M*math.Pi), 2./3)
	left := izzoBranch{Branch: Left, x0: (a - 1) / (a + 1), lo: -1, hi: bounds.XTmin}
	right := izzoBranch{Branch: Right, x0: (b - 1) / (b + 1), lo: bounds.XTmin, hi: 1, increasing: true}
	return newSolutions(geom, bounds, left.solver(geom, bounds, μ, Δt, opts), right.solver(geom, bounds, μ, Δt, opts)), nil
}

func (Izzo) String() string {
	return "izzo"
}

// izzoBranch is the bracket of x on which the time of flight is monotonic, with the initial guess.
type izzoBranch struct {
	Branch
	x0, lo, hi float64
	increasing bool // whether T(x) increases on the bracket
}

// solver returns the deferred root finding of this branch.
func (br izzoBranch) solver(geom TransferGeometry, bounds FeasibilityBounds, μ, Δt float64, opts Options) func() (Transfer, error) {
	return func() (tr Transfer, err error) {
		if !(br.x0 > br.lo && br.x0 < br.hi) {
			if math.IsInf(br.hi, 1) {
				br.x0 = br.lo + 1
			} else {
				br.x0 = br.lo + (br.hi-br.lo)/2
			}
		}
		λ, T, M := geom.λ, bounds.T, bounds.Revolutions
		finder := rootFinder{
			subject:    fmt.Sprintf("izzo %s branch (M=%d)", br.Branch, M),
			method:     householder,
			lo:         br.lo,
			hi:         br.hi,
			increasing: br.increasing,
			tol:        opts.Tolerance,
			maxIter:    opts.MaxIterations,
			maxStep:    0.5,
			logger:     opts.logger(),
		}
		x, iter, err := finder.find(br.x0, func(x float64) (f, df, d2f, d3f float64) {
			y, Tx := izzoTOF(x, λ, M)
			df, d2f, d3f = izzoDerivatives(x, y, Tx, λ)
			return Tx/T - 1, df / T, d2f / T, d3f / T
		})
		if err != nil {
			return
		}
		// Angular momentum of the transfer orbit, from the radial and tangential velocity components.
		y := math.Sqrt(1 - λ*λ*(1-x*x))
		γ := math.Sqrt(μ * geom.S / 2)
		ρ := (geom.R0n - geom.R1n) / geom.Chord
		σ := math.Sqrt(1 - ρ*ρ)
		h := γ * σ * (y + λ*x)
		lc, err := NewLagrangeCoefficients(geom, h*h/μ, μ, Δt)
		if err != nil {
			return
		}
		Vi, Vf := lc.Velocities()
		tr = Transfer{
			Branch:       br.Branch,
			Revolutions:  M,
			VelocityPair: VelocityPair{Vi: Vi, Vf: Vf},
			Variable:     x,
			Iterations:   iter,
			Lagrange:     lc,
			geom:         geom,
			μ:            μ,
			Δt:           Δt,
		}
		return
	}
}

// izzoTOF returns y(x) and the non-dimensional time of flight T(x) of M revolutions.
// Close to the parabola (x=1) of zero revolution transfers, the time of flight is computed from Battin's
// hypergeometric series to avoid the cancellation of the closed form.
func izzoTOF(x, λ float64, M uint) (y, T float64) {
	y = math.Sqrt(1 - λ*λ*(1-x*x))
	if M == 0 && x > math.Sqrt(0.6) && x < math.Sqrt(1.4) {
		η := y - λ*x
		S1 := (1 - λ - x*η) / 2
		Q := 4. / 3 * hyp2f1b(S1)
		T = (η*η*η*Q + 4*λ*η) / 2
		return
	}
	oneMinusX2 := 1 - x*x
	var ψ float64
	switch {
	case x < 1:
		ψ = math.Acos(math.Max(-1, math.Min(1, x*y+λ*oneMinusX2)))
	case x > 1:
		ψ = math.Asinh((y - x*λ) * math.Sqrt(x*x-1))
	}
	T = ((ψ+float64(M)*math.Pi)/math.Sqrt(math.Abs(oneMinusX2)) - x + λ*y) / oneMinusX2
	return
}

// izzoDerivatives returns the first three derivatives of T with respect to x.
func izzoDerivatives(x, y, T, λ float64) (d1, d2, d3 float64) {
	oneMinusX2 := 1 - x*x
	λ2 := λ * λ
	λ3 := λ2 * λ
	λ5 := λ3 * λ2
	d1 = (3*T*x - 2 + 2*λ3*x/y) / oneMinusX2
	d2 = (3*T + 5*x*d1 + 2*(1-λ2)*λ3/(y*y*y)) / oneMinusX2
	d3 = (7*x*d2 + 8*d1 - 6*(1-λ2)*λ5*x/math.Pow(y, 5)) / oneMinusX2
	return
}

// hyp2f1b returns the Gauss hypergeometric function 2F1(3, 1; 5/2; z), summed until the terms vanish.
func hyp2f1b(z float64) float64 {
	if z >= 1 {
		return math.Inf(1)
	}
	res, term := 1.0, 1.0
	for i := 0.0; i < hyp2f1MaxTerms; i++ {
		term *= (3 + i) * (1 + i) / (2.5 + i) * z / (i + 1)
		prev := res
		res += term
		if res == prev {
			break
		}
	}
	return res
}
