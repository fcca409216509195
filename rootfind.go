package lambert

import (
	"math"

	kitlog "github.com/go-kit/kit/log"
)

// stepMethod is the order of the iteration used by the root finder.
type stepMethod uint8

const (
	newton      stepMethod = iota + 1 // uses f'
	halley                            // uses f' and f''
	householder                       // uses f', f'' and f'''
)

func (m stepMethod) String() string {
	switch m {
	case newton:
		return "Newton"
	case halley:
		return "Halley"
	case householder:
		return "Householder"
	}
	panic("unknown step method")
}

// derivativeε is the magnitude below which a derivative is considered null.
const derivativeε = 1e-14

// residualFunc returns the residual at x and its first three derivatives.
// Methods of lower order ignore the higher derivatives, which may then be left at zero.
type residualFunc func(x float64) (f, df, d2f, d3f float64)

// rootFinder finds the root of a residual which is monotonic on the open interval (lo, hi).
// The bracket shrinks after every evaluation, and any step which is not usable falls back to a bisection
// (or to a capped step when the bracket is not bounded on that side).
type rootFinder struct {
	subject    string
	method     stepMethod
	lo, hi     float64 // may be infinite
	increasing bool    // whether the residual increases with x
	tol        float64
	maxIter    uint
	maxStep    float64 // relative to max(1, |x|)
	logger     kitlog.Logger
}

// find returns the root of fn starting from x0, along with the number of iterations.
func (r rootFinder) find(x0 float64, fn residualFunc) (x float64, iter uint, err error) {
	lo, hi := r.lo, r.hi
	x = math.Min(math.Max(x0, lo), hi)
	if !isFinite(x) {
		x = r.clamp(lo, hi)
	}
	var f float64
	for iter = 1; iter <= r.maxIter; iter++ {
		var df, d2f, d3f float64
		f, df, d2f, d3f = fn(x)
		if !isFinite(f) {
			break
		}
		if math.Abs(f) <= r.tol {
			r.log(x, f, iter, true)
			return x, iter, nil
		}
		// Shrink the bracket: the root is on the other side of x.
		if (f > 0) == r.increasing {
			hi = x
		} else {
			lo = x
		}
		xNext := x - r.step(f, df, d2f, d3f)
		if isFinite(xNext) {
			if limit := r.maxStep * math.Max(1, math.Abs(x)); math.Abs(xNext-x) > limit {
				xNext = x + math.Copysign(limit, xNext-x)
			}
		}
		if !isFinite(xNext) || xNext <= lo || xNext >= hi {
			xNext = r.fallback(x, lo, hi)
		}
		r.log(x, f, iter, false)
		if math.Abs(xNext-x) <= r.tol {
			// A small step converges only where the residual meets the tolerance too.
			fNext, _, _, _ := fn(xNext)
			if math.Abs(fNext) <= r.tol {
				r.log(xNext, fNext, iter, true)
				return xNext, iter, nil
			}
			if xNext = r.fallback(x, lo, hi); math.Abs(xNext-x) <= r.tol {
				// The bracket collapsed around a root the residual cannot resolve.
				break
			}
		}
		x = xNext
	}
	if iter > r.maxIter {
		iter = r.maxIter
	}
	return x, iter, &NonConvergenceError{Subject: r.subject, Iterations: iter, X: x, Residual: f}
}

// step returns the correction to subtract from the current x, which is NaN if it cannot be computed.
func (r rootFinder) step(f, df, d2f, d3f float64) float64 {
	if math.Abs(df) < derivativeε {
		return math.NaN()
	}
	var num, den float64
	switch r.method {
	case newton:
		num, den = 1, df
	case halley:
		num, den = 2*df, 2*df*df-f*d2f
	case householder:
		num = df*df - f*d2f/2
		den = df*(df*df-f*d2f) + d3f*f*f/6
	default:
		panic("unknown step method")
	}
	if den == 0 {
		return math.NaN()
	}
	return f * num / den
}

// fallback returns the next iterate when the regular step is not usable.
// After the bracket update, x is one of the bounds of [lo, hi].
func (r rootFinder) fallback(x, lo, hi float64) float64 {
	if !math.IsInf(lo, 0) && !math.IsInf(hi, 0) {
		return lo + (hi-lo)/2
	}
	limit := r.maxStep * math.Max(1, math.Abs(x))
	if x == lo {
		return x + limit
	}
	return x - limit
}

// clamp returns a starting point strictly inside the bracket, used when the initial guess is not finite.
func (r rootFinder) clamp(lo, hi float64) float64 {
	switch {
	case !math.IsInf(lo, 0) && !math.IsInf(hi, 0):
		return lo + (hi-lo)/2
	case !math.IsInf(lo, 0):
		return lo + r.maxStep*math.Max(1, math.Abs(lo))
	case !math.IsInf(hi, 0):
		return hi - r.maxStep*math.Max(1, math.Abs(hi))
	default:
		return 0
	}
}

func (r rootFinder) log(x, f float64, iter uint, converged bool) {
	if r.logger == nil {
		return
	}
	if converged {
		r.logger.Log("level", "notice", "subsys", "lambert", "solver", r.subject, "method", r.method, "status", "converged", "iter", iter, "x", x)
		return
	}
	r.logger.Log("level", "debug", "subsys", "lambert", "solver", r.subject, "iter", iter, "x", x, "f", f)
}
