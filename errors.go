package lambert

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a parameter is outside of its domain (e.g. a negative time of flight).
var ErrInvalidInput = errors.New("lambert: invalid input")

// GeometryError is returned when the transfer geometry is degenerate: collinear position vectors,
// zero length vectors or a near zero Lagrange g coefficient.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "lambert: degenerate geometry: " + e.Reason
}

// InfeasibleSolutionError is returned when the requested time of flight is shorter than the minimum
// time of flight of the requested number of revolutions.
type InfeasibleSolutionError struct {
	Revolutions, MaxRevolutions uint
	TOF                         float64 // requested time of flight
}

func (e *InfeasibleSolutionError) Error() string {
	return fmt.Sprintf("lambert: no feasible solution for M=%d, try M<=%d", e.Revolutions, e.MaxRevolutions)
}

// NonConvergenceError is returned when the root finding hits its iteration cap before meeting the tolerance.
// X and Residual are the last iterate and its residual, for diagnostics only.
type NonConvergenceError struct {
	Subject    string
	Iterations uint
	X          float64
	Residual   float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("lambert: %s did not converge after %d iterations (x=%g, residual=%g)", e.Subject, e.Iterations, e.X, e.Residual)
}

func invalidInputf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, a...))
}
