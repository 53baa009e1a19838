package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a grid, time or solver setting that cannot be run.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrInvalidParams indicates a missing, mis-sized or out of range parameter.
	ErrInvalidParams = errors.New("dynamo: invalid parameters")

	// ErrUnstable indicates the explicit scheme produced NaN or Inf values.
	ErrUnstable = errors.New("dynamo: instability detected (non-finite state)")

	// ErrNotConverged indicates the membrane fixed point hit its iteration cap.
	ErrNotConverged = errors.New("dynamo: membrane coupling did not converge")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Field   string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.6g) %s: %v", e.Step, e.Time, e.Field, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
