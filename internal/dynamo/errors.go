package dynamo

import (
	"errors"
	"fmt"
)

// ErrInvalidState indicates a state vector with NaN or Inf values.
var ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

// SimulationError wraps an error with simulation context. State is the
// last good state before the failing step.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
