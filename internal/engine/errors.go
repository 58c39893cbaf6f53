package engine

import (
	"errors"
	"fmt"
)

// Domain errors for derivative evaluation and state handling.
var (
	// ErrNonFinite indicates a derivative or state with NaN or Inf values.
	ErrNonFinite = errors.New("engine: non-finite value in derivative")

	// ErrDimensionMismatch indicates a state of the wrong length for the
	// simulation's body set.
	ErrDimensionMismatch = errors.New("engine: state dimension mismatch")
)

// StepError wraps an error with the time at which evaluation failed.
type StepError struct {
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("t=%.6f: %v", e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
