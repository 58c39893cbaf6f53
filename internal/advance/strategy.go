// Package advance drives collision-aware time stepping: integrate,
// detect, localize the collision instant by bisection, resolve, and
// continue for the remainder of the step.
package advance

import "fmt"

// Strategy is the uniform contract every time-stepping strategy exposes
// to an external scheduler. Advance runs synchronously to completion or
// failure; the scheduler owns wall-clock pacing and must stop calling
// Advance once it returns an error.
type Strategy interface {
	// Advance moves simulation time forward by dt, resolving any
	// collisions that occur inside the interval.
	Advance(dt float64) error
	// Time is the current simulation time.
	Time() float64
	// TimeStep is the default step for schedulers that do not choose
	// their own dt.
	TimeStep() float64
	SetTimeStep(v float64)
	// Save captures the current state as the restore point for Reset.
	Save()
	// Reset returns to the saved state and clears diagnostics counters.
	Reset()
}

// ErrorKind classifies advance failures so callers can distinguish an
// exhausted retry budget from numeric breakdown without string matching.
type ErrorKind int

const (
	// KindStuck means repeated collision searches failed to converge and
	// the retry budget is exhausted.
	KindStuck ErrorKind = iota
	// KindNonFinite means a derivative evaluation produced NaN or Inf.
	KindNonFinite
	// KindTimeStall means simulation time failed to advance by the
	// minimum epsilon.
	KindTimeStall
)

func (k ErrorKind) String() string {
	switch k {
	case KindStuck:
		return "stuck"
	case KindNonFinite:
		return "non-finite"
	case KindTimeStall:
		return "time-stall"
	}
	return "unknown"
}

// Error is a fatal advance failure. The step it interrupted is fully
// rolled back; the simulation state matches the last accepted sub-step.
type Error struct {
	Kind    ErrorKind
	Time    float64
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("advance failed (%s) at t=%.6f: %s", e.Kind, e.Time, e.Message)
	if e.Wrapped != nil {
		s += ": " + e.Wrapped.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Wrapped }
