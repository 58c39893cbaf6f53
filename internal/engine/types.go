package engine

import "math"

// State is a flat vector of generalized coordinates. For a rigid-body
// simulation it holds 6 contiguous slots per body (x, vx, y, vy, angle,
// angular velocity) followed by one time slot.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Slot offsets within a body's block of the state vector.
const (
	IdxX = iota
	IdxVX
	IdxY
	IdxVY
	IdxAngle
	IdxAngVel
	SlotsPerBody
)

// Dynamics evaluates the time derivative of a state. Derive returns an
// error when the evaluation produces a non-finite value; callers treat
// that as fatal for the current step.
type Dynamics interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

// Integrator advances a dynamics over one sub-interval known to be free
// of discontinuities.
type Integrator interface {
	Step(dyn Dynamics, x State, t, dt float64) (State, error)
}

// EnergyComputer is implemented by dynamics that can report total
// mechanical energy for a state.
type EnergyComputer interface {
	Energy(x State) float64
}
