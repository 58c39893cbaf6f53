package integrators

import "github.com/san-kum/rigidlab/internal/engine"

// ModifiedEuler is the 2nd-order midpoint method, a cheap alternative to
// RK4 for quick runs.
type ModifiedEuler struct{}

func NewModifiedEuler() *ModifiedEuler {
	return &ModifiedEuler{}
}

func (e *ModifiedEuler) Step(dyn engine.Dynamics, x engine.State, t, dt float64) (engine.State, error) {
	k1, err := dyn.Derive(x, t)
	if err != nil {
		return nil, err
	}

	mid := make(engine.State, len(x))
	for i := range x {
		mid[i] = x[i] + dt*0.5*k1[i]
	}
	k2, err := dyn.Derive(mid, t+dt*0.5)
	if err != nil {
		return nil, err
	}

	result := make(engine.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*k2[i]
	}
	return result, nil
}
