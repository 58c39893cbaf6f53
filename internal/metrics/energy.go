package metrics

import (
	"math"

	"github.com/san-kum/rigidlab/internal/engine"
)

// EnergyDrift tracks the worst relative deviation of total mechanical
// energy from its initial value. For elastic scenes without damping it
// measures integration plus resolution error directly.
type EnergyDrift struct {
	name     string
	sim      *engine.RigidBodySim
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(sim *engine.RigidBodySim) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", sim: sim}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(t float64) {
	energy := e.sim.Energy(e.sim.State())
	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64   { return e.maxDrift }
func (e *EnergyDrift) Current() float64 { return e.current }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.current = 0
	e.maxDrift = 0
	e.samples = 0
}
