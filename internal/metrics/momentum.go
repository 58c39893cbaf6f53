package metrics

import (
	"github.com/san-kum/rigidlab/internal/engine"
	"github.com/san-kum/rigidlab/internal/geom"
)

// MomentumDrift tracks the worst deviation of total linear momentum of
// the free bodies from its initial value. Meaningful for closed scenes:
// anchored walls absorb momentum by design, so the metric only isolates
// solver error between wall impacts.
type MomentumDrift struct {
	name     string
	sim      *engine.RigidBodySim
	initial  geom.Vec
	maxDrift float64
	samples  int
}

func NewMomentumDrift(sim *engine.RigidBodySim) *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift", sim: sim}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(t float64) {
	var p geom.Vec
	for _, b := range m.sim.Bodies() {
		if b.IsAnchored() {
			continue
		}
		p = p.Add(b.Momentum())
	}
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++

	if drift := p.Sub(m.initial).Len(); drift > m.maxDrift {
		m.maxDrift = drift
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = geom.Vec{}
	m.maxDrift = 0
	m.samples = 0
}
