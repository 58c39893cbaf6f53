package metrics

import (
	"github.com/san-kum/rigidlab/internal/collision"
	"github.com/san-kum/rigidlab/internal/engine"
)

// Penetration tracks the deepest overlap ever observed at an accepted
// step. A healthy run keeps it within the detector's distance tolerance.
type Penetration struct {
	name    string
	sim     *engine.RigidBodySim
	det     *collision.Detector
	deepest float64
	scratch []*collision.Collision
}

func NewPenetration(sim *engine.RigidBodySim, det *collision.Detector) *Penetration {
	return &Penetration{name: "penetration", sim: sim, det: det}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(t float64) {
	p.scratch = p.scratch[:0]
	p.det.FindCollisions(&p.scratch, p.sim.Bodies(), 0)
	for _, c := range p.scratch {
		if !c.IsJoint() && -c.Distance > p.deepest {
			p.deepest = -c.Distance
		}
	}
}

// Value is the deepest observed overlap, 0 when nothing ever touched.
func (p *Penetration) Value() float64 { return p.deepest }

func (p *Penetration) Reset() { p.deepest = 0 }
