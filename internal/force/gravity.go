package force

import (
	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

// Gravity is uniform downward gravity on every non-anchored body.
type Gravity struct {
	G float64 // acceleration, positive down
}

func NewGravity(g float64) *Gravity {
	return &Gravity{G: g}
}

func (g *Gravity) CalculateForces(bodies []*body.RigidBody, t float64) []Force {
	out := make([]Force, 0, len(bodies))
	for _, b := range bodies {
		if b.IsAnchored() {
			continue
		}
		out = append(out, Force{
			Body:     b,
			Location: b.Position(),
			Vector:   geom.V(0, -g.G*b.Mass()),
		})
	}
	return out
}

// PotentialEnergy measures height against each body's zero-energy level
// when one is set, otherwise against y=0.
func (g *Gravity) PotentialEnergy(bodies []*body.RigidBody) float64 {
	pe := 0.0
	for _, b := range bodies {
		if b.IsAnchored() {
			continue
		}
		zero := 0.0
		if z, ok := b.ZeroEnergyLevel(); ok {
			zero = z
		}
		pe += g.G * b.Mass() * (b.Position().Y() - zero)
	}
	return pe
}
