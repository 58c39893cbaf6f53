package force

import (
	"github.com/san-kum/rigidlab/internal/body"
)

// Damping applies drag opposing each body's linear and angular velocity.
type Damping struct {
	Linear  float64
	Angular float64
}

func NewDamping(linear, angular float64) *Damping {
	return &Damping{Linear: linear, Angular: angular}
}

func (d *Damping) CalculateForces(bodies []*body.RigidBody, t float64) []Force {
	out := make([]Force, 0, len(bodies))
	for _, b := range bodies {
		if b.IsAnchored() {
			continue
		}
		out = append(out, Force{
			Body:     b,
			Location: b.Position(),
			Vector:   b.Velocity().Mul(-d.Linear),
			Torque:   -d.Angular * b.AngularVel(),
		})
	}
	return out
}

// PotentialEnergy is zero: damping dissipates, it does not store.
func (d *Damping) PotentialEnergy(bodies []*body.RigidBody) float64 {
	return 0
}
