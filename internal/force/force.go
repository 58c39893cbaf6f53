package force

import (
	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

// Force is a world-frame force applied to one body at a world point.
type Force struct {
	Body     *body.RigidBody
	Location geom.Vec
	Vector   geom.Vec
	// Torque is an additional pure torque beyond the moment generated by
	// applying Vector at Location.
	Torque float64
}

// Moment returns the total torque about the body's center of mass.
func (f Force) Moment() float64 {
	return geom.Cross(f.Location.Sub(f.Body.Position()), f.Vector) + f.Torque
}

// Law produces forces for the current body poses. Laws compose additively;
// the simulation owns a list of laws and sums their contributions at every
// derivative evaluation.
type Law interface {
	CalculateForces(bodies []*body.RigidBody, t float64) []Force
	PotentialEnergy(bodies []*body.RigidBody) float64
}
