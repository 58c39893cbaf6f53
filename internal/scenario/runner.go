package scenario

import (
	"github.com/san-kum/rigidlab/internal/advance"
	"github.com/san-kum/rigidlab/internal/collision"
	"github.com/san-kum/rigidlab/internal/integrators"
)

// NewAdvance wires the scenario into a collision-aware controller with
// the scene's stabilization policy applied.
func (s *Scenario) NewAdvance() *advance.CollisionAdvance {
	adv := advance.NewCollisionAdvance(s.Sim, integrators.NewRK4(), s.Detector)
	if s.Policy != collision.PolicyNone {
		adv.SetContactSolver(collision.NewContactForceSolver(s.Detector, s.Policy))
	}
	adv.SetJointSmallImpacts(s.JointSmallImpacts)
	return adv
}
