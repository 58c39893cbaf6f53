package collision

import (
	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/engine"
	"github.com/san-kum/rigidlab/internal/force"
	"github.com/san-kum/rigidlab/internal/geom"
)

// Policy selects how resting contacts and joints are stabilized against
// integration drift.
type Policy int

const (
	// PolicyNone applies no contact forces; resting contact is handled
	// purely by collision impulses between steps.
	PolicyNone Policy = iota
	// PolicyVelocity cancels the penetrating acceleration plus a term
	// proportional to residual normal velocity.
	PolicyVelocity
	// PolicyVelocityAndDistance additionally pulls the gap back toward
	// its target separation.
	PolicyVelocityAndDistance
	// PolicyVelocityAndDistanceJoints applies the distance term to
	// joints only, leaving general contacts velocity-corrected.
	PolicyVelocityAndDistanceJoints
)

func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyVelocity:
		return "velocity"
	case PolicyVelocityAndDistance:
		return "velocity_and_distance"
	case PolicyVelocityAndDistanceJoints:
		return "velocity_and_distance_joints"
	}
	return "unknown"
}

// distanceGainFactor slows gap correction relative to velocity
// correction; full-strength distance correction overshoots and pumps
// energy into resting stacks.
const distanceGainFactor = 0.1

// ContactForceSolver computes the steady "extra acceleration" forces that
// hold resting contacts at their target gap and joints at zero
// separation. It plugs into the simulation as an ExtraForcer, so the
// forces are recomputed at every derivative evaluation inside the
// integrator.
type ContactForceSolver struct {
	det           *Detector
	policy        Policy
	stepSize      float64
	maxIterations int

	scratch []*Collision
}

func NewContactForceSolver(det *Detector, policy Policy) *ContactForceSolver {
	return &ContactForceSolver{
		det:           det,
		policy:        policy,
		stepSize:      0.01,
		maxIterations: 60,
	}
}

func (s *ContactForceSolver) Policy() Policy     { return s.policy }
func (s *ContactForceSolver) SetPolicy(p Policy) { s.policy = p }

// SetStepSize informs the solver of the current sub-step size, which
// scales the correction gains.
func (s *ContactForceSolver) SetStepSize(dt float64) {
	if dt > 0 {
		s.stepSize = dt
	}
}

// ExtraForces implements engine.ExtraForcer: it finds the current resting
// contacts and joints and solves for normal forces that cancel the
// penetrating component of the applied accelerations, plus the policy's
// correction terms.
func (s *ContactForceSolver) ExtraForces(bodies []*body.RigidBody, accels []engine.Accel, t float64) []force.Force {
	if s.policy == PolicyNone {
		return nil
	}

	s.scratch = s.scratch[:0]
	s.det.FindCollisions(&s.scratch, bodies, 0)
	records := s.scratch[:0:len(s.scratch)]
	for _, c := range s.scratch {
		if c.Resting {
			records = append(records, c)
		}
	}
	if len(records) == 0 {
		return nil
	}

	b := make([]float64, len(records))
	for i, c := range records {
		b[i] = -s.relativeNormalAccel(c, bodies, accels) + s.correction(c)
	}

	a := couplingMatrix(records)
	f := make([]float64, len(records))
	for iter := 0; iter < s.maxIterations; iter++ {
		worst := 0.0
		for i := range records {
			if a[i][i] == 0 {
				continue
			}
			resid := b[i]
			for k := range records {
				resid -= a[i][k] * f[k]
			}
			next := f[i] + resid/a[i][i]
			if !records[i].IsJoint() && next < 0 {
				next = 0
			}
			change := next - f[i]
			f[i] = next
			if change < 0 {
				change = -change
			}
			if change*a[i][i] > worst {
				worst = change * a[i][i]
			}
		}
		if worst < 1e-10 {
			break
		}
	}

	out := make([]force.Force, 0, 2*len(records))
	for i, c := range records {
		if f[i] == 0 {
			continue
		}
		fv := c.Normal.Mul(f[i])
		out = append(out,
			force.Force{Body: c.Primary, Location: c.Impact, Vector: fv},
			force.Force{Body: c.Secondary, Location: c.Impact, Vector: fv.Mul(-1)},
		)
	}
	return out
}

// relativeNormalAccel is the component of relative acceleration at the
// impact point along the contact normal, from the applied force laws
// alone. Positive means the pair is accelerating apart.
func (s *ContactForceSolver) relativeNormalAccel(c *Collision, bodies []*body.RigidBody, accels []engine.Accel) float64 {
	ap := pointAccel(c.Primary, c.Impact, accels)
	as := pointAccel(c.Secondary, c.Impact, accels)
	return ap.Sub(as).Dot(c.Normal)
}

func pointAccel(b *body.RigidBody, p geom.Vec, accels []engine.Accel) geom.Vec {
	if b.IsAnchored() {
		return geom.Vec{}
	}
	acc := accels[b.Base()/engine.SlotsPerBody]
	r := p.Sub(b.Position())
	// a_p = a + alpha x r - w^2 r
	w := b.AngularVel()
	return acc.Linear.
		Add(geom.CrossScalar(acc.Angular, r)).
		Sub(r.Mul(w * w))
}

// correction returns the policy's extra target acceleration for one
// record: a velocity term damping residual normal velocity and, where
// enabled, a distance term pulling the gap back to its target.
func (s *ContactForceSolver) correction(c *Collision) float64 {
	dt := s.stepSize
	out := -c.NormalVelocity() / dt

	applyDistance := s.policy == PolicyVelocityAndDistance ||
		(s.policy == PolicyVelocityAndDistanceJoints && c.IsJoint())
	if applyDistance {
		out += -c.DistanceToHalfGap() * distanceGainFactor / (dt * dt)
	}
	return out
}
