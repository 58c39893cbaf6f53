// Package collision finds and resolves contact between rigid bodies:
// edge-level detection, impulse resolution for impacts, and steady
// contact forces for resting contacts and joints.
package collision

import (
	"fmt"

	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

// Tolerances bound when touching geometry counts as a resting contact.
type Tolerances struct {
	// Distance is the gap band around zero within which bodies count as
	// touching. Resting contacts are held at half this gap.
	Distance float64
	// Velocity is the normal-velocity band around zero within which a
	// touching pair counts as resting rather than impacting.
	Velocity float64
}

func DefaultTolerances() Tolerances {
	return Tolerances{Distance: 0.01, Velocity: 0.05}
}

// Collision records one detected interaction between two bodies. Records
// are created fresh each detection pass and discarded after resolution.
//
// Normal is the unit separation direction pointing from Secondary toward
// Primary: the relative normal velocity of Primary is positive when the
// pair is separating.
type Collision struct {
	Primary   *body.RigidBody
	Secondary *body.RigidBody
	Impact    geom.Vec
	Normal    geom.Vec
	// Distance is the signed gap along Normal; negative means overlap.
	Distance float64
	// TargetGap is the separation resting contacts are held at: half the
	// distance tolerance for contacts, exactly zero for joints.
	TargetGap  float64
	Elasticity float64
	// Joint is non-nil when this record comes from a bilateral joint.
	Joint *Joint
	// Resting marks a persistent contact needing a steady force rather
	// than an impulse.
	Resting bool
}

// NormalVelocity is the relative normal velocity at the impact point,
// positive when separating.
func (c *Collision) NormalVelocity() float64 {
	rv := c.Primary.VelocityAt(c.Impact).Sub(c.Secondary.VelocityAt(c.Impact))
	return rv.Dot(c.Normal)
}

// DistanceToHalfGap is the residual between the current gap and the gap a
// settled contact should hold.
func (c *Collision) DistanceToHalfGap() float64 {
	return c.Distance - c.TargetGap
}

// IsJoint reports whether this record is a bilateral joint constraint. A
// loose joint is always a correction target, never a legitimate resting
// state.
func (c *Collision) IsJoint() bool { return c.Joint != nil }

// NeedsImpulse reports whether the record must be resolved through the
// impulse path.
func (c *Collision) NeedsImpulse() bool { return !c.Resting }

// Penetrating reports overlap beyond the distance tolerance, which means
// the true collision instant lies strictly before the current state.
func (c *Collision) Penetrating(tol Tolerances) bool {
	return !c.IsJoint() && c.Distance < -tol.Distance
}

func (c *Collision) String() string {
	kind := "collision"
	if c.IsJoint() {
		kind = "joint"
	} else if c.Resting {
		kind = "contact"
	}
	return fmt.Sprintf("%s %s/%s d=%.6f vn=%.6f", kind,
		c.Primary.Name, c.Secondary.Name, c.Distance, c.NormalVelocity())
}

// Totals counts resolved collisions and bisection searches. Counters only
// increase; given a fixed seed and initial conditions they are an exact
// regression oracle.
type Totals struct {
	Collisions int
	Searches   int
}

func (t Totals) String() string {
	return fmt.Sprintf("collisions=%d searches=%d", t.Collisions, t.Searches)
}
