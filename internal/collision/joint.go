package collision

import (
	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

// Joint is a standing bilateral constraint: two body-frame attach points
// held at exactly zero separation along a normal direction. A joint
// persists for the scenario lifetime and is evaluated on every detection
// and resolve pass.
type Joint struct {
	Body1   *body.RigidBody
	Body2   *body.RigidBody // may be anchored
	Attach1 geom.Vec        // body frame of Body1
	Attach2 geom.Vec        // body frame of Body2
	// Normal is the constrained direction in Body2's body frame.
	Normal geom.Vec
}

func NewJoint(b1, b2 *body.RigidBody, attach1, attach2, normal geom.Vec) *Joint {
	return &Joint{
		Body1: b1, Body2: b2,
		Attach1: attach1, Attach2: attach2,
		Normal: geom.Unit(normal),
	}
}

// NewDoubleJoint pins the two attach points in both directions, fixing
// relative translation entirely. Both joints must be solved
// simultaneously with all other constraints.
func NewDoubleJoint(b1, b2 *body.RigidBody, attach1, attach2 geom.Vec) [2]*Joint {
	return [2]*Joint{
		NewJoint(b1, b2, attach1, attach2, geom.V(1, 0)),
		NewJoint(b1, b2, attach1, attach2, geom.V(0, 1)),
	}
}

// WorldNormal returns the constrained direction in world coordinates.
func (j *Joint) WorldNormal() geom.Vec {
	return j.Body2.WorldDir(j.Normal)
}

// NormalDistance is the current separation of the attach points along the
// normal; the constraint target is always zero.
func (j *Joint) NormalDistance() float64 {
	p1 := j.Body1.WorldPoint(j.Attach1)
	p2 := j.Body2.WorldPoint(j.Attach2)
	return p1.Sub(p2).Dot(j.WorldNormal())
}

// Record builds the collision record for this joint's current geometry.
func (j *Joint) Record() *Collision {
	p1 := j.Body1.WorldPoint(j.Attach1)
	p2 := j.Body2.WorldPoint(j.Attach2)
	return &Collision{
		Primary:    j.Body1,
		Secondary:  j.Body2,
		Impact:     p1.Add(p2).Mul(0.5),
		Normal:     j.WorldNormal(),
		Distance:   j.NormalDistance(),
		TargetGap:  0,
		Elasticity: 0,
		Joint:      j,
		Resting:    true,
	}
}
