package body

import (
	"math"

	"github.com/san-kum/rigidlab/internal/geom"
)

// NewBlock returns a width x height rectangle of the given mass, centered
// at the body origin, with moment of inertia of a uniform plate.
func NewBlock(name string, width, height, mass float64) *RigidBody {
	b := New(name)
	b.SetMass(mass)
	b.SetMoment(mass * (width*width + height*height) / 12)
	w, h := width/2, height/2
	// counterclockwise winding
	AddStraightEdge(b, geom.V(-w, -h), geom.V(w, -h))
	AddStraightEdge(b, geom.V(w, -h), geom.V(w, h))
	AddStraightEdge(b, geom.V(w, h), geom.V(-w, h))
	AddStraightEdge(b, geom.V(-w, h), geom.V(-w, -h))
	return b
}

// NewBall returns a disc of the given radius and mass centered at the body
// origin, with the moment of a uniform disc.
func NewBall(name string, radius, mass float64) *RigidBody {
	b := New(name)
	b.SetMass(mass)
	b.SetMoment(0.5 * mass * radius * radius)
	AddCircularEdge(b, geom.Vec{}, radius, 0, 2*math.Pi, true)
	return b
}

// NewFloor returns an anchored block whose top surface lies at the given
// height, wide enough to act as ground for the scenario.
func NewFloor(name string, topY, width float64) *RigidBody {
	const thickness = 1.0
	b := NewBlock(name, width, thickness, 1)
	b.SetInfiniteMass()
	b.SetPosition(geom.V(0, topY-thickness/2), 0)
	return b
}

// NewWalls returns four anchored blocks enclosing the square region
// [-half, half] x [-half, half].
func NewWalls(half float64) []*RigidBody {
	const thickness = 1.0
	mk := func(name string, w, h float64, pos geom.Vec) *RigidBody {
		b := NewBlock(name, w, h, 1)
		b.SetInfiniteMass()
		b.SetPosition(pos, 0)
		return b
	}
	span := 2*half + 2*thickness
	return []*RigidBody{
		mk("floor", span, thickness, geom.V(0, -half-thickness/2)),
		mk("ceiling", span, thickness, geom.V(0, half+thickness/2)),
		mk("left wall", thickness, span, geom.V(-half-thickness/2, 0)),
		mk("right wall", thickness, span, geom.V(half+thickness/2, 0)),
	}
}
