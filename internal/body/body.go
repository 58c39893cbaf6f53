package body

import (
	"math"

	"github.com/san-kum/rigidlab/internal/geom"
)

// RigidBody is a 2D rigid body whose boundary is a closed sequence of
// edges given in body-frame coordinates. The body's world position tracks
// its center of mass; geometry is offset from the center of mass by the
// body-frame CMOffset.
type RigidBody struct {
	Name string

	mass      float64
	invMass   float64
	moment    float64 // about the center of mass
	invMoment float64

	cmOffset   geom.Vec // center of mass in body-frame coordinates
	elasticity float64

	pos    geom.Vec // world position of the center of mass
	angle  float64
	vel    geom.Vec
	angVel float64

	// zero level for gravitational potential energy, optional
	zeroEnergy    float64
	hasZeroEnergy bool

	edges []Edge
	verts []geom.Vec // unique body-frame vertices of straight edges

	base int // offset of this body's slots in the VarsList
}

// New returns a body with unit mass, unit moment and elasticity 1.
func New(name string) *RigidBody {
	b := &RigidBody{Name: name, elasticity: 1.0, base: -1}
	b.SetMass(1)
	b.SetMoment(1)
	return b
}

func (b *RigidBody) SetMass(m float64) {
	if m <= 0 {
		panic("body: mass must be positive")
	}
	b.mass = m
	if math.IsInf(m, 1) {
		b.invMass = 0
	} else {
		b.invMass = 1 / m
	}
}

// SetInfiniteMass anchors the body: it never reacts to forces or impulses.
func (b *RigidBody) SetInfiniteMass() {
	b.mass = math.Inf(1)
	b.invMass = 0
	b.moment = math.Inf(1)
	b.invMoment = 0
}

func (b *RigidBody) SetMoment(i float64) {
	if i <= 0 {
		panic("body: moment must be positive")
	}
	b.moment = i
	if math.IsInf(i, 1) {
		b.invMoment = 0
	} else {
		b.invMoment = 1 / i
	}
}

func (b *RigidBody) Mass() float64      { return b.mass }
func (b *RigidBody) InvMass() float64   { return b.invMass }
func (b *RigidBody) Moment() float64    { return b.moment }
func (b *RigidBody) InvMoment() float64 { return b.invMoment }
func (b *RigidBody) IsAnchored() bool   { return b.invMass == 0 }

func (b *RigidBody) SetElasticity(e float64) {
	if e < 0 || e > 1 {
		panic("body: elasticity must be in [0,1]")
	}
	b.elasticity = e
}
func (b *RigidBody) Elasticity() float64 { return b.elasticity }

// SetCMOffset places the center of mass at the given body-frame point.
func (b *RigidBody) SetCMOffset(off geom.Vec) { b.cmOffset = off }
func (b *RigidBody) CMOffset() geom.Vec       { return b.cmOffset }

func (b *RigidBody) SetZeroEnergyLevel(y float64) {
	b.zeroEnergy = y
	b.hasZeroEnergy = true
}

func (b *RigidBody) ZeroEnergyLevel() (float64, bool) {
	return b.zeroEnergy, b.hasZeroEnergy
}

func (b *RigidBody) Position() geom.Vec   { return b.pos }
func (b *RigidBody) Angle() float64       { return b.angle }
func (b *RigidBody) Velocity() geom.Vec   { return b.vel }
func (b *RigidBody) AngularVel() float64  { return b.angVel }
func (b *RigidBody) SetPosition(p geom.Vec, angle float64) {
	b.pos = p
	b.angle = angle
}
func (b *RigidBody) SetVelocity(v geom.Vec, w float64) {
	b.vel = v
	b.angVel = w
}

// SetBase records the body's slot offset in the state vector.
func (b *RigidBody) SetBase(i int) { b.base = i }
func (b *RigidBody) Base() int     { return b.base }

// WorldPoint maps a body-frame point to world coordinates.
func (b *RigidBody) WorldPoint(local geom.Vec) geom.Vec {
	return b.pos.Add(geom.Rotate(local.Sub(b.cmOffset), b.angle))
}

// BodyPoint maps a world point back to body-frame coordinates.
func (b *RigidBody) BodyPoint(world geom.Vec) geom.Vec {
	return geom.Rotate(world.Sub(b.pos), -b.angle).Add(b.cmOffset)
}

// WorldDir rotates a body-frame direction into world coordinates.
func (b *RigidBody) WorldDir(local geom.Vec) geom.Vec {
	return geom.Rotate(local, b.angle)
}

// VelocityAt returns the world velocity of the world-frame point p as
// carried by this body.
func (b *RigidBody) VelocityAt(p geom.Vec) geom.Vec {
	return b.vel.Add(geom.CrossScalar(b.angVel, p.Sub(b.pos)))
}

// ApplyImpulse applies an instantaneous impulse j at world point p.
// Anchored bodies are unaffected.
func (b *RigidBody) ApplyImpulse(j geom.Vec, p geom.Vec) {
	b.vel = b.vel.Add(j.Mul(b.invMass))
	b.angVel += b.invMoment * geom.Cross(p.Sub(b.pos), j)
}

// InvEffectiveMass returns the inverse effective mass this body presents
// to a unit impulse along normal n at world point p:
//
//	1/m + (r x n)^2 / I
func (b *RigidBody) InvEffectiveMass(p, n geom.Vec) float64 {
	rn := geom.Cross(p.Sub(b.pos), n)
	return b.invMass + rn*rn*b.invMoment
}

// KineticEnergy returns translational plus rotational kinetic energy.
// Anchored bodies contribute zero.
func (b *RigidBody) KineticEnergy() float64 {
	if b.invMass == 0 {
		return 0
	}
	v2 := b.vel.Dot(b.vel)
	return 0.5*b.mass*v2 + 0.5*b.moment*b.angVel*b.angVel
}

// Momentum returns linear momentum; zero for anchored bodies.
func (b *RigidBody) Momentum() geom.Vec {
	if b.invMass == 0 {
		return geom.Vec{}
	}
	return b.vel.Mul(b.mass)
}

func (b *RigidBody) Edges() []Edge { return b.edges }

// Vertices returns the body-frame vertices shared by straight edges.
func (b *RigidBody) Vertices() []geom.Vec { return b.verts }

// WorldVertices maps all straight-edge vertices to world coordinates.
func (b *RigidBody) WorldVertices() []geom.Vec {
	out := make([]geom.Vec, len(b.verts))
	for i, v := range b.verts {
		out[i] = b.WorldPoint(v)
	}
	return out
}

func (b *RigidBody) addEdge(e Edge) {
	b.edges = append(b.edges, e)
	if s, ok := e.(*StraightEdge); ok {
		b.addVertex(s.p1)
		b.addVertex(s.p2)
	}
}

func (b *RigidBody) addVertex(v geom.Vec) {
	for _, u := range b.verts {
		if u.Sub(v).Len() < 1e-12 {
			return
		}
	}
	b.verts = append(b.verts, v)
}

// Bounds returns the world axis-aligned bounding box of the body's edges.
func (b *RigidBody) Bounds() (geom.Vec, geom.Vec) {
	lo := geom.V(math.Inf(1), math.Inf(1))
	hi := geom.V(math.Inf(-1), math.Inf(-1))
	for _, e := range b.edges {
		elo, ehi := e.Bounds()
		lo = geom.V(math.Min(lo.X(), elo.X()), math.Min(lo.Y(), elo.Y()))
		hi = geom.V(math.Max(hi.X(), ehi.X()), math.Max(hi.Y(), ehi.Y()))
	}
	return lo, hi
}
