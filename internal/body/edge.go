package body

import (
	"math"

	"github.com/san-kum/rigidlab/internal/geom"
)

// Edge is one piece of a body's boundary, fixed in body-frame coordinates
// and transformed through the body's pose.
type Edge interface {
	Body() *RigidBody
	// Bounds returns the world axis-aligned bounding box of the edge.
	Bounds() (geom.Vec, geom.Vec)
}

// StraightEdge is a line segment from p1 to p2 in body frame. The outside
// of the body lies on the side of the precomputed outward normal; for a
// counterclockwise-wound boundary that is the right-hand side of p1->p2.
type StraightEdge struct {
	body   *RigidBody
	p1, p2 geom.Vec
	normal geom.Vec // body-frame outward unit normal
}

// AddStraightEdge appends a segment edge; the boundary must be wound
// counterclockwise so the outward normal points away from the interior.
func AddStraightEdge(b *RigidBody, p1, p2 geom.Vec) *StraightEdge {
	d := geom.Unit(p2.Sub(p1))
	e := &StraightEdge{
		body:   b,
		p1:     p1,
		p2:     p2,
		normal: geom.V(d.Y(), -d.X()),
	}
	b.addEdge(e)
	return e
}

func (e *StraightEdge) Body() *RigidBody { return e.body }

// WorldEndpoints returns both endpoints in world coordinates.
func (e *StraightEdge) WorldEndpoints() (geom.Vec, geom.Vec) {
	return e.body.WorldPoint(e.p1), e.body.WorldPoint(e.p2)
}

// WorldNormal returns the outward unit normal in world coordinates.
func (e *StraightEdge) WorldNormal() geom.Vec {
	return e.body.WorldDir(e.normal)
}

func (e *StraightEdge) Bounds() (geom.Vec, geom.Vec) {
	a, b := e.WorldEndpoints()
	lo := geom.V(math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y()))
	hi := geom.V(math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y()))
	return lo, hi
}

// CircularEdge is a circular arc centered at a body-frame point. A full
// circle has span 2*pi. OutsideIsOut distinguishes a convex rim (true)
// from a concave cup (false), which flips which side is body exterior.
type CircularEdge struct {
	body         *RigidBody
	center       geom.Vec // body frame
	radius       float64
	startAngle   float64 // body frame, radians
	span         float64 // positive, 2*pi for a full circle
	outsideIsOut bool
}

// AddCircularEdge appends an arc edge. span is the angular extent starting
// at startAngle, counterclockwise.
func AddCircularEdge(b *RigidBody, center geom.Vec, radius, startAngle, span float64, outsideIsOut bool) *CircularEdge {
	if radius <= 0 {
		panic("body: radius must be positive")
	}
	e := &CircularEdge{
		body:         b,
		center:       center,
		radius:       radius,
		startAngle:   startAngle,
		span:         span,
		outsideIsOut: outsideIsOut,
	}
	b.addEdge(e)
	return e
}

func (e *CircularEdge) Body() *RigidBody   { return e.body }
func (e *CircularEdge) Radius() float64    { return e.radius }
func (e *CircularEdge) Span() float64      { return e.span }
func (e *CircularEdge) OutsideIsOut() bool { return e.outsideIsOut }
func (e *CircularEdge) IsFullCircle() bool { return e.span >= 2*math.Pi-1e-9 }

// WorldStartAngle returns the arc's starting angle in world coordinates.
func (e *CircularEdge) WorldStartAngle() float64 {
	return e.startAngle + e.body.Angle()
}

// WorldCenter returns the arc center in world coordinates.
func (e *CircularEdge) WorldCenter() geom.Vec {
	return e.body.WorldPoint(e.center)
}

// ContainsAngle reports whether the world direction d from the arc center
// falls within the arc's angular span.
func (e *CircularEdge) ContainsAngle(d geom.Vec) bool {
	if e.IsFullCircle() {
		return true
	}
	a := math.Atan2(d.Y(), d.X()) - e.body.Angle() - e.startAngle
	for a < 0 {
		a += 2 * math.Pi
	}
	for a >= 2*math.Pi {
		a -= 2 * math.Pi
	}
	return a <= e.span
}

func (e *CircularEdge) Bounds() (geom.Vec, geom.Vec) {
	// Conservative box of the whole circle; tight enough for broad phase.
	c := e.WorldCenter()
	r := geom.V(e.radius, e.radius)
	return c.Sub(r), c.Add(r)
}
