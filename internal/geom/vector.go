package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec is a 2D world-space vector or point.
type Vec = mgl64.Vec2

func V(x, y float64) Vec { return Vec{x, y} }

// Cross returns the z component of the 3D cross product of a and b.
func Cross(a, b Vec) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// CrossScalar returns w x v, the perpendicular of v scaled by w.
// It is the velocity contribution of angular velocity w at offset v.
func CrossScalar(w float64, v Vec) Vec {
	return Vec{-w * v.Y(), w * v.X()}
}

// Perp returns a rotated 90 degrees counterclockwise.
func Perp(a Vec) Vec {
	return Vec{-a.Y(), a.X()}
}

// Rotate rotates a by angle radians about the origin.
func Rotate(a Vec, angle float64) Vec {
	c, s := math.Cos(angle), math.Sin(angle)
	return Vec{c*a.X() - s*a.Y(), s*a.X() + c*a.Y()}
}

// FromAngle returns the unit vector at angle radians.
func FromAngle(angle float64) Vec {
	return Vec{math.Cos(angle), math.Sin(angle)}
}

// Unit returns a normalized, or the zero vector if a has zero length.
func Unit(a Vec) Vec {
	n := a.Len()
	if n == 0 {
		return Vec{}
	}
	return a.Mul(1 / n)
}

// ClosestOnSegment returns the point on segment [a,b] closest to p and the
// parameter t in [0,1] of that point.
func ClosestOnSegment(p, a, b Vec) (Vec, float64) {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom == 0 {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Mul(t)), t
}

// DistPointSegment returns the distance from p to segment [a,b].
func DistPointSegment(p, a, b Vec) float64 {
	q, _ := ClosestOnSegment(p, a, b)
	return p.Sub(q).Len()
}

// IsFinite reports whether both components are finite.
func IsFinite(a Vec) bool {
	return !math.IsNaN(a.X()) && !math.IsInf(a.X(), 0) &&
		!math.IsNaN(a.Y()) && !math.IsInf(a.Y(), 0)
}
