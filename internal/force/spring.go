package force

import (
	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

// Spring is a linear two-body spring between body-frame attach points.
// Body2 may be nil, in which case Attach2 is a fixed world anchor.
type Spring struct {
	Body1      *body.RigidBody
	Body2      *body.RigidBody
	Attach1    geom.Vec // body frame of Body1
	Attach2    geom.Vec // body frame of Body2, or world point if Body2 is nil
	RestLength float64
	Stiffness  float64
}

func NewSpring(b1, b2 *body.RigidBody, attach1, attach2 geom.Vec, restLength, stiffness float64) *Spring {
	return &Spring{
		Body1: b1, Body2: b2,
		Attach1: attach1, Attach2: attach2,
		RestLength: restLength, Stiffness: stiffness,
	}
}

func (s *Spring) endpoints() (geom.Vec, geom.Vec) {
	p1 := s.Body1.WorldPoint(s.Attach1)
	p2 := s.Attach2
	if s.Body2 != nil {
		p2 = s.Body2.WorldPoint(s.Attach2)
	}
	return p1, p2
}

func (s *Spring) CalculateForces(bodies []*body.RigidBody, t float64) []Force {
	p1, p2 := s.endpoints()
	d := p2.Sub(p1)
	stretch := d.Len() - s.RestLength
	dir := geom.Unit(d)
	f := dir.Mul(s.Stiffness * stretch)

	out := []Force{{Body: s.Body1, Location: p1, Vector: f}}
	if s.Body2 != nil {
		out = append(out, Force{Body: s.Body2, Location: p2, Vector: f.Mul(-1)})
	}
	return out
}

func (s *Spring) PotentialEnergy(bodies []*body.RigidBody) float64 {
	p1, p2 := s.endpoints()
	stretch := p2.Sub(p1).Len() - s.RestLength
	return 0.5 * s.Stiffness * stretch * stretch
}
