package collision

import (
	"math"
	"testing"

	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

func headOn(e float64) (*body.RigidBody, *body.RigidBody, *Collision) {
	a := body.NewBall("a", 1, 1)
	a.SetPosition(geom.V(-1, 0), 0)
	a.SetVelocity(geom.V(1, 0), 0)
	a.SetElasticity(e)
	b := body.NewBall("b", 1, 1)
	b.SetPosition(geom.V(1, 0), 0)
	b.SetVelocity(geom.V(-1, 0), 0)

	c := &Collision{
		Primary:    a,
		Secondary:  b,
		Impact:     geom.V(0, 0),
		Normal:     geom.V(-1, 0), // separating direction for a
		Distance:   0,
		Elasticity: e,
	}
	return a, b, c
}

func TestElasticHeadOnExchange(t *testing.T) {
	a, b, c := headOn(1.0)
	s := NewImpulseSolver(0.05)

	if n := s.Resolve([]*Collision{c}); n != 1 {
		t.Fatalf("expected 1 impulse applied, got %d", n)
	}

	// Equal masses, e=1: velocities exchange.
	if math.Abs(a.Velocity().X()+1) > 1e-9 {
		t.Errorf("expected a vx -1, got %f", a.Velocity().X())
	}
	if math.Abs(b.Velocity().X()-1) > 1e-9 {
		t.Errorf("expected b vx 1, got %f", b.Velocity().X())
	}
}

func TestInelasticHeadOnStops(t *testing.T) {
	a, b, c := headOn(0.0)
	s := NewImpulseSolver(0.05)
	s.Resolve([]*Collision{c})

	if math.Abs(c.NormalVelocity()) > 1e-9 {
		t.Errorf("expected zero relative normal velocity, got %f", c.NormalVelocity())
	}
	// Momentum is conserved: both stop.
	if a.Velocity().Len() > 1e-9 || b.Velocity().Len() > 1e-9 {
		t.Error("equal-mass inelastic head-on should leave both at rest")
	}
}

func TestRestitutionTarget(t *testing.T) {
	for _, e := range []float64{0.0, 0.25, 0.8, 1.0} {
		_, _, c := headOn(e)
		pre := c.NormalVelocity()
		s := NewImpulseSolver(0.05)
		s.Resolve([]*Collision{c})
		post := c.NormalVelocity()
		if math.Abs(post+e*pre) > 1e-9 {
			t.Errorf("e=%.2f: expected post %f, got %f", e, -e*pre, post)
		}
	}
}

func TestMomentumAndEnergyConserved(t *testing.T) {
	a, b, c := headOn(1.0)
	p0 := a.Momentum().Add(b.Momentum())
	e0 := a.KineticEnergy() + b.KineticEnergy()

	NewImpulseSolver(0.05).Resolve([]*Collision{c})

	p1 := a.Momentum().Add(b.Momentum())
	e1 := a.KineticEnergy() + b.KineticEnergy()
	if p1.Sub(p0).Len() > 1e-9 {
		t.Error("momentum not conserved")
	}
	if math.Abs(e1-e0) > 1e-9 {
		t.Errorf("elastic impact changed energy by %g", e1-e0)
	}
}

func TestBounceOffAnchoredFloor(t *testing.T) {
	floor := body.NewFloor("floor", 0, 20)
	ball := body.NewBall("ball", 1, 1)
	ball.SetPosition(geom.V(0, 1), 0)
	ball.SetVelocity(geom.V(0, -2), 0)
	ball.SetElasticity(0.8)

	c := &Collision{
		Primary:    ball,
		Secondary:  floor,
		Impact:     geom.V(0, 0),
		Normal:     geom.V(0, 1),
		Elasticity: 0.8,
	}
	NewImpulseSolver(0.05).Resolve([]*Collision{c})

	if math.Abs(ball.Velocity().Y()-1.6) > 1e-9 {
		t.Errorf("expected vy 1.6 after 0.8 restitution, got %f", ball.Velocity().Y())
	}
	if floor.Velocity().Len() != 0 {
		t.Error("anchored floor must not move")
	}
}

func TestSeparatingPairUntouched(t *testing.T) {
	a, b, c := headOn(1.0)
	// reverse: already separating
	a.SetVelocity(geom.V(-1, 0), 0)
	b.SetVelocity(geom.V(1, 0), 0)

	if n := NewImpulseSolver(0.05).Resolve([]*Collision{c}); n != 0 {
		t.Errorf("expected no impulses for separating pair, got %d", n)
	}
}

func TestSimultaneousStack(t *testing.T) {
	// Floor, block on floor, block on block: dropping the pair as one
	// rigid stack must not leave any contact still approaching.
	floor := body.NewFloor("floor", 0, 20)
	lower := body.NewBlock("lower", 1, 1, 1)
	lower.SetPosition(geom.V(0, 0.5), 0)
	lower.SetVelocity(geom.V(0, -1), 0)
	lower.SetElasticity(0)
	upper := body.NewBlock("upper", 1, 1, 1)
	upper.SetPosition(geom.V(0, 1.5), 0)
	upper.SetVelocity(geom.V(0, -1), 0)
	upper.SetElasticity(0)

	mk := func(p, s *body.RigidBody, at geom.Vec) *Collision {
		return &Collision{Primary: p, Secondary: s, Impact: at, Normal: geom.V(0, 1)}
	}
	records := []*Collision{
		mk(lower, floor, geom.V(-0.5, 0)),
		mk(lower, floor, geom.V(0.5, 0)),
		mk(upper, lower, geom.V(-0.5, 1)),
		mk(upper, lower, geom.V(0.5, 1)),
	}

	NewImpulseSolver(0.05).Resolve(records)

	for _, c := range records {
		if c.NormalVelocity() < -0.01 {
			t.Errorf("contact still approaching after simultaneous solve: %v", c)
		}
	}
}

func TestJointImpulseCanPull(t *testing.T) {
	anchor := body.NewFloor("anchor", 0, 2)
	rod := body.NewBlock("rod", 1, 0.2, 1)
	rod.SetPosition(geom.V(0, 2), 0)
	rod.SetVelocity(geom.V(0, 1), 0) // separating upward

	j := NewJoint(rod, anchor, geom.V(0, 0), geom.V(0, 0.5), geom.V(0, 1))
	rec := j.Record()

	NewImpulseSolver(0.05).Resolve([]*Collision{rec})

	// A contact would be left alone (separating); a joint must be pulled
	// back to zero normal velocity.
	if math.Abs(rec.NormalVelocity()) > 1e-9 {
		t.Errorf("joint normal velocity not zeroed: %f", rec.NormalVelocity())
	}
}

func TestOffCenterImpulseSpins(t *testing.T) {
	block := body.NewBlock("block", 2, 2, 1)
	block.SetPosition(geom.V(0, 1), 0)
	block.SetVelocity(geom.V(0, -1), 0)
	block.SetElasticity(1)
	floor := body.NewFloor("floor", 0, 20)

	// single corner contact off the center line
	c := &Collision{
		Primary:    block,
		Secondary:  floor,
		Impact:     geom.V(1, 0),
		Normal:     geom.V(0, 1),
		Elasticity: 1,
	}
	NewImpulseSolver(0.05).Resolve([]*Collision{c})

	if block.AngularVel() == 0 {
		t.Error("off-center impulse should spin the block")
	}
	if c.NormalVelocity() < 0 {
		t.Error("contact still approaching")
	}
}
