package scenario

import (
	"math"
	"testing"

	"github.com/san-kum/rigidlab/internal/collision"
	"github.com/san-kum/rigidlab/internal/geom"
)

func TestListCoversAllBuilders(t *testing.T) {
	names := List()
	if len(names) != len(builders) {
		t.Fatalf("List returned %d names, have %d builders", len(names), len(builders))
	}
	for _, name := range names {
		s, err := New(name, 1)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name != name {
			t.Errorf("scenario %q reports name %q", name, s.Name)
		}
		if s.Sim == nil || s.Detector == nil {
			t.Errorf("scenario %q incompletely built", name)
		}
		if len(s.Sim.Bodies()) == 0 {
			t.Errorf("scenario %q has no bodies", name)
		}
	}
}

func TestNewUnknownScenario(t *testing.T) {
	if _, err := New("no-such-scene", 1); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestBallHitsBlockConservesEnergyAndMomentum(t *testing.T) {
	s := BallHitsBlock(1)
	adv := s.NewAdvance()

	momentum := func() geom.Vec {
		total := geom.Vec{}
		for _, b := range s.Sim.Bodies() {
			total = total.Add(b.Momentum())
		}
		return total
	}

	e0 := s.Sim.Energy(s.Sim.State())
	p0 := momentum()
	if err := adv.Advance(4); err != nil {
		t.Fatal(err)
	}
	if adv.Totals().Collisions == 0 {
		t.Fatal("ball never hit anything")
	}
	e1 := s.Sim.Energy(s.Sim.State())
	if math.Abs(e1-e0) > 1e-5*math.Abs(e0) {
		t.Errorf("energy drifted: %f -> %f", e0, e1)
	}
	if d := momentum().Sub(p0).Len(); d > 1e-9 {
		t.Errorf("momentum drifted by %g", d)
	}
}

func TestBallHitsBlockFinalPositions(t *testing.T) {
	// The off-center ball strikes the block corner with the contact
	// normal passing through its center of mass, handing almost all of
	// its momentum to the block. The converged positions at t=3 are a
	// regression oracle for the whole integrate-detect-resolve pipeline.
	s := BallHitsBlock(1)
	adv := s.NewAdvance()
	if err := adv.Advance(3.0); err != nil {
		t.Fatal(err)
	}

	ball, block := s.Sim.Bodies()[0], s.Sim.Bodies()[1]
	if ball.Name != "ball" || block.Name != "block" {
		t.Fatalf("unexpected body order: %s, %s", ball.Name, block.Name)
	}

	wantBall := geom.V(-1.136, 1.181)
	wantBlock := geom.V(2.136, -2.181)
	if d := ball.Position().Sub(wantBall).Len(); d > 0.05 {
		t.Errorf("ball at %v, want about %v (off by %f)", ball.Position(), wantBall, d)
	}
	if d := block.Position().Sub(wantBlock).Len(); d > 0.05 {
		t.Errorf("block at %v, want about %v (off by %f)", block.Position(), wantBlock, d)
	}
}

func TestFallingBallFailsBouncingBallSurvives(t *testing.T) {
	run := func(name string) error {
		s, err := New(name, 1)
		if err != nil {
			t.Fatal(err)
		}
		adv := s.NewAdvance()
		for adv.Time() < 15 {
			if err := adv.Advance(0.5); err != nil {
				return err
			}
		}
		return nil
	}

	if err := run("falling-ball"); err == nil {
		t.Fatal("falling-ball must fail without contact stabilization")
	}
	if err := run("bouncing-ball"); err != nil {
		t.Errorf("bouncing-ball with stabilization failed: %v", err)
	}
}

func TestJointPendulumSettings(t *testing.T) {
	s := JointPendulum(1)
	if len(s.Joints) != 2 {
		t.Fatalf("expected a double joint, got %d joints", len(s.Joints))
	}
	if s.Policy != collision.PolicyVelocityAndDistanceJoints {
		t.Errorf("unexpected policy %v", s.Policy)
	}
	if !s.JointSmallImpacts {
		t.Error("pendulum needs joint small impacts")
	}
	for _, j := range s.Joints {
		if d := math.Abs(j.NormalDistance()); d > 1e-9 {
			t.Errorf("joint starts separated by %g", d)
		}
	}
}

func TestBlockStackSettles(t *testing.T) {
	s := BlockStack(1)
	adv := s.NewAdvance()
	for i := 0; i < 8; i++ {
		if err := adv.Advance(0.5); err != nil {
			t.Fatalf("stack failed at t=%f: %v", adv.Time(), err)
		}
	}
	// every block still above the one below, none launched away
	bodies := s.Sim.Bodies()
	prevTop := 0.0
	for _, b := range bodies[1:] {
		y := b.Position().Y()
		if y < prevTop {
			t.Errorf("%s sank to y=%f below %f", b.Name, y, prevTop)
		}
		if v := b.Velocity().Len(); v > 0.1 {
			t.Errorf("%s still moving at %f after settling", b.Name, v)
		}
		prevTop = y
	}
}
