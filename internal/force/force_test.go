package force

import (
	"math"
	"testing"

	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

func TestGravityForces(t *testing.T) {
	ball := body.NewBall("ball", 1, 2)
	ball.SetPosition(geom.V(0, 5), 0)
	floor := body.NewFloor("floor", 0, 10)
	bodies := []*body.RigidBody{ball, floor}

	g := NewGravity(9.81)
	forces := g.CalculateForces(bodies, 0)

	if len(forces) != 1 {
		t.Fatalf("expected 1 force (anchored body skipped), got %d", len(forces))
	}
	want := -9.81 * 2
	if math.Abs(forces[0].Vector.Y()-want) > 1e-12 {
		t.Errorf("expected Fy %f, got %f", want, forces[0].Vector.Y())
	}
	if forces[0].Moment() != 0 {
		t.Error("gravity through CM should produce no torque")
	}
}

func TestGravityPotentialEnergy(t *testing.T) {
	ball := body.NewBall("ball", 1, 2)
	ball.SetPosition(geom.V(0, 5), 0)
	ball.SetZeroEnergyLevel(1)

	g := NewGravity(10)
	pe := g.PotentialEnergy([]*body.RigidBody{ball})
	if math.Abs(pe-2*10*4) > 1e-12 {
		t.Errorf("expected PE 80, got %f", pe)
	}
}

func TestDampingOpposesMotion(t *testing.T) {
	ball := body.NewBall("ball", 1, 1)
	ball.SetVelocity(geom.V(3, 0), 2)

	d := NewDamping(0.5, 0.25)
	forces := d.CalculateForces([]*body.RigidBody{ball}, 0)

	if len(forces) != 1 {
		t.Fatalf("expected 1 force, got %d", len(forces))
	}
	if math.Abs(forces[0].Vector.X()+1.5) > 1e-12 {
		t.Errorf("expected Fx -1.5, got %f", forces[0].Vector.X())
	}
	if math.Abs(forces[0].Torque+0.5) > 1e-12 {
		t.Errorf("expected torque -0.5, got %f", forces[0].Torque)
	}
	if d.PotentialEnergy(nil) != 0 {
		t.Error("damping should store no energy")
	}
}

func TestSpringForcePair(t *testing.T) {
	a := body.NewBall("a", 0.1, 1)
	a.SetPosition(geom.V(0, 0), 0)
	b := body.NewBall("b", 0.1, 1)
	b.SetPosition(geom.V(3, 0), 0)

	s := NewSpring(a, b, geom.Vec{}, geom.Vec{}, 1, 2)
	forces := s.CalculateForces(nil, 0)

	if len(forces) != 2 {
		t.Fatalf("expected 2 forces, got %d", len(forces))
	}
	// Stretched by 2 at stiffness 2: pull of magnitude 4, equal and opposite.
	if math.Abs(forces[0].Vector.X()-4) > 1e-12 {
		t.Errorf("expected Fx 4 on a, got %f", forces[0].Vector.X())
	}
	if forces[0].Vector.Add(forces[1].Vector).Len() > 1e-12 {
		t.Error("spring forces are not equal and opposite")
	}

	pe := s.PotentialEnergy(nil)
	if math.Abs(pe-0.5*2*4) > 1e-12 {
		t.Errorf("expected PE 4, got %f", pe)
	}
}

func TestSpringToAnchor(t *testing.T) {
	a := body.NewBall("a", 0.1, 1)
	a.SetPosition(geom.V(0, 0), 0)

	s := NewSpring(a, nil, geom.Vec{}, geom.V(0, 2), 1, 3)
	forces := s.CalculateForces(nil, 0)

	if len(forces) != 1 {
		t.Fatalf("expected 1 force, got %d", len(forces))
	}
	if math.Abs(forces[0].Vector.Y()-3) > 1e-12 {
		t.Errorf("expected Fy 3, got %f", forces[0].Vector.Y())
	}
}
