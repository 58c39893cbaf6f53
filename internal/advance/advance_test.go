package advance

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/collision"
	"github.com/san-kum/rigidlab/internal/engine"
	"github.com/san-kum/rigidlab/internal/force"
	"github.com/san-kum/rigidlab/internal/geom"
	"github.com/san-kum/rigidlab/internal/integrators"
)

const g = 9.81

// dropScene builds a ball of the given elasticity falling onto an
// anchored floor whose top surface is at y=0.
func dropScene(elasticity, dropHeight float64) (*engine.RigidBodySim, *body.RigidBody, *collision.Detector) {
	sim := engine.NewRigidBodySim()
	sim.AddForceLaw(force.NewGravity(g))

	floor := body.NewFloor("floor", 0, 40)
	sim.AddBody(floor)

	ball := body.NewBall("ball", 1, 1)
	ball.SetPosition(geom.V(0, 1+dropHeight), 0)
	ball.SetElasticity(elasticity)
	ball.SetZeroEnergyLevel(1.005)
	sim.AddBody(ball)
	sim.SyncFromBodies()

	det := collision.NewDetector(collision.DefaultTolerances(), 1)
	return sim, ball, det
}

func TestFreeFallMatchesClosedForm(t *testing.T) {
	sim := engine.NewRigidBodySim()
	sim.AddForceLaw(force.NewGravity(g))
	ball := body.NewBall("ball", 1, 1)
	ball.SetPosition(geom.V(0, 100), 0)
	sim.AddBody(ball)
	sim.SyncFromBodies()

	adv := NewCollisionAdvance(sim, integrators.NewRK4(),
		collision.NewDetector(collision.DefaultTolerances(), 1))

	if err := adv.Advance(1.0); err != nil {
		t.Fatal(err)
	}
	if math.Abs(adv.Time()-1.0) > 1e-6 {
		t.Errorf("time after Advance(1): %f", adv.Time())
	}
	wantY := 100 - g/2
	if math.Abs(ball.Position().Y()-wantY) > 1e-6 {
		t.Errorf("free fall y: want %f, got %f", wantY, ball.Position().Y())
	}
	if math.Abs(ball.Velocity().Y()+g) > 1e-6 {
		t.Errorf("free fall vy: want %f, got %f", -g, ball.Velocity().Y())
	}
	if tot := adv.Totals(); tot.Collisions != 0 || tot.Searches != 0 {
		t.Errorf("free fall should resolve nothing, got %+v", tot)
	}
}

func TestElasticBounceConservesEnergy(t *testing.T) {
	sim, ball, det := dropScene(1.0, 1.0)
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)

	e0 := sim.Energy(sim.State())
	if err := adv.Advance(1.5); err != nil {
		t.Fatal(err)
	}

	if adv.Totals().Collisions == 0 {
		t.Fatal("ball never hit the floor")
	}
	e1 := sim.Energy(sim.State())
	if math.Abs(e1-e0) > 1e-3*math.Abs(e0) {
		t.Errorf("elastic bounce drifted energy: %f -> %f", e0, e1)
	}
	// the ball is back in flight above the floor
	if y := ball.Position().Y(); y < 1-0.011 {
		t.Errorf("ball below floor surface: y=%f", y)
	}
}

func TestBounceLocalizedNearSurface(t *testing.T) {
	sim, _, det := dropScene(1.0, 0.5)
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)

	// Watch the state at every accepted sub-step: the ball must never be
	// seen penetrating beyond tolerance, even mid-bounce.
	minY := math.Inf(1)
	adv.SetMemorizer(func() {
		if y := sim.Bodies()[1].Position().Y(); y < minY {
			minY = y
		}
	})
	if err := adv.Advance(2.0); err != nil {
		t.Fatal(err)
	}
	if adv.Totals().Searches == 0 {
		t.Fatal("expected at least one binary search")
	}
	if minY < 1-0.011 {
		t.Errorf("penetration beyond tolerance at a recorded step: minY=%f", minY)
	}
}

func TestGrazingImpactSkipsBinarySearch(t *testing.T) {
	// A slow approach caught inside the distance band resolves directly
	// through the impulse path: no step ever penetrates, no bisection
	// runs, and the search counter must say so.
	sim := engine.NewRigidBodySim()
	sim.AddBody(body.NewFloor("floor", 0, 40))
	ball := body.NewBall("ball", 1, 1)
	ball.SetPosition(geom.V(0, 1.006), 0)
	ball.SetVelocity(geom.V(0, -0.2), 0)
	sim.AddBody(ball)
	sim.SyncFromBodies()

	det := collision.NewDetector(collision.DefaultTolerances(), 1)
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)

	if err := adv.Advance(0.5); err != nil {
		t.Fatal(err)
	}
	tot := adv.Totals()
	if tot.Collisions == 0 {
		t.Fatal("ball never bounced")
	}
	if tot.Searches != 0 {
		t.Errorf("no step ever penetrated, yet %d searches ran", tot.Searches)
	}
	if vy := ball.Velocity().Y(); vy <= 0 {
		t.Errorf("ball should rebound upward, got vy=%f", vy)
	}
}

func TestTimeIsMonotonic(t *testing.T) {
	sim, _, det := dropScene(0.6, 0.8)
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)
	adv.SetContactSolver(collision.NewContactForceSolver(det, collision.PolicyVelocityAndDistance))

	last := 0.0
	adv.SetMemorizer(func() {
		if sim.Time() < last {
			t.Fatalf("time went backwards: %f -> %f", last, sim.Time())
		}
		last = sim.Time()
	})
	for i := 0; i < 6; i++ {
		if err := adv.Advance(0.5); err != nil {
			t.Fatal(err)
		}
	}
	if math.Abs(adv.Time()-3.0) > 1e-5 {
		t.Errorf("expected t=3, got %f", adv.Time())
	}
}

func TestImpulseOnlyRestingGetsStuck(t *testing.T) {
	// Without contact forces an inelastic ball settling on the floor
	// degenerates into an infinite sequence of ever-smaller bounces; the
	// controller must fail with a typed error rather than hang.
	sim, _, det := dropScene(0.8, 1.0)
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)

	var err error
	for adv.Time() < 15 {
		if err = adv.Advance(0.5); err != nil {
			break
		}
	}
	if err == nil {
		t.Fatal("impulse-only resting contact should fail before t=15")
	}
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *advance.Error, got %T: %v", err, err)
	}
	if ae.Kind != KindStuck {
		t.Errorf("expected KindStuck, got %v", ae.Kind)
	}
	if ae.Time >= 15 {
		t.Errorf("failure reported at t=%f", ae.Time)
	}
	if !sim.State().IsValid() {
		t.Error("state must stay finite after a stuck failure")
	}
}

func TestStabilizedRestingSettles(t *testing.T) {
	sim, ball, det := dropScene(0.8, 0.3)
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)
	adv.SetContactSolver(collision.NewContactForceSolver(det, collision.PolicyVelocityAndDistance))

	for i := 0; i < 10; i++ {
		if err := adv.Advance(0.5); err != nil {
			t.Fatalf("stabilized engine failed at t=%f: %v", adv.Time(), err)
		}
	}

	// Ball held at rest near the target half gap above the floor.
	if y := ball.Position().Y(); math.Abs(y-1.005) > 0.01 {
		t.Errorf("resting height %f, want about 1.005", y)
	}
	if v := ball.Velocity().Len(); v > 0.05 {
		t.Errorf("resting ball still moving at %f", v)
	}
}

func TestSeedDeterminism(t *testing.T) {
	run := func() (engine.State, collision.Totals) {
		sim, _, det := dropScene(0.9, 0.7)
		// second ball makes the impact sequence less trivial
		b2 := body.NewBall("ball2", 0.5, 2)
		b2.SetPosition(geom.V(0.3, 3), 0)
		b2.SetElasticity(0.9)
		sim.AddBody(b2)
		sim.SyncFromBodies()

		adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)
		adv.SetContactSolver(collision.NewContactForceSolver(det, collision.PolicyVelocityAndDistance))
		for i := 0; i < 6; i++ {
			if err := adv.Advance(0.5); err != nil {
				t.Fatal(err)
			}
		}
		return sim.State().Clone(), adv.Totals()
	}

	s1, t1 := run()
	s2, t2 := run()
	if t1 != t2 {
		t.Errorf("totals differ across identical runs: %+v vs %+v", t1, t2)
	}
	for i := range s1 {
		if s1[i] != s2[i] {
			t.Fatalf("state slot %d differs: %g vs %g", i, s1[i], s2[i])
		}
	}
}

func TestJointPendulumStaysTight(t *testing.T) {
	sim := engine.NewRigidBodySim()
	sim.AddForceLaw(force.NewGravity(g))

	// anchor body placed far from the rod so only the joint couples them
	anchor := body.NewBlock("anchor", 1, 1, 1)
	anchor.SetInfiniteMass()
	anchor.SetPosition(geom.V(0, 5), 0)
	sim.AddBody(anchor)

	rod := body.NewBlock("rod", 1, 0.2, 1)
	rod.SetPosition(geom.V(0.5, 0), 0) // horizontal, pivot at the origin
	sim.AddBody(rod)
	sim.SyncFromBodies()

	det := collision.NewDetector(collision.DefaultTolerances(), 1)
	joints := collision.NewDoubleJoint(rod, anchor, geom.V(-0.5, 0), geom.V(0, -5))
	det.AddJoint(joints[0])
	det.AddJoint(joints[1])

	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)
	adv.SetContactSolver(collision.NewContactForceSolver(det, collision.PolicyVelocityAndDistanceJoints))
	adv.SetJointSmallImpacts(true)

	maxSwing := 0.0
	adv.SetMemorizer(func() {
		if a := math.Abs(rod.Angle()); a > maxSwing {
			maxSwing = a
		}
	})
	for i := 0; i < 8; i++ {
		if err := adv.Advance(0.25); err != nil {
			t.Fatalf("pendulum failed at t=%f: %v", adv.Time(), err)
		}
		for _, j := range joints {
			if d := math.Abs(j.NormalDistance()); d > 0.01 {
				t.Fatalf("joint separated by %f at t=%f", d, adv.Time())
			}
		}
	}

	// It actually swung well away from horizontal at some point.
	if maxSwing < 0.5 {
		t.Errorf("pendulum barely moved: max swing %f", maxSwing)
	}
}

func TestSaveAndReset(t *testing.T) {
	sim, _, det := dropScene(1.0, 1.0)
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)

	initial := sim.State().Clone()
	if err := adv.Advance(1.5); err != nil {
		t.Fatal(err)
	}
	if adv.Totals().Collisions == 0 {
		t.Fatal("scenario produced no collisions")
	}

	adv.Reset()
	if adv.Time() != 0 {
		t.Errorf("time after reset: %f", adv.Time())
	}
	now := sim.State()
	for i := range initial {
		if now[i] != initial[i] {
			t.Fatalf("state slot %d not restored: %g vs %g", i, now[i], initial[i])
		}
	}
	if tot := adv.Totals(); tot != (collision.Totals{}) {
		t.Errorf("totals not cleared: %+v", tot)
	}

	// Save establishes a new restore point.
	if err := adv.Advance(0.25); err != nil {
		t.Fatal(err)
	}
	adv.Save()
	mark := sim.State().Clone()
	if err := adv.Advance(0.5); err != nil {
		t.Fatal(err)
	}
	adv.Reset()
	for i := range mark {
		if sim.State()[i] != mark[i] {
			t.Fatalf("state slot %d not restored to save point", i)
		}
	}
}

func TestAdvanceRejectsNonPositiveStep(t *testing.T) {
	sim, _, det := dropScene(1.0, 1.0)
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)
	if err := adv.Advance(0); err == nil {
		t.Error("Advance(0) must fail")
	}
	if err := adv.Advance(-0.1); err == nil {
		t.Error("Advance(-0.1) must fail")
	}
}

type blowUpLaw struct{ after float64 }

func (l *blowUpLaw) CalculateForces(bodies []*body.RigidBody, t float64) []force.Force {
	if t < l.after {
		return nil
	}
	return []force.Force{{
		Body:     bodies[len(bodies)-1],
		Location: bodies[len(bodies)-1].Position(),
		Vector:   geom.V(math.NaN(), 0),
	}}
}

func (l *blowUpLaw) PotentialEnergy(bodies []*body.RigidBody) float64 { return 0 }

func TestNonFiniteDerivativeRollsBack(t *testing.T) {
	sim, _, det := dropScene(1.0, 5.0)
	sim.AddForceLaw(&blowUpLaw{after: 0.2})
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)

	err := adv.Advance(1.0)
	if err == nil {
		t.Fatal("NaN force must fail the advance")
	}
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *advance.Error, got %T", err)
	}
	if ae.Kind != KindNonFinite {
		t.Errorf("expected KindNonFinite, got %v", ae.Kind)
	}
	if !sim.State().IsValid() {
		t.Error("failed step must be rolled back to a finite state")
	}
	if adv.Time() >= 0.2+0.026 {
		t.Errorf("time ran past the failure point: %f", adv.Time())
	}
}

func TestWaypointHookSeesStages(t *testing.T) {
	sim, _, det := dropScene(1.0, 0.5)
	adv := NewCollisionAdvance(sim, integrators.NewRK4(), det)

	seen := map[string]bool{}
	adv.SetWaypointHook(func(stage string, t float64) { seen[stage] = true })
	if err := adv.Advance(1.0); err != nil {
		t.Fatal(err)
	}
	for _, stage := range []string{"integrate", "detect", "bisect", "resolve"} {
		if !seen[stage] {
			t.Errorf("stage %q never reported", stage)
		}
	}
}
