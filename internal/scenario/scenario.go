// Package scenario builds ready-to-run rigid body scenes: bodies, force
// laws, joints and the collision settings that suit each one.
package scenario

import (
	"fmt"
	"sort"

	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/collision"
	"github.com/san-kum/rigidlab/internal/engine"
	"github.com/san-kum/rigidlab/internal/force"
	"github.com/san-kum/rigidlab/internal/geom"
)

const Gravity = 9.81

// Scenario is a fully assembled scene plus the collision handling
// settings it is meant to run with.
type Scenario struct {
	Name     string
	Sim      *engine.RigidBodySim
	Detector *collision.Detector
	Joints   []*collision.Joint

	// Policy is the contact-force stabilization the scene needs; scenes
	// of pure impacts run fine with PolicyNone.
	Policy            collision.Policy
	JointSmallImpacts bool
}

// Builder constructs a named scenario with the detector seeded for
// reproducible tie-breaking.
type Builder func(seed int64) *Scenario

var builders = map[string]Builder{
	"ball-block":     BallHitsBlock,
	"bouncing-ball":  BouncingBall,
	"falling-ball":   FallingBall,
	"joint-pendulum": JointPendulum,
	"stack":          BlockStack,
}

// New builds the named scenario.
func New(name string, seed int64) (*Scenario, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("scenario: unknown scenario %q", name)
	}
	return b(seed), nil
}

// List returns all scenario names, sorted.
func List() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newScene(name string, seed int64) *Scenario {
	return &Scenario{
		Name:     name,
		Sim:      engine.NewRigidBodySim(),
		Detector: collision.NewDetector(collision.DefaultTolerances(), seed),
	}
}

// BallHitsBlock is a spinning ball with an off-center mass distribution
// striking a free block, no gravity or damping, both elasticities 1:
// total energy and momentum are conserved across the impact. The spin
// carries the center of mass into the impact normal at the block corner,
// so the ball hands nearly all of its momentum to the block.
func BallHitsBlock(seed int64) *Scenario {
	s := newScene("ball-block", seed)

	ball := body.NewBall("ball", 0.75, 1)
	ball.SetCMOffset(geom.V(0, 0.2))
	ball.SetPosition(geom.V(-2, 2), 0)
	ball.SetVelocity(geom.V(1, -1), 1)
	ball.SetElasticity(1)
	s.Sim.AddBody(ball)

	block := body.NewBlock("block", 1, 1, 1)
	block.SetPosition(geom.V(0, 0), 0)
	block.SetElasticity(1)
	s.Sim.AddBody(block)

	s.Sim.SyncFromBodies()
	return s
}

// BouncingBall drops an inelastic ball onto a floor; contact forces take
// over once the bounces decay into resting contact.
func BouncingBall(seed int64) *Scenario {
	s := newScene("bouncing-ball", seed)
	s.Policy = collision.PolicyVelocityAndDistance
	s.Sim.AddForceLaw(force.NewGravity(Gravity))

	s.Sim.AddBody(body.NewFloor("floor", 0, 40))

	ball := body.NewBall("ball", 1, 1)
	ball.SetPosition(geom.V(0, 3), 0)
	ball.SetElasticity(0.8)
	ball.SetZeroEnergyLevel(1)
	s.Sim.AddBody(ball)

	s.Sim.SyncFromBodies()
	return s
}

// FallingBall is BouncingBall without contact stabilization. The decaying
// bounce sequence eventually defeats the collision search and the
// advance fails with a stuck error; the scene exists to demonstrate that
// failure mode.
func FallingBall(seed int64) *Scenario {
	s := BouncingBall(seed)
	s.Name = "falling-ball"
	s.Policy = collision.PolicyNone
	return s
}

// JointPendulum is a rod pinned at one end by a double joint, swinging
// from horizontal under gravity.
func JointPendulum(seed int64) *Scenario {
	s := newScene("joint-pendulum", seed)
	s.Policy = collision.PolicyVelocityAndDistanceJoints
	s.JointSmallImpacts = true
	s.Sim.AddForceLaw(force.NewGravity(Gravity))

	anchor := body.NewBlock("anchor", 1, 1, 1)
	anchor.SetInfiniteMass()
	anchor.SetPosition(geom.V(0, 5), 0)
	s.Sim.AddBody(anchor)

	rod := body.NewBlock("rod", 1, 0.2, 1)
	rod.SetPosition(geom.V(0.5, 0), 0)
	rod.SetZeroEnergyLevel(0)
	s.Sim.AddBody(rod)

	for _, j := range collision.NewDoubleJoint(rod, anchor, geom.V(-0.5, 0), geom.V(0, -5)) {
		s.Joints = append(s.Joints, j)
		s.Detector.AddJoint(j)
	}

	s.Sim.SyncFromBodies()
	return s
}

// BlockStack piles three inelastic blocks on a floor; the stack must
// settle instead of jittering apart.
func BlockStack(seed int64) *Scenario {
	s := newScene("stack", seed)
	s.Policy = collision.PolicyVelocityAndDistance
	s.Sim.AddForceLaw(force.NewGravity(Gravity))

	s.Sim.AddBody(body.NewFloor("floor", 0, 40))

	for i := 0; i < 3; i++ {
		b := body.NewBlock(fmt.Sprintf("block%d", i+1), 1, 1, 1)
		// slight horizontal stagger so the stack is not perfectly
		// symmetric
		b.SetPosition(geom.V(0.05*float64(i), 0.51+1.02*float64(i)), 0)
		b.SetZeroEnergyLevel(0.5 + float64(i))
		s.Sim.AddBody(b)
	}

	s.Sim.SyncFromBodies()
	return s
}
