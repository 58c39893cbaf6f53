package engine

import (
	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/force"
	"github.com/san-kum/rigidlab/internal/geom"
)

// Accel is the net acceleration of one body from the applied force laws.
type Accel struct {
	Linear  geom.Vec
	Angular float64
}

// ExtraForcer supplies additional constraint forces (contact and joint
// stabilization) on top of the ordinary force laws. It sees the
// accelerations the force laws alone would produce.
type ExtraForcer interface {
	ExtraForces(bodies []*body.RigidBody, accels []Accel, t float64) []force.Force
}

// RigidBodySim owns the bodies, the composed force laws and the state
// vector, and evaluates the unconstrained continuous dynamics. The state
// vector is the single source of truth; body poses are a cache synced
// from it before every geometric query.
type RigidBodySim struct {
	bodies []*body.RigidBody
	laws   []force.Law
	extra  ExtraForcer
	vars   State
}

func NewRigidBodySim() *RigidBodySim {
	return &RigidBodySim{vars: State{0}} // time slot only
}

// AddBody registers a body, assigns its base offset in the state vector
// and seeds its slots from the body's current pose.
func (s *RigidBodySim) AddBody(b *body.RigidBody) {
	b.SetBase(len(s.bodies) * SlotsPerBody)
	s.bodies = append(s.bodies, b)

	t := s.vars[len(s.vars)-1]
	vars := make(State, len(s.bodies)*SlotsPerBody+1)
	copy(vars, s.vars[:len(s.vars)-1])
	vars[len(vars)-1] = t
	s.vars = vars
	s.writeBody(s.vars, b)
}

func (s *RigidBodySim) Bodies() []*body.RigidBody { return s.bodies }

func (s *RigidBodySim) AddForceLaw(l force.Law) { s.laws = append(s.laws, l) }
func (s *RigidBodySim) ForceLaws() []force.Law  { return s.laws }

// SetExtraForcer installs the contact/joint stabilization source, or nil
// to run purely unconstrained dynamics.
func (s *RigidBodySim) SetExtraForcer(f ExtraForcer) { s.extra = f }

func (s *RigidBodySim) StateDim() int { return len(s.bodies)*SlotsPerBody + 1 }

// State returns the live state vector. Callers that need a snapshot must
// Clone it.
func (s *RigidBodySim) State() State { return s.vars }

func (s *RigidBodySim) SetState(x State) {
	copy(s.vars, x)
	s.SyncToBodies(s.vars)
}

func (s *RigidBodySim) Time() float64 { return s.vars[len(s.vars)-1] }

// SyncFromBodies writes every body's pose and velocity into the state
// vector, used after the resolver mutates bodies directly.
func (s *RigidBodySim) SyncFromBodies() {
	for _, b := range s.bodies {
		s.writeBody(s.vars, b)
	}
}

func (s *RigidBodySim) writeBody(x State, b *body.RigidBody) {
	i := b.Base()
	x[i+IdxX] = b.Position().X()
	x[i+IdxVX] = b.Velocity().X()
	x[i+IdxY] = b.Position().Y()
	x[i+IdxVY] = b.Velocity().Y()
	x[i+IdxAngle] = b.Angle()
	x[i+IdxAngVel] = b.AngularVel()
}

// SyncToBodies writes the state vector into every body's pose and
// velocity.
func (s *RigidBodySim) SyncToBodies(x State) {
	for _, b := range s.bodies {
		i := b.Base()
		b.SetPosition(geom.V(x[i+IdxX], x[i+IdxY]), x[i+IdxAngle])
		b.SetVelocity(geom.V(x[i+IdxVX], x[i+IdxVY]), x[i+IdxAngVel])
	}
}

// Derive evaluates the time derivative of x: position derivatives are the
// velocities, acceleration is net force over mass summed across all force
// laws plus any extra constraint forces. The final slot is time, with
// derivative 1.
func (s *RigidBodySim) Derive(x State, t float64) (State, error) {
	if len(x) != s.StateDim() {
		return nil, &StepError{Time: t, Wrapped: ErrDimensionMismatch}
	}
	s.SyncToBodies(x)

	accels := s.accelerations(t)

	if s.extra != nil {
		for _, f := range s.extra.ExtraForces(s.bodies, accels, t) {
			s.accumulate(accels, f)
		}
	}

	dx := make(State, len(x))
	for k, b := range s.bodies {
		i := b.Base()
		dx[i+IdxX] = x[i+IdxVX]
		dx[i+IdxVX] = accels[k].Linear.X()
		dx[i+IdxY] = x[i+IdxVY]
		dx[i+IdxVY] = accels[k].Linear.Y()
		dx[i+IdxAngle] = x[i+IdxAngVel]
		dx[i+IdxAngVel] = accels[k].Angular
	}
	dx[len(dx)-1] = 1 // time

	if !dx.IsValid() {
		return nil, &StepError{Time: t, Wrapped: ErrNonFinite}
	}
	return dx, nil
}

// accelerations sums the force laws into per-body accelerations, in body
// registration order.
func (s *RigidBodySim) accelerations(t float64) []Accel {
	accels := make([]Accel, len(s.bodies))
	for _, law := range s.laws {
		for _, f := range law.CalculateForces(s.bodies, t) {
			s.accumulate(accels, f)
		}
	}
	return accels
}

func (s *RigidBodySim) accumulate(accels []Accel, f force.Force) {
	b := f.Body
	if b.IsAnchored() {
		return
	}
	k := b.Base() / SlotsPerBody
	accels[k].Linear = accels[k].Linear.Add(f.Vector.Mul(b.InvMass()))
	accels[k].Angular += f.Moment() * b.InvMoment()
}

// Energy returns total mechanical energy of state x: kinetic energy of all
// bodies plus potential energy of all force laws.
func (s *RigidBodySim) Energy(x State) float64 {
	s.SyncToBodies(x)
	e := 0.0
	for _, b := range s.bodies {
		e += b.KineticEnergy()
	}
	for _, law := range s.laws {
		e += law.PotentialEnergy(s.bodies)
	}
	return e
}
