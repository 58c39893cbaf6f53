package advance

import (
	"fmt"
	"math"

	"github.com/san-kum/rigidlab/internal/collision"
	"github.com/san-kum/rigidlab/internal/engine"
)

// CollisionAdvance advances a rigid-body simulation while localizing and
// resolving collision events. One Advance call loops through sub-steps:
// integrate the remaining interval, detect, and if a collision occurred
// strictly inside the interval, bisect to its instant, apply impulses and
// continue from the corrected state.
//
// A stuck counter tracks consecutive sub-steps that fail to make
// progress. Past 1 the search escalates to pure binary search; past the
// hard limit Advance fails with a KindStuck error instead of looping.
type CollisionAdvance struct {
	sim      *engine.RigidBodySim
	integ    engine.Integrator
	det      *collision.Detector
	imp      *collision.ImpulseSolver
	contacts *collision.ContactForceSolver

	timeStep      float64
	timeTol       float64 // collision-time localization accuracy
	minAdvance    float64 // minimum time progress per inner iteration
	maxBisects    int
	stuckLimit    int
	maxIterations int

	jointSmallImpacts bool

	totals collision.Totals
	stuck  int

	memo     func()
	waypoint func(stage string, t float64)

	saved engine.State
}

// NewCollisionAdvance returns a controller without contact stabilization:
// resting contact is handled purely through impulses. Attach a
// ContactForceSolver for the stabilized engine.
func NewCollisionAdvance(sim *engine.RigidBodySim, integ engine.Integrator, det *collision.Detector) *CollisionAdvance {
	return &CollisionAdvance{
		sim:           sim,
		integ:         integ,
		det:           det,
		imp:           collision.NewImpulseSolver(det.Tolerances().Velocity),
		timeStep:      0.025,
		timeTol:       1e-6,
		minAdvance:    1e-7,
		maxBisects:    30,
		stuckLimit:    3,
		maxIterations: 1000,
		saved:         sim.State().Clone(),
	}
}

// SetContactSolver installs contact-force stabilization and wires it into
// the simulation's derivative evaluation.
func (a *CollisionAdvance) SetContactSolver(s *collision.ContactForceSolver) {
	a.contacts = s
	a.sim.SetExtraForcer(s)
}

// SetJointSmallImpacts selects whether small joint violations go through
// the impulse path. Tighter joints and better energy conservation, at
// added cost per step.
func (a *CollisionAdvance) SetJointSmallImpacts(on bool) { a.jointSmallImpacts = on }

// SetMemorizer registers a callback invoked after every accepted
// sub-step, for data recording or display refresh.
func (a *CollisionAdvance) SetMemorizer(f func()) { a.memo = f }

// SetWaypointHook registers a tracing hook called at each stage of the
// advance state machine.
func (a *CollisionAdvance) SetWaypointHook(f func(stage string, t float64)) { a.waypoint = f }

func (a *CollisionAdvance) Totals() collision.Totals { return a.totals }

func (a *CollisionAdvance) Time() float64         { return a.sim.Time() }
func (a *CollisionAdvance) TimeStep() float64     { return a.timeStep }
func (a *CollisionAdvance) SetTimeStep(v float64) { a.timeStep = v }

func (a *CollisionAdvance) Save() { a.saved = a.sim.State().Clone() }

func (a *CollisionAdvance) Reset() {
	a.sim.SetState(a.saved)
	a.totals = collision.Totals{}
	a.stuck = 0
	a.det.SetSeed(a.det.Seed())
}

func (a *CollisionAdvance) way(stage string, t float64) {
	if a.waypoint != nil {
		a.waypoint(stage, t)
	}
}

// Advance moves simulation time forward by dt. On error the failed
// sub-step is rolled back: the state matches the last accepted sub-step.
func (a *CollisionAdvance) Advance(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("advance: dt must be positive, got %g", dt)
	}
	endTime := a.sim.Time() + dt

	for iter := 0; ; iter++ {
		remaining := endTime - a.sim.Time()
		if remaining <= a.minAdvance {
			return nil
		}
		if iter >= a.maxIterations {
			return &Error{
				Kind: KindTimeStall, Time: a.sim.Time(),
				Message: fmt.Sprintf("no time progress after %d iterations", iter),
			}
		}

		advanced, err := a.step(math.Min(remaining, a.timeStep))
		if err != nil {
			return err
		}
		if advanced < a.minAdvance {
			a.stuck++
			if a.stuck > a.stuckLimit {
				return &Error{
					Kind: KindStuck, Time: a.sim.Time(),
					Message: "cannot handle collision: search failed to converge " +
						fmt.Sprintf("%d times", a.stuck),
				}
			}
		}

		if a.memo != nil {
			a.memo()
		}
	}
}

// step runs one integrate-detect-resolve cycle over at most h and returns
// how much simulated time was retained.
func (a *CollisionAdvance) step(h float64) (float64, error) {
	t0 := a.sim.Time()
	x0 := a.sim.State().Clone()
	// Correction gains stay keyed to the nominal step: a tiny trailing
	// sub-step would otherwise blow up the 1/dt^2 distance gain.
	if a.contacts != nil {
		a.contacts.SetStepSize(a.timeStep)
	}

	a.way("integrate", t0)
	if err := a.integrate(x0, t0, h); err != nil {
		a.sim.SetState(x0)
		return 0, err
	}

	a.way("detect", a.sim.Time())
	cols := a.detect(h)
	if !a.anyTrouble(cols) {
		a.stuck = 0
		return h, nil
	}

	// A collision happened inside (0, h]: localize its instant, then
	// resolve at the localized state.
	adv := h
	if anyPenetrating(cols, a.det.Tolerances()) {
		a.totals.Searches++
		a.way("bisect", a.sim.Time())
		est := crossingEstimate(cols, h)
		var err error
		adv, err = a.localize(x0, t0, h, est)
		if err != nil {
			a.sim.SetState(x0)
			return 0, err
		}
		cols = a.detect(h)
	}

	a.way("resolve", a.sim.Time())
	resolved := a.imp.Resolve(a.impulseSet(cols))
	a.totals.Collisions += resolved
	a.sim.SyncFromBodies()

	if !anyPenetrating(a.detect(0), a.det.Tolerances()) && adv >= a.minAdvance {
		a.stuck = 0
	}
	return adv, nil
}

// localize finds the largest t in [0, h] for which integrating x0 by t
// leaves no body pair penetrating beyond tolerance, to within timeTol.
// est, when positive, is a cheap linear estimate tried as the first
// probe; once the controller is stuck past 1 the estimate is ignored and
// pure binary search is forced.
func (a *CollisionAdvance) localize(x0 engine.State, t0, h, est float64) (float64, error) {
	lo, hi := 0.0, h
	first := -1.0
	if a.stuck <= 1 && est > 0 && est < h {
		first = est
	}

	for i := 0; i < a.maxBisects && hi-lo > a.timeTol; i++ {
		mid := (lo + hi) / 2
		if first > lo && first < hi {
			mid = first
		}
		first = -1
		if err := a.integrate(x0, t0, mid); err != nil {
			return 0, err
		}
		if anyPenetrating(a.detect(0), a.det.Tolerances()) {
			hi = mid
		} else {
			lo = mid
		}
	}

	if err := a.integrate(x0, t0, lo); err != nil {
		return 0, err
	}
	return lo, nil
}

// integrate sets the simulation to the result of integrating x0 over dt.
func (a *CollisionAdvance) integrate(x0 engine.State, t0, dt float64) error {
	if dt == 0 {
		a.sim.SetState(x0)
		return nil
	}
	x1, err := a.integ.Step(a.sim, x0, t0, dt)
	if err != nil {
		return &Error{Kind: KindNonFinite, Time: t0, Message: "derivative evaluation failed", Wrapped: err}
	}
	if !x1.IsValid() {
		return &Error{Kind: KindNonFinite, Time: t0, Message: "state contains NaN or Inf"}
	}
	a.sim.SetState(x1)
	return nil
}

func (a *CollisionAdvance) detect(stepSize float64) []*collision.Collision {
	var out []*collision.Collision
	a.det.FindCollisions(&out, a.sim.Bodies(), stepSize)
	return out
}

// anyTrouble reports whether the records demand the resolve path: an
// impact within the touching band, a penetration, or a joint violation
// routed to impulses. A look-ahead record for an overlap predicted in
// the coming step is not trouble yet; the following step penetrates and
// the search localizes it then.
func (a *CollisionAdvance) anyTrouble(cols []*collision.Collision) bool {
	tol := a.det.Tolerances()
	for _, c := range cols {
		if c.Penetrating(tol) {
			return true
		}
		if c.IsJoint() {
			if a.jointSmallImpacts && math.Abs(c.NormalVelocity()) > tol.Velocity/10 {
				return true
			}
			continue
		}
		if c.NeedsImpulse() && c.Distance <= tol.Distance {
			return true
		}
	}
	return false
}

// impulseSet selects the records resolved through the impulse path.
// Impulses apply only at touching distance; look-ahead records stay out.
func (a *CollisionAdvance) impulseSet(cols []*collision.Collision) []*collision.Collision {
	tol := a.det.Tolerances()
	var set []*collision.Collision
	for _, c := range cols {
		switch {
		case c.IsJoint():
			if a.jointSmallImpacts && math.Abs(c.NormalVelocity()) > tol.Velocity/10 {
				set = append(set, c)
			}
		case c.NeedsImpulse() && c.Distance <= tol.Distance:
			set = append(set, c)
		}
	}
	return set
}

func anyPenetrating(cols []*collision.Collision, tol collision.Tolerances) bool {
	for _, c := range cols {
		if c.Penetrating(tol) {
			return true
		}
	}
	return false
}

// crossingEstimate extrapolates the deepest penetrating record back to
// its touching instant: t ~ h - d/v with d the (negative) gap and v the
// (negative) closing velocity.
func crossingEstimate(cols []*collision.Collision, h float64) float64 {
	deepest := 0.0
	est := -1.0
	for _, c := range cols {
		if c.IsJoint() || c.Distance >= deepest {
			continue
		}
		vn := c.NormalVelocity()
		if vn >= 0 {
			continue
		}
		deepest = c.Distance
		est = h - c.Distance/vn
	}
	if est <= 0 || est >= h {
		return -1
	}
	return est
}
