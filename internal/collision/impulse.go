package collision

import (
	"math"

	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

// ImpulseSolver converts a set of simultaneous collision records into
// velocity impulses. All records are solved together so resolving one
// contact cannot reintroduce a velocity violation at another: the solver
// iterates a projected Gauss-Seidel relaxation over the full coupling
// matrix, clamping contact impulses to be repulsive while leaving joint
// impulses unconstrained.
type ImpulseSolver struct {
	// VelocityTol bounds the residual normal velocity accepted as solved.
	VelocityTol float64
	// MaxIterations bounds the relaxation loop.
	MaxIterations int
}

func NewImpulseSolver(velocityTol float64) *ImpulseSolver {
	return &ImpulseSolver{VelocityTol: velocityTol, MaxIterations: 60}
}

// Resolve computes and applies impulses for the given records. For a
// record with closing normal velocity v and elasticity e the post-impulse
// relative normal velocity is -e*v; joints and resting contacts target
// zero. Returns the number of records that actually received an impulse.
func (s *ImpulseSolver) Resolve(records []*Collision) int {
	n := len(records)
	if n == 0 {
		return 0
	}

	// b[i]: required change in normal velocity at record i.
	b := make([]float64, n)
	active := 0
	for i, c := range records {
		vn := c.NormalVelocity()
		target := 0.0
		if !c.IsJoint() && !c.Resting && vn < 0 {
			target = -c.Elasticity * vn
		}
		b[i] = target - vn
		if b[i] != 0 {
			active++
		}
	}
	if active == 0 {
		return 0
	}

	a := couplingMatrix(records)
	j := make([]float64, n)

	for iter := 0; iter < s.MaxIterations; iter++ {
		worst := 0.0
		for i := range records {
			if a[i][i] == 0 {
				continue // both bodies anchored along this normal
			}
			resid := b[i]
			for k := range records {
				resid -= a[i][k] * j[k]
			}
			next := j[i] + resid/a[i][i]
			if !records[i].IsJoint() && next < 0 {
				next = 0
			}
			change := next - j[i]
			j[i] = next
			worst = math.Max(worst, math.Abs(change*a[i][i]))
		}
		if worst < s.VelocityTol/10 {
			break
		}
	}

	applied := 0
	for i, c := range records {
		if j[i] == 0 {
			continue
		}
		imp := c.Normal.Mul(j[i])
		c.Primary.ApplyImpulse(imp, c.Impact)
		c.Secondary.ApplyImpulse(imp.Mul(-1), c.Impact)
		applied++
	}
	return applied
}

// couplingMatrix returns a where a[i][k] is the change in normal velocity
// at record i caused by a unit impulse at record k. The same matrix maps
// contact forces to normal accelerations.
func couplingMatrix(records []*Collision) [][]float64 {
	n := len(records)
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		for k := range a[i] {
			ci, ck := records[i], records[k]
			a[i][k] = impulseEffect(ci.Primary, ci.Impact, ci.Normal, ck) -
				impulseEffect(ci.Secondary, ci.Impact, ci.Normal, ck)
		}
	}
	return a
}

// impulseEffect is the velocity change along n at world point p of body b
// caused by a unit impulse at record c.
func impulseEffect(b *body.RigidBody, p, n geom.Vec, c *Collision) float64 {
	sign := 0.0
	if b == c.Primary {
		sign = 1
	} else if b == c.Secondary {
		sign = -1
	} else {
		return 0
	}
	// linear part
	v := c.Normal.Mul(b.InvMass())
	// angular part: dw = (r_impulse x n_c)/I, dv_p = dw x r_p
	dw := geom.Cross(c.Impact.Sub(b.Position()), c.Normal) * b.InvMoment()
	v = v.Add(geom.CrossScalar(dw, p.Sub(b.Position())))
	return sign * v.Dot(n)
}
