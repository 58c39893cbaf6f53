package collision

import (
	"math"
	"math/rand"

	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

// Detector finds collision and contact records between rigid bodies.
// Broad phase is a cheap bounding-rectangle overlap test; narrow phase
// dispatches on edge geometry: vertex vs straight edge, vertex vs arc,
// arc vs straight edge, arc vs arc, and the vertex-vertex corner case.
//
// Geometric ties (a vertex exactly on a corner, coincident circle
// centers) are broken with a seeded generator so results reproduce
// exactly for a fixed seed.
type Detector struct {
	tol    Tolerances
	joints []*Joint
	seed   int64
	rng    *rand.Rand
}

func NewDetector(tol Tolerances, seed int64) *Detector {
	d := &Detector{tol: tol}
	d.SetSeed(seed)
	return d
}

// SetSeed resets the tie-break generator for reproducible runs.
func (d *Detector) SetSeed(seed int64) {
	d.seed = seed
	d.rng = rand.New(rand.NewSource(seed))
}

func (d *Detector) Seed() int64            { return d.seed }
func (d *Detector) Tolerances() Tolerances { return d.tol }

// SetTolerances replaces the detection bands; takes effect on the next
// FindCollisions call.
func (d *Detector) SetTolerances(tol Tolerances) { d.tol = tol }

func (d *Detector) AddJoint(j *Joint) { d.joints = append(d.joints, j) }
func (d *Detector) Joints() []*Joint  { return d.joints }

// FindCollisions appends records for every touching, overlapping or
// imminently overlapping body pair, plus one record per joint regardless
// of distance. stepSize scales the look-ahead for imminent overlap.
func (d *Detector) FindCollisions(out *[]*Collision, bodies []*body.RigidBody, stepSize float64) {
	for i := 0; i < len(bodies); i++ {
		for k := i + 1; k < len(bodies); k++ {
			a, b := bodies[i], bodies[k]
			if a.IsAnchored() && b.IsAnchored() {
				continue
			}
			if !d.boundsOverlap(a, b, stepSize) {
				continue
			}
			d.testPair(out, a, b, stepSize)
		}
	}
	for _, j := range d.joints {
		*out = append(*out, j.Record())
	}
}

func (d *Detector) boundsOverlap(a, b *body.RigidBody, stepSize float64) bool {
	grow := d.tol.Distance +
		(a.Velocity().Len()+b.Velocity().Len())*stepSize
	alo, ahi := a.Bounds()
	blo, bhi := b.Bounds()
	return alo.X() <= bhi.X()+grow && blo.X() <= ahi.X()+grow &&
		alo.Y() <= bhi.Y()+grow && blo.Y() <= ahi.Y()+grow
}

func (d *Detector) testPair(out *[]*Collision, a, b *body.RigidBody, stepSize float64) {
	var found []*Collision

	// Vertices of each body against the other body's boundary.
	d.testVertices(&found, a, b, stepSize)
	d.testVertices(&found, b, a, stepSize)

	// Curved edges against the other body's boundary.
	for _, ea := range a.Edges() {
		ca, ok := ea.(*body.CircularEdge)
		if !ok {
			continue
		}
		d.arcVsPolygon(&found, ca, b, stepSize)
		for _, eb := range b.Edges() {
			if cb, ok := eb.(*body.CircularEdge); ok {
				d.arcVsArc(&found, ca, cb, stepSize)
			}
		}
	}
	for _, eb := range b.Edges() {
		if cb, ok := eb.(*body.CircularEdge); ok {
			d.arcVsPolygon(&found, cb, a, stepSize)
		}
	}

	// The same touching feature can be reached from both sides of the
	// pair (corner against corner); keep one record per contact point.
	for _, c := range found {
		if !d.duplicate(*out, c) {
			*out = append(*out, c)
		}
	}
}

func (d *Detector) duplicate(existing []*Collision, c *Collision) bool {
	for _, e := range existing {
		sameBodies := (e.Primary == c.Primary && e.Secondary == c.Secondary) ||
			(e.Primary == c.Secondary && e.Secondary == c.Primary)
		if !sameBodies {
			continue
		}
		if e.Impact.Sub(c.Impact).Len() < d.tol.Distance &&
			math.Abs(e.Normal.Dot(c.Normal)) > 0.999 {
			return true
		}
	}
	return false
}

// testVertices tests every vertex of the vertex body against the edge
// body's boundary. Straight edges are treated together as a convex
// boundary so an interior vertex reports only its nearest face.
func (d *Detector) testVertices(out *[]*Collision, vertexBody, edgeBody *body.RigidBody, stepSize float64) {
	verts := vertexBody.WorldVertices()
	if len(verts) == 0 {
		return
	}
	hasStraight := false
	for _, e := range edgeBody.Edges() {
		if _, ok := e.(*body.StraightEdge); ok {
			hasStraight = true
			break
		}
	}

	for _, v := range verts {
		if hasStraight {
			d.vertexVsPolygon(out, v, vertexBody, edgeBody, stepSize)
		}
		for _, e := range edgeBody.Edges() {
			if arc, ok := e.(*body.CircularEdge); ok {
				d.vertexVsArc(out, v, vertexBody, arc, stepSize)
			}
		}
	}
}

// vertexVsPolygon tests world point v against the straight edges of a
// convex edge body. Inside or within tolerance of a face it reports the
// nearest face; past every face span it falls back to the nearest corner.
func (d *Detector) vertexVsPolygon(out *[]*Collision, v geom.Vec, vertexBody, edgeBody *body.RigidBody, stepSize float64) {
	best := math.Inf(-1)
	var bestEdge *body.StraightEdge
	inSpan := false

	for _, e := range edgeBody.Edges() {
		s, ok := e.(*body.StraightEdge)
		if !ok {
			continue
		}
		p1, p2 := s.WorldEndpoints()
		n := s.WorldNormal()
		sd := v.Sub(p1).Dot(n)
		_, t := geom.ClosestOnSegment(v, p1, p2)
		if t <= 0 || t >= 1 {
			continue
		}
		inSpan = true
		if sd > d.tol.Distance {
			// outside this face and beyond tolerance: cannot touch the
			// convex boundary anywhere
			return
		}
		if sd > best {
			best = sd
			bestEdge = s
		}
	}

	if inSpan && bestEdge != nil {
		d.emit(out, &Collision{
			Primary:   vertexBody,
			Secondary: edgeBody,
			Impact:    v,
			Normal:    bestEdge.WorldNormal(),
			Distance:  best,
		}, stepSize)
		return
	}

	// Corner region: nearest straight-edge vertex of the edge body.
	d.vertexVsVertex(out, v, vertexBody, edgeBody, stepSize)
}

// vertexVsVertex handles the corner-against-corner case where no face
// projection applies. The normal runs along the line between the corners;
// coincident corners are geometrically ambiguous and get a seeded random
// direction.
func (d *Detector) vertexVsVertex(out *[]*Collision, v geom.Vec, vertexBody, edgeBody *body.RigidBody, stepSize float64) {
	bestDist := math.Inf(1)
	var bestCorner geom.Vec
	for _, u := range edgeBody.WorldVertices() {
		if dist := v.Sub(u).Len(); dist < bestDist {
			bestDist = dist
			bestCorner = u
		}
	}
	if math.IsInf(bestDist, 1) || bestDist > d.tol.Distance {
		return
	}

	var n geom.Vec
	if bestDist > 0 {
		n = v.Sub(bestCorner).Mul(1 / bestDist)
	} else {
		n = d.randomDirection()
	}
	d.emit(out, &Collision{
		Primary:   vertexBody,
		Secondary: edgeBody,
		Impact:    v,
		Normal:    n,
		Distance:  bestDist,
	}, stepSize)
}

// vertexVsArc tests world point v against one circular edge.
func (d *Detector) vertexVsArc(out *[]*Collision, v geom.Vec, vertexBody *body.RigidBody, arc *body.CircularEdge, stepSize float64) {
	c := arc.WorldCenter()
	dv := v.Sub(c)
	dist := dv.Len()

	var n geom.Vec
	if dist > 0 {
		n = dv.Mul(1 / dist)
	} else {
		n = d.randomDirection()
	}
	if !arc.ContainsAngle(n) {
		return
	}

	var sd float64
	if arc.OutsideIsOut() {
		sd = dist - arc.Radius()
	} else {
		// concave cup: body material lies outside the circle, the cavity
		// inside; positive gap while the point stays within the radius
		sd = arc.Radius() - dist
		n = n.Mul(-1)
	}
	if sd > d.tol.Distance {
		return
	}
	d.emit(out, &Collision{
		Primary:   vertexBody,
		Secondary: arc.Body(),
		Impact:    v,
		Normal:    n,
		Distance:  sd,
	}, stepSize)
}

// arcVsPolygon tests a convex arc rim against the straight edges of a
// convex edge body, taken together as one boundary so only the nearest
// face reports. The corner regions of the edge body are covered by
// vertexVsArc.
func (d *Detector) arcVsPolygon(out *[]*Collision, arc *body.CircularEdge, edgeBody *body.RigidBody, stepSize float64) {
	if !arc.OutsideIsOut() {
		return
	}
	c := arc.WorldCenter()
	best := math.Inf(-1)
	var bestEdge *body.StraightEdge

	for _, e := range edgeBody.Edges() {
		s, ok := e.(*body.StraightEdge)
		if !ok {
			continue
		}
		p1, p2 := s.WorldEndpoints()
		_, t := geom.ClosestOnSegment(c, p1, p2)
		if t <= 0 || t >= 1 {
			continue
		}
		dc := c.Sub(p1).Dot(s.WorldNormal())
		if dc-arc.Radius() > d.tol.Distance {
			// rim clear of the convex boundary
			return
		}
		if dc > best {
			best = dc
			bestEdge = s
		}
	}
	if bestEdge == nil {
		return
	}

	n := bestEdge.WorldNormal()
	if !arc.ContainsAngle(n.Mul(-1)) {
		return
	}
	d.emit(out, &Collision{
		Primary:   arc.Body(),
		Secondary: edgeBody,
		Impact:    c.Sub(n.Mul(arc.Radius())),
		Normal:    n,
		Distance:  best - arc.Radius(),
	}, stepSize)
}

// arcVsArc tests two circular edges: rim against rim, or a convex rim
// inside a concave cup.
func (d *Detector) arcVsArc(out *[]*Collision, a, b *body.CircularEdge, stepSize float64) {
	if !a.OutsideIsOut() && !b.OutsideIsOut() {
		return
	}
	// Put the concave edge, if any, in cup.
	rim, cup := a, b
	if !a.OutsideIsOut() {
		rim, cup = b, a
	}

	c1 := rim.WorldCenter()
	c2 := cup.WorldCenter()
	dv := c1.Sub(c2)
	dist := dv.Len()
	var dir geom.Vec // from cup/other center toward rim center
	if dist > 0 {
		dir = dv.Mul(1 / dist)
	} else {
		dir = d.randomDirection()
	}

	if cup.OutsideIsOut() {
		// two convex rims
		sd := dist - rim.Radius() - cup.Radius()
		if sd > d.tol.Distance {
			return
		}
		if !rim.ContainsAngle(dir.Mul(-1)) || !cup.ContainsAngle(dir) {
			return
		}
		impact := c2.Add(dir.Mul(cup.Radius() + sd/2))
		d.emit(out, &Collision{
			Primary:   rim.Body(),
			Secondary: cup.Body(),
			Impact:    impact,
			Normal:    dir,
			Distance:  sd,
		}, stepSize)
		return
	}

	// convex rim inside concave cup: gap closes as the rim approaches
	// the cup surface, i.e. as the centers separate
	sd := cup.Radius() - rim.Radius() - dist
	if sd > d.tol.Distance {
		return
	}
	if !rim.ContainsAngle(dir) || !cup.ContainsAngle(dir) {
		return
	}
	impact := c2.Add(dir.Mul(cup.Radius() - sd/2))
	d.emit(out, &Collision{
		Primary:   rim.Body(),
		Secondary: cup.Body(),
		Impact:    impact,
		Normal:    dir.Mul(-1),
		Distance:  sd,
	}, stepSize)
}

// emit classifies and appends a candidate record. Within the distance and
// velocity bands it is a resting contact; overlapping beyond tolerance or
// closing fast enough to overlap within the coming step it is a
// collision; otherwise it is dropped.
func (d *Detector) emit(out *[]*Collision, c *Collision, stepSize float64) {
	c.Elasticity = c.Primary.Elasticity() * c.Secondary.Elasticity()
	c.TargetGap = d.tol.Distance / 2

	vn := c.NormalVelocity()
	switch {
	case math.Abs(c.Distance) <= d.tol.Distance && math.Abs(vn) <= d.tol.Velocity:
		c.Resting = true
	case c.Distance < -d.tol.Distance:
		c.Resting = false
	case vn < 0 && c.Distance+vn*stepSize < -d.tol.Distance:
		c.Resting = false
	case c.Distance <= d.tol.Distance && vn < -d.tol.Velocity:
		c.Resting = false
	default:
		return
	}
	*out = append(*out, c)
}

func (d *Detector) randomDirection() geom.Vec {
	return geom.FromAngle(2 * math.Pi * d.rng.Float64())
}
