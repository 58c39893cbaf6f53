package viz

import (
	"math"
	"strings"

	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel grid with a world-coordinate viewport: all
// drawing takes world positions and maps them through the viewport, with
// the y axis pointing up.
type Canvas struct {
	Width, Height int
	Grid          [][]rune

	// world rectangle mapped onto the grid
	minX, minY, maxX, maxY float64
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.SetViewport(-5, -5, 5, 5)
	c.Clear()
	return c
}

// SetViewport chooses the world rectangle shown by the canvas.
func (c *Canvas) SetViewport(minX, minY, maxX, maxY float64) {
	c.minX, c.minY, c.maxX, c.maxY = minX, minY, maxX, maxY
}

// FitBodies sets the viewport to cover every body's bounds plus a margin,
// preserving the canvas aspect ratio. Braille cells are 2x4 sub-pixels,
// roughly square on common terminal fonts.
func (c *Canvas) FitBodies(bodies []*body.RigidBody, margin float64) {
	if len(bodies) == 0 {
		return
	}
	lo := geom.V(math.Inf(1), math.Inf(1))
	hi := geom.V(math.Inf(-1), math.Inf(-1))
	for _, b := range bodies {
		blo, bhi := b.Bounds()
		lo = geom.V(math.Min(lo.X(), blo.X()), math.Min(lo.Y(), blo.Y()))
		hi = geom.V(math.Max(hi.X(), bhi.X()), math.Max(hi.Y(), bhi.Y()))
	}
	lo = lo.Sub(geom.V(margin, margin))
	hi = hi.Add(geom.V(margin, margin))

	w, h := hi.X()-lo.X(), hi.Y()-lo.Y()
	aspect := float64(c.Width*2) / float64(c.Height*4)
	if w/h < aspect {
		grow := (h*aspect - w) / 2
		lo, hi = lo.Sub(geom.V(grow, 0)), hi.Add(geom.V(grow, 0))
	} else {
		grow := (w/aspect - h) / 2
		lo, hi = lo.Sub(geom.V(0, grow)), hi.Add(geom.V(0, grow))
	}
	c.SetViewport(lo.X(), lo.Y(), hi.X(), hi.Y())
}

// pixel maps a world point to sub-pixel coordinates.
func (c *Canvas) pixel(p geom.Vec) (int, int) {
	px := (p.X() - c.minX) / (c.maxX - c.minX) * float64(c.Width*2)
	py := (c.maxY - p.Y()) / (c.maxY - c.minY) * float64(c.Height*4)
	return int(math.Round(px)), int(math.Round(py))
}

func (c *Canvas) set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Plot marks a single world point.
func (c *Canvas) Plot(p geom.Vec) {
	x, y := c.pixel(p)
	c.set(x, y)
}

// Line draws a world-space segment with Bresenham's algorithm.
func (c *Canvas) Line(a, b geom.Vec) {
	x0, y0 := c.pixel(a)
	x1, y1 := c.pixel(b)

	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Arc draws a circular arc by sampling it finely enough that adjacent
// samples land on neighboring sub-pixels.
func (c *Canvas) Arc(center geom.Vec, radius, startAngle, span float64) {
	worldPerPx := (c.maxX - c.minX) / float64(c.Width*2)
	steps := int(math.Ceil(radius * math.Abs(span) / worldPerPx))
	if steps < 8 {
		steps = 8
	}
	prev := center.Add(geom.FromAngle(startAngle).Mul(radius))
	for i := 1; i <= steps; i++ {
		a := startAngle + span*float64(i)/float64(steps)
		next := center.Add(geom.FromAngle(a).Mul(radius))
		c.Line(prev, next)
		prev = next
	}
}

// DrawBody traces every edge of the body in world coordinates.
func (c *Canvas) DrawBody(b *body.RigidBody) {
	for _, e := range b.Edges() {
		switch e := e.(type) {
		case *body.StraightEdge:
			p1, p2 := e.WorldEndpoints()
			c.Line(p1, p2)
		case *body.CircularEdge:
			c.Arc(e.WorldCenter(), e.Radius(), e.WorldStartAngle(), e.Span())
		}
	}
}

// Clear resets the canvas to empty braille cells.
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
