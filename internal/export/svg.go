package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/rigidlab/internal/body"
	"github.com/san-kum/rigidlab/internal/geom"
)

// svgFrame maps a world rectangle onto an SVG pixel grid, y flipped so the
// world y axis points up.
type svgFrame struct {
	minX, minY float64
	scale      float64
	width      int
	height     int
}

func frameFor(bodies []*body.RigidBody, width, height int, margin float64) svgFrame {
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
	scale := math.Min(float64(width)/w, float64(height)/h)
	// center the scene inside the frame
	lo = lo.Sub(geom.V(
		(float64(width)/scale-w)/2,
		(float64(height)/scale-h)/2,
	))
	return svgFrame{minX: lo.X(), minY: lo.Y(), scale: scale, width: width, height: height}
}

func (f svgFrame) px(p geom.Vec) (float64, float64) {
	return (p.X() - f.minX) * f.scale, float64(f.height) - (p.Y()-f.minY)*f.scale
}

// SceneSVG renders every body's edges as an SVG image. Circular edges are
// sampled into short polyline segments so full circles and wide arcs need no
// special casing.
func SceneSVG(bodies []*body.RigidBody, width, height int, margin float64) string {
	if len(bodies) == 0 {
		return ""
	}
	f := frameFor(bodies, width, height, margin)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="none" stroke="#00ff00" stroke-width="1.5">
`, width, height, width, height))

	for _, b := range bodies {
		for _, e := range b.Edges() {
			switch e := e.(type) {
			case *body.StraightEdge:
				p1, p2 := e.WorldEndpoints()
				x1, y1 := f.px(p1)
				x2, y2 := f.px(p2)
				sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x1, y1, x2, y2))
			case *body.CircularEdge:
				sb.WriteString(arcPath(f, e))
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func arcPath(f svgFrame, e *body.CircularEdge) string {
	center := e.WorldCenter()
	start := e.WorldStartAngle()
	span := e.Span()

	steps := int(math.Ceil(e.Radius() * math.Abs(span) * f.scale / 4))
	if steps < 12 {
		steps = 12
	}

	var sb strings.Builder
	sb.WriteString(`<path d="M`)
	for i := 0; i <= steps; i++ {
		a := start + span*float64(i)/float64(steps)
		x, y := f.px(center.Add(geom.FromAngle(a).Mul(e.Radius())))
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")
	return sb.String()
}

// TrajectorySVG plots a sequence of world points, one polyline per trace.
func TrajectorySVG(traces [][]geom.Vec, width, height int, strokeColor string) string {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0
	for _, tr := range traces {
		for _, p := range tr {
			minX = math.Min(minX, p.X())
			maxX = math.Max(maxX, p.X())
			minY = math.Min(minY, p.Y())
			maxY = math.Max(maxY, p.Y())
			n++
		}
	}
	if n < 2 {
		return ""
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, tr := range traces {
		if len(tr) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))
		for i, p := range tr {
			x := (p.X() - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y()-minY)/rangeY*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
