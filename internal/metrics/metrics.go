// Package metrics provides running observers over a rigid body
// simulation: sample after every accepted step, read the aggregate at
// the end.
package metrics

// Metric accumulates one diagnostic over a run.
type Metric interface {
	Name() string
	// Observe samples the current simulation state at time t.
	Observe(t float64)
	Value() float64
	Reset()
}
