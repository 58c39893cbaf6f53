package advance

import (
	"github.com/san-kum/rigidlab/internal/collision"
	"github.com/san-kum/rigidlab/internal/engine"
)

// Result is the recorded trajectory of one run: the state after every
// accepted sub-step, plus aggregate diagnostics.
type Result struct {
	Times   []float64
	States  []engine.State
	Totals  collision.Totals
	Metrics map[string]float64
}

// Steps is the number of recorded samples.
func (r *Result) Steps() int { return len(r.Times) }

// Recorder captures the simulation state after every accepted sub-step.
// Install it with SetMemorizer and read Result when the run ends.
type Recorder struct {
	sim    *engine.RigidBodySim
	result Result
}

func NewRecorder(sim *engine.RigidBodySim) *Recorder {
	r := &Recorder{sim: sim}
	r.result.Metrics = make(map[string]float64)
	r.Record()
	return r
}

// Record appends the current state; it is the Memorizer callback.
func (r *Recorder) Record() {
	r.result.Times = append(r.result.Times, r.sim.Time())
	r.result.States = append(r.result.States, r.sim.State().Clone())
}

// Finish stamps the run's totals and metric values onto the result.
func (r *Recorder) Finish(totals collision.Totals, metrics map[string]float64) *Result {
	r.result.Totals = totals
	for k, v := range metrics {
		r.result.Metrics[k] = v
	}
	return &r.result
}

func (r *Recorder) Result() *Result { return &r.result }
