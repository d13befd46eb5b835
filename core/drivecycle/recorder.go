package drivecycle

import "github.com/brg2/OpenEVT/core/model"

// Recorder captures manually driven inputs as a replayable cycle.
type Recorder struct {
	name    string
	samples []Sample
}

// NewRecorder starts an empty trace with the given name.
func NewRecorder(name string) *Recorder {
	return &Recorder{name: name}
}

// Observe appends the inputs active at simulation time t. Samples arriving
// out of order are dropped so the resulting cycle always validates.
func (r *Recorder) Observe(t float64, in model.Inputs) {
	if n := len(r.samples); n > 0 && t < r.samples[n-1].TimeS {
		return
	}
	in = in.Sanitized()
	r.samples = append(r.samples, Sample{
		TimeS:       t,
		Accelerator: in.Accelerator,
		GradePct:    in.GradePct,
	})
}

// Cycle returns the captured trace.
func (r *Recorder) Cycle() Cycle {
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return Cycle{Name: r.name, Samples: out}
}

// Len reports the number of captured samples.
func (r *Recorder) Len() int { return len(r.samples) }
