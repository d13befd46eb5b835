// Package drivecycle loads and samples scripted input traces. A cycle is a
// time series of pedal and grade samples; the runner replays it by sampling
// At(t) every tick, with linear interpolation between samples so coarse
// cycles still produce smooth pedal motion.
package drivecycle

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/internal/mathx"
)

// Sample is one point of a cycle. Omitted fields default to zero.
type Sample struct {
	TimeS       float64 `json:"t_s" yaml:"t_s"`
	Accelerator float64 `json:"accelerator" yaml:"accelerator"`
	GradePct    float64 `json:"grade_pct" yaml:"grade_pct"`
}

// Cycle is a named input trace.
type Cycle struct {
	Name    string   `json:"name" yaml:"name"`
	Samples []Sample `json:"samples" yaml:"samples"`
}

// Parse decodes a cycle from YAML or JSON and validates it.
func Parse(data []byte) (Cycle, error) {
	var c Cycle
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Cycle{}, fmt.Errorf("parse cycle: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Cycle{}, err
	}
	return c, nil
}

// Load reads and parses a cycle file.
func Load(path string) (Cycle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Cycle{}, fmt.Errorf("read cycle: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Cycle{}, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = path
	}
	return c, nil
}

// Validate checks the trace is non-empty, finite and time-ordered.
func (c Cycle) Validate() error {
	if len(c.Samples) == 0 {
		return fmt.Errorf("cycle %q has no samples", c.Name)
	}
	prev := math.Inf(-1)
	for i, s := range c.Samples {
		if math.IsNaN(s.TimeS) || math.IsInf(s.TimeS, 0) {
			return fmt.Errorf("cycle %q: sample %d has invalid time", c.Name, i)
		}
		if s.TimeS < prev {
			return fmt.Errorf("cycle %q: sample %d goes back in time (%v < %v)", c.Name, i, s.TimeS, prev)
		}
		prev = s.TimeS
	}
	return nil
}

// Duration is the time of the last sample.
func (c Cycle) Duration() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	return c.Samples[len(c.Samples)-1].TimeS
}

// Done reports whether t has passed the end of the cycle.
func (c Cycle) Done(t float64) bool {
	return t >= c.Duration()
}

// At returns the interpolated inputs at time t. Before the first sample the
// first sample holds, after the last the last holds.
func (c Cycle) At(t float64) model.Inputs {
	n := len(c.Samples)
	if n == 0 {
		return model.Inputs{}
	}
	if t <= c.Samples[0].TimeS {
		return sampleInputs(c.Samples[0])
	}
	if t >= c.Samples[n-1].TimeS {
		return sampleInputs(c.Samples[n-1])
	}

	// First sample strictly after t; its predecessor starts the segment.
	i := sort.Search(n, func(i int) bool { return c.Samples[i].TimeS > t })
	s0, s1 := c.Samples[i-1], c.Samples[i]
	span := s1.TimeS - s0.TimeS
	if span <= 0 {
		return sampleInputs(s1)
	}
	w := (t - s0.TimeS) / span
	return model.Inputs{
		Accelerator: mathx.Lerp(s0.Accelerator, s1.Accelerator, w),
		GradePct:    mathx.Lerp(s0.GradePct, s1.GradePct, w),
	}.Sanitized()
}

func sampleInputs(s Sample) model.Inputs {
	return model.Inputs{Accelerator: s.Accelerator, GradePct: s.GradePct}.Sanitized()
}
