package model

import "github.com/brg2/OpenEVT/internal/mathx"

// Inputs is the driver-facing input sample consumed once per tick.
type Inputs struct {
	Accelerator float64 `json:"accelerator"` // pedal position, 0..1
	GradePct    float64 `json:"grade_pct"`   // road slope, percent
}

// Sanitized returns a copy with non-finite values zeroed and both fields
// clamped to their physical ranges. The step function calls this on every
// tick so a bad sample degrades to a safe one instead of poisoning state.
func (in Inputs) Sanitized() Inputs {
	return Inputs{
		Accelerator: mathx.Clamp(mathx.Finite(in.Accelerator, 0), 0, 1),
		GradePct:    mathx.Clamp(mathx.Finite(in.GradePct, 0), -30, 30),
	}
}
