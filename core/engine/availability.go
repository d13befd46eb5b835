// Package engine models the combustion engine's steady-state behavior: the
// RPM-dependent power availability curve and a synthetic BSFC (brake
// specific fuel consumption) surface with operating-point search. Both are
// closed-form surrogates derived from a handful of configured scalars, not
// measured maps.
package engine

import (
	"math"

	"github.com/brg2/OpenEVT/internal/mathx"
)

// Availability curve knots, as fractions of peak power. The plateau peak
// sits above 1.0 to model the peak-torque overlap region.
const (
	availIdle      = 0.30
	availLowBp     = 0.85
	availPeak      = 1.08
	availHighBp    = 0.97
	availRedline   = 0.60
	availOverRev   = 0.45
	lowBpSpanFrac  = 0.15
	highBpSpanFrac = 0.85
)

// Availability returns the fraction of peak power the engine can deliver at
// rpm, roughly 0.30 to 1.08. Piecewise linear: a steep ramp from idle to a
// low breakpoint, a rise to the plateau peak at the efficiency RPM, a decay
// through a high breakpoint toward redline, and a fixed floor beyond
// redline. Breakpoints scale with the idle-redline span so the curve holds
// its shape across engine sizes. Degenerate spans are floored; the result
// is always finite.
func Availability(rpm, idleRPM, redlineRPM, efficiencyRPM float64) float64 {
	span := math.Max(redlineRPM-idleRPM, 1)
	redlineRPM = idleRPM + span
	lowBp := idleRPM + lowBpSpanFrac*span
	highBp := idleRPM + highBpSpanFrac*span
	peakRPM := mathx.Clamp(efficiencyRPM, lowBp, highBp)

	switch {
	case rpm <= idleRPM:
		return availIdle
	case rpm <= lowBp:
		return seg(rpm, idleRPM, lowBp, availIdle, availLowBp)
	case rpm <= peakRPM:
		return seg(rpm, lowBp, peakRPM, availLowBp, availPeak)
	case rpm <= highBp:
		return seg(rpm, peakRPM, highBp, availPeak, availHighBp)
	case rpm <= redlineRPM:
		return seg(rpm, highBp, redlineRPM, availHighBp, availRedline)
	default:
		return availOverRev
	}
}

func seg(x, x0, x1, y0, y1 float64) float64 {
	t := (x - x0) / math.Max(x1-x0, 1e-9)
	return mathx.Lerp(y0, y1, mathx.Clamp(t, 0, 1))
}
