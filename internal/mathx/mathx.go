// Package mathx provides small scalar helpers shared by the simulation
// packages. All functions are total: they accept any float64 and return a
// finite value whenever their inputs are finite.
package mathx

import "math"

// Clamp limits v to the inclusive range [lo, hi]. If the bounds are
// inverted they are swapped first.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b by t. t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smoothstep returns the cubic Hermite interpolation of x between edge0 and
// edge1: 0 below edge0, 1 above edge1, smooth in between. A degenerate edge
// span collapses to a hard step at edge0.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Finite returns v unless it is NaN or infinite, in which case it returns
// fallback.
func Finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
