// Package sampler turns pairs of uniform draws into biased scalars on the
// unit interval.
package sampler

import "math"

// Sample applies the Box-Muller transform to u1 and u2 and scales the
// standard normal variate around mean. The result is clamped to [0,1].
//
// u1 must be in (0,1]; a zero u1 has no defined logarithm. deviation is
// expected to be clamped by the caller.
func Sample(mean, deviation, u1, u2 float64) float64 {
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return Clamp(0.5 + (z*deviation+mean)/2)
}

// Draw pulls two uniforms from src and samples with them.
func Draw(src Source, mean, deviation float64) float64 {
	u1 := src.Uniform()
	u2 := src.Uniform()
	return Sample(mean, deviation, u1, u2)
}

// Clamp bounds v to [0,1]. NaN clamps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// IsBound reports whether v sits exactly on one of the clamp bounds.
func IsBound(v float64) bool {
	return v == 0 || v == 1
}
