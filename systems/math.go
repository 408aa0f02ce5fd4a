package systems

import "math"

const twoPi32 = float32(2 * math.Pi)

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// finite32 reports whether v is neither NaN nor infinite.
func finite32(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

// normalizeHeading wraps a heading to [0, 2*Pi).
func normalizeHeading(h float32) float32 {
	if h >= 0 && h < twoPi32 {
		return h
	}
	r := float32(math.Mod(float64(h), 2*math.Pi))
	if r < 0 {
		r += twoPi32
	}
	// Rounding can land exactly on the upper bound.
	if r >= twoPi32 {
		r = 0
	}
	return r
}

// wrapCoord wraps a coordinate into [0, size). Non-finite input maps to 0.
func wrapCoord(v, size float32) float32 {
	if v >= 0 && v < size {
		return v
	}
	if !finite32(v) {
		return 0
	}
	r := v - size*float32(math.Floor(float64(v/size)))
	if r >= size || r < 0 {
		r = 0
	}
	return r
}

// modInt returns a mod m in [0, m).
func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func floorInt(v float32) int {
	return int(math.Floor(float64(v)))
}
