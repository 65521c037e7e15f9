package rating

import "math"

// RoundToScale snaps value to the nearest allowed rating. On an exact tie the
// lower option wins. NaN, infinities and an empty scale yield 0.
func RoundToScale(value float64, scale Scale) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	options := NewScale(scale...)
	if len(options) == 0 {
		return 0
	}

	closest := options[0]
	best := math.Abs(value - closest)
	for _, option := range options[1:] {
		if distance := math.Abs(value - option); distance < best {
			closest = option
			best = distance
		}
	}
	return closest
}
