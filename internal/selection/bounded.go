package selection

import "math"

// Largest magnitudes strictly inside (-1, 1)
var (
	upperBound = math.Nextafter(1, 0)
	lowerBound = math.Nextafter(-1, 0)
)

// Bounded returns tanh(raw*stretch) kept strictly inside (-1, 1).
// float64 tanh rounds to ±1 for |x| above ~19; those saturate to the nearest representable interior value.
// NaN passes through.
func Bounded(raw, stretch float64) float64 {
	v := math.Tanh(raw * stretch)
	switch {
	case v >= 1:
		return upperBound
	case v <= -1:
		return lowerBound
	}
	return v
}

// PredictedPrice is lastClose*exp(adjusted/divisor); NaN when lastClose is unknown
func PredictedPrice(lastClose, adjusted, divisor float64) float64 {
	return lastClose * math.Exp(adjusted/divisor)
}
