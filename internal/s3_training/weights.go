package s3_training

import "math"

// SampleWeights returns clamp(|y|*scale, lo, hi) per row
func SampleWeights(y []float64, scale, lo, hi float64) []float64 {
	w := make([]float64, len(y))
	for i, v := range y {
		w[i] = math.Min(math.Max(math.Abs(v)*scale, lo), hi)
	}
	return w
}
