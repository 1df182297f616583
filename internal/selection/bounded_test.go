package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBounded(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{"zero", 0, 0},
		{"moderate", 0.1, math.Tanh(0.18)},
		{"negative", -0.5, math.Tanh(-0.9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Bounded(tt.raw, 1.8), 1e-15)
		})
	}
}

func TestBounded_StrictlyInsideUnitInterval(t *testing.T) {
	for _, raw := range []float64{10, 25, 1e6, math.MaxFloat64, math.Inf(1)} {
		v := Bounded(raw, 1.8)
		assert.Less(t, v, 1.0, "raw=%v", raw)
		assert.Greater(t, v, 0.0)

		n := Bounded(-raw, 1.8)
		assert.Greater(t, n, -1.0, "raw=%v", -raw)
		assert.Less(t, n, 0.0)
	}
	assert.True(t, math.IsNaN(Bounded(math.NaN(), 1.8)))
}

func TestBounded_PreservesOrder(t *testing.T) {
	prev := Bounded(-1, 1.8)
	for raw := -0.99; raw <= 1; raw += 0.01 {
		v := Bounded(raw, 1.8)
		assert.Greater(t, v, prev)
		prev = v
	}
}

func TestPredictedPrice(t *testing.T) {
	tests := []struct {
		name      string
		lastClose float64
		adjusted  float64
		want      float64 // rounded to cents
	}{
		{"up 0.2", 100, 0.2, 110.52},
		{"up 0.5", 100, 0.5, 128.40},
		{"flat", 42, 0, 42},
		{"down", 100, -0.2, 90.48},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PredictedPrice(tt.lastClose, tt.adjusted, 2)
			assert.Equal(t, tt.want, math.Round(got*100)/100)
		})
	}

	assert.InDelta(t, 100*math.Exp(0.1), PredictedPrice(100, 0.2, 2), 1e-9)
	assert.True(t, math.IsNaN(PredictedPrice(math.NaN(), 0.5, 2)))
}
