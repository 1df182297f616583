package s2_features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertSeries(t *testing.T, want, got []float64) {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

var nan = math.NaN()

func TestShift(t *testing.T) {
	assertSeries(t, []float64{nan, 1, 2}, Shift([]float64{1, 2, 3}, 1))
	assertSeries(t, []float64{2, 3, nan}, Shift([]float64{1, 2, 3}, -1))
}

func TestPctChange(t *testing.T) {
	assertSeries(t, []float64{nan, 1, 0.5}, PctChange([]float64{1, 2, 3}, 1))

	zero := PctChange([]float64{0, 5}, 1)
	assert.True(t, math.IsInf(zero[1], 1))
}

func TestLogReturn(t *testing.T) {
	values := []float64{1, math.E, math.E * math.E}
	assertSeries(t, []float64{1, 1, nan}, LogReturn(values, 1))
	assertSeries(t, []float64{nan, 1, 1}, LogReturn(values, -1))
	assertSeries(t, []float64{2, nan, nan}, LogReturn(values, 2))
}

func TestRollingMean(t *testing.T) {
	assertSeries(t, []float64{nan, 1.5, 2.5, 3.5}, RollingMean([]float64{1, 2, 3, 4}, 2))
	assertSeries(t, []float64{nan, nan, nan, 3.5}, RollingMean([]float64{1, nan, 3, 4}, 2))
}

func TestRollingStd(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	assertSeries(t, []float64{nan, math.Sqrt(0.5), math.Sqrt(0.5), math.Sqrt(0.5)}, RollingStd(values, 2, 1))
	assertSeries(t, []float64{nan, 0.5, 0.5, 0.5}, RollingStd(values, 2, 0))
	assertSeries(t, []float64{nan}, RollingStd([]float64{1}, 1, 1))
}

func TestEMA(t *testing.T) {
	assertSeries(t, []float64{nan, 5.0 / 3, 23.0 / 9}, EMA([]float64{1, 2, 3}, 2))
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i + 1)
	}
	rsi := RSI(rising, 14)
	for i := 0; i < 13; i++ {
		assert.True(t, math.IsNaN(rsi[i]))
	}
	for i := 13; i < len(rsi); i++ {
		assert.Equal(t, 100.0, rsi[i])
	}

	mixed := RSI([]float64{10, 11, 10, 11, 10}, 2)
	assert.Equal(t, 100.0, mixed[1])
	for _, v := range mixed[2:] {
		assert.True(t, v > 0 && v < 100)
	}
}

func TestMACD_SignalStartsAfterLine(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/3)
	}
	line, signal := MACD(closes)

	assert.True(t, math.IsNaN(line[24]))
	assert.False(t, math.IsNaN(line[25]))
	assert.True(t, math.IsNaN(signal[32]))
	assert.False(t, math.IsNaN(signal[33]))
}

func TestATR(t *testing.T) {
	high := []float64{2, 3, 4}
	low := []float64{1, 1, 2}
	closes := []float64{1.5, 2, 3}

	assertSeries(t, []float64{1, 2, 2}, TrueRange(high, low, closes))
	assertSeries(t, []float64{nan, 1.5, 1.75}, ATR(high, low, closes, 2))
	assertSeries(t, []float64{nan, nan, nan}, ATR(high, low, closes, 5))
}

func TestOBV(t *testing.T) {
	got := OBV([]float64{10, 11, 10, 10}, []float64{1, 2, 3, 4})
	assert.Equal(t, []float64{1, 3, 0, 4}, got)
}

func TestBollingerPosition(t *testing.T) {
	closes := []float64{1, 2, 3}
	std := math.Sqrt(2.0 / 3)
	want := (3 - (2 - 2*std)) / (4 * std)

	assertSeries(t, []float64{nan, nan, want}, BollingerPosition(closes, 3, 2))

	flat := BollingerPosition([]float64{5, 5, 5}, 3, 2)
	assert.True(t, math.IsNaN(flat[2]))
}
