package s2_features

import "math"

// Series helpers over positional float64 slices.
// NaN marks "not yet defined" (warm-up windows, missing inputs).

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Shift moves values forward by k positions (k<0 looks ahead)
func Shift(values []float64, k int) []float64 {
	out := nanSlice(len(values))
	for i := range values {
		j := i - k
		if j >= 0 && j < len(values) {
			out[i] = values[j]
		}
	}
	return out
}

// PctChange returns values[i]/values[i-k] - 1.
// A zero denominator yields ±Inf (or NaN for 0/0) and is dropped downstream.
func PctChange(values []float64, k int) []float64 {
	out := nanSlice(len(values))
	for i := k; i < len(values); i++ {
		out[i] = values[i]/values[i-k] - 1
	}
	return out
}

// LogReturn returns ln(values[i+ahead]/values[i]); ahead may be negative
func LogReturn(values []float64, ahead int) []float64 {
	out := nanSlice(len(values))
	for i := range values {
		j := i + ahead
		if j >= 0 && j < len(values) {
			if ahead > 0 {
				out[i] = math.Log(values[j] / values[i])
			} else {
				out[i] = math.Log(values[i] / values[j])
			}
		}
	}
	return out
}

// RollingMean is the mean of a full trailing window
func RollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for _, v := range values[i-window+1 : i+1] {
			if math.IsNaN(v) {
				ok = false
				break
			}
			sum += v
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd is the standard deviation of a full trailing window
// with ddof degrees of freedom removed (1 = sample, 0 = population)
func RollingStd(values []float64, window, ddof int) []float64 {
	out := nanSlice(len(values))
	if window-ddof <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		win := values[i-window+1 : i+1]
		mean := 0.0
		ok := true
		for _, v := range win {
			if !finite(v) {
				ok = false
				break
			}
			mean += v
		}
		if !ok {
			continue
		}
		mean /= float64(window)

		ss := 0.0
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-ddof))
	}
	return out
}

// ewm is an adjust=False exponential mean seeded at the first defined value.
// Output is NaN until minPeriods defined observations have been seen.
func ewm(values []float64, alpha float64, minPeriods int) []float64 {
	out := nanSlice(len(values))
	prev := math.NaN()
	seen := 0
	for i, v := range values {
		if math.IsNaN(v) {
			if seen >= minPeriods && !math.IsNaN(prev) {
				out[i] = prev
			}
			continue
		}
		if math.IsNaN(prev) {
			prev = v
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		seen++
		if seen >= minPeriods {
			out[i] = prev
		}
	}
	return out
}

// EMA is the exponential moving average with span n (alpha = 2/(n+1))
func EMA(values []float64, span int) []float64 {
	return ewm(values, 2/(float64(span)+1), span)
}

// RSI is the Wilder relative strength index
func RSI(close []float64, window int) []float64 {
	n := len(close)
	up := make([]float64, n)
	down := make([]float64, n)
	for i := 1; i < n; i++ {
		diff := close[i] - close[i-1]
		switch {
		case diff > 0:
			up[i] = diff
		case diff < 0:
			down[i] = -diff
		}
	}

	alpha := 1 / float64(window)
	avgUp := ewm(up, alpha, window)
	avgDown := ewm(down, alpha, window)

	out := nanSlice(n)
	for i := range out {
		if math.IsNaN(avgUp[i]) || math.IsNaN(avgDown[i]) {
			continue
		}
		if avgDown[i] == 0 {
			out[i] = 100
			continue
		}
		rs := avgUp[i] / avgDown[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD returns the 12/26 MACD line and its 9-period signal line
func MACD(close []float64) (line, signal []float64) {
	fast := ewm(close, 2/13.0, 12)
	slow := ewm(close, 2/27.0, 26)
	line = nanSlice(len(close))
	for i := range close {
		line[i] = fast[i] - slow[i]
	}
	signal = EMA(line, 9)
	return line, signal
}

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|), skipping undefined terms
func TrueRange(high, low, close []float64) []float64 {
	out := nanSlice(len(close))
	for i := range close {
		best := math.NaN()
		consider := func(v float64) {
			if !math.IsNaN(v) && (math.IsNaN(best) || v > best) {
				best = v
			}
		}
		consider(high[i] - low[i])
		if i > 0 {
			consider(math.Abs(high[i] - close[i-1]))
			consider(math.Abs(low[i] - close[i-1]))
		}
		out[i] = best
	}
	return out
}

// ATR seeds with the mean of the first window true ranges, then Wilder-smooths
func ATR(high, low, close []float64, window int) []float64 {
	tr := TrueRange(high, low, close)
	out := nanSlice(len(close))
	if len(close) < window {
		return out
	}

	sum, count := 0.0, 0
	for _, v := range tr[:window] {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
	}
	if count == 0 {
		return out
	}
	out[window-1] = sum / float64(count)
	for i := window; i < len(close); i++ {
		out[i] = (out[i-1]*float64(window-1) + tr[i]) / float64(window)
	}
	return out
}

// OBV accumulates volume, subtracting it on bars that closed lower
func OBV(close, volume []float64) []float64 {
	out := make([]float64, len(close))
	total := 0.0
	for i := range close {
		if i > 0 && close[i] < close[i-1] {
			total -= volume[i]
		} else {
			total += volume[i]
		}
		out[i] = total
	}
	return out
}

// BollingerPosition is (close-lower)/(upper-lower) for mean ± k population std bands
func BollingerPosition(close []float64, window int, k float64) []float64 {
	mean := RollingMean(close, window)
	std := RollingStd(close, window, 0)
	out := nanSlice(len(close))
	for i := range close {
		upper := mean[i] + k*std[i]
		lower := mean[i] - k*std[i]
		out[i] = (close[i] - lower) / (upper - lower)
	}
	return out
}
