package contracts

import (
	"math"
	"time"
)

// PriceBar is one daily OHLCV observation.
// Unresolvable numeric fields are NaN; consumers decide what to drop.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// HasCoreValues reports whether close and volume are both usable
func (b PriceBar) HasCoreValues() bool {
	return isFinite(b.Close) && isFinite(b.Volume)
}

// PriceSeries is one symbol's date-ordered history
// ⭐ SSOT: S0 → S2 가격 시계열 전달
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars
func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// CloseOn returns the close on date, or the latest close before it.
// ok is false when no usable close exists at or before date.
func (s *PriceSeries) CloseOn(date time.Time) (float64, bool) {
	day := truncateDay(date)
	for i := len(s.Bars) - 1; i >= 0; i-- {
		bar := s.Bars[i]
		if truncateDay(bar.Date).After(day) {
			continue
		}
		if isFinite(bar.Close) {
			return bar.Close, true
		}
	}
	return 0, false
}

// LastDate returns the date of the final bar
func (s *PriceSeries) LastDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
