package quality

import (
	"fmt"
	"math"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Gate scores how usable a fetched price series is before it is stored
type Gate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinBars     int     // at least this many dated bars
	MinCoverage float64 // weighted coverage score in [0, 1]
}

// DefaultConfig passes anything with usable close/volume on most bars
func DefaultConfig() Config {
	return Config{MinBars: 1, MinCoverage: 0.5}
}

// Snapshot is the coverage of one series
type Snapshot struct {
	Symbol   string             `json:"symbol"`
	Bars     int                `json:"bars"`
	Coverage map[string]float64 `json:"coverage"` // 필드별 유효값 비율
	Score    float64            `json:"score"`
	Passed   bool               `json:"passed"`
}

// NewGate creates a new Gate instance
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// weights (합계 = 1.0); close/volume are what the feature stage cannot do without
var weights = map[string]float64{
	"close":  0.40,
	"volume": 0.40,
	"ohl":    0.20,
}

// Check computes field coverage for series
// ⭐ SSOT: S0 가격 데이터 품질 검증
func (g *Gate) Check(series *contracts.PriceSeries) *Snapshot {
	snap := &Snapshot{
		Symbol:   series.Symbol,
		Bars:     series.Len(),
		Coverage: map[string]float64{"close": 0, "volume": 0, "ohl": 0},
	}
	if snap.Bars == 0 {
		return snap
	}

	var closeN, volumeN, ohlN int
	for _, bar := range series.Bars {
		if finite(bar.Close) && bar.Close > 0 {
			closeN++
		}
		if finite(bar.Volume) && bar.Volume >= 0 {
			volumeN++
		}
		if finite(bar.Open) && finite(bar.High) && finite(bar.Low) {
			ohlN++
		}
	}

	n := float64(snap.Bars)
	snap.Coverage["close"] = float64(closeN) / n
	snap.Coverage["volume"] = float64(volumeN) / n
	snap.Coverage["ohl"] = float64(ohlN) / n

	for key, weight := range weights {
		snap.Score += snap.Coverage[key] * weight
	}
	snap.Passed = snap.Bars >= g.config.MinBars && snap.Score >= g.config.MinCoverage
	return snap
}

// Err returns a data quality error when the snapshot did not pass
func (s *Snapshot) Err() error {
	if s.Passed {
		return nil
	}
	return fmt.Errorf("%w: %d bars, coverage score %.2f", contracts.ErrDataQuality, s.Bars, s.Score)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
