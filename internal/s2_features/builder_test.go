package s2_features

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/s0_data"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

func syntheticSeries(symbol string, n int) *contracts.PriceSeries {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	series := &contracts.PriceSeries{Symbol: symbol}
	for i := 0; i < n; i++ {
		x := float64(i)
		closePx := 100 + 10*math.Sin(x/7) + 0.1*x
		openPx := closePx * (1 + 0.002*math.Cos(x))
		series.Bars = append(series.Bars, contracts.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   openPx,
			High:   math.Max(openPx, closePx) * 1.01,
			Low:    math.Min(openPx, closePx) * 0.99,
			Close:  closePx,
			Volume: 1e5 + 1e4*float64((i*37)%11),
		})
	}
	return series
}

func TestCompute_RowsAndInvariants(t *testing.T) {
	series := syntheticSeries("AAA.NS", 200)

	table, err := Compute(series, DefaultConfig())
	require.NoError(t, err)

	// warm-up ends at index 50 (Volatility_50), Target_1M trims the last 21 bars
	assert.Equal(t, 129, table.Len())
	assert.LessOrEqual(t, table.Len(), series.Len())
	assert.Equal(t, series.Bars[50].Date, table.Rows[0].Date)

	for _, row := range table.Rows {
		require.True(t, row.IsFinite())
		assert.True(t, row.Features[13] >= 0 && row.Features[13] <= 100, "RSI out of range")
	}
}

func TestCompute_WeeklyTargetScaled(t *testing.T) {
	series := syntheticSeries("AAA.NS", 200)

	cfg := DefaultConfig()
	table, err := Compute(series, cfg)
	require.NoError(t, err)

	row := table.Rows[0]
	want := math.Log(series.Bars[55].Close/series.Bars[50].Close) * cfg.TargetWeekScale
	assert.InDelta(t, want, row.Target1W(), 1e-12)
	assert.InDelta(t, math.Log(series.Bars[51].Close/series.Bars[50].Close), row.Targets[0], 1e-12)

	cfg.TargetWeekScale = 1
	unscaled, err := Compute(series, cfg)
	require.NoError(t, err)
	assert.InDelta(t, row.Target1W()/2, unscaled.Rows[0].Target1W(), 1e-12)
	assert.Equal(t, row.Features, unscaled.Rows[0].Features)
}

func TestCompute_FeaturesIgnoreFuture(t *testing.T) {
	series := syntheticSeries("AAA.NS", 200)
	table, err := Compute(series, DefaultConfig())
	require.NoError(t, err)

	perturbed := syntheticSeries("AAA.NS", 200)
	for i := 150; i < 200; i++ {
		perturbed.Bars[i].Close *= 3
	}
	other, err := Compute(perturbed, DefaultConfig())
	require.NoError(t, err)

	// rows dated before the perturbation keep identical features
	assert.Equal(t, table.Rows[0].Features, other.Rows[0].Features)
}

func TestCompute_DropsUnusableBars(t *testing.T) {
	series := syntheticSeries("AAA.NS", 220)
	series.Bars[100].Close = math.NaN()
	series.Bars[120].Volume = math.NaN()

	table, err := Compute(series, DefaultConfig())
	require.NoError(t, err)

	for _, row := range table.Rows {
		assert.NotEqual(t, series.Bars[100].Date, row.Date)
		assert.NotEqual(t, series.Bars[120].Date, row.Date)
	}
}

func TestCompute_Errors(t *testing.T) {
	_, err := Compute(syntheticSeries("SHORT.NS", 150), DefaultConfig())
	assert.True(t, errors.Is(err, contracts.ErrInsufficientHistory))

	_, err = Compute(&contracts.PriceSeries{Symbol: "EMPTY.NS"}, DefaultConfig())
	assert.True(t, errors.Is(err, contracts.ErrMissingInputData))
}

func TestBuilder_Build(t *testing.T) {
	priceDir, featureDir := t.TempDir(), t.TempDir()
	prices := s0_data.NewPriceStore(priceDir)
	require.NoError(t, prices.Save(syntheticSeries("GOOD.NS", 200)))
	require.NoError(t, prices.Save(syntheticSeries("SHORT.NS", 60)))

	store := NewTableStore(featureDir)
	builder := NewBuilder(prices, store, DefaultConfig(), logger.Nop())

	report := builder.Build(context.Background(), []string{"GOOD.NS", "SHORT.NS", "MISSING.NS"})

	assert.Equal(t, 1, report.Processed())
	assert.Equal(t, 2, report.Skipped())
	assert.Equal(t, 129, report.TotalRows())
	assert.Equal(t, map[contracts.SkipReason]int{
		contracts.SkipInsufficientHistory: 1,
		contracts.SkipMissingInput:        1,
	}, report.SkipsByReason())

	symbols, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"GOOD.NS"}, symbols)
}

func TestBuilder_Deterministic(t *testing.T) {
	prices := s0_data.NewPriceStore(t.TempDir())
	require.NoError(t, prices.Save(syntheticSeries("GOOD.NS", 200)))

	store := NewTableStore(t.TempDir())
	builder := NewBuilder(prices, store, DefaultConfig(), logger.Nop())

	_, err := builder.BuildSymbol("GOOD.NS")
	require.NoError(t, err)
	first, err := os.ReadFile(store.Path("GOOD.NS"))
	require.NoError(t, err)

	_, err = builder.BuildSymbol("GOOD.NS")
	require.NoError(t, err)
	second, err := os.ReadFile(store.Path("GOOD.NS"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuilder_RebuildDropsRejectedTables(t *testing.T) {
	prices := s0_data.NewPriceStore(t.TempDir())
	require.NoError(t, prices.Save(syntheticSeries("GOOD.NS", 200)))
	require.NoError(t, prices.Save(syntheticSeries("SHRINK.NS", 200)))

	store := NewTableStore(t.TempDir())
	builder := NewBuilder(prices, store, DefaultConfig(), logger.Nop())

	first := builder.Build(context.Background(), []string{"GOOD.NS", "SHRINK.NS"})
	require.Equal(t, 2, first.Processed())

	require.NoError(t, prices.Save(syntheticSeries("SHRINK.NS", 60)))
	second := builder.Build(context.Background(), []string{"GOOD.NS", "SHRINK.NS"})
	assert.Equal(t, 1, second.Processed())
	assert.Equal(t, map[contracts.SkipReason]int{contracts.SkipInsufficientHistory: 1}, second.SkipsByReason())

	symbols, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"GOOD.NS"}, symbols)
}
