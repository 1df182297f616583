package s2_features

import (
	"context"
	"fmt"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// Forward horizons in trading days for Target_1D, Target_1W, Target_1M
var targetHorizons = [contracts.NumTargets]int{1, 5, 21}

// Config holds feature generation settings
type Config struct {
	TargetWeekScale float64 // multiplier applied to the weekly log-return target
	MinRows         int     // tables with fewer surviving rows are not persisted
}

// DefaultConfig returns the production feature settings
func DefaultConfig() Config {
	return Config{TargetWeekScale: 2.0, MinRows: 100}
}

// Builder turns price history into persisted feature tables
// ⭐ SSOT: 피처 생성 오케스트레이션은 여기서만
type Builder struct {
	prices contracts.PriceReader
	tables contracts.FeatureWriter
	config Config
	logger *logger.Logger
}

// NewBuilder creates a new feature builder
func NewBuilder(prices contracts.PriceReader, tables contracts.FeatureWriter, config Config, log *logger.Logger) *Builder {
	return &Builder{
		prices: prices,
		tables: tables,
		config: config,
		logger: log.WithModule("s2_features"),
	}
}

// Build generates feature tables for every symbol.
// Per-symbol failures are recorded as skips; the run never aborts on one symbol.
func (b *Builder) Build(ctx context.Context, symbols []string) *contracts.RunReport {
	report := contracts.NewRunReport(contracts.StageFeatures)

	b.logger.WithField("symbol_count", len(symbols)).Info("Starting feature generation")

	for _, sym := range symbols {
		if ctx.Err() != nil {
			report.SkipWithReason(sym, contracts.SkipProcessingError, ctx.Err().Error())
			continue
		}

		table, err := b.BuildSymbol(sym)
		if err != nil {
			item := report.Skip(sym, err)
			b.logger.WithFields(map[string]interface{}{
				"symbol": sym,
				"reason": item.Reason,
				"error":  err.Error(),
			}).Warn("Skipping symbol")
			continue
		}

		report.OK(sym, table.Len())
		b.logger.WithFields(map[string]interface{}{
			"symbol": sym,
			"rows":   table.Len(),
		}).Debug("Feature table written")
	}

	report.Finish()
	b.logger.WithFields(map[string]interface{}{
		"processed":  report.Processed(),
		"skipped":    report.Skipped(),
		"total_rows": report.TotalRows(),
	}).Info("Feature generation completed")

	return report
}

// BuildSymbol loads, computes and persists one symbol's table.
// A symbol that fails here also loses any table left by an earlier run.
func (b *Builder) BuildSymbol(symbol string) (*contracts.FeatureTable, error) {
	table, err := b.buildSymbol(symbol)
	if err != nil {
		b.discard(symbol)
		return nil, err
	}
	return table, nil
}

func (b *Builder) buildSymbol(symbol string) (*contracts.FeatureTable, error) {
	series, err := b.prices.Load(symbol)
	if err != nil {
		return nil, err
	}

	table, err := Compute(series, b.config)
	if err != nil {
		return nil, err
	}

	if err := b.tables.Save(table); err != nil {
		return nil, fmt.Errorf("save features %s: %w: %v", symbol, contracts.ErrPerSymbolProcessing, err)
	}
	return table, nil
}

func (b *Builder) discard(symbol string) {
	if err := b.tables.Delete(symbol); err != nil {
		b.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Failed to remove stale feature table")
	}
}

// Compute derives the feature table for one series without touching storage.
// Rows whose close or volume is unusable are dropped before any indicator is computed.
func Compute(series *contracts.PriceSeries, config Config) (*contracts.FeatureTable, error) {
	bars := make([]contracts.PriceBar, 0, len(series.Bars))
	for _, bar := range series.Bars {
		if bar.HasCoreValues() {
			bars = append(bars, bar)
		}
	}

	n := len(bars)
	if n == 0 {
		return nil, fmt.Errorf("%s has no usable bars: %w", series.Symbol, contracts.ErrMissingInputData)
	}

	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, bar := range bars {
		open[i], high[i], low[i], closes[i], volume[i] = bar.Open, bar.High, bar.Low, bar.Close, bar.Volume
	}

	columns := computeFeatures(open, high, low, closes, volume)

	var targets [contracts.NumTargets][]float64
	for t, h := range targetHorizons {
		targets[t] = LogReturn(closes, h)
	}
	for i := range targets[1] {
		targets[1][i] *= config.TargetWeekScale
	}

	table := &contracts.FeatureTable{Symbol: series.Symbol}
	for i := 0; i < n; i++ {
		row := contracts.FeatureRow{Date: bars[i].Date}
		for f := range columns {
			row.Features[f] = columns[f][i]
		}
		for t := range targets {
			row.Targets[t] = targets[t][i]
		}
		if row.IsFinite() {
			table.Rows = append(table.Rows, row)
		}
	}

	if table.Len() < config.MinRows {
		return nil, fmt.Errorf("%s: %d rows, need %d: %w",
			series.Symbol, table.Len(), config.MinRows, contracts.ErrInsufficientHistory)
	}
	return table, nil
}

// computeFeatures returns the 21 feature columns in contracts.FeatureNames order
func computeFeatures(open, high, low, closes, volume []float64) [contracts.NumFeatures][]float64 {
	n := len(closes)
	prevClose := Shift(closes, 1)

	ret := PctChange(closes, 1)
	ma10 := RollingMean(closes, 10)
	ma50 := RollingMean(closes, 50)
	vol10 := RollingStd(ret, 10, 1)
	vol50 := RollingStd(ret, 50, 1)
	volMean20 := RollingMean(volume, 20)
	macd, macdSignal := MACD(closes)

	maRatio := make([]float64, n)
	volRatio := make([]float64, n)
	volSurge := make([]float64, n)
	gapUp := make([]float64, n)
	intraVol := make([]float64, n)
	for i := 0; i < n; i++ {
		maRatio[i] = ma10[i] / ma50[i]
		volRatio[i] = vol10[i] / vol50[i]
		volSurge[i] = volume[i] / volMean20[i]
		gapUp[i] = (open[i] - prevClose[i]) / prevClose[i]
		intraVol[i] = (high[i] - low[i]) / closes[i]
	}

	return [contracts.NumFeatures][]float64{
		ret,
		LogReturn(closes, -1),
		ma10,
		ma50,
		maRatio,
		vol10,
		vol50,
		volRatio,
		PctChange(volume, 1),
		volSurge,
		gapUp,
		intraVol,
		PctChange(closes, 5),
		RSI(closes, 14),
		macd,
		macdSignal,
		EMA(closes, 10),
		EMA(closes, 50),
		ATR(high, low, closes, 14),
		OBV(closes, volume),
		BollingerPosition(closes, 20, 2),
	}
}
