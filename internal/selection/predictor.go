package selection

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/model"
	"github.com/wonny/weekly-ranker/internal/modelconfig"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// PredictResult is the outcome of one ranking run
type PredictResult struct {
	Ranked *contracts.RankedList
	Top    []contracts.PredictionRecord
	Path   string // empty when nothing was ranked
	PairID string
	Report *contracts.RunReport
}

// Predictor implements S4: score each symbol's latest features and rank
// ⭐ SSOT: S4 추론/랭킹 파이프라인
type Predictor struct {
	features  contracts.FeatureReader
	prices    contracts.PriceReader
	artifacts *model.Store
	archive   contracts.PredictionArchive
	outputDir string
	config    modelconfig.Prediction
	logger    *logger.Logger
}

// NewPredictor creates a new predictor. prices is used for Last_Close only.
func NewPredictor(
	features contracts.FeatureReader,
	prices contracts.PriceReader,
	artifacts *model.Store,
	outputDir string,
	config modelconfig.Prediction,
	log *logger.Logger,
) *Predictor {
	return &Predictor{
		features:  features,
		prices:    prices,
		artifacts: artifacts,
		outputDir: outputDir,
		config:    config,
		logger:    log.WithModule("selection"),
	}
}

// WithArchive also stores each ranking in archive (best effort)
func (p *Predictor) WithArchive(archive contracts.PredictionArchive) *Predictor {
	p.archive = archive
	return p
}

// Predict ranks every feature table and writes the predictions file for runDate.
// Artifact problems are fatal; per-symbol problems are skips.
// topN <= 0 uses the configured default.
func (p *Predictor) Predict(ctx context.Context, runDate time.Time, topN int) (*PredictResult, error) {
	artifact, err := p.artifacts.Load()
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = p.config.TopN
	}

	symbols, err := p.features.List()
	if err != nil {
		return nil, fmt.Errorf("list feature tables: %w", err)
	}

	report := contracts.NewRunReport(contracts.StageRanking)
	records := make([]contracts.PredictionRecord, 0, len(symbols))

	for _, sym := range symbols {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		rec, err := p.predictSymbol(artifact, sym)
		if err != nil {
			item := report.Skip(sym, err)
			p.logger.WithFields(map[string]interface{}{
				"symbol": sym,
				"reason": item.Reason,
				"error":  err.Error(),
			}).Warn("Skipping symbol")
			continue
		}
		report.OK(sym, 1)
		records = append(records, *rec)
	}
	report.Finish()

	ranked := Rank(runDate, records)
	result := &PredictResult{
		Ranked: ranked,
		Top:    ranked.Top(topN),
		PairID: artifact.Header.PairID,
		Report: report,
	}

	if ranked.Len() == 0 {
		p.logger.WithField("skipped", report.Skipped()).Warn("No predictions generated")
		result.Top = nil
		return result, nil
	}

	path, err := WritePredictions(p.outputDir, ranked)
	if err != nil {
		return nil, fmt.Errorf("write predictions: %w", err)
	}
	result.Path = path

	if p.archive != nil {
		if err := p.archive.SaveRanking(ctx, ranked); err != nil {
			p.logger.WithError(err).Warn("Failed to archive ranking")
		}
	}

	top := ranked.Records[0]
	p.logger.WithFields(map[string]interface{}{
		"ranked":   ranked.Len(),
		"skipped":  report.Skipped(),
		"top":      top.Symbol,
		"top_pred": top.Pred1W,
		"path":     path,
	}).Info("Ranking completed")

	return result, nil
}

func (p *Predictor) predictSymbol(artifact *model.Artifact, symbol string) (*contracts.PredictionRecord, error) {
	table, err := p.features.Load(symbol)
	if err != nil {
		return nil, err
	}
	if table.Len() < p.config.MinRows {
		return nil, fmt.Errorf("%s: %d rows, need %d: %w", symbol, table.Len(), p.config.MinRows, contracts.ErrInsufficientHistory)
	}

	last, _ := table.Last()
	x := make([]float64, contracts.NumFeatures)
	for i, v := range last.Features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s: latest row has non-finite %s: %w",
				symbol, contracts.FeatureNames()[i], contracts.ErrDataQuality)
		}
		x[i] = v
	}

	scaled, err := artifact.Scaler.Transform(x)
	if err != nil {
		return nil, err
	}
	raw, err := artifact.Model.Predict(scaled)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return nil, &contracts.SymbolError{
			Symbol: symbol,
			Reason: contracts.SkipNonFinite,
			Err:    fmt.Errorf("raw prediction %v", raw),
		}
	}

	adjusted := Bounded(raw, p.config.Stretch)
	lastClose := p.lastClose(symbol, last.Date)

	return &contracts.PredictionRecord{
		Symbol:         symbol,
		AsOf:           last.Date,
		LastClose:      lastClose,
		RawPrediction:  raw,
		Pred1W:         adjusted,
		PredictedPrice: PredictedPrice(lastClose, adjusted, p.config.PriceDivisor),
	}, nil
}

// lastClose resolves the close on the scored row's date, NaN when unavailable
func (p *Predictor) lastClose(symbol string, date time.Time) float64 {
	if p.prices == nil {
		return math.NaN()
	}
	series, err := p.prices.Load(symbol)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Debug("No price history for last close")
		return math.NaN()
	}
	if c, ok := series.CloseOn(date); ok {
		return c
	}
	return math.NaN()
}
