package audit

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/modelconfig"
	"github.com/wonny/weekly-ranker/internal/selection"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// Evaluator implements S5: compare the latest weekly predictions with realized returns
// ⭐ SSOT: S5 예측 정확도 평가는 여기서만
type Evaluator struct {
	source  contracts.DataSource
	archive contracts.EvaluationArchive
	dataDir string
	config  modelconfig.Evaluation
	logger  *logger.Logger
}

// NewEvaluator creates a new evaluator reading predictions from and writing results to dataDir
func NewEvaluator(source contracts.DataSource, dataDir string, config modelconfig.Evaluation, log *logger.Logger) *Evaluator {
	return &Evaluator{
		source:  source,
		dataDir: dataDir,
		config:  config,
		logger:  log.WithModule("audit"),
	}
}

// WithArchive also stores each evaluation in archive (best effort)
func (e *Evaluator) WithArchive(archive contracts.EvaluationArchive) *Evaluator {
	e.archive = archive
	return e
}

// OutputPath returns data/evaluation_latest_week.csv
func (e *Evaluator) OutputPath() string {
	return filepath.Join(e.dataDir, "evaluation_latest_week.csv")
}

// Evaluate scores the predictions file with the newest embedded date
func (e *Evaluator) Evaluate(ctx context.Context) (*contracts.Evaluation, error) {
	path, err := selection.LatestPredictions(e.dataDir)
	if err != nil {
		return nil, err
	}
	return e.EvaluateFile(ctx, path)
}

// EvaluateFile scores one predictions file.
// Symbols without at least two closes in [date, date+horizon) are skipped.
func (e *Evaluator) EvaluateFile(ctx context.Context, path string) (*contracts.Evaluation, error) {
	predictions, err := selection.ReadPredictions(path)
	if err != nil {
		return nil, err
	}

	start := predictions.RunDate
	end := start.AddDate(0, 0, e.config.HorizonDays)
	e.logger.WithFields(map[string]interface{}{
		"file":        filepath.Base(path),
		"predictions": predictions.Len(),
		"window_end":  end.Format("2006-01-02"),
	}).Info("Evaluating predictions")

	report := contracts.NewRunReport(contracts.StageEvaluation)
	eval := newEvaluation()
	eval.PredictionDate = start
	eval.WindowEnd = end
	eval.Report = report

	for _, rec := range predictions.Records {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if math.IsNaN(rec.Pred1W) || math.IsInf(rec.Pred1W, 0) {
			report.SkipWithReason(rec.Symbol, contracts.SkipDataQuality, "prediction is not a number")
			continue
		}

		actual, err := e.realizedReturn(ctx, rec.Symbol, start, end)
		if err != nil {
			report.Skip(rec.Symbol, err)
			e.logger.WithFields(map[string]interface{}{
				"symbol": rec.Symbol,
				"error":  err.Error(),
			}).Debug("No realized return")
			continue
		}

				eval.Rows = append(eval.Rows, contracts.EvaluationRow{
			Symbol:         rec.Symbol,
			LastClose:      rec.LastClose,
			Pred1W:         rec.Pred1W,
			PredictedPrice: rec.PredictedPrice,
			Actual1W:       actual,
			Diff:           actual - rec.Pred1W,
		})
		report.OK(rec.Symbol, 1)
	}
	report.Finish()

	if eval.IsEmpty() {
		e.logger.WithField("skipped", report.Skipped()).Warn("No predictions could be matched with realized prices")
		return eval, nil
	}

	summarize(eval, e.config.ReportN)

	if err := WriteEvaluation(e.OutputPath(), eval); err != nil {
		return nil, fmt.Errorf("write evaluation: %w", err)
	}

	if e.archive != nil {
		if err := e.archive.SaveEvaluation(ctx, eval); err != nil {
			e.logger.WithError(err).Warn("Failed to archive evaluation")
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"compared":    len(eval.Rows),
		"mae":         eval.MAE,
		"correlation": eval.Correlation,
	}).Info("Evaluation completed")

	return eval, nil
}

// realizedReturn is (last-first)/first over the closes in [start, end)
func (e *Evaluator) realizedReturn(ctx context.Context, symbol string, start, end time.Time) (float64, error) {
	bars, err := e.source.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return 0, err
	}

	closes := make([]float64, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.Before(start) || !bar.Date.Before(end) {
			continue
		}
		if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) {
			continue
		}
		closes = append(closes, bar.Close)
	}
	if len(closes) < 2 {
		return 0, fmt.Errorf("%s: %d closes in window: %w", symbol, len(closes), contracts.ErrInsufficientHistory)
	}

	first, last := closes[0], closes[len(closes)-1]
	if first == 0 {
		return 0, fmt.Errorf("%s: zero opening close: %w", symbol, contracts.ErrDataQuality)
	}
	return (last - first) / first, nil
}

func newEvaluation() *contracts.Evaluation {
	return &contracts.Evaluation{MAE: math.NaN(), Correlation: math.NaN()}
}

// summarize fills MAE, correlation and the best/worst lists
func summarize(eval *contracts.Evaluation, n int) {
	pred := make([]float64, len(eval.Rows))
	actual := make([]float64, len(eval.Rows))
	sumAbs := 0.0
	for i, r := range eval.Rows {
		pred[i] = r.Pred1W
		actual[i] = r.Actual1W
		sumAbs += r.AbsDiff()
	}
	eval.MAE = sumAbs / float64(len(eval.Rows))
	if len(eval.Rows) >= 2 {
		eval.Correlation = stat.Correlation(actual, pred, nil)
	}

	byError := make([]contracts.EvaluationRow, len(eval.Rows))
	copy(byError, eval.Rows)
	sort.SliceStable(byError, func(i, j int) bool {
		return byError[i].AbsDiff() < byError[j].AbsDiff()
	})
	eval.MostAccurate = headOf(byError, n)

	worst := make([]contracts.EvaluationRow, len(byError))
	copy(worst, eval.Rows)
	sort.SliceStable(worst, func(i, j int) bool {
		return worst[i].AbsDiff() > worst[j].AbsDiff()
	})
	eval.LargestMisses = headOf(worst, n)
}

func headOf(rows []contracts.EvaluationRow, n int) []contracts.EvaluationRow {
	if n < len(rows) {
		return rows[:n]
	}
	return rows
}
