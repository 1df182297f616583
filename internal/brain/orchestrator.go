package brain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/weekly-ranker/internal/audit"
	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/s0_data/collector"
	"github.com/wonny/weekly-ranker/internal/s2_features"
	"github.com/wonny/weekly-ranker/internal/s3_training"
	"github.com/wonny/weekly-ranker/internal/selection"
	"github.com/wonny/weekly-ranker/pkg/logger"
	"github.com/wonny/weekly-ranker/pkg/metrics"
)

// Orchestrator coordinates the weekly pipeline
// S1 universe → S0 prices → S2 features → S3 training → S4 ranking, and S5 evaluation on its own
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	universe  contracts.UniverseSource
	collector *collector.Collector
	features  *s2_features.Builder
	trainer   *s3_training.Trainer
	predictor *selection.Predictor
	evaluator *audit.Evaluator

	metrics *metrics.Recorder
	sink    EventSink
	logger  *logger.Logger

	mu sync.Mutex // one run at a time
}

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Stages holds the stage components; any may be nil if the caller never runs it
type Stages struct {
	Universe  contracts.UniverseSource
	Collector *collector.Collector
	Features  *s2_features.Builder
	Trainer   *s3_training.Trainer
	Predictor *selection.Predictor
	Evaluator *audit.Evaluator
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(stages Stages, recorder *metrics.Recorder, sink EventSink, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		universe:  stages.Universe,
		collector: stages.Collector,
		features:  stages.Features,
		trainer:   stages.Trainer,
		predictor: stages.Predictor,
		evaluator: stages.Evaluator,
		metrics:   recorder,
		sink:      sink,
		logger:    log.WithModule("brain"),
	}
}

// RunOptions controls one train-and-predict run
type RunOptions struct {
	RunID   string // generated when empty
	RunDate time.Time
	TopN    int
	Fetch   bool // download prices before building features
	Start   time.Time
	End     time.Time
	Workers int
}

// RunResult holds the results of a complete run
type RunResult struct {
	RunID      string
	Date       time.Time
	Success    bool
	Error      error
	Stages     []contracts.PipelineResult
	Universe   *contracts.Universe
	Training   *s3_training.TrainResult
	Prediction *selection.PredictResult
	Evaluation *contracts.Evaluation
	Duration   time.Duration
}

// TrainAndPredict runs S1 → (S0) → S2 → S3 → S4.
// Per-symbol problems are reported; a fatal stage error aborts the remaining stages.
func (o *Orchestrator) TrainAndPredict(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	result := o.newResult(opts.RunID, opts.RunDate)

	o.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"date":   result.Date.Format("2006-01-02"),
		"fetch":  opts.Fetch,
	}).Info("Starting pipeline run")

	// S1: Universe
	universe, err := o.runUniverse(ctx, result)
	if err != nil {
		return o.fail(result, "S1", err)
	}
	result.Universe = universe

	// S0: Prices
	if opts.Fetch {
		if err := o.runFetch(ctx, result, universe.Symbols, opts); err != nil {
			return o.fail(result, "S0", err)
		}
	}

	// S2: Features
	if err := o.runFeatures(ctx, result, universe.Symbols); err != nil {
		return o.fail(result, "S2", err)
	}

	// S3: Training
	if err := o.runTraining(ctx, result); err != nil {
		return o.fail(result, "S3", err)
	}

	// S4: Ranking
	if err := o.runRanking(ctx, result, opts.TopN); err != nil {
		return o.fail(result, "S4", err)
	}

	return o.succeed(result)
}

// Predict runs S4 alone against the current artifact pair
func (o *Orchestrator) Predict(ctx context.Context, runDate time.Time, topN int) (*RunResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	result := o.newResult("", runDate)
	if err := o.runRanking(ctx, result, topN); err != nil {
		return o.fail(result, "S4", err)
	}
	return o.succeed(result)
}

// Evaluate runs S5 against the latest predictions file
func (o *Orchestrator) Evaluate(ctx context.Context) (*RunResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	result := o.newResult("", time.Now())

	start := o.begin(result, contracts.StageEvaluation)
	eval, err := o.evaluator.Evaluate(ctx)
	if err != nil {
		o.end(result, contracts.StageEvaluation, start, nil, err, nil)
		return o.fail(result, "S5", err)
	}
	result.Evaluation = eval
	o.end(result, contracts.StageEvaluation, start, eval.Report, nil, map[string]interface{}{
		"compared":    len(eval.Rows),
		"mae":         finiteOrNil(eval.MAE),
		"correlation": finiteOrNil(eval.Correlation),
	})
	return o.succeed(result)
}

func (o *Orchestrator) runUniverse(ctx context.Context, result *RunResult) (*contracts.Universe, error) {
	start := o.begin(result, contracts.StageUniverse)
	universe, err := o.universe.Load(ctx)
	if err == nil && universe.Count() == 0 {
		err = fmt.Errorf("universe is empty: %w", contracts.ErrMissingInputData)
	}
	if err != nil {
		o.end(result, contracts.StageUniverse, start, nil, err, nil)
		return nil, fmt.Errorf("universe load: %w", err)
	}
	o.end(result, contracts.StageUniverse, start, nil, nil, map[string]interface{}{
		"symbols":  universe.Count(),
		"excluded": len(universe.Excluded),
		"source":   universe.Source,
	})
	return universe, nil
}

func (o *Orchestrator) runFetch(ctx context.Context, result *RunResult, symbols []string, opts RunOptions) error {
	start := o.begin(result, contracts.StageData)
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	report := o.collector.Collect(ctx, symbols, opts.Start, opts.End, collector.Config{Workers: workers})
	if ctx.Err() != nil {
		o.end(result, contracts.StageData, start, report, ctx.Err(), nil)
		return ctx.Err()
	}
	o.end(result, contracts.StageData, start, report, nil, nil)
	return nil
}

func (o *Orchestrator) runFeatures(ctx context.Context, result *RunResult, symbols []string) error {
	start := o.begin(result, contracts.StageFeatures)
	report := o.features.Build(ctx, symbols)
	if ctx.Err() != nil {
		o.end(result, contracts.StageFeatures, start, report, ctx.Err(), nil)
		return ctx.Err()
	}
	o.end(result, contracts.StageFeatures, start, report, nil, nil)
	return nil
}

func (o *Orchestrator) runTraining(ctx context.Context, result *RunResult) error {
	start := o.begin(result, contracts.StageTraining)
	train, err := o.trainer.Train(ctx)
	if err != nil {
		o.end(result, contracts.StageTraining, start, nil, err, nil)
		return err
	}
	result.Training = train
	o.metrics.SetTrainingRMSE(train.TrainRMSE, train.TestRMSE)
	o.end(result, contracts.StageTraining, start, train.Report, nil, map[string]interface{}{
		"rows":       train.Rows,
		"train_rows": train.TrainRows,
		"test_rows":  train.TestRows,
		"train_rmse": finiteOrNil(train.TrainRMSE),
		"test_rmse":  finiteOrNil(train.TestRMSE),
		"pair_id":    train.PairID,
	})
	return nil
}

func (o *Orchestrator) runRanking(ctx context.Context, result *RunResult, topN int) error {
	start := o.begin(result, contracts.StageRanking)
	pred, err := o.predictor.Predict(ctx, result.Date, topN)
	if err != nil {
		o.end(result, contracts.StageRanking, start, nil, err, nil)
		return err
	}
	result.Prediction = pred
	o.metrics.SetRankedSymbols(pred.Ranked.Len())

	meta := map[string]interface{}{
		"ranked":  pred.Ranked.Len(),
		"path":    pred.Path,
		"pair_id": pred.PairID,
	}
	if pred.Ranked.Len() > 0 {
		meta["top"] = pred.Ranked.Records[0].Symbol
	}
	o.end(result, contracts.StageRanking, start, pred.Report, nil, meta)
	return nil
}

// Running reports whether a run currently holds the orchestrator
func (o *Orchestrator) Running() bool {
	if o.mu.TryLock() {
		o.mu.Unlock()
		return false
	}
	return true
}

func (o *Orchestrator) newResult(runID string, date time.Time) *RunResult {
	if runID == "" {
		runID = GenerateRunID()
	}
	y, m, d := date.Date()
	return &RunResult{
		RunID: runID,
		Date:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

func (o *Orchestrator) begin(result *RunResult, stage contracts.Stage) time.Time {
	o.logger.Infof("Running %s: %s", stage.ShortName(), stage.Description())
	o.publish(Event{RunID: result.RunID, Stage: stage, Status: EventStarted})
	return time.Now()
}

func (o *Orchestrator) end(result *RunResult, stage contracts.Stage, start time.Time, report *contracts.RunReport, err error, meta map[string]interface{}) {
	elapsed := time.Since(start)
	pr := contracts.PipelineResult{
		Stage:    stage,
		Success:  err == nil,
		Duration: elapsed.Milliseconds(),
		Report:   report,
		Metadata: meta,
	}
	if report != nil {
		report.RunID = result.RunID
		pr.InputCount = len(report.Items)
		pr.OutputCount = report.Processed()
	}
	if err != nil {
		pr.Error = err.Error()
	}
	result.Stages = append(result.Stages, pr)

	if report != nil {
		o.metrics.RecordReport(report)
	} else {
		o.metrics.RecordStageDuration(stage, elapsed)
	}

	status := EventCompleted
	if err != nil {
		status = EventFailed
	}
	o.publish(Event{RunID: result.RunID, Stage: stage, Status: status, Message: pr.Error, Result: &pr})

	fields := map[string]interface{}{
		"stage":    stage.ShortName(),
		"duration": elapsed.String(),
	}
	if report != nil {
		fields["processed"] = report.Processed()
		fields["skipped"] = report.Skipped()
	}
	if err != nil {
		o.logger.WithFields(fields).WithError(err).Error("Stage failed")
		return
	}
	o.logger.WithFields(fields).Info("Stage completed")
}

func (o *Orchestrator) fail(result *RunResult, code string, err error) (*RunResult, error) {
	result.Error = fmt.Errorf("%s failed: %w", code, err)
	o.finish(result)
	return result, result.Error
}

func (o *Orchestrator) succeed(result *RunResult) (*RunResult, error) {
	result.Success = true
	o.finish(result)
	return result, nil
}

func (o *Orchestrator) finish(result *RunResult) {
	for _, s := range result.Stages {
		result.Duration += time.Duration(s.Duration) * time.Millisecond
	}
	msg := "ok"
	if result.Error != nil {
		msg = result.Error.Error()
	}
	o.publish(Event{RunID: result.RunID, Status: EventFinished, Message: msg})

	o.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"success":  result.Success,
		"stages":   len(result.Stages),
		"duration": result.Duration.String(),
	}).Info("Pipeline run finished")
}

func (o *Orchestrator) publish(e Event) {
	if o.sink == nil {
		return
	}
	e.Time = time.Now().UTC()
	o.sink.Publish(e)
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return uuid.NewString()
}

// finiteOrNil keeps NaN out of JSON metadata
func finiteOrNil(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
