package s3_training

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

// TrainResult summarizes one training run
type TrainResult struct {
	Rows          int
	TrainRows     int
	TestRows      int
	TrainRMSE     float64
	TestRMSE      float64 // NaN when the test split is empty
	TablesUsed    int
	TablesSkipped int
	PairID        string
	Duration      time.Duration
	Report        *contracts.RunReport
}

// Trainer fits and persists the weekly model/scaler pair
// ⭐ SSOT: S3 학습 파이프라인
type Trainer struct {
	reader     contracts.FeatureReader
	store      *model.Store
	config     modelconfig.Training
	configHash string
	logger     *logger.Logger
}

// NewTrainer creates a new trainer
func NewTrainer(reader contracts.FeatureReader, store *model.Store, config modelconfig.Training, configHash string, log *logger.Logger) *Trainer {
	return &Trainer{
		reader:     reader,
		store:      store,
		config:     config,
		configHash: configHash,
		logger:     log.WithModule("s3_training"),
	}
}

// BoosterParams maps training settings onto booster hyperparameters
func BoosterParams(cfg modelconfig.Training) model.Params {
	return model.Params{
		NEstimators:     cfg.NEstimators,
		LearningRate:    cfg.LearningRate,
		MaxDepth:        cfg.MaxDepth,
		Subsample:       cfg.Subsample,
		ColsampleByTree: cfg.ColsampleByTree,
		HuberSlope:      cfg.HuberSlope,
		Lambda:          cfg.Lambda,
		MinChildWeight:  cfg.MinChildWeight,
		MaxBins:         cfg.MaxBins,
		Seed:            cfg.Seed,
	}
}

// Train pools all feature tables, fits scaler and booster, and overwrites the artifact pair.
// An empty pooled dataset is fatal (ErrNoTrainableData).
func (t *Trainer) Train(ctx context.Context) (*TrainResult, error) {
	start := time.Now()
	report := contracts.NewRunReport(contracts.StageTraining)

	ds, err := LoadDataset(t.reader, report)
	report.Finish()
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := Split(ds.Len(), t.config.TestFraction, t.config.Seed)
	if err != nil {
		return nil, err
	}
	train, test := ds.Rows(trainIdx), ds.Rows(testIdx)

	t.logger.WithFields(map[string]interface{}{
		"rows":       ds.Len(),
		"train_rows": train.Len(),
		"test_rows":  test.Len(),
		"tables":     report.Processed(),
		"skipped":    report.Skipped(),
	}).Info("Training dataset ready")

	scaler, err := model.FitScaler(train.X)
	if err != nil {
		return nil, err
	}
	trainX, err := scaler.TransformAll(train.X)
	if err != nil {
		return nil, err
	}
	testX, err := scaler.TransformAll(test.X)
	if err != nil {
		return nil, err
	}

	weights := SampleWeights(train.Y, t.config.WeightScale, t.config.WeightMin, t.config.WeightMax)

	var eval *model.EvalSet
	if test.Len() > 0 {
		eval = &model.EvalSet{X: testX, Y: test.Y}
	}

	var last model.Round
	booster, err := model.Fit(ctx, trainX, train.Y, weights, BoosterParams(t.config), eval, func(r model.Round) {
		last = r
		if r.Index%t.config.EvalEvery == 0 || r.Index == t.config.NEstimators {
			t.logger.WithFields(map[string]interface{}{
				"round":      r.Index,
				"train_rmse": r.TrainRMSE,
				"test_rmse":  r.EvalRMSE,
			}).Debug("Boosting progress")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("fit booster: %w", err)
	}

	header := model.NewHeader(t.configHash)
	header.Metrics = map[string]float64{
		"rows":       float64(ds.Len()),
		"train_rows": float64(train.Len()),
		"test_rows":  float64(test.Len()),
		"train_rmse": last.TrainRMSE,
	}
	if !math.IsNaN(last.EvalRMSE) {
		header.Metrics["test_rmse"] = last.EvalRMSE
	}

	if err := t.store.Save(&model.Artifact{Header: header, Model: booster, Scaler: scaler}); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}

	result := &TrainResult{
		Rows:          ds.Len(),
		TrainRows:     train.Len(),
		TestRows:      test.Len(),
		TrainRMSE:     last.TrainRMSE,
		TestRMSE:      last.EvalRMSE,
		TablesUsed:    report.Processed(),
		TablesSkipped: report.Skipped(),
		PairID:        header.PairID,
		Duration:      time.Since(start),
		Report:        report,
	}

	t.logger.WithFields(map[string]interface{}{
		"pair_id":    result.PairID,
		"train_rmse": result.TrainRMSE,
		"test_rmse":  result.TestRMSE,
		"duration":   result.Duration.String(),
	}).Info("Model trained and saved")

	return result, nil
}
