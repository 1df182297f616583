package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/weekly-ranker/pkg/logger"
)

// WeeklyRankJob refreshes prices, retrains and ranks the universe
// ⭐ SSOT: 주간 학습/예측 스케줄은 이 Job에서만
type WeeklyRankJob struct {
	pipeline Pipeline
	options  OptionsFunc
	logger   *logger.Logger
}

// NewWeeklyRankJob creates a new weekly ranking job
func NewWeeklyRankJob(pipeline Pipeline, options OptionsFunc, log *logger.Logger) *WeeklyRankJob {
	return &WeeklyRankJob{
		pipeline: pipeline,
		options:  options,
		logger:   log,
	}
}

// Name returns the job name
func (j *WeeklyRankJob) Name() string {
	return "weekly_rank"
}

// Schedule returns the cron schedule (Fridays at 6 PM, after the close)
func (j *WeeklyRankJob) Schedule() string {
	return "0 0 18 * * FRI"
}

// Run executes train-and-predict for today
func (j *WeeklyRankJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled weekly ranking")

	result, err := j.pipeline.TrainAndPredict(ctx, j.options(time.Now()))
	if err != nil {
		return fmt.Errorf("weekly ranking: %w", err)
	}

	fields := map[string]interface{}{
		"run_id":   result.RunID,
		"duration": result.Duration.String(),
	}
	if result.Prediction != nil {
		fields["ranked"] = result.Prediction.Ranked.Len()
		fields["path"] = result.Prediction.Path
	}
	j.logger.WithFields(fields).Info("Weekly ranking completed")
	return nil
}
