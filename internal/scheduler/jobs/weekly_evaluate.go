package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// WeeklyEvaluateJob scores last week's predictions against realized prices
type WeeklyEvaluateJob struct {
	pipeline Pipeline
	logger   *logger.Logger
}

// NewWeeklyEvaluateJob creates a new evaluation job
func NewWeeklyEvaluateJob(pipeline Pipeline, log *logger.Logger) *WeeklyEvaluateJob {
	return &WeeklyEvaluateJob{
		pipeline: pipeline,
		logger:   log,
	}
}

// Name returns the job name
func (j *WeeklyEvaluateJob) Name() string {
	return "weekly_evaluate"
}

// Schedule returns the cron schedule (Thursdays at 6 PM, before the next ranking)
func (j *WeeklyEvaluateJob) Schedule() string {
	return "0 0 18 * * THU"
}

// Run evaluates the latest predictions table.
// Having nothing to evaluate yet is not a failure.
func (j *WeeklyEvaluateJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled evaluation")

	result, err := j.pipeline.Evaluate(ctx)
	if errors.Is(err, contracts.ErrMissingInputData) {
		j.logger.Warn("No predictions to evaluate yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("weekly evaluation: %w", err)
	}

	fields := map[string]interface{}{"run_id": result.RunID}
	if eval := result.Evaluation; eval != nil {
		fields["compared"] = len(eval.Rows)
		fields["prediction_date"] = eval.PredictionDate.Format("2006-01-02")
	}
	j.logger.WithFields(fields).Info("Weekly evaluation completed")
	return nil
}
