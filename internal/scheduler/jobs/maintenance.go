package jobs

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/weekly-ranker/internal/selection"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// PredictionRetentionJob removes all but the newest predictions tables
type PredictionRetentionJob struct {
	dir    string
	keep   int
	logger *logger.Logger
}

// NewPredictionRetentionJob keeps the newest keep tables in dir
func NewPredictionRetentionJob(dir string, keep int, log *logger.Logger) *PredictionRetentionJob {
	return &PredictionRetentionJob{
		dir:    dir,
		keep:   keep,
		logger: log,
	}
}

// Name returns the job name
func (j *PredictionRetentionJob) Name() string {
	return "prediction_retention"
}

// Schedule returns the cron schedule (Sundays at 3 AM)
func (j *PredictionRetentionJob) Schedule() string {
	return "0 0 3 * * SUN"
}

// Run deletes tables beyond the retention count
func (j *PredictionRetentionJob) Run(ctx context.Context) error {
	if j.keep <= 0 {
		return nil
	}

	files, err := selection.ListPredictions(j.dir)
	if err != nil {
		return err
	}
	if len(files) <= j.keep {
		return nil
	}

	removed := 0
	for _, f := range files[:len(files)-j.keep] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.Remove(f.Path); err != nil {
			return fmt.Errorf("remove %s: %w", f.Path, err)
		}
		removed++
	}

	j.logger.WithField("removed", removed).Info("Prediction retention completed")
	return nil
}
