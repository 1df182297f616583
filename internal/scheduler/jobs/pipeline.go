package jobs

import (
	"context"
	"time"

	"github.com/wonny/weekly-ranker/internal/brain"
)

// Pipeline is the part of the orchestrator the weekly jobs drive
type Pipeline interface {
	TrainAndPredict(ctx context.Context, opts brain.RunOptions) (*brain.RunResult, error)
	Evaluate(ctx context.Context) (*brain.RunResult, error)
}

// OptionsFunc builds run options for a trigger time
type OptionsFunc func(now time.Time) brain.RunOptions
