package commands

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/wonny/weekly-ranker/internal/s3_training"
)

// trainCmd fits the weekly model on all feature tables
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the weekly model on all feature tables (S3)",
	Long: `Pools every feature table, splits it into train and held-out rows,
fits the scaler and the gradient boosted regressor, and overwrites the
model/scaler pair under <data-dir>/models.

Example:
  go run ./cmd/ranker train`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	PrintHeader("S3 Training",
		"Trees", fmt.Sprintf("%d", a.model.Training.NEstimators),
		"Depth", fmt.Sprintf("%d", a.model.Training.MaxDepth),
		"Config", a.configHash[:12],
	)

	result, err := a.trainer().Train(ctx)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	a.metrics.SetTrainingRMSE(result.TrainRMSE, result.TestRMSE)

	printTrainResult(result)
	return nil
}

func printTrainResult(r *s3_training.TrainResult) {
	PrintKeyValue("Tables", fmt.Sprintf("%d used, %d skipped", r.TablesUsed, r.TablesSkipped), 10)
	PrintKeyValue("Rows", fmt.Sprintf("%d (train %d / test %d)", r.Rows, r.TrainRows, r.TestRows), 10)
	PrintKeyValue("Train RMSE", fmt.Sprintf("%.6f", r.TrainRMSE), 10)
	if math.IsNaN(r.TestRMSE) {
		PrintKeyValue("Test RMSE", "-", 10)
	} else {
		PrintKeyValue("Test RMSE", fmt.Sprintf("%.6f", r.TestRMSE), 10)
	}
	PrintKeyValue("Pair", r.PairID, 10)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Training completed in %s", formatDuration(r.Duration)))
}
