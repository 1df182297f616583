package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/weekly-ranker/internal/audit"
	"github.com/wonny/weekly-ranker/internal/contracts"
)

// evaluateCmd scores the latest predictions against realized prices
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compare the latest predictions with realized returns (S5)",
	Long: `Finds the newest predictions_<date>_week.csv, downloads closes for the
following week and reports MAE, correlation, the most accurate predictions
and the largest misses. Rows are written to evaluation_latest_week.csv.

Example:
  go run ./cmd/ranker evaluate`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	PrintHeader("S5 Evaluation", "Horizon", fmt.Sprintf("%d days", a.model.Evaluation.HorizonDays))

	result, err := a.orchestrator(nil).Evaluate(ctx)
	if errors.Is(err, contracts.ErrMissingInputData) {
		PrintWarning("No weekly predictions to evaluate yet")
		return nil
	}
	if err != nil {
		return err
	}

	eval := result.Evaluation
	PrintReport(eval.Report)
	fmt.Println()
	if eval.IsEmpty() {
		PrintWarning("No predictions could be matched with realized prices")
		return nil
	}

	view := audit.NewView(eval)
	PrintKeyValue("Predicted", view.PredictionDate+" ~ "+view.WindowEnd, 12)
	PrintEvaluation(view)
	return nil
}
