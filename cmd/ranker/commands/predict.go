package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/weekly-ranker/internal/selection"
)

// predictCmd ranks the universe with the current model
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Rank symbols by predicted next-week return (S4)",
	Long: `Scores the latest feature row of every table with the current
model/scaler pair, writes <data-dir>/predictions_<date>_week.csv with the
full ranking and prints the top N.

Example:
  go run ./cmd/ranker predict
  go run ./cmd/ranker predict --top 20 --date 2025-01-10`,
	RunE: runPredict,
}

var (
	predictTop  int
	predictDate string
)

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().IntVar(&predictTop, "top", 0, "rows to print (default prediction.top_n)")
	predictCmd.Flags().StringVar(&predictDate, "date", "", "run date used in the output file name (YYYY-MM-DD, default today)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runDate, err := parseDate(predictDate)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	PrintHeader("S4 Weekly Ranking", "Run date", runDate.Format("2006-01-02"))

	result, err := a.orchestrator(nil).Predict(ctx, runDate, predictTop)
	if err != nil {
		return err
	}
	printPredictResult(result.Prediction)
	return nil
}

func printPredictResult(p *selection.PredictResult) {
	if p == nil {
		return
	}
	PrintReport(p.Report)
	fmt.Println()

	if p.Ranked.Len() == 0 {
		PrintWarning("No symbol could be scored; no predictions file written")
		return
	}

	fmt.Printf("Top %d of %d\n", len(p.Top), p.Ranked.Len())
	PrintRanking(p.Top)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Saved %s", p.Path))
}
