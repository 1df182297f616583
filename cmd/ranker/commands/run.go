package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/weekly-ranker/internal/brain"
)

// runCmd runs the full train-and-predict pipeline
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Train and predict: features → train → predict",
	Long: `Runs the weekly pipeline in order:

  S1 universe → (S0 prices with --fetch) → S2 features → S3 training → S4 ranking

Per-symbol problems are reported and skipped; a stage failure stops the run.

Example:
  go run ./cmd/ranker run
  go run ./cmd/ranker run --fetch --top 20`,
	RunE: runPipeline,
}

var (
	runTop       int
	runDate      string
	runWithFetch bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runTop, "top", 0, "rows to print (default prediction.top_n)")
	runCmd.Flags().StringVar(&runDate, "date", "", "run date (YYYY-MM-DD, default today)")
	runCmd.Flags().BoolVar(&runWithFetch, "fetch", false, "download prices before building features")
	runCmd.Flags().IntVar(&fetchWorkers, "workers", 1, "concurrent downloads with --fetch")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	date, err := parseDate(runDate)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	opts := a.runOptions(runWithFetch, runTop, false)(date)
	PrintHeader("Weekly Pipeline",
		"Run date", date.Format("2006-01-02"),
		"Fetch", fmt.Sprintf("%v", runWithFetch),
	)

	result, err := a.orchestrator(nil).TrainAndPredict(ctx, opts)
	if result != nil {
		printRunResult(result)
	}
	if err != nil {
		return err
	}

	if result.Training != nil {
		fmt.Println()
		printTrainResult(result.Training)
	}
	fmt.Println()
	printPredictResult(result.Prediction)
	return nil
}

func printRunResult(r *brain.RunResult) {
	fmt.Println()
	fmt.Printf("Run %s\n", r.RunID)
	PrintSeparator()
	for _, s := range r.Stages {
		status := "✅"
		if !s.Success {
			status = "❌"
		}
		line := fmt.Sprintf("%s %-4s %-28s %6dms", status, s.Stage.ShortName(), s.Stage.Description(), s.Duration)
		if s.Report != nil {
			line += fmt.Sprintf("  ok=%d skipped=%d", s.Report.Processed(), s.Report.Skipped())
		}
		fmt.Println(line)
		if s.Error != "" {
			fmt.Printf("     %s\n", s.Error)
		}
	}
	PrintSeparator()
}
