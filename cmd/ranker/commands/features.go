package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// featuresCmd builds feature tables from stored prices
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Build feature tables from stored prices (S2)",
	Long: `Computes the indicator features and forward-return targets for every
universe symbol with stored prices and writes <data-dir>/features/<SYMBOL>.csv.

Symbols with missing prices or too little history are skipped and reported.

Example:
  go run ./cmd/ranker features`,
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	universe, err := a.universeSource().Load(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	PrintHeader("S2 Feature Tables",
		"Symbols", fmt.Sprintf("%d", universe.Count()),
		"Min rows", fmt.Sprintf("%d", a.model.Features.MinRows),
	)

	began := time.Now()
	report := a.featureBuilder().Build(ctx, universe.Symbols)
	a.metrics.RecordReport(report)

	PrintReport(report)
	PrintKeyValue("Rows", fmt.Sprintf("%d", report.TotalRows()), 10)
	fmt.Println()
	if report.Processed() == 0 {
		PrintWarning("No feature tables were written")
	}
	PrintSuccess(fmt.Sprintf("Features completed in %s", formatDuration(time.Since(began))))
	return ctx.Err()
}
