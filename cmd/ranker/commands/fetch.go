package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/weekly-ranker/internal/s0_data/collector"
)

// fetchCmd downloads daily prices for the universe
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download daily prices for the universe (S1 → S0)",
	Long: `Loads the universe and downloads daily OHLCV history for every symbol
into <data-dir>/historical/<SYMBOL>.csv.

The window defaults to fetch.start / fetch.end from the model config.

Example:
  go run ./cmd/ranker fetch
  go run ./cmd/ranker fetch --start 2022-01-01 --end 2025-01-01 --workers 4`,
	RunE: runFetch,
}

var (
	fetchStart   string
	fetchEnd     string
	fetchWorkers int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "window start (YYYY-MM-DD, default fetch.start)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "window end, exclusive (YYYY-MM-DD, default fetch.end)")
	fetchCmd.Flags().IntVar(&fetchWorkers, "workers", 1, "concurrent downloads (1 fetches sequentially)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	start, end := a.model.Fetch.StartDate(), a.model.Fetch.EndDate()
	if fetchStart != "" {
		if start, err = time.Parse("2006-01-02", fetchStart); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if fetchEnd != "" {
		if end, err = time.Parse("2006-01-02", fetchEnd); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}
	if !start.Before(end) {
		return fmt.Errorf("start %s must be before end %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	universe, err := a.universeSource().Load(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	PrintHeader("S0 Price Download",
		"Period", start.Format("2006-01-02")+" ~ "+end.Format("2006-01-02"),
		"Symbols", fmt.Sprintf("%d (%d excluded)", universe.Count(), len(universe.Excluded)),
	)

	began := time.Now()
	report := a.collector().Collect(ctx, universe.Symbols, start, end, collector.Config{Workers: fetchWorkers})
	a.metrics.RecordReport(report)

	PrintReport(report)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Fetch completed in %s", formatDuration(time.Since(began))))
	return ctx.Err()
}
