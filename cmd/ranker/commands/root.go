package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	modelConfigPath string
	dataDir         string
	verbose         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ranker",
	Short: "Weekly stock ranker",
	Long: `Weekly stock ranker CLI

Downloads daily prices, builds feature tables, trains a gradient boosted
regressor on next-week returns and ranks the universe by predicted return.

Pipeline:
  S1 universe → S0 prices → S2 features → S3 training → S4 ranking
  S5 evaluation scores last week's ranking against realized prices

Usage:
  go run ./cmd/ranker [command]

Examples:
  go run ./cmd/ranker fetch
  go run ./cmd/ranker run --top 10
  go run ./cmd/ranker predict --date 2025-01-10
  go run ./cmd/ranker api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&modelConfigPath, "model-config", "", "model config file (default MODEL_CONFIG or configs/ranker.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default DATA_DIR or data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
