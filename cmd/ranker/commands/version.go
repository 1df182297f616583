package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/wonny/weekly-ranker/internal/model"
)

// Set with -ldflags "-X github.com/wonny/weekly-ranker/cmd/ranker/commands.version=..."
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ranker %s (%s)\n", version, commit)
		fmt.Printf("  go             %s\n", runtime.Version())
		fmt.Printf("  artifact       v%d\n", model.SchemaVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
