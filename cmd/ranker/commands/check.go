package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// checkCmd reports configuration and backend health
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration, model artifact and backends",
	Long: `Loads the configuration and reports:
- model config hash
- model/scaler pair status
- stored price and feature tables
- PostgreSQL archive and Redis cache health (when configured)

Example:
  go run ./cmd/ranker check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	PrintHeader("Ranker Check", "Env", a.cfg.Env, "Data dir", a.cfg.DataDir)

	PrintKeyValue("Model cfg", fmt.Sprintf("%s (%s)", a.cfg.ModelConfigPath, a.configHash[:12]), 10)

	prices, _ := a.priceStore().List()
	tables, _ := a.tableStore().List()
	PrintKeyValue("Prices", fmt.Sprintf("%d symbols", len(prices)), 10)
	PrintKeyValue("Features", fmt.Sprintf("%d tables", len(tables)), 10)

	art, err := a.artifactStore().Load()
	switch {
	case errors.Is(err, contracts.ErrArtifactNotFound):
		PrintKeyValue("Model", "not trained yet", 10)
	case err != nil:
		PrintKeyValue("Model", "unusable: "+err.Error(), 10)
	default:
		h := art.Header
		PrintKeyValue("Model", fmt.Sprintf("pair %s, %d trees, created %s", h.PairID, len(art.Model.Trees), h.CreatedAt.Format(time.RFC3339)), 10)
		if h.ConfigHash != a.configHash {
			PrintWarning("Model was trained with a different model config")
		}
	}

	if a.db == nil {
		PrintKeyValue("Postgres", "disabled", 10)
	} else if status, err := a.db.HealthCheck(ctx); err != nil {
		PrintKeyValue("Postgres", "unhealthy: "+err.Error(), 10)
	} else {
		PrintKeyValue("Postgres", fmt.Sprintf("ok (%s, %d conns)", status.ResponseTime, status.TotalConns), 10)
	}

	if !a.redis.Enabled() {
		PrintKeyValue("Redis", "disabled", 10)
	} else if err := a.redis.Redis().Ping(ctx).Err(); err != nil {
		PrintKeyValue("Redis", "unhealthy: "+err.Error(), 10)
	} else {
		PrintKeyValue("Redis", "ok", 10)
	}

	fmt.Println()
	PrintSuccess("Check completed")
	return nil
}
