package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/weekly-ranker/internal/api"
	"github.com/wonny/weekly-ranker/internal/api/handlers"
	"github.com/wonny/weekly-ranker/internal/brain"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Serves rankings and evaluations over HTTP and lets clients trigger runs.

Endpoints:
  GET  /health                      - Health check
  GET  /api/rankings                - Run dates with a ranking
  GET  /api/rankings/latest?top=N   - Newest ranking
  GET  /api/rankings/{date}?top=N   - Ranking of one run date
  GET  /api/evaluations/latest      - Latest accuracy report
  POST /api/runs                    - Start train-and-predict (409 while running)
  GET  /api/runs                    - Active and last triggered run
  GET  /ws/runs                     - Websocket stream of stage events
  GET  /metrics                     - Prometheus metrics

Example:
  go run ./cmd/ranker api
  go run ./cmd/ranker api --port 8080 --fetch`,
	RunE: runAPIServer,
}

var (
	apiPort  string
	apiFetch bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
	apiCmd.Flags().BoolVar(&apiFetch, "fetch", false, "triggered runs download prices first")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := api.NewHub(a.log)
	events := brain.NewEventLog(200)
	orch := a.orchestrator(brain.MultiSink{hub, events})
	runs := handlers.NewRunHandler(ctx, orch, a.runOptions(apiFetch, 0, true), a.log)

	routes := api.Routes{
		Rankings:    handlers.NewRankingHandler(a.cfg.DataDir, a.model.Prediction.TopN, a.log),
		Evaluations: handlers.NewEvaluationHandler(a.evaluator().OutputPath(), a.model.Evaluation.ReportN, a.log),
		Runs:        runs,
		Hub:         hub,
	}
	if a.cfg.MetricsEnabled {
		routes.Metrics = a.metrics.Handler()
	}
	server := api.New(a.cfg, routes, a.log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
