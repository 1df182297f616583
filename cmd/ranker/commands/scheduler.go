package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/weekly-ranker/internal/scheduler"
	"github.com/wonny/weekly-ranker/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run or inspect the weekly schedule",
	Long: `Starts the scheduler or manages its jobs.

Jobs:
  weekly_rank           Fridays 18:00   fetch prices, retrain, rank
  weekly_evaluate       Thursdays 18:00 evaluate the latest ranking
  prediction_retention  Sundays 03:00   keep the newest prediction tables

Example:
  go run ./cmd/ranker scheduler start
  go run ./cmd/ranker scheduler list
  go run ./cmd/ranker scheduler run weekly_evaluate`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler (Ctrl+C to stop)",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job now and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}

	keepPredictions int
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().IntVar(&keepPredictions, "keep", 12, "prediction tables kept by prediction_retention")
}

// initScheduler registers every job against a wired orchestrator
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)
	orch := a.orchestrator(nil)

	jobList := []scheduler.Job{
		jobs.NewWeeklyRankJob(orch, a.runOptions(true, 0, true), a.log),
		jobs.NewWeeklyEvaluateJob(orch, a.log),
		jobs.NewPredictionRetentionJob(a.cfg.DataDir, keepPredictions, a.log),
	}
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()

	PrintSuccess("Scheduler started")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return err
	}
	printJobs(sched)
	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return err
	}

	result, err := sched.RunJob(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s): %s", result.JobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", result.JobName)
	}
	PrintSuccess(fmt.Sprintf("%s completed in %s", result.JobName, formatDuration(result.Duration)))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	widths := []int{22, 16}
	fmt.Println()
	PrintTableHeader([]string{"Job", "Schedule"}, widths)
	for _, name := range sched.GetAllJobs() {
		PrintTableRow([]string{name, stats[name].Schedule}, widths)
	}
}
