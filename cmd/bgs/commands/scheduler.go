package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hal2001/BatchGetSymbols/internal/cache"
	"github.com/hal2001/BatchGetSymbols/internal/jobconfig"
	"github.com/hal2001/BatchGetSymbols/internal/scheduler"
	"github.com/hal2001/BatchGetSymbols/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled batch refreshes",
	Long: `Starts the scheduler or inspects its jobs.

Every *.yaml file in --jobs with a meta.schedule becomes a cron job
(seconds field first). Stores that support expiry also get a
cache_cleanup job.

Subcommands:
  start   - start the scheduler
  list    - list registered jobs
  run     - run one job now
  status  - show next runs

Example:
  go run ./cmd/bgs scheduler start --jobs ./jobs
  go run ./cmd/bgs scheduler list
  go run ./cmd/bgs scheduler run us_megacaps`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job now and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show schedules and next runs",
		RunE:  showStatus,
	}
)

var (
	schedulerJobsDir     string
	schedulerMaxRetries  int
	schedulerRetryDelay  time.Duration
	schedulerCleanupCron string
	schedulerRunOnStart  bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	// Flags
	pf := schedulerCmd.PersistentFlags()
	pf.StringVar(&schedulerJobsDir, "jobs", "jobs", "directory of YAML job files")
	pf.IntVar(&schedulerMaxRetries, "max-retries", 3, "attempts per run before giving up")
	pf.DurationVar(&schedulerRetryDelay, "retry-delay", time.Minute, "wait between attempts")
	pf.StringVar(&schedulerCleanupCron, "cleanup-schedule", jobs.DefaultCacheCleanupSchedule, "cache_cleanup schedule (empty disables)")

	schedulerStartCmd.Flags().BoolVar(&schedulerRunOnStart, "run-on-start", false, "trigger every job once right after starting")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	// Start scheduler
	sched.Start()

	PrintSuccess("Scheduler started")
	fmt.Fprintln(out, "\nRegistered jobs:")
	PrintList(sched.GetAllJobs())

	if schedulerRunOnStart {
		for _, name := range sched.GetAllJobs() {
			if err := sched.RunJob(name); err != nil {
				PrintWarning(fmt.Sprintf("%s: %v", name, err))
			}
		}
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	<-quit

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	fmt.Fprintln(out, "Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	fmt.Fprintln(out, "Registered jobs:")
	PrintList(sched.GetAllJobs())

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	PrintInfo(fmt.Sprintf("Running job: %s", jobName))

	result, err := sched.RunNow(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintKeyValue("Attempts", fmt.Sprintf("%d", result.Attempts), 10)
	PrintKeyValue("Duration", result.Duration.Round(time.Millisecond).String(), 10)
	if !result.Success {
		PrintError(result.Error)
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess("Job completed")
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	// next runs are only known once cron has started
	sched.Start()
	defer sched.Stop()

	stats := sched.GetJobStats()

	fmt.Fprintln(out, "Job Schedules:")
	fmt.Fprintln(out)

	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Fprintf(out, "📊 %s\n", jobName)
		PrintKeyValue("Schedule", stat.Schedule, 10)
		if next, err := sched.NextRun(jobName); err == nil && !next.IsZero() {
			PrintKeyValue("Next Run", next.Format("2006-01-02 15:04:05"), 10)
		}
		fmt.Fprintln(out)
	}

	return nil
}

// initScheduler loads job files and registers them with a fresh scheduler
func initScheduler() (*scheduler.Scheduler, *app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	files, err := jobconfig.LoadDir(schedulerJobsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load jobs: %w", err)
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log, scheduler.WithRetry(schedulerMaxRetries, schedulerRetryDelay))
	orch := a.orchestrator(nil)

	for _, f := range files {
		if f.Job.Meta.Schedule == "" {
			a.log.WithField("path", f.Path).Warn("Job file has no schedule; skipped")
			continue
		}
		if err := sched.AddJob(jobs.NewBatchRefreshJob(f.Job, f.YAML, orch, a.universe, a.log)); err != nil {
			a.close()
			return nil, nil, err
		}
	}

	if sweeper, ok := a.store.(cache.Sweeper); ok && schedulerCleanupCron != "" {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(sweeper, schedulerCleanupCron, a.log)); err != nil {
			a.close()
			return nil, nil, err
		}
	}

	return sched, a, nil
}
