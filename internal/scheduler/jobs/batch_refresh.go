// Package jobs holds the scheduler jobs of the batch service.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/internal/export"
	"github.com/hal2001/BatchGetSymbols/internal/jobconfig"
	"github.com/hal2001/BatchGetSymbols/internal/scheduler"
	"github.com/hal2001/BatchGetSymbols/internal/universe"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// Runner executes one batch run (*batch.Orchestrator)
type Runner interface {
	Run(ctx context.Context, opts batch.Options) (*contracts.Result, error)
}

// UniverseSource resolves an index name to its members (*universe.Client)
type UniverseSource interface {
	Fetch(ctx context.Context, index string) ([]universe.Constituent, error)
}

// BatchRefreshJob runs a job file on its schedule and exports the result
// ⭐ SSOT: scheduled batch runs go through this job only
type BatchRefreshJob struct {
	job      *jobconfig.Job
	yaml     []byte
	runner   Runner
	universe UniverseSource
	logger   *logger.Logger
	now      func() time.Time
}

// NewBatchRefreshJob creates a job from a loaded job file
// universe may be nil when no job file uses an index.
func NewBatchRefreshJob(job *jobconfig.Job, yamlData []byte, runner Runner, members UniverseSource, log *logger.Logger) *BatchRefreshJob {
	return &BatchRefreshJob{
		job:      job,
		yaml:     yamlData,
		runner:   runner,
		universe: members,
		logger:   log.WithJob(job.Meta.JobID),
		now:      time.Now,
	}
}

// Name returns the job id
func (j *BatchRefreshJob) Name() string {
	return j.job.Meta.JobID
}

// Schedule returns the job file schedule
func (j *BatchRefreshJob) Schedule() string {
	return j.job.Meta.Schedule
}

// Run resolves the universe, runs the batch and writes the outputs
func (j *BatchRefreshJob) Run(ctx context.Context) error {
	tickers, err := j.tickers(ctx)
	if err != nil {
		return err
	}

	opts := j.job.Options(tickers, j.now())
	j.logger.WithFields(map[string]interface{}{
		"tickers":    len(opts.Tickers),
		"first_date": opts.FirstDate,
		"last_date":  opts.LastDate,
	}).Info("Starting batch refresh")

	res, err := j.runner.Run(ctx, opts)
	if err != nil {
		if batch.IsConfigurationError(err) {
			return scheduler.Permanent(fmt.Errorf("batch run: %w", err))
		}
		return fmt.Errorf("batch run: %w", err)
	}

	snapshot, err := jobconfig.NewSnapshot(j.job, j.yaml, res.RunID)
	if err != nil {
		return fmt.Errorf("snapshot job: %w", err)
	}

	out := j.job.Output
	var paths []string
	if len(out.Formats) > 0 {
		paths, err = export.WriteFiles(res, export.Options{
			Dir:        out.Dir,
			Prefix:     fmt.Sprintf("%s_%s", j.job.Meta.JobID, opts.LastDate),
			Formats:    out.Formats,
			WideColumn: out.WideColumn,
		})
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		snapshotPath := filepath.Join(out.Dir, fmt.Sprintf("%s_%s_snapshot.json", j.job.Meta.JobID, opts.LastDate))
		if err := writeSnapshot(snapshotPath, snapshot); err != nil {
			return err
		}
		paths = append(paths, snapshotPath)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   res.RunID,
		"job_hash": snapshot.JobHash,
		"kept":     len(res.KeptTickers()),
		"total":    len(res.Control),
		"rows":     len(res.Panel),
		"files":    paths,
	}).Info("Batch refresh completed")

	return nil
}

// tickers merges explicit tickers with index members
func (j *BatchRefreshJob) tickers(ctx context.Context) ([]string, error) {
	tickers := append([]string(nil), j.job.Universe.Tickers...)
	if j.job.Universe.Index == "" {
		return tickers, nil
	}

	if j.universe == nil {
		return nil, scheduler.Permanent(fmt.Errorf("index %s requested but no universe source configured", j.job.Universe.Index))
	}

	members, err := j.universe.Fetch(ctx, j.job.Universe.Index)
	if err != nil {
		return nil, fmt.Errorf("fetch %s composition: %w", j.job.Universe.Index, err)
	}
	return append(tickers, universe.Tickers(members)...), nil
}

func writeSnapshot(path string, snapshot *jobconfig.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
