// Package batch runs a quality-controlled multi-ticker download.
package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hal2001/BatchGetSymbols/internal/cache"
	"github.com/hal2001/BatchGetSymbols/internal/collector"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/internal/fetcher"
	"github.com/hal2001/BatchGetSymbols/internal/panel"
	"github.com/hal2001/BatchGetSymbols/internal/quality"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// Deps are the collaborators of an Orchestrator
// Only Registry is required.
type Deps struct {
	Registry     *fetcher.Registry
	Cache        cache.Store   // used when Options.UseCache and no CacheFolder is given
	CacheTTL     time.Duration // TTL of per-run file caches opened from Options.CacheFolder
	Executor     Executor      // required for Options.Parallel
	Connectivity Connectivity  // skipped when nil
	Observer     Observer
	Logger       *logger.Logger
}

// Orchestrator validates, downloads, screens and transforms a batch
// ⭐ SSOT: the only place the pipeline stages are sequenced
type Orchestrator struct {
	registry     *fetcher.Registry
	store        cache.Store
	cacheTTL     time.Duration
	executor     Executor
	connectivity Connectivity
	observer     Observer
	logger       *logger.Logger
}

// New creates an Orchestrator
func New(deps Deps) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	var observer Observer = nopObserver{}
	if deps.Observer != nil {
		observer = deps.Observer
	}

	return &Orchestrator{
		registry:     deps.Registry,
		store:        deps.Cache,
		cacheTTL:     deps.CacheTTL,
		executor:     deps.Executor,
		connectivity: deps.Connectivity,
		observer:     observer,
		logger:       log.WithModule("batch"),
	}
}

// Run executes one batch
// Configuration problems return *ConfigurationError values and no result.
// Per-ticker failures never fail the run; they surface as OUT records.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*contracts.Result, error) {
	p, errs := opts.resolve()
	if opts.Parallel && o.executor == nil {
		errs = append(errs, configError(KindNoExecutor, "do_parallel",
			"parallel dispatch requested but no executor is configured"))
	}
	if err := joinErrors(errs); err != nil {
		return nil, err
	}

	if o.connectivity != nil {
		if err := o.connectivity.Check(ctx); err != nil {
			return nil, &ConfigurationError{
				Kind:    KindNoConnectivity,
				Message: fmt.Sprintf("connectivity check failed: %v", err),
				Err:     err,
			}
		}
	}

	store, err := o.cacheFor(opts)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := o.logger.WithRun(runID)
	o.observer.RunStarted(runID, p.tickers)

	res, err := o.run(ctx, runID, p, opts, store, log)
	o.observer.RunFinished(runID, res, err)
	return res, err
}

func (o *Orchestrator) run(ctx context.Context, runID string, p plan, opts Options, store cache.Store, log *logger.Logger) (*contracts.Result, error) {
	started := time.Now()
	task := fetcher.NewTask(o.registry, store, log)

	log.WithFields(map[string]interface{}{
		"tickers":   len(p.tickers),
		"first":     p.first.Format(contracts.DateLayout),
		"last":      p.last.Format(contracts.DateLayout),
		"bench":     p.bench,
		"frequency": p.frequency,
		"parallel":  opts.Parallel,
	}).Info("Batch started")

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", p.bench, err)
	}
	bench := task.Run(ctx, fetcher.Request{
		Ticker:    p.bench,
		FirstDate: p.first,
		LastDate:  p.last,
		UseCache:  opts.UseCache,
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", p.bench, err)
	}
	if len(bench.Rows) == 0 {
		if bench.Control.Error != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrEmptyBenchmark, p.bench, bench.Control.Error)
		}
		return nil, fmt.Errorf("%w: %s", ErrEmptyBenchmark, p.bench)
	}
	calendar := contracts.CalendarFromRows(bench.Rows)

	dates := calendar.Dates()
	log.WithFields(map[string]interface{}{
		"bench":       p.bench,
		"bench_days":  len(dates),
		"bench_first": dates[0].Format(contracts.DateLayout),
		"bench_last":  dates[len(dates)-1].Format(contracts.DateLayout),
	}).Debug("Benchmark calendar ready")

	results := make([]fetcher.Result, len(p.tickers))
	var done int32
	total := len(p.tickers)

	jobs := make([]collector.Job, len(p.tickers))
	for i, ticker := range p.tickers {
		i, ticker := i, ticker
		jobs[i] = func(ctx context.Context) {
			results[i] = task.Run(ctx, fetcher.Request{
				Ticker:    ticker,
				FirstDate: p.first,
				LastDate:  p.last,
				UseCache:  opts.UseCache,
				Benchmark: calendar,
				Threshold: opts.Threshold,
			})
			o.observer.TaskDone(runID, TaskEvent{
				Record:   results[i].Control,
				CacheHit: results[i].CacheHit,
				Done:     int(atomic.AddInt32(&done, 1)),
				Total:    total,
			})
		}
	}

	if opts.Parallel {
		if err := o.executor.Execute(ctx, jobs); err != nil {
			return nil, fmt.Errorf("parallel dispatch: %w", err)
		}
	} else {
		for _, job := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("sequential dispatch: %w", err)
			}
			job(ctx)
		}
	}
	// a cancel during the last tasks turns them into OUT records
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	control := make([]contracts.ControlRecord, len(results))
	rows := make([]contracts.PriceObservation, 0)
	for i, r := range results {
		control[i] = r.Control
		rows = append(rows, r.Rows...)
	}

	rows = quality.FilterKeep(control, rows)
	if opts.CompleteData {
		rows = panel.Complete(rows, opts.FillMissingPrices)
	}
	if p.frequency != contracts.FrequencyDaily {
		rows = panel.Resample(rows, p.frequency)
	}
	rows = panel.ComputeReturns(rows, p.returnType)

	summary := quality.Summarize(control)
	log.WithFields(map[string]interface{}{
		"kept":          summary.Kept,
		"dropped":       summary.Dropped,
		"failed":        summary.Failed,
		"mean_coverage": summary.MeanCoverage,
		"panel_rows":    len(rows),
		"duration":      time.Since(started),
	}).Info("Batch completed")

	return &contracts.Result{
		RunID:   runID,
		Control: control,
		Panel:   rows,
	}, nil
}

// cacheFor picks the store for this run
func (o *Orchestrator) cacheFor(opts Options) (cache.Store, error) {
	if !opts.UseCache {
		return nil, nil
	}
	if opts.CacheFolder == "" {
		return o.store, nil
	}
	if fs, ok := o.store.(*cache.FileStore); ok && fs.Dir() == opts.CacheFolder {
		return fs, nil
	}

	store, err := cache.NewFileStore(opts.CacheFolder, o.cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("open cache folder: %w", err)
	}
	return store, nil
}
