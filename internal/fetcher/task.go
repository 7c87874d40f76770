package fetcher

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/cache"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/internal/quality"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// Request describes one ticker download
type Request struct {
	Ticker    string
	Source    contracts.Source // zero value = classify from Ticker
	FirstDate time.Time
	LastDate  time.Time
	UseCache  bool
	Benchmark contracts.Calendar
	Threshold float64
}

// Result is the task's output: rows and the record describing them
type Result struct {
	Rows     []contracts.PriceObservation
	Control  contracts.ControlRecord
	CacheHit bool // rows came from the store, no download happened
}

// Task downloads one ticker and screens it against the benchmark
// ⭐ SSOT: failures are isolated here; Run never returns an error
type Task struct {
	registry *Registry
	store    cache.Store
	logger   *logger.Logger
}

// NewTask creates a task runner; store may be nil
func NewTask(registry *Registry, store cache.Store, log *logger.Logger) *Task {
	if log == nil {
		log = logger.Nop()
	}
	return &Task{
		registry: registry,
		store:    store,
		logger:   log.WithModule("fetcher"),
	}
}

// Run performs the download
// Any error, missing client or panic becomes zero rows and an OUT record.
func (t *Task) Run(ctx context.Context, req Request) Result {
	if req.Source == "" {
		req.Source = contracts.ClassifySource(req.Ticker)
	}
	first := contracts.NormalizeDate(req.FirstDate)
	last := contracts.NormalizeDate(req.LastDate)

	in := quality.Input{
		Ticker:    req.Ticker,
		Source:    req.Source,
		FirstDate: first,
		LastDate:  last,
		Benchmark: req.Benchmark,
		Threshold: req.Threshold,
	}

	log := t.logger.WithTicker(req.Ticker, req.Source.String())

	key := cache.NewKey(req.Ticker, req.Source, first, last)
	if req.UseCache && t.store != nil {
		rows, found, err := t.store.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("Cache read failed, downloading")
		} else if found {
			in.Rows = normalize(req.Ticker, rows, first, last)
			log.WithField("rows", len(in.Rows)).Debug("Cache hit")
			return Result{Rows: in.Rows, Control: quality.Assess(in), CacheHit: true}
		}
	}

	rows, err := t.download(ctx, req.Source, req.Ticker, first, last)
	if err != nil {
		log.WithError(err).Warn("Download failed")
		return Result{Control: quality.Failed(in, err)}
	}

	in.Rows = normalize(req.Ticker, rows, first, last)

	if req.UseCache && t.store != nil && len(in.Rows) > 0 {
		if err := t.store.Put(ctx, key, in.Rows); err != nil {
			log.WithError(err).Warn("Cache write failed")
		}
	}

	rec := quality.Assess(in)
	log.WithFields(map[string]interface{}{
		"rows":     rec.TotalObs,
		"coverage": rec.Coverage,
		"decision": rec.Decision,
	}).Debug("Ticker assessed")

	return Result{Rows: in.Rows, Control: rec}
}

// download calls the source client, converting a panic into an error
func (t *Task) download(ctx context.Context, src contracts.Source, ticker string, first, last time.Time) (rows []contracts.PriceObservation, err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithTicker(ticker, src.String()).WithFields(map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("Price source panicked")
			rows = nil
			err = fmt.Errorf("panic in %s client: %v", src, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := t.registry.Lookup(src)
	if err != nil {
		return nil, err
	}

	return client.FetchPrices(ctx, ticker, first, last)
}

// normalize stamps the ticker, truncates dates to UTC midnight, keeps
// [first, last], collapses duplicate dates (last wins) and sorts by date
func normalize(ticker string, rows []contracts.PriceObservation, first, last time.Time) []contracts.PriceObservation {
	byDate := make(map[time.Time]int, len(rows))
	out := make([]contracts.PriceObservation, 0, len(rows))

	for _, row := range rows {
		r := row.Clone()
		r.Ticker = ticker
		r.RefDate = contracts.NormalizeDate(r.RefDate)
		if r.RefDate.Before(first) || r.RefDate.After(last) {
			continue
		}
		if i, ok := byDate[r.RefDate]; ok {
			out[i] = r
			continue
		}
		byDate[r.RefDate] = len(out)
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RefDate.Before(out[j].RefDate) })
	return out
}
