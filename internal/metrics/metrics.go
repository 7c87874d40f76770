// Package metrics exports batch run counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

const namespace = "bgs"

// Run outcomes
const (
	OutcomeOK             = "ok"
	OutcomeEmptyBenchmark = "empty_benchmark"
	OutcomeCanceled       = "canceled"
	OutcomeError          = "error"
)

// Metrics is a batch.Observer that records runs and tasks
// ⭐ SSOT: every exported metric is registered in New
type Metrics struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	activeRuns  prometheus.Gauge
	tasks       *prometheus.CounterVec
	cacheHits   prometheus.Counter
	coverage    prometheus.Histogram
	keptTickers prometheus.Gauge
	panelRows   prometheus.Gauge

	mu      sync.Mutex
	started map[string]time.Time
	now     func() time.Time
}

var _ batch.Observer = (*Metrics)(nil)

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Batch runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of batch runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Batch runs in progress.",
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Per-ticker fetch tasks by source, decision and download status.",
		}, []string{"source", "decision", "status"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Fetch tasks served from the price cache.",
		}),
		coverage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ticker_coverage_ratio",
			Help:      "Benchmark coverage of each downloaded ticker.",
			Buckets:   []float64{0, 0.25, 0.5, 0.75, 0.9, 0.95, 1},
		}),
		keptTickers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_kept_tickers",
			Help:      "Tickers kept by the most recent successful run.",
		}),
		panelRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_panel_rows",
			Help:      "Panel rows returned by the most recent successful run.",
		}),
		started: make(map[string]time.Time),
		now:     time.Now,
	}

	m.registry.MustRegister(
		m.runs,
		m.runDuration,
		m.activeRuns,
		m.tasks,
		m.cacheHits,
		m.coverage,
		m.keptTickers,
		m.panelRows,
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunStarted implements batch.Observer
func (m *Metrics) RunStarted(runID string, tickers []string) {
	m.mu.Lock()
	m.started[runID] = m.now()
	m.mu.Unlock()

	m.activeRuns.Inc()
}

// TaskDone implements batch.Observer
func (m *Metrics) TaskDone(runID string, ev batch.TaskEvent) {
	rec := ev.Record
	m.tasks.WithLabelValues(rec.Source.String(), string(rec.Decision), rec.DownloadStatus).Inc()
	if ev.CacheHit {
		m.cacheHits.Inc()
	}
	m.coverage.Observe(rec.Coverage)
}

// RunFinished implements batch.Observer
func (m *Metrics) RunFinished(runID string, res *contracts.Result, err error) {
	m.mu.Lock()
	start, ok := m.started[runID]
	delete(m.started, runID)
	m.mu.Unlock()

	m.activeRuns.Dec()
	if ok {
		m.runDuration.Observe(m.now().Sub(start).Seconds())
	}

	outcome := Outcome(err)
	m.runs.WithLabelValues(outcome).Inc()

	if outcome == OutcomeOK && res != nil {
		m.keptTickers.Set(float64(len(res.KeptTickers())))
		m.panelRows.Set(float64(len(res.Panel)))
	}
}

// Outcome maps a run error to its outcome label
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, batch.ErrEmptyBenchmark):
		return OutcomeEmptyBenchmark
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	}
	return OutcomeError
}
