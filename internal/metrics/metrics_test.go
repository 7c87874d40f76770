package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, OutcomeOK},
		{"empty benchmark", fmt.Errorf("run: %w", batch.ErrEmptyBenchmark), OutcomeEmptyBenchmark},
		{"canceled", context.Canceled, OutcomeCanceled},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), OutcomeCanceled},
		{"other", errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestMetrics_Run(t *testing.T) {
	m := New()
	clock := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	m.RunStarted("run-1", []string{"AAPL", "BAD"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeRuns))

	m.TaskDone("run-1", batch.TaskEvent{
		Record: contracts.ControlRecord{
			Ticker: "AAPL", Source: contracts.SourceYahoo, Coverage: 1,
			Decision: contracts.DecisionKeep, DownloadStatus: contracts.StatusOK,
		},
		CacheHit: true, Done: 1, Total: 2,
	})
	m.TaskDone("run-1", batch.TaskEvent{
		Record: contracts.ControlRecord{
			Ticker: "BAD", Source: contracts.SourceYahoo,
			Decision: contracts.DecisionOut, DownloadStatus: contracts.StatusNotOK,
		},
		Done: 2, Total: 2,
	})

	clock = clock.Add(3 * time.Second)
	m.RunFinished("run-1", &contracts.Result{
		RunID: "run-1",
		Control: []contracts.ControlRecord{
			{Ticker: "AAPL", Decision: contracts.DecisionKeep},
			{Ticker: "BAD", Decision: contracts.DecisionOut},
		},
		Panel: make([]contracts.PriceObservation, 5),
	}, nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("yahoo", "KEEP", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("yahoo", "OUT", "NOT OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.keptTickers))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.panelRows))
	assert.Empty(t, m.started)

	expected := `
# HELP bgs_run_duration_seconds Wall time of batch runs.
# TYPE bgs_run_duration_seconds histogram
bgs_run_duration_seconds_bucket{le="1"} 0
bgs_run_duration_seconds_bucket{le="5"} 1
bgs_run_duration_seconds_bucket{le="15"} 1
bgs_run_duration_seconds_bucket{le="30"} 1
bgs_run_duration_seconds_bucket{le="60"} 1
bgs_run_duration_seconds_bucket{le="120"} 1
bgs_run_duration_seconds_bucket{le="300"} 1
bgs_run_duration_seconds_bucket{le="600"} 1
bgs_run_duration_seconds_bucket{le="+Inf"} 1
bgs_run_duration_seconds_sum 3
bgs_run_duration_seconds_count 1
`
	require.NoError(t, testutil.CollectAndCompare(m.runDuration, strings.NewReader(expected)))
}

func TestMetrics_FailedRunKeepsLastGauges(t *testing.T) {
	m := New()

	m.RunStarted("ok", nil)
	m.RunFinished("ok", &contracts.Result{
		Control: []contracts.ControlRecord{{Ticker: "A", Decision: contracts.DecisionKeep}},
	}, nil)

	m.RunStarted("bad", nil)
	m.RunFinished("bad", nil, batch.ErrEmptyBenchmark)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(OutcomeEmptyBenchmark)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.keptTickers))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeRuns))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RunStarted("run-1", nil)
	m.RunFinished("run-1", &contracts.Result{}, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bgs_runs_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "bgs_active_runs 0")
}
