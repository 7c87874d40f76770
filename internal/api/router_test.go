package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal2001/BatchGetSymbols/internal/api/handlers"
	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/pkg/config"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

type stubRunner struct {
	calls int
}

func (r *stubRunner) Run(ctx context.Context, opts batch.Options) (*contracts.Result, error) {
	r.calls++
	if len(opts.Tickers) > 0 && opts.Tickers[0] == "PANIC" {
		panic("runner exploded")
	}
	return &contracts.Result{RunID: "run-1"}, nil
}

func newTestRouter(runner *stubRunner) http.Handler {
	log := logger.Nop()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bgs_runs_total 0\n"))
	})
	return NewRouter(handlers.NewBatchHandler(runner, "", log), handlers.NewProgressHub(log), metrics, log)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&stubRunner{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ServiceName, body["service"])
}

func TestRoutes(t *testing.T) {
	runner := &stubRunner{}
	router := newTestRouter(runner)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/api/batch?tickers=AAPL", "", http.StatusOK},
		{http.MethodPost, "/api/batch", `{"tickers":["AAPL"]}`, http.StatusOK},
		{http.MethodDelete, "/api/batch", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
		{http.MethodGet, "/ws/progress", "", http.StatusBadRequest}, // not a websocket handshake
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, 2, runner.calls)
}

func TestRecoveryMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&stubRunner{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/batch?tickers=PANIC", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestNewServer(t *testing.T) {
	cfg := &config.Config{Port: "18089", Env: "development"}
	s := New(cfg, logger.Nop(), http.NotFoundHandler())
	assert.Equal(t, ":18089", s.httpServer.Addr)
	assert.Equal(t, DefaultRunTimeout+writeSlack, s.httpServer.WriteTimeout)
	assert.NoError(t, s.Shutdown(context.Background()))

	cfg.Batch.RunTimeout = 2 * time.Minute
	s = New(cfg, logger.Nop(), http.NotFoundHandler())
	assert.Equal(t, 2*time.Minute, RunTimeout(cfg))
	assert.Equal(t, 2*time.Minute+writeSlack, s.httpServer.WriteTimeout)
}
