package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/internal/export"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// maxBodyBytes bounds POST /api/batch bodies
const maxBodyBytes = 1 << 20

// Runner executes one batch run (*batch.Orchestrator)
type Runner interface {
	Run(ctx context.Context, opts batch.Options) (*contracts.Result, error)
}

// BatchHandler serves batch runs over HTTP
// ⭐ SSOT: the HTTP surface of batch runs lives here
type BatchHandler struct {
	runner      Runner
	benchTicker string
	runTimeout  time.Duration
	logger      *logger.Logger
}

// NewBatchHandler creates a new batch handler
// benchTicker replaces the built-in default benchmark when non-empty.
func NewBatchHandler(runner Runner, benchTicker string, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		runner:      runner,
		benchTicker: benchTicker,
		logger:      log.WithModule("api"),
	}
}

// WithRunTimeout bounds every run; 0 leaves runs bound only by the request
func (h *BatchHandler) WithRunTimeout(d time.Duration) *BatchHandler {
	h.runTimeout = d
	return h
}

// Get runs a batch described by query parameters
// GET /api/batch?tickers=AAPL,MSFT&first_date=2024-01-02&last_date=2024-06-28
// format=csv with table=panel|control returns CSV instead of JSON.
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	opts, err := h.optionsFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, ok := h.run(w, r, opts)
	if !ok {
		return
	}

	q := r.URL.Query()
	if q.Get("format") == export.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		var werr error
		switch q.Get("table") {
		case "control":
			werr = export.WriteControlCSV(w, res.Control)
		default:
			werr = export.WritePanelCSV(w, res.Panel)
		}
		if werr != nil {
			h.logger.WithError(werr).Warn("Failed to write CSV response")
		}
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// Post runs a batch described by a JSON options body
// POST /api/batch
// Omitted fields keep their defaults.
func (h *BatchHandler) Post(w http.ResponseWriter, r *http.Request) {
	opts := h.defaults()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	res, ok := h.run(w, r, opts)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *BatchHandler) run(w http.ResponseWriter, r *http.Request, opts batch.Options) (*contracts.Result, bool) {
	// the cache folder is a server-side path and is never taken from a request
	opts.CacheFolder = ""

	h.logger.WithFields(map[string]interface{}{
		"tickers":    len(opts.Tickers),
		"first_date": opts.FirstDate,
		"last_date":  opts.LastDate,
		"parallel":   opts.Parallel,
	}).Info("Batch run requested")

	ctx := r.Context()
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	res, err := h.runner.Run(ctx, opts)
	switch {
	case err == nil:
		return res, true
	case batch.IsConfigurationError(err):
		kinds := batch.Kinds(err)
		status := http.StatusBadRequest
		if len(kinds) == 1 && batch.HasKind(err, batch.KindNoConnectivity) {
			status = http.StatusServiceUnavailable
		}
		out := ErrorResponse{Error: err.Error()}
		for _, k := range kinds {
			out.Kinds = append(out.Kinds, string(k))
		}
		respondJSON(w, status, out)
	case errors.Is(err, batch.ErrEmptyBenchmark):
		respondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.WithField("timeout", h.runTimeout.String()).Warn("Batch run timed out")
		respondError(w, http.StatusGatewayTimeout, fmt.Sprintf("batch run exceeded %s", h.runTimeout))
	case errors.Is(err, context.Canceled):
		h.logger.Debug("Batch run canceled by client")
	default:
		h.logger.WithError(err).Error("Batch run failed")
		respondError(w, http.StatusInternalServerError, "Batch run failed")
	}
	return nil, false
}

func (h *BatchHandler) defaults() batch.Options {
	opts := batch.DefaultOptions()
	if h.benchTicker != "" {
		opts.BenchTicker = h.benchTicker
	}
	return opts
}

func (h *BatchHandler) optionsFromQuery(r *http.Request) (batch.Options, error) {
	q := r.URL.Query()
	opts := h.defaults()

	if v := q.Get("tickers"); v != "" {
		for _, t := range strings.Split(v, ",") {
			opts.Tickers = append(opts.Tickers, strings.TrimSpace(t))
		}
	}

	texts := map[string]*string{
		"first_date":   &opts.FirstDate,
		"last_date":    &opts.LastDate,
		"bench_ticker": &opts.BenchTicker,
		"type_return":  &opts.ReturnType,
		"freq_data":    &opts.Frequency,
	}
	for name, dst := range texts {
		if v := q.Get(name); v != "" {
			*dst = v
		}
	}

	if v := q.Get("thresh_bad_data"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("thresh_bad_data: %q is not a number", v)
		}
		opts.Threshold = f
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"do_complete_data", &opts.CompleteData},
		{"do_fill_missing_prices", &opts.FillMissingPrices},
		{"do_cache", &opts.UseCache},
		{"do_parallel", &opts.Parallel},
	}
	for _, b := range bools {
		v := q.Get(b.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %q is not a boolean", b.name, v)
		}
		*b.dst = parsed
	}

	return opts, nil
}
