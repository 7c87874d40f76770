package fetcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal2001/BatchGetSymbols/internal/cache"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(d int, close float64) contracts.PriceObservation {
	return contracts.PriceObservation{
		RefDate:       day(d),
		PriceClose:    contracts.Float(close),
		PriceAdjusted: contracts.Float(close),
		Volume:        contracts.Float(100),
	}
}

type countingSource struct {
	calls int32
	rows  []contracts.PriceObservation
	err   error
}

func (s *countingSource) FetchPrices(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceObservation, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.rows, s.err
}

func newRegistry(t *testing.T, src contracts.Source, ps PriceSource) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(src, ps))
	return reg
}

func request(ticker string) Request {
	return Request{
		Ticker:    ticker,
		FirstDate: day(1),
		LastDate:  day(10),
		Benchmark: contracts.NewCalendar([]time.Time{day(2), day(3), day(6), day(7)}),
		Threshold: 0.75,
	}
}

func TestRun_Keep(t *testing.T) {
	src := &countingSource{rows: []contracts.PriceObservation{bar(2, 10), bar(3, 11), bar(6, 12)}}
	task := NewTask(newRegistry(t, contracts.SourceYahoo, src), nil, logger.Nop())

	res := task.Run(context.Background(), request("AAPL"))

	require.Len(t, res.Rows, 3)
	for _, r := range res.Rows {
		assert.Equal(t, "AAPL", r.Ticker)
	}
	rec := res.Control
	assert.Equal(t, contracts.SourceYahoo, rec.Source)
	assert.Equal(t, 3, rec.TotalObs)
	assert.InDelta(t, 0.75, rec.Coverage, 1e-9)
	assert.Equal(t, contracts.DecisionKeep, rec.Decision)
	assert.Equal(t, contracts.StatusOK, rec.DownloadStatus)
	assert.False(t, res.CacheHit)
}

func TestRun_Out(t *testing.T) {
	src := &countingSource{rows: []contracts.PriceObservation{bar(2, 10)}}
	task := NewTask(newRegistry(t, contracts.SourceYahoo, src), nil, logger.Nop())

	res := task.Run(context.Background(), request("THIN"))

	assert.Len(t, res.Rows, 1)
	assert.InDelta(t, 0.25, res.Control.Coverage, 1e-9)
	assert.Equal(t, contracts.DecisionOut, res.Control.Decision)
}

func TestRun_FailureIsolation(t *testing.T) {
	tests := []struct {
		name    string
		reg     func(t *testing.T) *Registry
		ticker  string
		wantErr string
	}{
		{
			name: "source error",
			reg: func(t *testing.T) *Registry {
				return newRegistry(t, contracts.SourceYahoo, &countingSource{err: errors.New("HTTP 404")})
			},
			ticker:  "NOPE",
			wantErr: "HTTP 404",
		},
		{
			name: "panic",
			reg: func(t *testing.T) *Registry {
				return newRegistry(t, contracts.SourceYahoo, PriceSourceFunc(
					func(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceObservation, error) {
						panic("index out of range")
					}))
			},
			ticker:  "BOOM",
			wantErr: "panic in yahoo client: index out of range",
		},
		{
			name:    "unregistered source",
			reg:     func(t *testing.T) *Registry { return NewRegistry() },
			ticker:  "005930",
			wantErr: "no client registered for source naver",
		},
		{
			name:    "deprecated source",
			reg:     func(t *testing.T) *Registry { return NewRegistry() },
			ticker:  "BVMF_PETR4",
			wantErr: "source google is deprecated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewTask(tt.reg(t), nil, logger.Nop())

			res := task.Run(context.Background(), request(tt.ticker))

			assert.Empty(t, res.Rows)
			assert.Equal(t, tt.ticker, res.Control.Ticker)
			assert.Equal(t, 0, res.Control.TotalObs)
			assert.Zero(t, res.Control.Coverage)
			assert.Equal(t, contracts.DecisionOut, res.Control.Decision)
			assert.Equal(t, contracts.StatusNotOK, res.Control.DownloadStatus)
			assert.Contains(t, res.Control.Error, tt.wantErr)
		})
	}
}

func TestRun_CancelledContext(t *testing.T) {
	src := &countingSource{rows: []contracts.PriceObservation{bar(2, 10)}}
	task := NewTask(newRegistry(t, contracts.SourceYahoo, src), nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := task.Run(ctx, request("AAPL"))
	assert.Equal(t, contracts.StatusNotOK, res.Control.DownloadStatus)
	assert.Zero(t, atomic.LoadInt32(&src.calls))
}

func TestRun_Cache(t *testing.T) {
	src := &countingSource{rows: []contracts.PriceObservation{bar(2, 10), bar(3, 11), bar(6, 12), bar(7, 13)}}
	store := cache.NewMemoryStore(0, logger.Nop())
	task := NewTask(newRegistry(t, contracts.SourceYahoo, src), store, logger.Nop())

	req := request("AAPL")
	req.UseCache = true

	first := task.Run(context.Background(), req)
	second := task.Run(context.Background(), req)

	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls), "second run must be served from cache")
	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Control, second.Control)

	req.UseCache = false
	task.Run(context.Background(), req)
	assert.Equal(t, int32(2), atomic.LoadInt32(&src.calls))
}

func TestRun_CacheSkipsEmptyDownloads(t *testing.T) {
	src := &countingSource{}
	store := cache.NewMemoryStore(0, logger.Nop())
	task := NewTask(newRegistry(t, contracts.SourceYahoo, src), store, logger.Nop())

	req := request("EMPTY")
	req.UseCache = true
	task.Run(context.Background(), req)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalCount)
}

func TestNormalize(t *testing.T) {
	late := bar(3, 99)
	late.RefDate = time.Date(2020, 1, 3, 21, 0, 0, 0, time.UTC)

	rows := []contracts.PriceObservation{
		bar(6, 12),
		bar(3, 11),
		bar(1, 1),  // before first
		bar(11, 2), // after last
		late,       // duplicate of day 3, later in input
	}

	got := normalize("X", rows, day(2), day(10))

	require.Len(t, got, 2)
	assert.Equal(t, day(3), got[0].RefDate)
	assert.Equal(t, 99.0, *got[0].PriceClose, "later duplicate wins")
	assert.Equal(t, day(6), got[1].RefDate)
	assert.Equal(t, "X", got[1].Ticker)
	assert.Equal(t, "", rows[0].Ticker, "input is not mutated")
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.Register(contracts.SourceGoogle, &countingSource{}))
	assert.Error(t, reg.Register(contracts.SourceYahoo, nil))
	require.NoError(t, reg.Register(contracts.SourceYahoo, &countingSource{}))
	require.NoError(t, reg.Register(contracts.SourceNaver, &countingSource{}))

	assert.Equal(t, []contracts.Source{contracts.SourceNaver, contracts.SourceYahoo}, reg.Sources())

	_, err := reg.Lookup(contracts.SourceYahoo)
	assert.NoError(t, err)
	_, err = reg.Lookup(contracts.SourceGoogle)
	assert.EqualError(t, err, "source google is deprecated")
}
