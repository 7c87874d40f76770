package quality

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

func businessDays(start time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for d := start; len(dates) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

func rowsOn(ticker string, dates []time.Time) []contracts.PriceObservation {
	rows := make([]contracts.PriceObservation, 0, len(dates))
	for i, d := range dates {
		rows = append(rows, contracts.PriceObservation{
			Ticker:     ticker,
			RefDate:    d,
			PriceClose: contracts.Float(100 + float64(i)),
		})
	}
	return rows
}

func TestAssess_Scenario(t *testing.T) {
	// benchmark 100 dates, A covers all, B covers half, threshold 0.75
	dates := businessDays(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), 100)
	bench := contracts.NewCalendar(dates)

	a := Assess(Input{Ticker: "A", Rows: rowsOn("A", dates), Benchmark: bench, Threshold: 0.75})
	b := Assess(Input{Ticker: "B", Rows: rowsOn("B", dates[:50]), Benchmark: bench, Threshold: 0.75})

	assert.Equal(t, 1.0, a.Coverage)
	assert.Equal(t, contracts.DecisionKeep, a.Decision)
	assert.Equal(t, 100, a.TotalObs)

	assert.Equal(t, 0.5, b.Coverage)
	assert.Equal(t, contracts.DecisionOut, b.Decision)
	assert.Equal(t, contracts.StatusOK, b.DownloadStatus)
}

func TestAssess_ZeroRows(t *testing.T) {
	bench := contracts.NewCalendar(businessDays(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), 10))

	rec := Assess(Input{Ticker: "EMPTY", Benchmark: bench, Threshold: 0})

	assert.Equal(t, 0.0, rec.Coverage)
	assert.Equal(t, 0, rec.TotalObs)
	assert.Equal(t, contracts.DecisionOut, rec.Decision)
}

func TestCoverage(t *testing.T) {
	dates := businessDays(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), 4)
	bench := contracts.NewCalendar(dates)

	tests := []struct {
		name string
		rows []contracts.PriceObservation
		want float64
	}{
		{
			name: "null close does not count",
			rows: []contracts.PriceObservation{
				{RefDate: dates[0], PriceClose: contracts.Float(1)},
				{RefDate: dates[1]},
			},
			want: 0.25,
		},
		{
			name: "dates outside benchmark ignored",
			rows: []contracts.PriceObservation{
				{RefDate: dates[0], PriceClose: contracts.Float(1)},
				{RefDate: dates[0].AddDate(0, 0, -30), PriceClose: contracts.Float(1)},
			},
			want: 0.25,
		},
		{
			name: "duplicate dates count once",
			rows: []contracts.PriceObservation{
				{RefDate: dates[2], PriceClose: contracts.Float(1)},
				{RefDate: dates[2], PriceClose: contracts.Float(2)},
			},
			want: 0.25,
		},
		{
			name: "intraday timestamps normalised",
			rows: []contracts.PriceObservation{
				{RefDate: dates[3].Add(14 * time.Hour), PriceClose: contracts.Float(1)},
			},
			want: 0.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Coverage(tt.rows, bench), 1e-12)
		})
	}
}

func TestCoverage_EmptyBenchmark(t *testing.T) {
	rows := []contracts.PriceObservation{{RefDate: time.Now(), PriceClose: contracts.Float(1)}}
	assert.Equal(t, 0.0, Coverage(rows, contracts.Calendar{}))
}

func TestDecide_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	dates := businessDays(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), 50)
	bench := contracts.NewCalendar(dates)

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(len(dates))
		perm := rng.Perm(len(dates))[:n]
		picked := make([]time.Time, 0, n)
		for _, idx := range perm {
			picked = append(picked, dates[idx])
		}
		threshold := rng.Float64()

		rec := Assess(Input{Ticker: "T", Rows: rowsOn("T", picked), Benchmark: bench, Threshold: threshold})

		require.GreaterOrEqual(t, rec.Coverage, 0.0)
		require.LessOrEqual(t, rec.Coverage, 1.0)
		require.Equal(t, rec.Coverage >= threshold, rec.Kept(), "coverage=%v threshold=%v", rec.Coverage, threshold)
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		coverage  float64
		threshold float64
		want      contracts.Decision
	}{
		{1.0, 1.0, contracts.DecisionKeep},
		{0.75, 0.75, contracts.DecisionKeep},
		{0.7499, 0.75, contracts.DecisionOut},
		{0.0, 0.0, contracts.DecisionKeep},
		{0.99, 1.0, contracts.DecisionOut},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Decide(tt.coverage, tt.threshold), "coverage=%v threshold=%v", tt.coverage, tt.threshold)
	}
}

func TestFailed(t *testing.T) {
	rec := Failed(Input{Ticker: "X", Source: contracts.SourceYahoo, Threshold: 0.5}, errors.New("boom"))

	assert.Equal(t, contracts.DecisionOut, rec.Decision)
	assert.Equal(t, 0, rec.TotalObs)
	assert.Equal(t, 0.0, rec.Coverage)
	assert.Equal(t, contracts.StatusNotOK, rec.DownloadStatus)
	assert.Equal(t, "boom", rec.Error)
}

func TestFilterKeep(t *testing.T) {
	records := []contracts.ControlRecord{
		{Ticker: "A", Decision: contracts.DecisionKeep},
		{Ticker: "B", Decision: contracts.DecisionOut},
	}
	rows := []contracts.PriceObservation{{Ticker: "A"}, {Ticker: "B"}, {Ticker: "C"}, {Ticker: "A"}}

	out := FilterKeep(records, rows)

	require.Len(t, out, 2)
	for _, row := range out {
		assert.Equal(t, "A", row.Ticker)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]contracts.ControlRecord{
		{Coverage: 1.0, Decision: contracts.DecisionKeep, DownloadStatus: contracts.StatusOK},
		{Coverage: 0.5, Decision: contracts.DecisionOut, DownloadStatus: contracts.StatusOK},
		{Coverage: 0.0, Decision: contracts.DecisionOut, DownloadStatus: contracts.StatusNotOK},
	})

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Kept)
	assert.Equal(t, 2, s.Dropped)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 0.5, s.MeanCoverage, 1e-12)

	assert.Equal(t, Summary{}, Summarize(nil))
}
