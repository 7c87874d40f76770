package quality

import (
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// Input holds everything needed to judge one ticker
type Input struct {
	Ticker    string
	Source    contracts.Source
	FirstDate time.Time
	LastDate  time.Time
	Rows      []contracts.PriceObservation
	Benchmark contracts.Calendar
	Threshold float64 // thresh.bad.data, 0.0 ~ 1.0
}

// Assess computes benchmark coverage and the keep/drop decision for one ticker
// ⭐ SSOT: coverage ratio and KEEP/OUT decision are computed only here
// A ticker without rows is OUT even at threshold 0.
func Assess(in Input) contracts.ControlRecord {
	coverage := Coverage(in.Rows, in.Benchmark)
	decision := Decide(coverage, in.Threshold)
	if len(in.Rows) == 0 {
		decision = contracts.DecisionOut
	}

	return contracts.ControlRecord{
		Ticker:         in.Ticker,
		Source:         in.Source,
		FirstDate:      in.FirstDate,
		LastDate:       in.LastDate,
		TotalObs:       len(in.Rows),
		Coverage:       coverage,
		Threshold:      in.Threshold,
		Decision:       decision,
		DownloadStatus: contracts.StatusOK,
	}
}

// Failed builds the record of a ticker whose download failed
// Zero rows, zero coverage, always OUT.
func Failed(in Input, err error) contracts.ControlRecord {
	rec := contracts.ControlRecord{
		Ticker:         in.Ticker,
		Source:         in.Source,
		FirstDate:      in.FirstDate,
		LastDate:       in.LastDate,
		Threshold:      in.Threshold,
		Decision:       contracts.DecisionOut,
		DownloadStatus: contracts.StatusNotOK,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// Coverage returns the fraction of benchmark dates on which rows carry a closing price
func Coverage(rows []contracts.PriceObservation, benchmark contracts.Calendar) float64 {
	if benchmark.Len() == 0 {
		return 0
	}

	seen := make(map[time.Time]struct{}, len(rows))
	for _, row := range rows {
		if row.PriceClose == nil {
			continue
		}
		d := contracts.NormalizeDate(row.RefDate)
		if benchmark.Contains(d) {
			seen[d] = struct{}{}
		}
	}

	return float64(len(seen)) / float64(benchmark.Len())
}

// Decide returns KEEP iff coverage >= threshold
func Decide(coverage, threshold float64) contracts.Decision {
	if coverage >= threshold {
		return contracts.DecisionKeep
	}
	return contracts.DecisionOut
}

// FilterKeep drops every row whose ticker is not KEEP in records
// Tickers without a record are dropped as well.
func FilterKeep(records []contracts.ControlRecord, rows []contracts.PriceObservation) []contracts.PriceObservation {
	keep := make(map[string]bool, len(records))
	for _, rec := range records {
		keep[rec.Ticker] = rec.Kept()
	}

	out := make([]contracts.PriceObservation, 0, len(rows))
	for _, row := range rows {
		if keep[row.Ticker] {
			out = append(out, row)
		}
	}
	return out
}

// Summary condenses a control table for logging and reports
type Summary struct {
	Total        int     `json:"total"`
	Kept         int     `json:"kept"`
	Dropped      int     `json:"dropped"`
	Failed       int     `json:"failed"`
	MeanCoverage float64 `json:"mean_coverage"`
}

// Summarize aggregates a control table
func Summarize(records []contracts.ControlRecord) Summary {
	s := Summary{Total: len(records)}
	if len(records) == 0 {
		return s
	}

	total := 0.0
	for _, rec := range records {
		total += rec.Coverage
		if rec.Kept() {
			s.Kept++
		} else {
			s.Dropped++
		}
		if rec.DownloadStatus == contracts.StatusNotOK {
			s.Failed++
		}
	}
	s.MeanCoverage = total / float64(len(records))

	return s
}
