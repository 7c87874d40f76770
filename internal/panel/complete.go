package panel

import (
	"sort"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// Complete builds the dense ticker×date grid of rows
// ⭐ SSOT: do.complete.data / do.fill.missing.prices
//
// Missing (ticker, date) pairs are inserted with nil values. With fill, each
// price column takes the nearest prior value, falling back to the nearest
// later one for leading gaps; nil volume becomes zero.
func Complete(rows []contracts.PriceObservation, fill bool) []contracts.PriceObservation {
	if len(rows) == 0 {
		return []contracts.PriceObservation{}
	}

	dates := unionDates(rows)
	tickers, groups := contracts.GroupByTicker(rows)
	sort.Strings(tickers)

	out := make([]contracts.PriceObservation, 0, len(tickers)*len(dates))
	for _, ticker := range tickers {
		byDate := make(map[time.Time]contracts.PriceObservation, len(groups[ticker]))
		for _, row := range groups[ticker] {
			byDate[contracts.NormalizeDate(row.RefDate)] = row
		}

		series := make([]contracts.PriceObservation, 0, len(dates))
		for _, d := range dates {
			row, ok := byDate[d]
			if !ok {
				row = contracts.PriceObservation{Ticker: ticker}
			}
			row = row.Clone()
			row.RefDate = d
			series = append(series, row)
		}

		if fill {
			fillSeries(series)
		}
		out = append(out, series...)
	}

	return out
}

// unionDates returns every distinct date in rows, ascending
func unionDates(rows []contracts.PriceObservation) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, row := range rows {
		seen[contracts.NormalizeDate(row.RefDate)] = struct{}{}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// fillSeries fills one ticker's date-sorted rows in place
func fillSeries(series []contracts.PriceObservation) {
	for _, field := range contracts.PriceFields {
		// forward pass: previous value always wins
		var last *float64
		for i := range series {
			slot := series[i].Field(field)
			if *slot != nil {
				last = *slot
				continue
			}
			if last != nil {
				*slot = contracts.Float(*last)
			}
		}

		// backward pass only reaches leading gaps
		var next *float64
		for i := len(series) - 1; i >= 0; i-- {
			slot := series[i].Field(field)
			if *slot != nil {
				next = *slot
				continue
			}
			if next != nil {
				*slot = contracts.Float(*next)
			}
		}
	}

	for i := range series {
		if series[i].Volume == nil {
			series[i].Volume = contracts.Float(0)
		}
	}
}
