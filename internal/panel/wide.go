package panel

import (
	"sort"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// Column names accepted by Wide besides the price fields
const (
	ColumnVolume         = "volume"
	ColumnReturnAdjusted = "return_adjusted"
	ColumnReturnClosing  = "return_closing"
)

// WideTable is a date × ticker matrix of one column
type WideTable struct {
	Column  string
	Dates   []time.Time
	Tickers []string
	Values  [][]*float64 // Values[date][ticker]
}

// Wide reshapes a long panel into a date × ticker matrix of column
// Cells without a row are nil.
func Wide(rows []contracts.PriceObservation, column string) WideTable {
	dates := unionDates(rows)

	tickerSet := make(map[string]struct{})
	for _, row := range rows {
		tickerSet[row.Ticker] = struct{}{}
	}
	tickers := make([]string, 0, len(tickerSet))
	for t := range tickerSet {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	dateIdx := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		dateIdx[d] = i
	}
	tickerIdx := make(map[string]int, len(tickers))
	for i, t := range tickers {
		tickerIdx[t] = i
	}

	values := make([][]*float64, len(dates))
	for i := range values {
		values[i] = make([]*float64, len(tickers))
	}
	for _, row := range rows {
		v := columnValue(row, column)
		if v == nil {
			continue
		}
		values[dateIdx[contracts.NormalizeDate(row.RefDate)]][tickerIdx[row.Ticker]] = contracts.Float(*v)
	}

	return WideTable{Column: column, Dates: dates, Tickers: tickers, Values: values}
}

func columnValue(row contracts.PriceObservation, column string) *float64 {
	switch column {
	case ColumnVolume:
		return row.Volume
	case ColumnReturnAdjusted:
		return row.ReturnAdjusted
	case ColumnReturnClosing:
		return row.ReturnClosing
	}
	if slot := row.Field(contracts.PriceField(column)); slot != nil {
		return *slot
	}
	return nil
}
