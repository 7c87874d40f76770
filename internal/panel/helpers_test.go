package panel

import (
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func f(v float64) *float64 {
	return contracts.Float(v)
}

func closeRow(ticker string, d time.Time, price float64) contracts.PriceObservation {
	return contracts.PriceObservation{
		Ticker:        ticker,
		RefDate:       d,
		PriceOpen:     f(price),
		PriceHigh:     f(price),
		PriceLow:      f(price),
		PriceClose:    f(price),
		PriceAdjusted: f(price),
		Volume:        f(1),
	}
}

func datesOf(rows []contracts.PriceObservation, ticker string) []time.Time {
	var out []time.Time
	for _, row := range rows {
		if row.Ticker == ticker {
			out = append(out, row.RefDate)
		}
	}
	return out
}
