package contracts

import (
	"sort"
	"time"
)

// DateLayout is the calendar date format used on every external surface
const DateLayout = "2006-01-02"

// PriceObservation is one ticker-date row of the panel
// Nil pointers are missing values.
type PriceObservation struct {
	Ticker         string    `json:"ticker"`
	RefDate        time.Time `json:"ref_date"`
	PriceOpen      *float64  `json:"price_open"`
	PriceHigh      *float64  `json:"price_high"`
	PriceLow       *float64  `json:"price_low"`
	PriceClose     *float64  `json:"price_close"`
	PriceAdjusted  *float64  `json:"price_adjusted"`
	Volume         *float64  `json:"volume"`
	ReturnAdjusted *float64  `json:"return_adjusted"`
	ReturnClosing  *float64  `json:"return_closing"`
}

// PriceField selects one of the five price columns
type PriceField string

const (
	FieldOpen     PriceField = "price_open"
	FieldHigh     PriceField = "price_high"
	FieldLow      PriceField = "price_low"
	FieldClose    PriceField = "price_close"
	FieldAdjusted PriceField = "price_adjusted"
)

// PriceFields lists the price columns subject to gap filling
var PriceFields = []PriceField{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldAdjusted}

// Field returns a pointer to the column slot so callers can read or replace it
func (p *PriceObservation) Field(f PriceField) **float64 {
	switch f {
	case FieldOpen:
		return &p.PriceOpen
	case FieldHigh:
		return &p.PriceHigh
	case FieldLow:
		return &p.PriceLow
	case FieldClose:
		return &p.PriceClose
	case FieldAdjusted:
		return &p.PriceAdjusted
	}
	return nil
}

// Clone returns a deep copy so later stages never alias a caller's values
func (p PriceObservation) Clone() PriceObservation {
	out := p
	out.PriceOpen = copyFloat(p.PriceOpen)
	out.PriceHigh = copyFloat(p.PriceHigh)
	out.PriceLow = copyFloat(p.PriceLow)
	out.PriceClose = copyFloat(p.PriceClose)
	out.PriceAdjusted = copyFloat(p.PriceAdjusted)
	out.Volume = copyFloat(p.Volume)
	out.ReturnAdjusted = copyFloat(p.ReturnAdjusted)
	out.ReturnClosing = copyFloat(p.ReturnClosing)
	return out
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// NormalizeDate truncates t to midnight UTC of its calendar day
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// SortPanel orders rows by ticker, then by date
func SortPanel(rows []PriceObservation) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].RefDate.Before(rows[j].RefDate)
	})
}

// GroupByTicker splits rows per ticker, keeping tickers in first-seen order
func GroupByTicker(rows []PriceObservation) ([]string, map[string][]PriceObservation) {
	order := make([]string, 0)
	groups := make(map[string][]PriceObservation)
	for _, row := range rows {
		if _, ok := groups[row.Ticker]; !ok {
			order = append(order, row.Ticker)
		}
		groups[row.Ticker] = append(groups[row.Ticker], row)
	}
	return order, groups
}
