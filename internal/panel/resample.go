package panel

import (
	"sort"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// bucketKey identifies a calendar bucket; only the fields relevant to the frequency are set
type bucketKey struct {
	year  int
	month time.Month
	week  int
}

// bucketer maps a date to its bucket
type bucketer func(d time.Time) bucketKey

// bucketerFor binds each frequency to its bucketing rule
// anchor is January 1 of the minimum year present.
func bucketerFor(freq contracts.Frequency, anchor time.Time) bucketer {
	switch freq {
	case contracts.FrequencyWeekly:
		return func(d time.Time) bucketKey {
			days := int(d.Sub(anchor).Hours() / 24)
			return bucketKey{week: days / 7}
		}
	case contracts.FrequencyMonthly:
		return func(d time.Time) bucketKey {
			return bucketKey{year: d.Year(), month: d.Month()}
		}
	case contracts.FrequencyYearly:
		return func(d time.Time) bucketKey {
			return bucketKey{year: d.Year()}
		}
	}
	return nil
}

// Resample aggregates daily rows into calendar buckets
// ⭐ SSOT: freq.data aggregation
//
// Buckets are left-closed, right-open: weekly bins of 7 days anchored at
// January 1 of the earliest year, calendar months, or calendar years. Each
// (ticker, bucket) collapses to a single row dated at its earliest date.
// Open, close and adjusted come from the first row of the bucket; high and
// low are the max and min of the closing price; volume is summed.
func Resample(rows []contracts.PriceObservation, freq contracts.Frequency) []contracts.PriceObservation {
	if len(rows) == 0 {
		return []contracts.PriceObservation{}
	}

	sorted := make([]contracts.PriceObservation, 0, len(rows))
	for _, row := range rows {
		row = row.Clone()
		row.RefDate = contracts.NormalizeDate(row.RefDate)
		sorted = append(sorted, row)
	}
	contracts.SortPanel(sorted)

	if freq == contracts.FrequencyDaily || freq == "" {
		return sorted
	}

	minYear := sorted[0].RefDate.Year()
	for _, row := range sorted {
		if y := row.RefDate.Year(); y < minYear {
			minYear = y
		}
	}
	anchor := time.Date(minYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	bucketOf := bucketerFor(freq, anchor)

	out := make([]contracts.PriceObservation, 0)
	var current []contracts.PriceObservation
	var currentKey bucketKey

	flush := func() {
		if len(current) > 0 {
			out = append(out, aggregate(current))
		}
		current = current[:0]
	}

	for i, row := range sorted {
		key := bucketOf(row.RefDate)
		if i > 0 && (row.Ticker != sorted[i-1].Ticker || key != currentKey) {
			flush()
		}
		currentKey = key
		current = append(current, row)
	}
	flush()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].RefDate.Before(out[j].RefDate)
	})
	return out
}

// aggregate collapses one date-sorted bucket of a single ticker
func aggregate(bucket []contracts.PriceObservation) contracts.PriceObservation {
	first := bucket[0]

	row := contracts.PriceObservation{
		Ticker:        first.Ticker,
		RefDate:       first.RefDate,
		PriceOpen:     copyOf(first.PriceOpen),
		PriceClose:    copyOf(first.PriceClose),
		PriceAdjusted: copyOf(first.PriceAdjusted),
	}

	volume := 0.0
	var high, low *float64
	for _, r := range bucket {
		if r.Volume != nil {
			volume += *r.Volume
		}
		if r.PriceClose == nil {
			continue
		}
		if high == nil || *r.PriceClose > *high {
			high = contracts.Float(*r.PriceClose)
		}
		if low == nil || *r.PriceClose < *low {
			low = contracts.Float(*r.PriceClose)
		}
	}
	row.PriceHigh = high
	row.PriceLow = low
	row.Volume = contracts.Float(volume)

	return row
}

func copyOf(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return contracts.Float(*v)
}
