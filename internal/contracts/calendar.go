package contracts

import (
	"sort"
	"time"
)

// Calendar is the benchmark's set of trading dates
type Calendar struct {
	dates []time.Time
	index map[time.Time]struct{}
}

// NewCalendar builds a calendar from arbitrary dates (duplicates collapse)
func NewCalendar(dates []time.Time) Calendar {
	index := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		index[NormalizeDate(d)] = struct{}{}
	}

	sorted := make([]time.Time, 0, len(index))
	for d := range index {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	return Calendar{dates: sorted, index: index}
}

// CalendarFromRows collects the dates of rows
func CalendarFromRows(rows []PriceObservation) Calendar {
	dates := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		dates = append(dates, row.RefDate)
	}
	return NewCalendar(dates)
}

// Contains reports whether d is a calendar date
func (c Calendar) Contains(d time.Time) bool {
	_, ok := c.index[NormalizeDate(d)]
	return ok
}

// Len returns the number of dates
func (c Calendar) Len() int {
	return len(c.dates)
}

// Dates returns the sorted dates
func (c Calendar) Dates() []time.Time {
	out := make([]time.Time, len(c.dates))
	copy(out, c.dates)
	return out
}
