// Package cache persists fetched price windows so repeated runs skip the network.
// A cache is a side channel: losing it never changes a run's result.
package cache

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// Key identifies one fetched window
// ⭐ SSOT: (ticker, source, first, last) is the only cache identity
type Key struct {
	Ticker string
	Source contracts.Source
	First  time.Time
	Last   time.Time
}

// NewKey builds a key with dates normalised to UTC midnight
func NewKey(ticker string, source contracts.Source, first, last time.Time) Key {
	return Key{
		Ticker: ticker,
		Source: source,
		First:  contracts.NormalizeDate(first),
		Last:   contracts.NormalizeDate(last),
	}
}

// String renders the key in a stable, human readable form
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.Source, k.Ticker,
		k.First.Format(contracts.DateLayout), k.Last.Format(contracts.DateLayout))
}

// FileName is the key as a single path segment
func (k Key) FileName() string {
	return fmt.Sprintf("%s_%s_%s_%s.json", k.Source, url.PathEscape(k.Ticker),
		k.First.Format(contracts.DateLayout), k.Last.Format(contracts.DateLayout))
}

// Entry is the persisted envelope around a window's rows
type Entry struct {
	Ticker   string                       `json:"ticker"`
	Source   contracts.Source             `json:"source"`
	First    string                       `json:"first_date"`
	Last     string                       `json:"last_date"`
	StoredAt time.Time                    `json:"stored_at"`
	Rows     []contracts.PriceObservation `json:"rows"`
}

func newEntry(key Key, rows []contracts.PriceObservation, now time.Time) Entry {
	return Entry{
		Ticker:   key.Ticker,
		Source:   key.Source,
		First:    key.First.Format(contracts.DateLayout),
		Last:     key.Last.Format(contracts.DateLayout),
		StoredAt: now.UTC(),
		Rows:     rows,
	}
}

// Store is a price window cache
// Get reports a miss with (nil, false, nil); errors are for broken backends only.
type Store interface {
	Get(ctx context.Context, key Key) ([]contracts.PriceObservation, bool, error)
	Put(ctx context.Context, key Key, rows []contracts.PriceObservation) error
	Purge(ctx context.Context) (int, error)
	Name() string
}

// Sweeper is implemented by stores that drop expired windows on demand
// Redis expires keys by itself and has no Sweep.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Inspector is implemented by stores that can count what they hold
type Inspector interface {
	Stats(ctx context.Context) (Stats, error)
}

// Stats summarises the windows held by a store
type Stats struct {
	TotalCount int                      `json:"total_count"`
	FreshCount int                      `json:"fresh_count"`
	StaleCount int                      `json:"stale_count"` // expired or unreadable
	RowCount   int                      `json:"row_count"`
	BySource   map[contracts.Source]int `json:"by_source"`
}

func expired(storedAt time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(storedAt) > ttl
}

func cloneRows(rows []contracts.PriceObservation) []contracts.PriceObservation {
	out := make([]contracts.PriceObservation, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
