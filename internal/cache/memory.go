package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// MemoryStore is an in-process cache
// ⭐ SSOT: rows are cloned on the way in and out so callers never share slices
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	ttl     time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

// NewMemoryStore creates an empty memory cache (ttl 0 = never expires)
func NewMemoryStore(ttl time.Duration, log *logger.Logger) *MemoryStore {
	if log == nil {
		log = logger.Nop()
	}
	return &MemoryStore{
		entries: make(map[Key]Entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  log.WithModule("cache"),
	}
}

// Name returns the backend name
func (s *MemoryStore) Name() string { return "memory" }

// Get retrieves a cached window
func (s *MemoryStore) Get(ctx context.Context, key Key) ([]contracts.PriceObservation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok || expired(entry.StoredAt, s.ttl, s.now()) {
		return nil, false, nil
	}

	return cloneRows(entry.Rows), true, nil
}

// Put stores a window
func (s *MemoryStore) Put(ctx context.Context, key Key, rows []contracts.PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = newEntry(key, cloneRows(rows), s.now())
	return nil
}

// Purge clears the cache
func (s *MemoryStore) Purge(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[Key]Entry)
	s.logger.WithField("count", n).Info("Cleared memory price cache")

	return n, nil
}

// CleanStale removes expired windows
func (s *MemoryStore) CleanStale() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for key, entry := range s.entries {
		if expired(entry.StoredAt, s.ttl, now) {
			delete(s.entries, key)
			count++
		}
	}

	if count > 0 {
		s.logger.WithField("count", count).Info("Cleaned stale windows from cache")
	}

	return count
}

// Sweep is CleanStale for the Sweeper interface
func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	return s.CleanStale(), nil
}

// Stats implements Inspector
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalCount: len(s.entries),
		BySource:   make(map[contracts.Source]int),
	}

	now := s.now()
	for key, entry := range s.entries {
		if expired(entry.StoredAt, s.ttl, now) {
			stats.StaleCount++
		}
		stats.BySource[key.Source]++
		stats.RowCount += len(entry.Rows)
	}
	stats.FreshCount = stats.TotalCount - stats.StaleCount

	return stats, nil
}
