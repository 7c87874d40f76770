package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// FileStore keeps one JSON file per key under a folder
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileStore creates the folder if needed
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache folder is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache folder: %w", err)
	}
	return &FileStore{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Name returns the backend name
func (s *FileStore) Name() string { return "file" }

// Dir returns the cache folder
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.dir, key.FileName())
}

// Get reads a cached window
func (s *FileStore) Get(ctx context.Context, key Key) ([]contracts.PriceObservation, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("decode cache file %s: %w", key.FileName(), err)
	}

	if expired(entry.StoredAt, s.ttl, s.now()) {
		return nil, false, nil
	}

	return entry.Rows, true, nil
}

// Put writes a window; the temp file + rename keeps concurrent readers safe
func (s *FileStore) Put(ctx context.Context, key Key, rows []contracts.PriceObservation) error {
	data, err := json.Marshal(newEntry(key, rows, s.now()))
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename cache file: %w", err)
	}

	return nil
}

// Purge deletes every cached window
func (s *FileStore) Purge(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache folder: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return removed, fmt.Errorf("remove cache file: %w", err)
		}
		removed++
	}

	return removed, nil
}

// Stats implements Inspector; unreadable files count as stale
func (s *FileStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{BySource: make(map[contracts.Source]int)}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return stats, fmt.Errorf("read cache folder: %w", err)
	}

	now := s.now()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		stats.TotalCount++

		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return stats, fmt.Errorf("read cache file: %w", err)
		}
		var entry Entry
		if json.Unmarshal(data, &entry) != nil {
			stats.StaleCount++
			continue
		}
		if expired(entry.StoredAt, s.ttl, now) {
			stats.StaleCount++
		}
		stats.BySource[entry.Source]++
		stats.RowCount += len(entry.Rows)
	}
	stats.FreshCount = stats.TotalCount - stats.StaleCount

	return stats, nil
}

// Sweep deletes windows older than the TTL; unreadable files are removed too
func (s *FileStore) Sweep(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache folder: %w", err)
	}

	now := s.now()
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return removed, fmt.Errorf("read cache file: %w", err)
		}

		var entry Entry
		if json.Unmarshal(data, &entry) == nil && !expired(entry.StoredAt, s.ttl, now) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove cache file: %w", err)
		}
		removed++
	}

	return removed, nil
}
