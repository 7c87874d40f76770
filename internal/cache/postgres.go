package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// querier is the subset of *pgxpool.Pool the store needs
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps windows in the bgs_price_cache table as JSONB
// ⭐ SSOT: the only writer of bgs_price_cache
type PostgresStore struct {
	db  querier
	ttl time.Duration
	now func() time.Time
}

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS bgs_price_cache (
		cache_key  TEXT PRIMARY KEY,
		ticker     TEXT NOT NULL,
		source     TEXT NOT NULL,
		first_date DATE NOT NULL,
		last_date  DATE NOT NULL,
		stored_at  TIMESTAMPTZ NOT NULL,
		row_count  INTEGER NOT NULL,
		payload    JSONB NOT NULL
	)
`

// NewPostgresStore wraps a pool; call EnsureSchema before first use
func NewPostgresStore(db querier, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl, now: time.Now}
}

// Name returns the backend name
func (s *PostgresStore) Name() string { return "postgres" }

// EnsureSchema creates the cache table if missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create bgs_price_cache: %w", err)
	}
	return nil
}

// Get retrieves a cached window
func (s *PostgresStore) Get(ctx context.Context, key Key) ([]contracts.PriceObservation, bool, error) {
	query := `
		SELECT stored_at, payload
		FROM bgs_price_cache
		WHERE cache_key = $1
	`

	var storedAt time.Time
	var payload []byte
	err := s.db.QueryRow(ctx, query, key.String()).Scan(&storedAt, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query price cache: %w", err)
	}

	if expired(storedAt, s.ttl, s.now()) {
		return nil, false, nil
	}

	var rows []contracts.PriceObservation
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("decode price cache payload: %w", err)
	}

	return rows, true, nil
}

// Put upserts a window
func (s *PostgresStore) Put(ctx context.Context, key Key, rows []contracts.PriceObservation) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode price cache payload: %w", err)
	}

	query := `
		INSERT INTO bgs_price_cache (cache_key, ticker, source, first_date, last_date, stored_at, row_count, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (cache_key) DO UPDATE SET
			stored_at = EXCLUDED.stored_at,
			row_count = EXCLUDED.row_count,
			payload = EXCLUDED.payload
	`

	_, err = s.db.Exec(ctx, query,
		key.String(), key.Ticker, string(key.Source), key.First, key.Last,
		s.now().UTC(), len(rows), payload,
	)
	if err != nil {
		return fmt.Errorf("upsert price cache: %w", err)
	}
	return nil
}

// Purge deletes every cached window
func (s *PostgresStore) Purge(ctx context.Context) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM bgs_price_cache`)
	if err != nil {
		return 0, fmt.Errorf("purge price cache: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Sweep deletes windows older than the TTL
func (s *PostgresStore) Sweep(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM bgs_price_cache WHERE stored_at < $1`, s.now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("sweep price cache: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
