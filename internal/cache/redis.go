package cache

import (
	"context"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/pkg/redis"
)

// RedisStore keeps windows in Redis with a TTL
type RedisStore struct {
	cache *redis.Cache
	ttl   time.Duration
}

// NewRedisStore wraps a pkg/redis client under the given key prefix
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		cache: redis.NewCache(client, prefix),
		ttl:   ttl,
	}
}

// Name returns the backend name
func (s *RedisStore) Name() string { return "redis" }

func redisKey(key Key) string {
	return redis.PriceHistoryKey(string(key.Source), key.Ticker,
		key.First.Format(contracts.DateLayout), key.Last.Format(contracts.DateLayout))
}

// Get retrieves a cached window
func (s *RedisStore) Get(ctx context.Context, key Key) ([]contracts.PriceObservation, bool, error) {
	var entry Entry
	found, err := s.cache.Get(ctx, redisKey(key), &entry)
	if err != nil || !found {
		return nil, false, err
	}
	return entry.Rows, true, nil
}

// Put stores a window; expiry is left to Redis
func (s *RedisStore) Put(ctx context.Context, key Key, rows []contracts.PriceObservation) error {
	return s.cache.Set(ctx, redisKey(key), newEntry(key, rows, time.Now()), s.ttl)
}

// Purge deletes every window under the prefix
func (s *RedisStore) Purge(ctx context.Context) (int, error) {
	return s.cache.Purge(ctx)
}
