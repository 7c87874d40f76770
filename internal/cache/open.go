package cache

import (
	"context"
	"fmt"

	"github.com/hal2001/BatchGetSymbols/pkg/config"
	"github.com/hal2001/BatchGetSymbols/pkg/database"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
	"github.com/hal2001/BatchGetSymbols/pkg/redis"
)

// RedisPrefix namespaces every cache key written to Redis
const RedisPrefix = "bgs"

// Open builds the store selected by cfg.Cache.Backend
// folder overrides cfg.Cache.Folder when non-empty. The returned closer
// releases any connection the store owns.
func Open(ctx context.Context, cfg *config.Config, folder string, log *logger.Logger) (Store, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case config.CacheBackendFile, "":
		if folder == "" {
			folder = cfg.Cache.Folder
		}
		store, err := NewFileStore(folder, cfg.Cache.TTL)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.CacheBackendMemory:
		return NewMemoryStore(cfg.Cache.TTL, log), noop, nil

	case config.CacheBackendRedis:
		client, err := redis.New(cfg)
		if err != nil {
			return nil, noop, err
		}
		if !client.Enabled() {
			return nil, noop, fmt.Errorf("redis cache requested but REDIS_ENABLED is false")
		}
		return NewRedisStore(client, RedisPrefix, cfg.Cache.TTL), func() { client.Close() }, nil

	case config.CacheBackendPostgres:
		db, err := database.New(cfg)
		if err != nil {
			return nil, noop, err
		}
		store := NewPostgresStore(db.Pool, cfg.Cache.TTL)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return store, db.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown cache backend: %q", cfg.Cache.Backend)
}
