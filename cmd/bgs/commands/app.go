package commands

import (
	"context"
	"fmt"

	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/cache"
	"github.com/hal2001/BatchGetSymbols/internal/collector"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/internal/external/naver"
	"github.com/hal2001/BatchGetSymbols/internal/external/yahoo"
	"github.com/hal2001/BatchGetSymbols/internal/fetcher"
	"github.com/hal2001/BatchGetSymbols/internal/universe"
	"github.com/hal2001/BatchGetSymbols/pkg/config"
	"github.com/hal2001/BatchGetSymbols/pkg/httputil"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
	"github.com/hal2001/BatchGetSymbols/pkg/redis"
)

// app holds the wired dependencies shared by the commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	http     *httputil.Client
	registry *fetcher.Registry
	universe *universe.Client
	store    cache.Store
	pool     *collector.Pool
	closers  []func()
}

// newApp wires config, HTTP clients, price sources, cache and worker pool
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { rdb.Close() })

	var limiter *redis.RateLimiter
	if rdb.Enabled() {
		limiter = redis.NewRateLimiter(rdb, cache.RedisPrefix)
		log.Info("Using shared Redis rate limits")
	}

	// one client per provider so each gets its own limiter
	providerClient := func(key string) *httputil.Client {
		c := httputil.New(cfg, log)
		if limiter != nil {
			if rl, ok := redis.RateLimitFor(key); ok {
				c.WithRateLimiter(limiter, rl)
			}
		}
		return c
	}

	a.http = httputil.New(cfg, log)
	a.registry = fetcher.NewRegistry()
	if err := a.registry.Register(contracts.SourceYahoo, yahoo.NewClient(providerClient(redis.YahooRateLimit.Key), log, cfg.Yahoo.BaseURL)); err != nil {
		return nil, err
	}
	if err := a.registry.Register(contracts.SourceNaver, naver.NewClient(providerClient(redis.NaverRateLimit.Key), log, cfg.Naver.BaseURL)); err != nil {
		return nil, err
	}
	a.universe = universe.NewClient(providerClient(redis.WikipediaRateLimit.Key), log, "")
	if rdb.Enabled() {
		a.universe.WithCache(redis.NewCache(rdb, cache.RedisPrefix), redis.TTLDaily)
	}

	store, closeStore, err := cache.Open(ctx, cfg, "", log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	a.pool = collector.NewPool(cfg.Batch.Workers, log)
	a.closers = append(a.closers, a.pool.Close)

	log.WithFields(map[string]interface{}{
		"cache":   store.Name(),
		"workers": cfg.Batch.Workers,
		"sources": a.registry.Sources(),
	}).Debug("Application wired")

	return a, nil
}

// orchestrator builds a batch orchestrator over the wired dependencies
func (a *app) orchestrator(observer batch.Observer) *batch.Orchestrator {
	deps := batch.Deps{
		Registry: a.registry,
		Cache:    a.store,
		CacheTTL: a.cfg.Cache.TTL,
		Executor: a.pool,
		Observer: observer,
		Logger:   a.log,
	}
	if url := a.cfg.Batch.ConnectivityURL; url != "" {
		deps.Connectivity = batch.ConnectivityFunc(func(ctx context.Context) error {
			return a.http.Ping(ctx, url)
		})
	}
	return batch.New(deps)
}

// close releases resources in reverse order of acquisition
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
