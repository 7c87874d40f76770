package jobs

import (
	"context"
	"fmt"

	"github.com/hal2001/BatchGetSymbols/internal/cache"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

const (
	// CacheCleanupJobName is the scheduler name of the sweep job
	CacheCleanupJobName = "cache_cleanup"

	// DefaultCacheCleanupSchedule runs the sweep at the top of every hour
	DefaultCacheCleanupSchedule = "0 0 * * * *"
)

// CacheCleanupJob drops expired windows from the price cache
type CacheCleanupJob struct {
	store    cache.Sweeper
	schedule string
	logger   *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(store cache.Sweeper, schedule string, log *logger.Logger) *CacheCleanupJob {
	if schedule == "" {
		schedule = DefaultCacheCleanupSchedule
	}
	return &CacheCleanupJob{
		store:    store,
		schedule: schedule,
		logger:   log.WithJob(CacheCleanupJobName),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return CacheCleanupJobName
}

// Schedule returns the cron schedule
func (j *CacheCleanupJob) Schedule() string {
	return j.schedule
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	count, err := j.store.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep cache: %w", err)
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}

	return nil
}
