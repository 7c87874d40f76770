package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hal2001/BatchGetSymbols/internal/cache"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/pkg/config"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Price cache maintenance",
	Long: `Maintains the price cache selected by CACHE_BACKEND.

Example:
  go run ./cmd/bgs cache purge
  go run ./cmd/bgs cache stats
  go run ./cmd/bgs cache sweep --folder ./BGS_Cache`,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached download",
	RunE:  runCachePurge,
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete cached downloads older than CACHE_TTL",
	RunE:  runCacheSweep,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count cached downloads per source",
	RunE:  runCacheStats,
}

var (
	cacheFolder string
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cacheStatsCmd)

	// Flags
	cacheCmd.PersistentFlags().StringVar(&cacheFolder, "folder", "", "file cache folder (default: CACHE_FOLDER)")
}

func openCache(ctx context.Context) (cache.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return openCacheWith(ctx, cfg, logger.New(cfg))
}

func openCacheWith(ctx context.Context, cfg *config.Config, log *logger.Logger) (cache.Store, func(), error) {
	store, closeStore, err := cache.Open(ctx, cfg, cacheFolder, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
	}
	return store, closeStore, nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, closeStore, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := store.Purge(ctx)
	if err != nil {
		return fmt.Errorf("purge %s cache: %w", store.Name(), err)
	}

	PrintSuccess(fmt.Sprintf("Purged %d entries from the %s cache", n, store.Name()))
	return nil
}

func runCacheSweep(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, closeStore, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sweeper, ok := store.(cache.Sweeper)
	if !ok {
		PrintWarning(fmt.Sprintf("The %s cache expires entries on its own; nothing to sweep", store.Name()))
		return nil
	}

	n, err := sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep %s cache: %w", store.Name(), err)
	}

	PrintSuccess(fmt.Sprintf("Removed %d expired entries from the %s cache", n, store.Name()))
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, closeStore, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	inspector, ok := store.(cache.Inspector)
	if !ok {
		PrintWarning(fmt.Sprintf("The %s cache cannot be inspected", store.Name()))
		return nil
	}

	stats, err := inspector.Stats(ctx)
	if err != nil {
		return fmt.Errorf("inspect %s cache: %w", store.Name(), err)
	}

	printCacheStats(store.Name(), stats)
	return nil
}

func printCacheStats(backend string, stats cache.Stats) {
	fmt.Fprintf(out, "=== %s cache ===\n", backend)
	PrintKeyValue("Windows", fmt.Sprintf("%d", stats.TotalCount), 8)
	PrintKeyValue("Fresh", fmt.Sprintf("%d", stats.FreshCount), 8)
	PrintKeyValue("Stale", fmt.Sprintf("%d", stats.StaleCount), 8)
	PrintKeyValue("Rows", fmt.Sprintf("%d", stats.RowCount), 8)
	for _, src := range contracts.Sources {
		if n := stats.BySource[src]; n > 0 {
			PrintKeyValue(src.String(), fmt.Sprintf("%d", n), 8)
		}
	}
}
