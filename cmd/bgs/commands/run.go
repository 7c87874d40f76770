package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/internal/export"
	"github.com/hal2001/BatchGetSymbols/internal/jobconfig"
	"github.com/hal2001/BatchGetSymbols/internal/scheduler/jobs"
	"github.com/hal2001/BatchGetSymbols/internal/universe"
	"github.com/hal2001/BatchGetSymbols/pkg/config"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [tickers...]",
	Short: "Run one batch download",
	Long: `Downloads, screens and transforms prices for the given tickers.

Tickers are routed by shape: six digits go to Naver (KRX codes), anything
else goes to Yahoo Finance. Tickers containing '_' used the retired Google
Finance source and are rejected.

Example:
  go run ./cmd/bgs run AAPL MSFT --first 2023-01-01 --last 2023-12-31
  go run ./cmd/bgs run 005930 000660 --bench ^KS11 --freq monthly
  go run ./cmd/bgs run --index ftse100 --bench ^FTSE --parallel --format csv,xlsx --out ./out
  go run ./cmd/bgs run --job jobs/us_megacaps.yaml`,
	RunE: runBatch,
}

var (
	runFirst       string
	runLast        string
	runBench       string
	runReturnType  string
	runFreq        string
	runThreshold   float64
	runComplete    bool
	runFill        bool
	runUseCache    bool
	runCacheFolder string
	runParallel    bool
	runIndex       string
	runJobFile     string
	runOutDir      string
	runFormats     []string
	runWideColumn  string
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	f := runCmd.Flags()
	f.StringVar(&runFirst, "first", "", "first date YYYY-MM-DD (default: 365 days before --last)")
	f.StringVar(&runLast, "last", "", "last date YYYY-MM-DD (default: today)")
	f.StringVar(&runBench, "bench", "", "benchmark ticker (default: BENCH_TICKER)")
	f.StringVar(&runReturnType, "type-return", "arithmetic", "return type: arithmetic|log")
	f.StringVar(&runFreq, "freq", "daily", "frequency: daily|weekly|monthly|yearly")
	f.Float64Var(&runThreshold, "thresh", 0, "minimum benchmark coverage in [0,1] (default: THRESH_BAD_DATA)")
	f.BoolVar(&runComplete, "complete", false, "complete the ticker × date grid")
	f.BoolVar(&runFill, "fill", true, "fill missing prices when completing")
	f.BoolVar(&runUseCache, "cache", true, "use the price cache")
	f.StringVar(&runCacheFolder, "cache-folder", "", "file cache folder for this run (overrides CACHE_BACKEND)")
	f.BoolVar(&runParallel, "parallel", false, "download tickers concurrently (WORKERS)")
	f.StringVar(&runIndex, "index", "", "add index members: sp500|ftse100")
	f.StringVar(&runJobFile, "job", "", "run a YAML job file once (other flags ignored)")
	f.StringVar(&runOutDir, "out", ".", "output directory for --format")
	f.StringSliceVar(&runFormats, "format", nil, "export formats: csv,xlsx,json")
	f.StringVar(&runWideColumn, "wide", "", "xlsx: add a date × ticker sheet of this column (e.g. price_adjusted)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if runJobFile != "" {
		job, data, err := jobconfig.Load(runJobFile)
		if err != nil {
			return fmt.Errorf("load job: %w", err)
		}
		PrintInfo(fmt.Sprintf("Running job %s once", job.Meta.JobID))
		if err := jobs.NewBatchRefreshJob(job, data, a.orchestrator(nil), a.universe, a.log).Run(ctx); err != nil {
			return err
		}
		PrintSuccess("Job completed")
		return nil
	}

	tickers := args
	if runIndex != "" {
		members, err := a.universe.Fetch(ctx, runIndex)
		if err != nil {
			return fmt.Errorf("fetch %s composition: %w", runIndex, err)
		}
		tickers = append(tickers, universe.Tickers(members)...)
	}

	opts := optionsFromFlags(cmd, cfg, tickers)

	mode := "sequential"
	if opts.Parallel {
		mode = fmt.Sprintf("parallel (%d workers)", a.pool.Workers())
	}
	PrintRunHeader(RunMetadata{
		Title:     "Batch download",
		Tickers:   len(opts.Tickers),
		FirstDate: opts.FirstDate,
		LastDate:  opts.LastDate,
		Bench:     opts.BenchTicker,
		Mode:      mode,
	})

	start := time.Now()
	res, err := a.orchestrator(nil).Run(ctx, opts)
	if err != nil {
		printRunError(err)
		return err
	}

	PrintControlTable(res.Control)
	PrintRunSummary(res, time.Since(start).Seconds())

	if len(runFormats) > 0 {
		paths, err := export.WriteFiles(res, export.Options{
			Dir:        runOutDir,
			Formats:    runFormats,
			WideColumn: runWideColumn,
		})
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		PrintList(paths)
	}

	return nil
}

// optionsFromFlags layers config defaults and explicit flags over DefaultOptions
func optionsFromFlags(cmd *cobra.Command, cfg *config.Config, tickers []string) batch.Options {
	opts := batch.DefaultOptions(tickers...)
	if cfg.Batch.BenchTicker != "" {
		opts.BenchTicker = cfg.Batch.BenchTicker
	}
	opts.Threshold = cfg.Batch.Threshold

	flags := cmd.Flags()
	if runLast != "" {
		opts.LastDate = runLast
		if last, err := time.Parse(contracts.DateLayout, runLast); err == nil && runFirst == "" {
			opts.FirstDate = last.AddDate(0, 0, -365).Format(contracts.DateLayout)
		}
	}
	if runFirst != "" {
		opts.FirstDate = runFirst
	}
	if runBench != "" {
		opts.BenchTicker = runBench
	}
	if flags.Changed("thresh") {
		opts.Threshold = runThreshold
	}
	opts.ReturnType = runReturnType
	opts.Frequency = runFreq
	opts.CompleteData = runComplete
	opts.FillMissingPrices = runFill
	opts.UseCache = runUseCache
	opts.CacheFolder = runCacheFolder
	opts.Parallel = runParallel

	return opts
}

func printRunError(err error) {
	if !batch.IsConfigurationError(err) {
		PrintError(err.Error())
		return
	}
	PrintError("Invalid run configuration:")
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, e.Error())
		}
		PrintList(lines)
		return
	}
	PrintList([]string{err.Error()})
}
