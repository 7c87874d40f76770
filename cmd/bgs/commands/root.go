package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hal2001/BatchGetSymbols/pkg/config"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bgs",
	Short: "Batch price downloads with quality control",
	Long: `BatchGetSymbols CLI

Downloads daily prices for many tickers, drops tickers whose coverage of
the benchmark calendar is too low, optionally fills gaps and resamples,
and computes returns.

Usage:
  go run ./cmd/bgs [command]

Examples:
  go run ./cmd/bgs run AAPL MSFT 005930 --first 2024-01-01 --last 2024-06-30
  go run ./cmd/bgs run --index sp500 --parallel --format xlsx --out ./out
  go run ./cmd/bgs api
  go run ./cmd/bgs scheduler start --jobs ./jobs
  go run ./cmd/bgs cache purge`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads .env and the environment; --verbose forces debug logs
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
