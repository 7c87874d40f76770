package logger_test

import (
	"errors"

	"github.com/hal2001/BatchGetSymbols/pkg/config"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Batch started")
	log.WithRun("0b4f6c1e").WithField("tickers", 42).Info("Fetching tickers")
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"ticker":   "AAPL",
		"coverage": 0.98,
		"decision": "KEEP",
	}).Info("Ticker assessed")

	log.WithError(errors.New("yahoo: status 404")).
		WithTicker("XXXX", "yahoo").
		Error("Download failed")
}
