package batch

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// Options is the configuration surface of one run
type Options struct {
	Tickers           []string `json:"tickers" yaml:"tickers"`
	FirstDate         string   `json:"first_date" yaml:"first_date"` // YYYY-MM-DD
	LastDate          string   `json:"last_date" yaml:"last_date"`   // YYYY-MM-DD, after FirstDate
	BenchTicker       string   `json:"bench_ticker" yaml:"bench_ticker"`
	ReturnType        string   `json:"type_return" yaml:"type_return"` // arithmetic, log
	Frequency         string   `json:"freq_data" yaml:"freq_data"`     // daily, weekly, monthly, yearly
	Threshold         float64  `json:"thresh_bad_data" yaml:"thresh_bad_data"`
	CompleteData      bool     `json:"do_complete_data" yaml:"do_complete_data"`
	FillMissingPrices bool     `json:"do_fill_missing_prices" yaml:"do_fill_missing_prices"`
	UseCache          bool     `json:"do_cache" yaml:"do_cache"`
	CacheFolder       string   `json:"cache_folder" yaml:"cache_folder"`
	Parallel          bool     `json:"do_parallel" yaml:"do_parallel"`
}

// DefaultOptions returns the documented defaults for a ticker list
// The window is the last 365 days up to today.
func DefaultOptions(tickers ...string) Options {
	now := time.Now().UTC()
	return Options{
		Tickers:           tickers,
		FirstDate:         now.AddDate(0, 0, -365).Format(contracts.DateLayout),
		LastDate:          now.Format(contracts.DateLayout),
		BenchTicker:       "^GSPC",
		ReturnType:        string(contracts.ReturnArithmetic),
		Frequency:         string(contracts.FrequencyDaily),
		Threshold:         0.75,
		CompleteData:      false,
		FillMissingPrices: true,
		UseCache:          true,
		Parallel:          false,
	}
}

// plan is Options after parsing
type plan struct {
	tickers    []string
	first      time.Time
	last       time.Time
	bench      string
	returnType contracts.ReturnType
	frequency  contracts.Frequency
}

// Validate checks every field without I/O and reports all violations
// The result is nil or an errors.Join of *ConfigurationError values.
func (o Options) Validate() error {
	_, errs := o.resolve()
	return errors.Join(errs...)
}

func (o Options) resolve() (plan, []error) {
	var p plan
	var errs []error

	if len(o.Tickers) == 0 {
		errs = append(errs, configError(KindEmptyTickers, "tickers", "ticker list is empty"))
	}

	seen := make(map[string]struct{}, len(o.Tickers))
	for i, raw := range o.Tickers {
		ticker := strings.TrimSpace(raw)
		if ticker == "" {
			errs = append(errs, configError(KindNullTicker, "tickers", "entry %d is empty", i))
			continue
		}
		if src := contracts.ClassifySource(ticker); src.Deprecated() {
			errs = append(errs, configError(KindDeprecatedSource, "tickers",
				"%s resolves to deprecated source %s", ticker, src))
			continue
		}
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}
		p.tickers = append(p.tickers, ticker)
	}

	first, firstErr := contracts.ParseDate(strings.TrimSpace(o.FirstDate))
	if firstErr != nil {
		errs = append(errs, configError(KindInvalidDate, "first_date", "%q is not a YYYY-MM-DD date", o.FirstDate))
	}
	last, lastErr := contracts.ParseDate(strings.TrimSpace(o.LastDate))
	if lastErr != nil {
		errs = append(errs, configError(KindInvalidDate, "last_date", "%q is not a YYYY-MM-DD date", o.LastDate))
	}
	if firstErr == nil && lastErr == nil && !last.After(first) {
		errs = append(errs, configError(KindDateOrder, "last_date",
			"%s must be after first date %s", o.LastDate, o.FirstDate))
	}
	p.first, p.last = first, last

	rt, err := contracts.ParseReturnType(o.ReturnType)
	if err != nil {
		errs = append(errs, &ConfigurationError{Kind: KindReturnType, Field: "type_return", Message: err.Error(), Err: err})
	}
	p.returnType = rt

	freq, err := contracts.ParseFrequency(o.Frequency)
	if err != nil {
		errs = append(errs, &ConfigurationError{Kind: KindFrequency, Field: "freq_data", Message: err.Error(), Err: err})
	}
	p.frequency = freq

	if math.IsNaN(o.Threshold) || o.Threshold < 0 || o.Threshold > 1 {
		errs = append(errs, configError(KindThreshold, "thresh_bad_data", "%v is outside [0, 1]", o.Threshold))
	}

	p.bench = strings.TrimSpace(o.BenchTicker)
	if p.bench == "" {
		errs = append(errs, configError(KindBenchTicker, "bench_ticker", "benchmark ticker is empty"))
	} else if src := contracts.ClassifySource(p.bench); src.Deprecated() {
		errs = append(errs, configError(KindDeprecatedSource, "bench_ticker",
			"%s resolves to deprecated source %s", p.bench, src))
	}

	return p, errs
}
