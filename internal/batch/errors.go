package batch

import (
	"errors"
	"fmt"
)

// Kind classifies a configuration problem
type Kind string

const (
	KindEmptyTickers     Kind = "empty_tickers"
	KindNullTicker       Kind = "null_ticker"
	KindInvalidDate      Kind = "invalid_date"
	KindDateOrder        Kind = "date_order"
	KindReturnType       Kind = "return_type"
	KindFrequency        Kind = "frequency"
	KindThreshold        Kind = "threshold"
	KindBenchTicker      Kind = "bench_ticker"
	KindDeprecatedSource Kind = "deprecated_source"
	KindNoExecutor       Kind = "no_executor"
	KindNoConnectivity   Kind = "no_connectivity"
)

// ConfigurationError rejects a run before any download
type ConfigurationError struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error [%s]: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("configuration error [%s] %s: %s", e.Kind, e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configError(kind Kind, field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrEmptyBenchmark means the benchmark download produced no rows
var ErrEmptyBenchmark = errors.New("benchmark returned no data")

// Kinds lists the kinds carried by err, which may be a joined error
func Kinds(err error) []Kind {
	var kinds []Kind
	collectKinds(err, &kinds)
	return kinds
}

func collectKinds(err error, kinds *[]Kind) {
	if err == nil {
		return
	}
	if ce, ok := err.(*ConfigurationError); ok {
		*kinds = append(*kinds, ce.Kind)
		return
	}
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			collectKinds(inner, kinds)
		}
	case interface{ Unwrap() error }:
		collectKinds(e.Unwrap(), kinds)
	}
}

// HasKind reports whether err carries a ConfigurationError of kind
func HasKind(err error, kind Kind) bool {
	for _, k := range Kinds(err) {
		if k == kind {
			return true
		}
	}
	return false
}

// IsConfigurationError reports whether err carries any ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
