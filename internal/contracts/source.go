package contracts

import (
	"fmt"
	"strings"
)

// Source identifies the upstream provider a ticker is downloaded from
type Source string

const (
	SourceYahoo  Source = "yahoo"
	SourceNaver  Source = "naver"
	SourceGoogle Source = "google"
)

// Sources lists every known source in classification order
var Sources = []Source{SourceYahoo, SourceNaver, SourceGoogle}

// ClassifySource maps a ticker to its source by naming convention
// ⭐ SSOT: ticker → source classification happens only here
//
//	BVMF_PETR4 → google (exchange-prefixed legacy codes)
//	005930     → naver  (six-digit KRX codes)
//	AAPL, ^GSPC, PETR4.SA → yahoo
func ClassifySource(ticker string) Source {
	if strings.Contains(ticker, "_") {
		return SourceGoogle
	}
	if isKRXCode(ticker) {
		return SourceNaver
	}
	return SourceYahoo
}

func isKRXCode(ticker string) bool {
	if len(ticker) != 6 {
		return false
	}
	for _, r := range ticker {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Deprecated reports whether the provider no longer serves price history
func (s Source) Deprecated() bool {
	return s == SourceGoogle
}

// ParseSource converts a string to a Source
func ParseSource(s string) (Source, error) {
	for _, src := range Sources {
		if string(src) == strings.ToLower(strings.TrimSpace(s)) {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source: %q", s)
}

func (s Source) String() string {
	return string(s)
}
