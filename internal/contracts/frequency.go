package contracts

import (
	"fmt"
	"strings"
)

// Frequency is the sampling frequency of the final panel
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// ParseFrequency validates a freq.data value
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return f, nil
	}
	return "", fmt.Errorf("invalid frequency %q (valid: daily, weekly, monthly, yearly)", s)
}

// ReturnType selects the return formula
type ReturnType string

const (
	ReturnArithmetic ReturnType = "arithmetic"
	ReturnLog        ReturnType = "log"
)

// ParseReturnType validates a type.return value
// "arit" is accepted as a short alias.
func ParseReturnType(s string) (ReturnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arit", "arithmetic":
		return ReturnArithmetic, nil
	case "log":
		return ReturnLog, nil
	}
	return "", fmt.Errorf("invalid return type %q (valid: arithmetic, log)", s)
}
