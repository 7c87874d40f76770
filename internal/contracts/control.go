package contracts

import "time"

// Decision is the keep/drop verdict of the quality screen
type Decision string

const (
	DecisionKeep Decision = "KEEP"
	DecisionOut  Decision = "OUT"
)

// Download status values
const (
	StatusOK    = "OK"
	StatusNotOK = "NOT OK"
)

// ControlRecord reports how one requested ticker fared
// ⭐ SSOT: created once by the fetch task, never mutated afterwards
type ControlRecord struct {
	Ticker         string    `json:"ticker"`
	Source         Source    `json:"source"`
	FirstDate      time.Time `json:"first_date"`
	LastDate       time.Time `json:"last_date"`
	TotalObs       int       `json:"total_obs"`
	Coverage       float64   `json:"coverage"`  // 0.0 ~ 1.0 of benchmark dates
	Threshold      float64   `json:"threshold"` // thresh.bad.data used
	Decision       Decision  `json:"decision"`
	DownloadStatus string    `json:"download_status"`
	Error          string    `json:"error,omitempty"`
}

// Kept reports whether the ticker survives filtering
func (c ControlRecord) Kept() bool {
	return c.Decision == DecisionKeep
}

// Result is the two-table output of a batch run
type Result struct {
	RunID   string             `json:"run_id"`
	Control []ControlRecord    `json:"control"`
	Panel   []PriceObservation `json:"panel"`
}

// KeptTickers returns the KEEP tickers in control order
func (r *Result) KeptTickers() []string {
	out := make([]string, 0, len(r.Control))
	for _, rec := range r.Control {
		if rec.Kept() {
			out = append(out, rec.Ticker)
		}
	}
	return out
}
