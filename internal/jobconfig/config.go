// Package jobconfig loads YAML batch job files used by the scheduler and CLI.
package jobconfig

import "time"

// Job is one scheduled batch refresh
// Every field is a struct member so Hash stays deterministic.
type Job struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Universe Universe `yaml:"universe" json:"universe"`
	Batch    Batch    `yaml:"batch" json:"batch"`
	Output   Output   `yaml:"output" json:"output"`
}

// Meta identifies the job and when it runs
type Meta struct {
	JobID       string `yaml:"job_id" json:"job_id"`
	Description string `yaml:"description" json:"description"`
	Schedule    string `yaml:"schedule" json:"schedule"` // cron with seconds: "0 30 18 * * 1-5"
}

// Universe lists tickers explicitly, by index composition, or both
type Universe struct {
	Tickers []string `yaml:"tickers" json:"tickers"`
	Index   string   `yaml:"index" json:"index"` // sp500, ftse100
}

// Batch mirrors batch.Options with a rolling window option
type Batch struct {
	FirstDate         string  `yaml:"first_date" json:"first_date"`
	LastDate          string  `yaml:"last_date" json:"last_date"`
	LookbackDays      int     `yaml:"lookback_days" json:"lookback_days"`
	BenchTicker       string  `yaml:"bench_ticker" json:"bench_ticker"`
	ReturnType        string  `yaml:"type_return" json:"type_return"`
	Frequency         string  `yaml:"freq_data" json:"freq_data"`
	Threshold         float64 `yaml:"thresh_bad_data" json:"thresh_bad_data"`
	CompleteData      bool    `yaml:"do_complete_data" json:"do_complete_data"`
	FillMissingPrices *bool   `yaml:"do_fill_missing_prices" json:"do_fill_missing_prices"`
	UseCache          *bool   `yaml:"do_cache" json:"do_cache"`
	CacheFolder       string  `yaml:"cache_folder" json:"cache_folder"`
	Parallel          bool    `yaml:"do_parallel" json:"do_parallel"`
}

// Output selects where results are written
type Output struct {
	Dir        string   `yaml:"dir" json:"dir"`
	Formats    []string `yaml:"formats" json:"formats"`         // csv, xlsx, json
	WideColumn string   `yaml:"wide_column" json:"wide_column"` // optional date × ticker sheet
}

// Snapshot records exactly which job definition produced a run
type Snapshot struct {
	JobID     string    `json:"job_id"`
	JobHash   string    `json:"job_hash"`
	JobYAML   string    `json:"job_yaml"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}
