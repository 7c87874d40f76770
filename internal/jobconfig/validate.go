package jobconfig

import (
	"fmt"
	"regexp"

	"github.com/robfig/cron/v3"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/internal/export"
)

// ValidationError is a job file problem
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var jobIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]*$`)

// scheduleParser matches the scheduler's cron.WithSeconds() format
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Known universe indexes
const (
	IndexSP500   = "sp500"
	IndexFTSE100 = "ftse100"
)

// Validate checks the job file; run option semantics are left to batch.Options
func Validate(job *Job) error {
	// === Meta ===
	if job.Meta.JobID == "" {
		return ValidationError{"meta.job_id", "required"}
	}
	if !jobIDPattern.MatchString(job.Meta.JobID) {
		return ValidationError{"meta.job_id", "must be lowercase letters, digits, '_' or '-'"}
	}
	if job.Meta.Schedule != "" {
		if _, err := scheduleParser.Parse(job.Meta.Schedule); err != nil {
			return ValidationError{"meta.schedule", err.Error()}
		}
	}

	// === Universe ===
	switch job.Universe.Index {
	case "", IndexSP500, IndexFTSE100:
	default:
		return ValidationError{"universe.index", fmt.Sprintf("unknown index %q (valid: sp500, ftse100)", job.Universe.Index)}
	}
	if len(job.Universe.Tickers) == 0 && job.Universe.Index == "" {
		return ValidationError{"universe", "tickers or index required"}
	}

	// === Batch ===
	if job.Batch.FirstDate != "" && job.Batch.LookbackDays != 0 {
		return ValidationError{"batch.lookback_days", "cannot be combined with first_date"}
	}
	if job.Batch.LookbackDays < 0 {
		return ValidationError{"batch.lookback_days", "must be >= 0"}
	}
	dates := []struct{ field, value string }{
		{"batch.first_date", job.Batch.FirstDate},
		{"batch.last_date", job.Batch.LastDate},
	}
	for _, d := range dates {
		if d.value == "" {
			continue
		}
		if _, err := contracts.ParseDate(d.value); err != nil {
			return ValidationError{d.field, fmt.Sprintf("%q is not a YYYY-MM-DD date", d.value)}
		}
	}

	// === Output ===
	for _, f := range job.Output.Formats {
		switch f {
		case export.FormatCSV, export.FormatXLSX, export.FormatJSON:
		default:
			return ValidationError{"output.formats", fmt.Sprintf("unknown format %q (valid: csv, xlsx, json)", f)}
		}
	}
	if len(job.Output.Formats) > 0 && job.Output.Dir == "" {
		return ValidationError{"output.dir", "required when formats are set"}
	}

	return nil
}
