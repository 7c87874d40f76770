package jobconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// Load reads a YAML job file and returns the Job with its raw bytes
// KnownFields(true) makes typos and stale fields fail immediately.
func Load(path string) (*Job, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	job, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return job, data, nil
}

// Parse decodes and validates a job definition
func Parse(data []byte) (*Job, error) {
	var job Job
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		return nil, err
	}

	if err := Validate(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// File is one job loaded from disk
type File struct {
	Path string
	Job  *Job
	YAML []byte
}

// LoadDir loads every *.yaml / *.yml job in dir, sorted by file name
func LoadDir(dir string) ([]File, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	files := make([]File, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		job, data, err := Load(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[job.Meta.JobID]; dup {
			return nil, fmt.Errorf("job_id %q defined in both %s and %s", job.Meta.JobID, prev, path)
		}
		seen[job.Meta.JobID] = path
		files = append(files, File{Path: path, Job: job, YAML: data})
	}
	return files, nil
}

// Hash generates a SHA256 hash from the Job (canonical JSON)
func Hash(job *Job) (string, error) {
	jsonBytes, err := json.Marshal(job)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewSnapshot creates a snapshot tying a run to its job definition
func NewSnapshot(job *Job, yamlData []byte, runID string) (*Snapshot, error) {
	hash, err := Hash(job)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		JobID:     job.Meta.JobID,
		JobHash:   hash,
		JobYAML:   string(yamlData),
		RunID:     runID,
		CreatedAt: time.Now(),
	}, nil
}

// Options converts the job into run options as of now
// tickers are the resolved universe (explicit tickers plus index members).
func (j *Job) Options(tickers []string, now time.Time) batch.Options {
	b := j.Batch
	opts := batch.DefaultOptions(tickers...)

	last := now.UTC()
	if b.LastDate != "" {
		opts.LastDate = b.LastDate
		if t, err := contracts.ParseDate(b.LastDate); err == nil {
			last = t
		}
	} else {
		opts.LastDate = last.Format(contracts.DateLayout)
	}

	switch {
	case b.FirstDate != "":
		opts.FirstDate = b.FirstDate
	case b.LookbackDays > 0:
		opts.FirstDate = last.AddDate(0, 0, -b.LookbackDays).Format(contracts.DateLayout)
	default:
		opts.FirstDate = last.AddDate(0, 0, -365).Format(contracts.DateLayout)
	}

	if b.BenchTicker != "" {
		opts.BenchTicker = b.BenchTicker
	}
	if b.ReturnType != "" {
		opts.ReturnType = b.ReturnType
	}
	if b.Frequency != "" {
		opts.Frequency = b.Frequency
	}
	if b.Threshold != 0 {
		opts.Threshold = b.Threshold
	}
	opts.CompleteData = b.CompleteData
	if b.FillMissingPrices != nil {
		opts.FillMissingPrices = *b.FillMissingPrices
	}
	if b.UseCache != nil {
		opts.UseCache = *b.UseCache
	}
	opts.CacheFolder = b.CacheFolder
	opts.Parallel = b.Parallel

	return opts
}
