package batch

import (
	"context"

	"github.com/hal2001/BatchGetSymbols/internal/collector"
	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// Executor runs jobs concurrently and returns once all of them finished
// collector.Pool is the standard implementation.
type Executor interface {
	Execute(ctx context.Context, jobs []collector.Job) error
}

// Connectivity is the once-per-run reachability check
type Connectivity interface {
	Check(ctx context.Context) error
}

// ConnectivityFunc adapts a function to Connectivity
type ConnectivityFunc func(ctx context.Context) error

// Check calls f
func (f ConnectivityFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// TaskEvent describes one finished ticker
// CacheHit is run-specific and is kept off the ControlRecord.
type TaskEvent struct {
	Record   contracts.ControlRecord
	CacheHit bool
	Done     int
	Total    int
}

// Observer receives progress events
// TaskDone may be called from several goroutines at once in parallel mode.
type Observer interface {
	RunStarted(runID string, tickers []string)
	TaskDone(runID string, ev TaskEvent)
	RunFinished(runID string, res *contracts.Result, err error)
}

type nopObserver struct{}

func (nopObserver) RunStarted(string, []string)                  {}
func (nopObserver) TaskDone(string, TaskEvent)                   {}
func (nopObserver) RunFinished(string, *contracts.Result, error) {}

// MultiObserver fans events out to several observers
type MultiObserver []Observer

func (m MultiObserver) RunStarted(runID string, tickers []string) {
	for _, o := range m {
		o.RunStarted(runID, tickers)
	}
}

func (m MultiObserver) TaskDone(runID string, ev TaskEvent) {
	for _, o := range m {
		o.TaskDone(runID, ev)
	}
}

func (m MultiObserver) RunFinished(runID string, res *contracts.Result, err error) {
	for _, o := range m {
		o.RunFinished(runID, res, err)
	}
}
