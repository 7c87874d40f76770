// Package collector runs download jobs on a fixed set of worker goroutines.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// ErrPoolClosed is returned by Execute after Close
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is one unit of work; it must not share mutable state with other jobs
type Job func(ctx context.Context)

type envelope struct {
	ctx  context.Context
	fn   Job
	done *sync.WaitGroup
}

// Pool is a fixed-size worker pool draining a job channel
// ⭐ SSOT: the parallel executor; lifecycle is owned by whoever calls NewPool
type Pool struct {
	workers int
	jobs    chan envelope
	wg      sync.WaitGroup
	logger  *logger.Logger

	mu     sync.RWMutex
	closed bool

	completed atomic.Int64
	panics    atomic.Int64
}

// NewPool starts workers goroutines (minimum 1)
func NewPool(workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	p := &Pool{
		workers: workers,
		jobs:    make(chan envelope, workers),
		logger:  log.WithModule("collector"),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			p.worker(workerID)
		}(i)
	}

	p.logger.WithField("workers", workers).Debug("Worker pool started")
	return p
}

// Workers returns the pool size
func (p *Pool) Workers() int {
	return p.workers
}

// Execute runs every job and blocks until all submitted jobs finished
// If ctx ends mid-submission the remaining jobs are skipped and ctx.Err() returned.
func (p *Pool) Execute(ctx context.Context, jobs []Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	var done sync.WaitGroup
	var submitErr error

submit:
	for i, fn := range jobs {
		if err := ctx.Err(); err != nil {
			submitErr = fmt.Errorf("submitted %d of %d jobs: %w", i, len(jobs), err)
			break
		}

		done.Add(1)
		select {
		case p.jobs <- envelope{ctx: ctx, fn: fn, done: &done}:
		case <-ctx.Done():
			done.Done()
			submitErr = fmt.Errorf("submitted %d of %d jobs: %w", i, len(jobs), ctx.Err())
			break submit
		}
	}

	done.Wait()
	return submitErr
}

// Close stops the workers after queued jobs drain
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.WithFields(map[string]interface{}{
		"completed": p.completed.Load(),
		"panics":    p.panics.Load(),
	}).Debug("Worker pool stopped")
}

// Stats returns job counters
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Completed: p.completed.Load(),
		Panics:    p.panics.Load(),
	}
}

// Stats represents pool counters
type Stats struct {
	Workers   int   `json:"workers"`
	Completed int64 `json:"completed"`
	Panics    int64 `json:"panics"`
}

func (p *Pool) worker(workerID int) {
	for env := range p.jobs {
		p.run(workerID, env)
	}
}

func (p *Pool) run(workerID int, env envelope) {
	defer env.done.Done()
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.logger.WithFields(map[string]interface{}{
				"worker": workerID,
				"panic":  fmt.Sprint(r),
			}).Error("Job panicked")
		}
	}()

	env.fn(env.ctx)
	p.completed.Add(1)
}
