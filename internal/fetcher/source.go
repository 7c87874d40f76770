// Package fetcher downloads one ticker's price window and screens it.
package fetcher

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// PriceSource downloads daily rows for one ticker within [from, to]
// Implemented by yahoo.Client and naver.Client.
type PriceSource interface {
	FetchPrices(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceObservation, error)
}

// PriceSourceFunc adapts a function to PriceSource
type PriceSourceFunc func(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceObservation, error)

// FetchPrices calls f
func (f PriceSourceFunc) FetchPrices(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceObservation, error) {
	return f(ctx, ticker, from, to)
}

// Registry maps each Source to the client serving it
// ⭐ SSOT: source → client binding is resolved only here
type Registry struct {
	mu      sync.RWMutex
	sources map[contracts.Source]PriceSource
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sources: make(map[contracts.Source]PriceSource)}
}

// Register binds src to a client; deprecated sources cannot be bound
func (r *Registry) Register(src contracts.Source, ps PriceSource) error {
	if src.Deprecated() {
		return fmt.Errorf("source %s is deprecated", src)
	}
	if ps == nil {
		return fmt.Errorf("nil client for source %s", src)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src] = ps
	return nil
}

// Lookup returns the client for src
func (r *Registry) Lookup(src contracts.Source) (PriceSource, error) {
	if src.Deprecated() {
		return nil, fmt.Errorf("source %s is deprecated", src)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ps, ok := r.sources[src]
	if !ok {
		return nil, fmt.Errorf("no client registered for source %s", src)
	}
	return ps, nil
}

// Sources lists the registered sources in name order
func (r *Registry) Sources() []contracts.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contracts.Source, 0, len(r.sources))
	for src := range r.sources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
