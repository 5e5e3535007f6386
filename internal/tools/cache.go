package tools

import (
	"context"
	"strings"
	"sync"

	"github.com/gaslens/gaslens/analysis"
)

// Cached wraps a metrics provider with per-run memoization of the historical
// dataset operations, whose payloads are immutable snapshots that retried and
// overlapping tasks can safely share. Live metrics calls (category
// distributions, top contracts) pass through on every invocation: their
// payloads are subject to postcondition checks, and a rejected payload must
// be re-fetched on retry rather than replayed from cache. Failures are never
// cached. Scope one instance to a single run.
func Cached(inner analysis.MetricsProvider) analysis.MetricsProvider {
	return &cache{
		inner:   inner,
		entries: make(map[string]any),
	}
}

type cache struct {
	inner analysis.MetricsProvider

	mu      sync.Mutex
	entries map[string]any
}

func fetch[T any](c *cache, key string, load func() (T, error)) (T, error) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return entry.(T), nil
	}
	c.mu.Unlock()

	// the lock is released during load so concurrent calls for different
	// keys proceed in parallel; duplicate concurrent loads for the same key
	// are tolerated and last write wins
	value, err := load()
	if err != nil {
		return value, err
	}

	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
	return value, nil
}

func (c *cache) CategoryDistribution(ctx context.Context, chain string, timeframe analysis.Timeframe) (*analysis.CategoryDistribution, error) {
	return c.inner.CategoryDistribution(ctx, chain, timeframe)
}

func (c *cache) TopContracts(ctx context.Context, chain, category string, limit int) ([]analysis.ContractFees, error) {
	return c.inner.TopContracts(ctx, chain, category, limit)
}

func (c *cache) ListDatasets(ctx context.Context) ([]string, error) {
	return fetch(c, "datasets", func() ([]string, error) {
		return c.inner.ListDatasets(ctx)
	})
}

func (c *cache) DatasetOverview(ctx context.Context, name string) (string, error) {
	return fetch(c, "overview/"+name, func() (string, error) {
		return c.inner.DatasetOverview(ctx, name)
	})
}

func (c *cache) CombinedAnalysis(ctx context.Context, overviews []analysis.DatasetOverview) (string, error) {
	names := make([]string, len(overviews))
	for i, o := range overviews {
		names[i] = o.Name
	}
	key := "combined/" + strings.Join(names, ",")
	return fetch(c, key, func() (string, error) {
		return c.inner.CombinedAnalysis(ctx, overviews)
	})
}
