// Package cache holds snapshots of remote collections and decides, from a
// staleness window, when they need to be fetched again.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ashureev/coach-finder/internal/clock"
	"github.com/ashureev/coach-finder/internal/metrics"
)

// DefaultWindow is how long a fetched collection is considered fresh.
const DefaultWindow = 60 * time.Second

// FetchFunc reads the whole remote collection.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// FetchError reports a failed collection read. The cached snapshot is left
// untouched.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Cache is a snapshot of one remote collection.
//
// Refresh calls are not deduplicated: overlapping calls may each fetch, and
// the last response to arrive wins.
type Cache[T any] struct {
	name   string
	fetch  FetchFunc[T]
	window time.Duration
	clock  clock.Clock
	logger *slog.Logger

	mu            sync.RWMutex
	items         []T
	lastFetchedAt time.Time
	fetched       bool
}

// New creates an empty cache. A non-positive window uses DefaultWindow.
func New[T any](name string, fetch FetchFunc[T], window time.Duration, clk clock.Clock, logger *slog.Logger) *Cache[T] {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache[T]{
		name:   name,
		fetch:  fetch,
		window: window,
		clock:  clk,
		logger: logger,
		items:  []T{},
	}
}

// ShouldUpdate reports whether a non-forced refresh would fetch.
func (c *Cache[T]) ShouldUpdate() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shouldUpdateLocked()
}

func (c *Cache[T]) shouldUpdateLocked() bool {
	if !c.fetched {
		return true
	}
	return c.clock.Now().Sub(c.lastFetchedAt) >= c.window
}

// Refresh fetches the collection unless force is false and the snapshot is
// still inside the staleness window.
func (c *Cache[T]) Refresh(ctx context.Context, force bool) error {
	if !force && !c.ShouldUpdate() {
		metrics.CacheRefreshes.WithLabelValues(c.name, "hit").Inc()
		return nil
	}

	items, err := c.fetch(ctx)
	if err != nil {
		metrics.CacheRefreshes.WithLabelValues(c.name, "error").Inc()
		c.logger.Warn("Collection fetch failed", "collection", c.name, "error", err)
		return &FetchError{Collection: c.name, Err: err}
	}
	if items == nil {
		items = []T{}
	}

	c.mu.Lock()
	c.items = items
	c.lastFetchedAt = c.clock.Now()
	c.fetched = true
	c.mu.Unlock()

	metrics.CacheRefreshes.WithLabelValues(c.name, "miss").Inc()
	c.logger.Debug("Collection refreshed", "collection", c.name, "count", len(items), "forced", force)
	return nil
}

// Items returns a copy of the snapshot.
func (c *Cache[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the snapshot size.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// LastFetchedAt returns the instant of the last successful fetch and false
// if none has happened yet.
func (c *Cache[T]) LastFetchedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetchedAt, c.fetched
}

// Prepend inserts item at the front without touching the fetch instant.
func (c *Cache[T]) Prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Insert(c.items, 0, item)
}

// Append adds item at the end without touching the fetch instant.
func (c *Cache[T]) Append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// Find returns the first item matching pred.
func (c *Cache[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
