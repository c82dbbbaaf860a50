package coordinator

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-catalog-cache/internal/cache/store"
	"go-catalog-cache/internal/executor"
	"go-catalog-cache/internal/interfaces"
	"go-catalog-cache/internal/metrics"
	"go-catalog-cache/internal/models"
)

// Ensure Coordinator implements interfaces.ReadThroughCache
var _ interfaces.ReadThroughCache = (*Coordinator)(nil)

// Coordinator serves values from the store with stale-while-revalidate semantics.
// A stale entry is returned immediately and refreshed by at most one background
// goroutine per key; a missing or expired entry is fetched synchronously.
type Coordinator struct {
	store    *store.Store
	executor interfaces.QueryExecutor
	logger   *zap.Logger

	misses    singleflight.Group
	refreshes sync.WaitGroup

	mu     sync.Mutex // guards closed and refreshes.Add
	closed bool
}

// New creates a Coordinator over s that fetches through exec
func New(s *store.Store, exec interfaces.QueryExecutor, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:    s,
		executor: exec,
		logger:   logger,
	}
}

// Fetch returns the value for key. ttl applies to entries created by this call.
func (c *Coordinator) Fetch(ctx context.Context, key string, ttl models.TTL, fetch interfaces.FetchFunc) (interface{}, models.CacheStatus, error) {
	value, found, needsRevalidation := c.store.GetWithStatus(key)
	if found {
		if needsRevalidation {
			c.revalidateInBackground(ctx, key, fetch)
			return value, models.CacheStatusStale, nil
		}
		return value, c.servedStatus(key), nil
	}

	return c.fetchMiss(ctx, key, ttl, fetch)
}

// Wait blocks until every background refresh started so far has finished
func (c *Coordinator) Wait() {
	c.refreshes.Wait()
}

// Shutdown stops starting background refreshes and waits for running ones. Stale
// entries are still served afterwards, so handlers that outlive the server shutdown
// remain safe.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.refreshes.Wait()
}

// Store exposes the underlying cache store
func (c *Coordinator) Store() *store.Store {
	return c.store
}

func (c *Coordinator) servedStatus(key string) models.CacheStatus {
	entry, ok := c.store.Snapshot(key)
	if ok && entry.Freshness(c.store.Now()) == models.Fresh {
		return models.CacheStatusHit
	}
	return models.CacheStatusStale
}

// revalidateInBackground starts a refresh unless one is already running for key.
// The refresh outlives the caller's context and keeps the entry's own TTL.
func (c *Coordinator) revalidateInBackground(ctx context.Context, key string, fetch interfaces.FetchFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	claim, ok := c.store.ClaimRevalidation(key)
	if !ok {
		return
	}

	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()

		data, err := c.executor.Do(context.WithoutCancel(ctx), key, fetch)
		if err != nil {
			c.store.ReleaseRevalidation(claim)
			metrics.RecordRevalidation(false)
			c.logger.Warn("Background revalidation failed, keeping stale entry",
				zap.String("key", key),
				zap.Error(err))
			return
		}

		metrics.RecordRevalidation(true)
		if !c.store.CompleteRevalidation(claim, data) {
			c.logger.Debug("Background revalidation superseded by a newer fetch", zap.String("key", key))
			return
		}
		c.logger.Debug("Background revalidation succeeded", zap.String("key", key))
	}()
}

// fetchMiss fetches key synchronously. Concurrent misses for the same key share one
// backend fetch.
func (c *Coordinator) fetchMiss(ctx context.Context, key string, ttl models.TTL, fetch interfaces.FetchFunc) (interface{}, models.CacheStatus, error) {
	ch := c.misses.DoChan(key, func() (interface{}, error) {
		return c.fetchAndStore(ctx, key, ttl, fetch)
	})

	select {
	case res := <-ch:
		if res.Err == nil {
			return res.Val, models.CacheStatusMiss, nil
		}
		// the shared fetch was cancelled by another caller while ours is still wanted
		var cancelErr *executor.CancellationError
		if errors.As(res.Err, &cancelErr) && ctx.Err() == nil {
			data, err := c.fetchAndStore(ctx, key, ttl, fetch)
			return data, models.CacheStatusMiss, err
		}
		return nil, models.CacheStatusMiss, res.Err
	case <-ctx.Done():
		return nil, models.CacheStatusMiss, &executor.CancellationError{Err: ctx.Err()}
	}
}

func (c *Coordinator) fetchAndStore(ctx context.Context, key string, ttl models.TTL, fetch interfaces.FetchFunc) (interface{}, error) {
	data, err := c.executor.Do(ctx, key, fetch)
	if err != nil {
		c.logger.Warn("Cache miss fetch failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	c.store.Set(key, data, ttl)
	return data, nil
}
