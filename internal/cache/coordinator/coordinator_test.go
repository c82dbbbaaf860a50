package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-catalog-cache/internal/cache/store"
	"go-catalog-cache/internal/executor"
	"go-catalog-cache/internal/models"
)

var errUpstream = errors.New("upstream unavailable")

// Background work may log after a test returns, so these tests use a nop logger.
func newTestCoordinator(retries int) (*Coordinator, *store.Store, *clock.Mock) {
	clk := clock.NewMock()
	s := store.New(clk)
	exec := executor.New(executor.RetryPolicy{
		MaxRetries:        retries,
		AttemptTimeout:    time.Second,
		BackoffBase:       5 * time.Millisecond,
		BackoffMultiplier: 2,
	}, zap.NewNop())
	return New(s, exec, zap.NewNop()), s, clk
}

func countingFetch(calls *int32, value interface{}, err error) func(ctx context.Context) (interface{}, error) {
	return func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(calls, 1)
		return value, err
	}
}

func TestCoordinator_FreshHitDoesNotCallBackend(t *testing.T) {
	c, s, _ := newTestCoordinator(0)
	s.Set("categories:all", "cached", models.TTL{Fresh: time.Minute, Stale: time.Hour})

	var calls int32
	value, status, err := c.Fetch(context.Background(), "categories:all", models.TTL{Fresh: time.Minute, Stale: time.Hour},
		countingFetch(&calls, "new", nil))

	require.NoError(t, err)
	assert.Equal(t, "cached", value)
	assert.Equal(t, models.CacheStatusHit, status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestCoordinator_MissFetchesAndStores(t *testing.T) {
	c, s, _ := newTestCoordinator(0)
	ttl := models.TTL{Fresh: time.Minute, Stale: time.Hour}

	var calls int32
	value, status, err := c.Fetch(context.Background(), "products:detail:elden-ring", ttl, countingFetch(&calls, "product", nil))

	require.NoError(t, err)
	assert.Equal(t, "product", value)
	assert.Equal(t, models.CacheStatusMiss, status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	cached, found := s.Get("products:detail:elden-ring")
	require.True(t, found)
	assert.Equal(t, "product", cached)
}

func TestCoordinator_StaleServedOnceRefreshedOnce(t *testing.T) {
	c, s, clk := newTestCoordinator(0)
	ttl := models.TTL{Fresh: 0, Stale: time.Minute}
	s.Set("products:list:all", "old", ttl)
	clk.Add(time.Millisecond)

	release := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "new", nil
	}

	var wg sync.WaitGroup
	results := make([]interface{}, 2)
	statuses := make([]models.CacheStatus, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, status, err := c.Fetch(context.Background(), "products:list:all", ttl, fetch)
			assert.NoError(t, err)
			results[i] = value
			statuses[i] = status
		}(i)
	}
	wg.Wait()

	for i := range results {
		assert.Equal(t, "old", results[i])
		assert.Equal(t, models.CacheStatusStale, statuses[i])
	}

	close(release)
	c.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	entry, ok := s.Snapshot("products:list:all")
	require.True(t, ok)
	assert.Equal(t, "new", entry.Value)
	assert.False(t, entry.Revalidating)
}

func TestCoordinator_RefreshKeepsEntryTTL(t *testing.T) {
	c, s, clk := newTestCoordinator(0)
	entryTTL := models.TTL{Fresh: time.Second, Stale: time.Minute}
	s.Set("banners:home", "old", entryTTL)
	clk.Add(2 * time.Second)

	var calls int32
	_, status, err := c.Fetch(context.Background(), "banners:home", models.TTL{Fresh: time.Hour, Stale: 2 * time.Hour},
		countingFetch(&calls, "new", nil))
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusStale, status)
	c.Wait()

	entry, ok := s.Snapshot("banners:home")
	require.True(t, ok)
	assert.Equal(t, "new", entry.Value)
	assert.Equal(t, entryTTL, entry.TTL)
}

func TestCoordinator_MissDuringRefreshKeepsSingleRefresh(t *testing.T) {
	c, s, clk := newTestCoordinator(0)
	ttl := models.TTL{Fresh: 10 * time.Second, Stale: 20 * time.Second}
	s.Set("k", "v0", ttl)

	var inFlight, maxInFlight int32
	track := func() func() {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		return func() { atomic.AddInt32(&inFlight, -1) }
	}

	started := make(chan struct{})
	release := make(chan struct{})
	slowRefresh := func(ctx context.Context) (interface{}, error) {
		defer track()()
		close(started)
		<-release
		return "from slow refresh", nil
	}

	clk.Add(15 * time.Second)
	_, status, err := c.Fetch(context.Background(), "k", ttl, slowRefresh)
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusStale, status)
	<-started

	// Entry expires while the refresh is still running; the miss path stores a newer value
	clk.Add(10 * time.Second)
	value, status, err := c.Fetch(context.Background(), "k", ttl, countingFetch(new(int32), "v1", nil))
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusMiss, status)
	assert.Equal(t, "v1", value)

	// The newer value goes stale before the first refresh returns
	clk.Add(12 * time.Second)
	var secondRefreshCalls int32
	value, status, err = c.Fetch(context.Background(), "k", ttl, func(ctx context.Context) (interface{}, error) {
		defer track()()
		atomic.AddInt32(&secondRefreshCalls, 1)
		return "from second refresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusStale, status)
	assert.Equal(t, "v1", value)

	close(release)
	c.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&secondRefreshCalls))
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(1))

	entry, ok := s.Snapshot("k")
	require.True(t, ok)
	assert.Equal(t, "v1", entry.Value, "an older refresh must not overwrite a newer fetch")
	assert.False(t, entry.Revalidating)

	// The key can be refreshed again once the first refresh is done
	var thirdRefreshCalls int32
	_, status, err = c.Fetch(context.Background(), "k", ttl, countingFetch(&thirdRefreshCalls, "v2", nil))
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusStale, status)
	c.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&thirdRefreshCalls))
}

func TestCoordinator_ShutdownStopsNewRefreshes(t *testing.T) {
	c, s, clk := newTestCoordinator(0)
	ttl := models.TTL{Fresh: time.Second, Stale: time.Minute}
	s.Set("k", "old", ttl)
	clk.Add(2 * time.Second)

	c.Shutdown()

	var calls int32
	value, status, err := c.Fetch(context.Background(), "k", ttl, countingFetch(&calls, "new", nil))
	require.NoError(t, err)
	assert.Equal(t, "old", value)
	assert.Equal(t, models.CacheStatusStale, status)

	c.Wait()
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	entry, ok := s.Snapshot("k")
	require.True(t, ok)
	assert.False(t, entry.Revalidating)
}

func TestCoordinator_ExpiredEntryFetchedSynchronously(t *testing.T) {
	c, s, clk := newTestCoordinator(0)
	ttl := models.TTL{Fresh: 0, Stale: time.Second}
	s.Set("platforms:all", "old", ttl)
	clk.Add(2 * time.Second)

	var calls int32
	value, status, err := c.Fetch(context.Background(), "platforms:all", ttl, countingFetch(&calls, "new", nil))

	require.NoError(t, err)
	assert.Equal(t, "new", value)
	assert.Equal(t, models.CacheStatusMiss, status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCoordinator_FailedMissIsNotCached(t *testing.T) {
	c, s, _ := newTestCoordinator(1)

	var calls int32
	value, _, err := c.Fetch(context.Background(), "products:list:all", models.TTL{Fresh: time.Minute, Stale: time.Hour},
		countingFetch(&calls, nil, errUpstream))

	require.Error(t, err)
	assert.Nil(t, value)
	var exhausted *executor.ExhaustedRetriesError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, 0, s.Len())
}

func TestCoordinator_FailedRefreshKeepsStaleEntry(t *testing.T) {
	c, s, clk := newTestCoordinator(1)
	ttl := models.TTL{Fresh: 0, Stale: time.Minute}
	s.Set("categories:all", "old", ttl)
	fetchedAt := clk.Now()
	clk.Add(time.Millisecond)

	var calls int32
	value, status, err := c.Fetch(context.Background(), "categories:all", ttl, countingFetch(&calls, nil, errUpstream))
	require.NoError(t, err)
	assert.Equal(t, "old", value)
	assert.Equal(t, models.CacheStatusStale, status)
	c.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	entry, ok := s.Snapshot("categories:all")
	require.True(t, ok)
	assert.Equal(t, "old", entry.Value)
	assert.Equal(t, fetchedAt, entry.FetchedAt)
	assert.False(t, entry.Revalidating)

	// the next stale read may try again
	value, _, needsRevalidation := s.GetWithStatus("categories:all")
	assert.Equal(t, "old", value)
	assert.True(t, needsRevalidation)
}

func TestCoordinator_RefreshOutlivesCallerContext(t *testing.T) {
	c, s, clk := newTestCoordinator(0)
	ttl := models.TTL{Fresh: 0, Stale: time.Minute}
	s.Set("products:detail:hades", "old", ttl)
	clk.Add(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(fetchCtx context.Context) (interface{}, error) {
		time.Sleep(20 * time.Millisecond)
		if fetchCtx.Err() != nil {
			return nil, fetchCtx.Err()
		}
		return "new", nil
	}

	value, status, err := c.Fetch(ctx, "products:detail:hades", ttl, fetch)
	require.NoError(t, err)
	assert.Equal(t, "old", value)
	assert.Equal(t, models.CacheStatusStale, status)
	cancel()
	c.Wait()

	cached, found := s.Get("products:detail:hades")
	require.True(t, found)
	assert.Equal(t, "new", cached)
}

func TestCoordinator_ConcurrentMissesShareOneFetch(t *testing.T) {
	c, s, _ := newTestCoordinator(0)
	ttl := models.TTL{Fresh: time.Minute, Stale: time.Hour}

	release := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "list", nil
	}

	const callers = 10
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, status, err := c.Fetch(context.Background(), "products:list:all", ttl, fetch)
			assert.NoError(t, err)
			assert.Equal(t, "list", value)
			assert.Equal(t, models.CacheStatusMiss, status)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, s.Len())
}

func TestCoordinator_CallerCancellationOnMiss(t *testing.T) {
	c, s, _ := newTestCoordinator(2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	fetch := func(fetchCtx context.Context) (interface{}, error) {
		<-fetchCtx.Done()
		return nil, fetchCtx.Err()
	}

	_, _, err := c.Fetch(ctx, "products:list:all", models.TTL{Fresh: time.Minute, Stale: time.Hour}, fetch)

	var cancelErr *executor.CancellationError
	require.ErrorAs(t, err, &cancelErr)
	assert.Equal(t, 0, s.Len())
}

func TestCoordinator_FollowerRefetchesAfterLeaderCancelled(t *testing.T) {
	c, _, _ := newTestCoordinator(0)
	ttl := models.TTL{Fresh: time.Minute, Stale: time.Hour}

	var calls int32
	fetch := func(fetchCtx context.Context) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-fetchCtx.Done()
			return nil, fetchCtx.Err()
		}
		return "list", nil
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, _, err := c.Fetch(leaderCtx, "products:list:all", ttl, fetch)
		leaderDone <- err
	}()

	time.Sleep(10 * time.Millisecond)
	followerDone := make(chan interface{}, 1)
	go func() {
		value, _, err := c.Fetch(context.Background(), "products:list:all", ttl, fetch)
		assert.NoError(t, err)
		followerDone <- value
	}()

	time.Sleep(10 * time.Millisecond)
	cancelLeader()

	var cancelErr *executor.CancellationError
	assert.ErrorAs(t, <-leaderDone, &cancelErr)
	assert.Equal(t, "list", <-followerDone)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
