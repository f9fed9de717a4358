package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCache_ServesCachedValueWithinDedupeWindow(t *testing.T) {
	var calls atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		return []byte(`["post"]`), nil
	})

	ctx := context.Background()
	first, err := c.Get(ctx, "/posts")
	require.NoError(t, err)
	second, err := c.Get(ctx, "/posts")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
}

func TestCache_DeduplicatesConcurrentReads(t *testing.T) {
	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	c := New(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		close(started)
		<-release
		return []byte(`"shared"`), nil
	})

	ctx := context.Background()
	results := make(chan string, 2)

	go func() {
		data, err := c.Get(ctx, "/posts")
		require.NoError(t, err)
		results <- string(data)
	}()

	// Second reader joins after the first fetch is definitely in flight.
	<-started
	go func() {
		data, err := c.Get(ctx, "/posts")
		require.NoError(t, err)
		results <- string(data)
	}()

	// Give the second reader time to attach to the same flight.
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.Equal(t, `"shared"`, <-results)
	assert.Equal(t, `"shared"`, <-results)
	assert.Equal(t, int64(1), calls.Load(), "concurrent reads of one key must share one network call")
}

func TestCache_RequireAuthSuppressesUnauthenticatedReads(t *testing.T) {
	var calls atomic.Int64
	authed := atomic.Bool{}

	c := New(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		return []byte(`["mine"]`), nil
	}, WithAuthCheck(authed.Load))

	ctx := context.Background()

	_, err := c.Get(ctx, "/posts/my", RequireAuth())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, int64(0), calls.Load(), "no request may be issued while unauthenticated")

	authed.Store(true)
	data, err := c.Get(ctx, "/posts/my", RequireAuth())
	require.NoError(t, err)
	assert.Equal(t, `["mine"]`, string(data))
	assert.Equal(t, int64(1), calls.Load(), "exactly one request once authentication becomes true")
}

func TestCache_RetriesFailedReads(t *testing.T) {
	var calls atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("flaky")
		}
		return []byte(`"ok"`), nil
	}, WithRetry(3, time.Millisecond))

	data, err := c.Get(context.Background(), "/posts")
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, string(data))
	assert.Equal(t, int64(3), calls.Load())
}

func TestCache_RetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int64
	wantErr := errors.New("down")
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		return nil, wantErr
	}, WithRetry(3, time.Millisecond))

	_, err := c.Get(context.Background(), "/posts")
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, int64(4), calls.Load(), "initial attempt plus three retries")
}

func TestCache_ErrorsAreNotServedFromCache(t *testing.T) {
	var calls atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("first read fails")
		}
		return []byte(`"recovered"`), nil
	}, WithRetry(0, 0))

	ctx := context.Background()
	_, err := c.Get(ctx, "/posts")
	require.Error(t, err)

	data, err := c.Get(ctx, "/posts")
	require.NoError(t, err)
	assert.Equal(t, `"recovered"`, string(data))
}

func TestCache_MutateAppliesOptimisticUpdate(t *testing.T) {
	var calls atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		return []byte(`[1,2,3]`), nil
	})

	ctx := context.Background()
	_, err := c.Get(ctx, "/posts/my")
	require.NoError(t, err)

	// Drop an id locally without a refetch.
	c.Mutate("/posts/my", func(current []byte) []byte {
		assert.Equal(t, `[1,2,3]`, string(current))
		return []byte(`[1,3]`)
	}, false)

	data, err := c.Get(ctx, "/posts/my")
	require.NoError(t, err)
	assert.Equal(t, `[1,3]`, string(data))
	assert.Equal(t, int64(1), calls.Load(), "optimistic mutate must not refetch")
}

func TestCache_MutateWithRevalidation(t *testing.T) {
	var calls atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		return []byte(fmt.Sprintf(`"server-%d"`, calls.Load())), nil
	})

	ctx := context.Background()
	_, err := c.Get(ctx, "/profiles/1")
	require.NoError(t, err)

	c.Mutate("/profiles/1", func([]byte) []byte { return []byte(`"optimistic"`) }, true)

	assert.Eventually(t, func() bool {
		return string(c.Peek("/profiles/1").Data) == `"server-2"`
	}, time.Second, 5*time.Millisecond, "revalidation must reconcile the optimistic value")
}

func TestCache_InvalidateForcesRefetch(t *testing.T) {
	var calls atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		return []byte(`"v"`), nil
	})

	ctx := context.Background()
	_, err := c.Get(ctx, "/posts")
	require.NoError(t, err)

	c.Invalidate("/posts")

	_, err = c.Get(ctx, "/posts")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestCache_FocusRevalidatesLiveKeys(t *testing.T) {
	var calls atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		return []byte(`"v"`), nil
	})

	ctx := context.Background()
	_, err := c.Get(ctx, "/posts")
	require.NoError(t, err)
	_, err = c.Get(ctx, "/seasonal_campaigns/current")
	require.NoError(t, err)
	require.Equal(t, int64(2), calls.Load())

	c.OnFocus()
	assert.Eventually(t, func() bool {
		return calls.Load() == 4
	}, time.Second, 5*time.Millisecond, "focus must revalidate every live key")

	// A second trigger inside the throttle window is a no-op.
	c.OnReconnect()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(4), calls.Load())
}

func TestCache_FocusSkipsAuthKeysWhileSignedOut(t *testing.T) {
	var calls atomic.Int64
	authed := atomic.Bool{}
	authed.Store(true)

	c := New(func(ctx context.Context, key string) ([]byte, error) {
		calls.Add(1)
		return []byte(`"v"`), nil
	}, WithAuthCheck(authed.Load))

	ctx := context.Background()
	_, err := c.Get(ctx, "/posts/my", RequireAuth())
	require.NoError(t, err)

	authed.Store(false)
	c.OnFocus()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load(), "signed-out focus must not refetch auth-only keys")
}

func TestCache_PeekReportsLoading(t *testing.T) {
	release := make(chan struct{})
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		<-release
		return []byte(`"v"`), nil
	})

	go c.Get(context.Background(), "/posts")

	assert.Eventually(t, func() bool {
		return c.Peek("/posts").IsLoading
	}, time.Second, time.Millisecond)

	close(release)
	assert.Eventually(t, func() bool {
		snap := c.Peek("/posts")
		return !snap.IsLoading && string(snap.Data) == `"v"`
	}, time.Second, time.Millisecond)
}

func TestCache_AbandonedReaderStillFillsCache(t *testing.T) {
	release := make(chan struct{})
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		<-release
		return []byte(`"late"`), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "/posts")
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool {
		return string(c.Peek("/posts").Data) == `"late"`
	}, time.Second, time.Millisecond)
}

// TestCache_FetchCountProperty checks that with an effectively infinite
// dedupe window, the number of network calls for a key never exceeds the
// number of invalidations plus one.
func TestCache_FetchCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var calls int64
		c := New(func(ctx context.Context, key string) ([]byte, error) {
			n := atomic.AddInt64(&calls, 1)
			return []byte(fmt.Sprintf("v%d", n)), nil
		}, WithDedupeWindow(time.Hour))

		ctx := context.Background()
		invalidations := 0
		sawRead := false

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "invalidate") {
				c.Invalidate("/posts")
				invalidations++
				continue
			}
			data, err := c.Get(ctx, "/posts")
			require.NoError(t, err)
			require.NotEmpty(t, data)
			sawRead = true
		}

		max := int64(invalidations + 1)
		if !sawRead {
			max = int64(invalidations)
		}
		require.LessOrEqual(t, atomic.LoadInt64(&calls), max)
	})
}

// TestCache_DedupeProperty hammers one key from many goroutines and checks
// that the dedupe window admits exactly one fetch.
func TestCache_DedupeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var calls atomic.Int64
		c := New(func(ctx context.Context, key string) ([]byte, error) {
			calls.Add(1)
			time.Sleep(time.Millisecond)
			return []byte(`"v"`), nil
		}, WithDedupeWindow(time.Hour))

		readers := rapid.IntRange(2, 16).Draw(t, "readers")
		var wg sync.WaitGroup
		for i := 0; i < readers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.Get(context.Background(), "/posts")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		require.Equal(t, int64(1), calls.Load())
	})
}
