// Package cache is a key-addressed response cache with request deduplication
// and stale-while-revalidate semantics. Keys are request paths including the
// query string; identical keys share one in-flight fetch and one cached value.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher loads the value for a key from the network.
type Fetcher func(ctx context.Context, key string) ([]byte, error)

// ErrUnauthenticated is returned for reads that require an authenticated
// session while none exists. No request is issued in that case.
var ErrUnauthenticated = errors.New("cache: read requires an authenticated session")

// Snapshot is a non-blocking view of a key's state.
type Snapshot struct {
	Data      []byte
	Err       error
	IsLoading bool
}

// Defaults, chosen to match the revalidation behavior the app relied on.
const (
	defaultDedupeWindow = 2 * time.Second
	defaultMaxRetries   = 3
	defaultRetryDelay   = time.Second

	// focusThrottle caps how often focus/reconnect triggers may sweep all
	// live keys.
	focusThrottle = 5 * time.Second
)

// Cache coordinates reads for all domain services.
type Cache struct {
	fetch  Fetcher
	authed func() bool

	dedupeWindow time.Duration
	maxRetries   int
	retryDelay   time.Duration
	revalLimiter *rate.Limiter

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*flight
}

type entry struct {
	data        []byte
	err         error
	fetchedAt   time.Time
	requireAuth bool
}

type flight struct {
	done chan struct{}
	data []byte
	err  error
}

// Option configures a Cache.
type Option func(*Cache)

// WithAuthCheck supplies the predicate that gates RequireAuth reads.
func WithAuthCheck(authed func() bool) Option {
	return func(c *Cache) { c.authed = authed }
}

// WithDedupeWindow overrides how long a fetched value is served without a
// revalidation fetch.
func WithDedupeWindow(d time.Duration) Option {
	return func(c *Cache) { c.dedupeWindow = d }
}

// WithRetry overrides the read retry policy.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Cache) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// New creates a cache around the given fetch function.
func New(fetch Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetch:        fetch,
		authed:       func() bool { return false },
		dedupeWindow: defaultDedupeWindow,
		maxRetries:   defaultMaxRetries,
		retryDelay:   defaultRetryDelay,
		revalLimiter: rate.NewLimiter(rate.Every(focusThrottle), 1),
		entries:      make(map[string]*entry),
		inflight:     make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadOption adjusts a single read.
type ReadOption func(*readConfig)

type readConfig struct {
	requireAuth bool
}

// RequireAuth suppresses the read entirely while no authenticated session
// exists.
func RequireAuth() ReadOption {
	return func(cfg *readConfig) { cfg.requireAuth = true }
}

// Get returns the value for key, fetching it when the cached copy is missing
// or stale. Concurrent Gets for the same key share one fetch. The fetch
// itself is not bound to ctx: a caller that gives up leaves the fetch to
// complete and fill the cache for the others.
func (c *Cache) Get(ctx context.Context, key string, opts ...ReadOption) ([]byte, error) {
	cfg := readConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.requireAuth && !c.authed() {
		return nil, ErrUnauthenticated
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if cfg.requireAuth {
			e.requireAuth = true
		}
		if e.err == nil && time.Since(e.fetchedAt) < c.dedupeWindow {
			data := e.data
			c.mu.Unlock()
			return data, nil
		}
	}
	f := c.startFetchLocked(key, cfg.requireAuth)
	c.mu.Unlock()

	select {
	case <-f.done:
		if f.err != nil {
			return nil, f.err
		}
		return f.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peek returns the current state of a key without triggering any fetch.
func (c *Cache) Peek(key string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{}
	if _, ok := c.inflight[key]; ok {
		s.IsLoading = true
	}
	if e, ok := c.entries[key]; ok {
		s.Data = e.data
		s.Err = e.err
	}
	return s
}

// Mutate applies an optimistic local update to key. updater receives the
// current cached value (nil when absent) and returns the replacement; a nil
// updater drops the entry instead. When revalidate is set a background
// refetch reconciles the key with the server afterwards.
func (c *Cache) Mutate(key string, updater func([]byte) []byte, revalidate bool) {
	c.mu.Lock()
	requireAuth := false
	if e, ok := c.entries[key]; ok {
		requireAuth = e.requireAuth
	}

	if updater != nil {
		var current []byte
		if e, ok := c.entries[key]; ok {
			current = e.data
		}
		c.entries[key] = &entry{
			data:        updater(current),
			fetchedAt:   time.Now(),
			requireAuth: requireAuth,
		}
	} else if !revalidate {
		delete(c.entries, key)
	}

	if revalidate {
		c.startFetchLocked(key, requireAuth)
	}
	c.mu.Unlock()
}

// Invalidate drops the cached value so the next read refetches.
func (c *Cache) Invalidate(key string) {
	c.Mutate(key, nil, false)
}

// OnFocus revalidates all live keys when the terminal regains focus.
func (c *Cache) OnFocus() {
	c.revalidateAll()
}

// OnReconnect revalidates all live keys after connectivity returns.
func (c *Cache) OnReconnect() {
	c.revalidateAll()
}

func (c *Cache) revalidateAll() {
	if !c.revalLimiter.Allow() {
		return
	}

	c.mu.Lock()
	for key, e := range c.entries {
		if e.requireAuth && !c.authed() {
			continue
		}
		c.startFetchLocked(key, e.requireAuth)
	}
	c.mu.Unlock()
}

// startFetchLocked returns the in-flight fetch for key, starting one when
// none is running. Callers hold c.mu.
func (c *Cache) startFetchLocked(key string, requireAuth bool) *flight {
	if f, ok := c.inflight[key]; ok {
		return f
	}

	if e, ok := c.entries[key]; ok && e.requireAuth {
		requireAuth = true
	}

	f := &flight{done: make(chan struct{})}
	c.inflight[key] = f

	go func() {
		data, err := c.fetchWithRetry(key)

		c.mu.Lock()
		c.entries[key] = &entry{
			data:        data,
			err:         err,
			fetchedAt:   time.Now(),
			requireAuth: requireAuth,
		}
		delete(c.inflight, key)
		c.mu.Unlock()

		f.data = data
		f.err = err
		close(f.done)
	}()

	return f
}

// fetchWithRetry runs the fetch with the automatic read retry policy: fixed
// delay, bounded attempts. Write paths never go through here.
func (c *Cache) fetchWithRetry(key string) ([]byte, error) {
	var data []byte
	var err error

	for attempt := 0; ; attempt++ {
		data, err = c.fetch(context.Background(), key)
		if err == nil || attempt >= c.maxRetries {
			return data, err
		}
		time.Sleep(c.retryDelay)
	}
}

// Keys returns all cached keys, mainly for diagnostics.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}
