// Package cache provides a bounded loading cache with expire-after-access
// semantics and at most one in-flight load per key.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"

	"github.com/kcaldas/cmdcore/pkg/logging"
)

const (
	DefaultMaxEntries        = 1000
	DefaultExpireAfterAccess = 5 * time.Minute
)

// Loader computes the value for a missing key. Returned errors are passed to
// the caller and never cached.
type Loader[V any] func(key string) (V, error)

// Options configures a LoadingCache.
type Options struct {
	Name              string
	MaxEntries        int
	ExpireAfterAccess time.Duration // zero or negative disables expiry
	Clock             Clock
	Logger            logging.Logger
}

// DefaultOptions returns the defaults used by the registry caches.
func DefaultOptions(name string) Options {
	return Options{
		Name:              name,
		MaxEntries:        DefaultMaxEntries,
		ExpireAfterAccess: DefaultExpireAfterAccess,
		Clock:             SystemClock{},
	}
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits         uint64
	Misses       uint64
	Loads        uint64
	LoadFailures uint64
	Evictions    uint64
	Expirations  uint64
}

type flight struct {
	stale bool
}

type entry[V any] struct {
	value    V
	accessed time.Time
}

// LoadingCache is a size-bounded LRU keyed by string. Entries that were not
// read for ExpireAfterAccess are dropped. Eviction is memory management
// only: callers must always be able to recompute a value.
type LoadingCache[V any] struct {
	name   string
	loader Loader[V]
	ttl    time.Duration
	max    int
	clock  Clock
	logger logging.Logger

	mu  sync.Mutex
	lru *simplelru.LRU[string, *entry[V]]
	// inflight holds the running load of each key. Invalidating a key marks
	// its load stale so the result is returned but not stored.
	inflight map[string]*flight

	group singleflight.Group

	hits, misses, loads, loadFailures, evictions, expirations atomic.Uint64
}

// New creates a loading cache.
func New[V any](opts Options, loader Loader[V]) *LoadingCache[V] {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}

	lru, err := simplelru.NewLRU[string, *entry[V]](opts.MaxEntries, nil)
	if err != nil {
		// only fails for a non-positive size, excluded above
		panic(err)
	}

	return &LoadingCache[V]{
		name:   opts.Name,
		loader: loader,
		ttl:    opts.ExpireAfterAccess,
		max:    opts.MaxEntries,
		clock:  opts.Clock,
		logger:   logging.ForComponent(opts.Logger, "cache").With("cache", opts.Name),
		lru:      lru,
		inflight: make(map[string]*flight),
	}
}

// Get returns the cached value for key, loading it on a miss. Concurrent
// misses for the same key share one loader call.
func (c *LoadingCache[V]) Get(key string) (V, error) {
	if v, ok := c.GetIfPresent(key); ok {
		return v, nil
	}
	c.misses.Add(1)

	res, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if v, ok := c.lookupLocked(key); ok {
			c.mu.Unlock()
			return v, nil
		}
		f := &flight{}
		c.inflight[key] = f
		c.mu.Unlock()

		c.loads.Add(1)
		v, err := c.loader(key)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.inflight[key] == f {
			delete(c.inflight, key)
		}
		if err != nil {
			c.loadFailures.Add(1)
			c.logger.Debug("load failed", "key", key, "error", err)
			return nil, err
		}
		if !f.stale {
			c.storeLocked(key, v)
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	v, _ := res.(V)
	return v, nil
}

// Name returns the cache name used in logs.
func (c *LoadingCache[V]) Name() string { return c.name }

// GetIfPresent returns the cached value without loading.
func (c *LoadingCache[V]) GetIfPresent(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lookupLocked(key)
	if ok {
		c.hits.Add(1)
	}
	return v, ok
}

// Put stores a value directly.
func (c *LoadingCache[V]) Put(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(key, v)
}

// Invalidate drops key. A load for key already in flight will not store its
// result.
func (c *LoadingCache[V]) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		c.lru.Remove(key)
		if f, ok := c.inflight[key]; ok {
			f.stale = true
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.group.Forget(key)
	}
}

// InvalidateAll drops every entry.
func (c *LoadingCache[V]) InvalidateAll() {
	c.mu.Lock()
	for _, f := range c.inflight {
		f.stale = true
	}
	keys := c.lru.Keys()
	c.lru.Purge()
	c.mu.Unlock()

	for _, key := range keys {
		c.group.Forget(key)
	}
}

// Len returns the number of live entries.
func (c *LoadingCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeExpiredLocked(c.clock.Now())
	return c.lru.Len()
}

// Stats returns a snapshot of the counters.
func (c *LoadingCache[V]) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Loads:        c.loads.Load(),
		LoadFailures: c.loadFailures.Load(),
		Evictions:    c.evictions.Load(),
		Expirations:  c.expirations.Load(),
	}
}

func (c *LoadingCache[V]) lookupLocked(key string) (V, bool) {
	now := c.clock.Now()
	c.purgeExpiredLocked(now)

	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	e.accessed = now
	return e.value, true
}

func (c *LoadingCache[V]) storeLocked(key string, v V) {
	now := c.clock.Now()
	c.purgeExpiredLocked(now)

	if e, ok := c.lru.Get(key); ok {
		e.value = v
		e.accessed = now
		return
	}
	if c.lru.Len() >= c.max {
		if oldest, _, ok := c.lru.RemoveOldest(); ok {
			c.evictions.Add(1)
			c.logger.Debug("evicted", "key", oldest)
		}
	}
	c.lru.Add(key, &entry[V]{value: v, accessed: now})
}

// purgeExpiredLocked drops expired entries from the cold end. Every read
// moves an entry to the hot end, so the cold end is always the entry that
// was read least recently.
func (c *LoadingCache[V]) purgeExpiredLocked(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for {
		key, e, ok := c.lru.GetOldest()
		if !ok || now.Sub(e.accessed) < c.ttl {
			return
		}
		c.lru.RemoveOldest()
		c.expirations.Add(1)
		c.logger.Debug("expired", "key", key)
	}
}
