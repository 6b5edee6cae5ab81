package cache

import (
	"sync"
	"time"
)

// Cache is a keyed store whose entries expire individually.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

const defaultSweepInterval = time.Minute

type ttlCache[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]entry[V]
	now        func() time.Time
	sweepEvery time.Duration
	nextSweep  time.Time
}

// Option customises a TTL cache.
type Option func(*options)

type options struct {
	now        func() time.Time
	sweepEvery time.Duration
}

// WithNow overrides the time source used for expiry.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSweepInterval sets how often a write scans for expired entries.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sweepEvery = d
		}
	}
}

// NewTTLCache returns an in-memory cache. Expired entries are dropped on read
// and by a sweep that runs on the first write after each sweep interval.
func NewTTLCache[K comparable, V any](opts ...Option) Cache[K, V] {
	o := options{now: time.Now, sweepEvery: defaultSweepInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return &ttlCache[K, V]{
		entries:    make(map[K]entry[V]),
		now:        o.now,
		sweepEvery: o.sweepEvery,
		nextSweep:  o.now().Add(o.sweepEvery),
	}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

func (c *ttlCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !now.Before(c.nextSweep) {
		c.sweep(now)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
}

// sweep drops every expired entry. Callers hold c.mu.
func (c *ttlCache[K, V]) sweep(now time.Time) {
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.nextSweep = now.Add(c.sweepEvery)
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
