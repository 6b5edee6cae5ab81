package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader is a get-or-fetch-with-expiry front for a string keyed cache.
// Concurrent misses for one key share a single fetch. Failed fetches are not cached.
type Loader[V any] struct {
	cache Cache[string, V]
	ttl   time.Duration
	group singleflight.Group
}

func NewLoader[V any](c Cache[string, V], ttl time.Duration) *Loader[V] {
	return &Loader[V]{cache: c, ttl: ttl}
}

func (l *Loader[V]) Get(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if value, ok := l.cache.Get(key); ok {
		return value, nil
	}

	result, err, _ := l.group.Do(key, func() (interface{}, error) {
		if value, ok := l.cache.Get(key); ok {
			return value, nil
		}
		value, err := fetch(ctx)
		if err != nil {
			return value, err
		}
		l.cache.Set(key, value, l.ttl)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Invalidate drops key so the next Get fetches again.
func (l *Loader[V]) Invalidate(key string) {
	l.cache.Delete(key)
}
