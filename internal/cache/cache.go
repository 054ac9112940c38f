// Package cache is a small read-through cache keyed by collection name.
// It replaces ambient module-level snapshots of rarely-changing
// collections (roles, members) with an explicit handle whose staleness
// window and invalidation are controlled by the owner.
package cache

import (
	"context"
	"sync"
	"time"
)

// LoadFunc fetches the collection from the backing store on a miss.
type LoadFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	fetchedAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*entry
	// onInvalidate, when set, runs after every explicit invalidation.
	onInvalidate func(collection string)
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]*entry),
	}
}

// SetInvalidationCallback registers a hook fired on Invalidate. Used by
// the change broker to fan collection invalidations out to subscribers.
func (c *Cache) SetInvalidationCallback(fn func(collection string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInvalidate = fn
}

// Get returns the cached value for collection, loading it through load
// when missing or older than the TTL.
func (c *Cache) Get(ctx context.Context, collection string, load LoadFunc) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[collection]
	if ok && time.Since(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := load(ctx)
	if err != nil {
		// Serve the stale entry rather than failing the read outright.
		if ok {
			return e.value, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[collection] = &entry{value: value, fetchedAt: time.Now()}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops the cached collection so the next Get reloads it.
func (c *Cache) Invalidate(collection string) {
	c.mu.Lock()
	delete(c.entries, collection)
	fn := c.onInvalidate
	c.mu.Unlock()

	if fn != nil {
		fn(collection)
	}
}
