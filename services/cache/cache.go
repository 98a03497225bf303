// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides a bounded TTL key-value cache for memoizing
// derived AI responses.
//
// # Description
//
// Entries expire lazily: an entry older than the configured TTL is treated
// as absent on read and replaced on the next write. Memory is bounded by
// an LRU eviction policy so the cache cannot grow without limit between
// process restarts.
//
// # Thread Safety
//
// Safe for concurrent use. The entry map is protected by sync.RWMutex and
// concurrent computations for the same key are deduplicated with
// singleflight.Group.
package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Options configures a Cache.
type Options struct {
	// MaxEntries is the maximum number of cached values.
	// Default: 1000
	MaxEntries int

	// TTL is the maximum age of a cached value.
	// Default: 5 minutes
	TTL time.Duration

	// Now supplies the current time. Tests inject a fake clock here.
	// Default: time.Now
	Now func() time.Time
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxEntries: 1000,
		TTL:        5 * time.Minute,
		Now:        time.Now,
	}
}

// Option is a functional option for configuring a Cache.
type Option func(*Options)

// WithMaxEntries sets the maximum number of cached entries.
func WithMaxEntries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxEntries = n
		}
	}
}

// WithTTL sets the maximum age of cached entries.
func WithTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.TTL = d
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Now = now
		}
	}
}

// entry is a single cached value plus its insertion timestamp.
type entry[V any] struct {
	key             string
	value           V
	insertedAtMilli int64
	lruElement      *list.Element
}

// Cache is a TTL + LRU bounded key-value cache.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	lru     *list.List
	flight  singleflight.Group
	options Options

	// Stats
	hits      int64
	misses    int64
	evictions int64
	computes  int64
}

// New creates a Cache with the given options.
func New[V any](opts ...Option) *Cache[V] {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		lru:     list.New(),
		options: options,
	}
}

// Get returns the cached value for key, or false when the key is absent
// or its entry has aged past the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.RLock()
	ent, ok := c.entries[key]
	if !ok {
		c.mu.RUnlock()
		atomic.AddInt64(&c.misses, 1)
		return zero, false
	}
	if c.isExpired(ent) {
		c.mu.RUnlock()
		c.remove(key)
		atomic.AddInt64(&c.misses, 1)
		return zero, false
	}
	value := ent.value
	c.mu.RUnlock()

	c.touch(ent)
	atomic.AddInt64(&c.hits, 1)
	return value, true
}

// Set stores value under key, overwriting any previous entry and resetting
// its insertion timestamp. The stored value is returned so call sites can
// cache and respond in one expression.
func (c *Cache[V]) Set(key string, value V) V {
	now := c.options.Now().UnixMilli()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		ent.value = value
		ent.insertedAtMilli = now
		c.lru.MoveToFront(ent.lruElement)
		return value
	}

	c.evictIfNeededLocked()

	ent := &entry[V]{key: key, value: value, insertedAtMilli: now}
	ent.lruElement = c.lru.PushFront(key)
	c.entries[key] = ent
	return value
}

// GetOrCompute returns the cached value for key, computing and caching it
// when absent or expired.
//
// # Description
//
// Uses singleflight to deduplicate concurrent computations for the same
// key: when several goroutines miss simultaneously only one compute runs
// and all waiters receive its result. Compute errors are not cached.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	result, err, _ := c.flight.Do(key, func() (interface{}, error) {
		// Double-check: another waiter may have populated the entry.
		if value, ok := c.Get(key); ok {
			return value, nil
		}
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		atomic.AddInt64(&c.computes, 1)
		return c.Set(key, value), nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Len returns the number of entries currently held, including entries that
// have expired but not yet been observed by a read.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Computes  int64 `json:"computes"`
	Entries   int   `json:"entries"`
}

// Stats returns current cache counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
		Computes:  atomic.LoadInt64(&c.computes),
		Entries:   c.Len(),
	}
}

// isExpired reports whether an entry has aged past the TTL.
// Callers must hold at least a read lock.
func (c *Cache[V]) isExpired(ent *entry[V]) bool {
	if c.options.TTL == 0 {
		return false
	}
	age := c.options.Now().Sub(time.UnixMilli(ent.insertedAtMilli))
	return age >= c.options.TTL
}

// touch moves an entry to the front of the LRU list.
func (c *Cache[V]) touch(ent *entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ent.lruElement != nil {
		c.lru.MoveToFront(ent.lruElement)
	}
}

// remove deletes an entry by key.
func (c *Cache[V]) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	if !ok {
		return
	}
	if ent.lruElement != nil {
		c.lru.Remove(ent.lruElement)
	}
	delete(c.entries, key)
}

// evictIfNeededLocked drops least-recently-used entries until there is room
// for one more. Callers must hold the write lock.
func (c *Cache[V]) evictIfNeededLocked() {
	for len(c.entries) >= c.options.MaxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			return
		}
		key := oldest.Value.(string)
		c.lru.Remove(oldest)
		delete(c.entries, key)
		atomic.AddInt64(&c.evictions, 1)
	}
}
