// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cache stores serialized lint reports keyed by document hash.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
)

// Backend labels.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNoop   = "noop"
)

// Cache provides thread-safe byte caching with expiration support.
type Cache interface {
	// Get returns the value and true on a hit. Backend failures count as misses.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores a copy of value for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// Clear removes every entry this cache owns.
	Clear(ctx context.Context)
	Stats() CacheStats
	// Backend names the implementation for metrics and health output.
	Backend() string
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Evictions   int64 `json:"evictions"`
	CurrentSize int   `json:"current_size"`
}

// ReportKey derives the cache key for a document and the options it was
// linted with.
func ReportKey(data []byte, variant string) string {
	h := sha256.New()
	h.Write([]byte(variant))
	h.Write([]byte{0})
	h.Write(data)
	return "report:" + hex.EncodeToString(h.Sum(nil))
}

func record(backend string, hit bool) {
	if hit {
		metrics.IncCacheRequest(backend, "hit")
	} else {
		metrics.IncCacheRequest(backend, "miss")
	}
}

type entry struct {
	value      []byte
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// MemoryCache is the in-process Cache with a background janitor.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	stats   CacheStats
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMemoryCache creates a cache whose janitor removes expired entries every
// cleanupInterval. A zero interval disables the janitor; expired entries are
// then dropped lazily on Get.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

func (c *MemoryCache) Backend() string { return BackendMemory }

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if found && e.isExpired(c.now()) {
		delete(c.entries, key)
		c.stats.Evictions++
		found = false
	}
	if !found {
		c.stats.Misses++
		record(BackendMemory, false)
		return nil, false
	}

	c.stats.Hits++
	record(BackendMemory, true)
	return append([]byte(nil), e.value...), true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		value:      append([]byte(nil), value...),
		expiration: c.now().Add(ttl),
	}
	c.stats.Sets++
}

func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *MemoryCache) Clear(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

// deleteExpired returns the number of entries removed.
func (c *MemoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if e.isExpired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	return count
}

// Close stops the janitor and waits for it to exit. Safe to call twice.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

func (c *MemoryCache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

type noOpCache struct{}

// NewNoOpCache returns a cache that never stores anything.
func NewNoOpCache() Cache { return noOpCache{} }

func (noOpCache) Get(context.Context, string) ([]byte, bool) {
	record(BackendNoop, false)
	return nil, false
}
func (noOpCache) Set(context.Context, string, []byte, time.Duration) {}
func (noOpCache) Delete(context.Context, string)                     {}
func (noOpCache) Clear(context.Context)                              {}
func (noOpCache) Stats() CacheStats                                  { return CacheStats{} }
func (noOpCache) Backend() string                                    { return BackendNoop }
