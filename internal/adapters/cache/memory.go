// Package cache provides read-through caches in front of the endpoint store.
package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 256

type entry struct {
	data      []byte
	expiresAt time.Time
}

type shard struct {
	mu    sync.RWMutex
	items map[string]entry
}

// MemoryCache is a sharded, thread-safe, in-memory response cache. Sharding
// minimizes lock contention during high-concurrency access.
type MemoryCache struct {
	shards [shardCount]*shard
}

// NewMemoryCache initializes the shards and starts the background
// expiration cleanup loop.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{}
	for i := 0; i < shardCount; i++ {
		c.shards[i] = &shard{items: make(map[string]entry)}
	}
	go c.cleanupLoop()
	return c
}

func (c *MemoryCache) getShard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key)) // #nosec G104
	return c.shards[h.Sum32()%shardCount]
}

// Get returns (nil, false) if the key is missing or expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	sh := c.getShard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	item, found := sh.items[key]
	if !found {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.data, true
}

func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) {
	sh := c.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.items[key] = entry{data: data, expiresAt: time.Now().Add(ttl)}
}

// Flush removes all items from all shards.
func (c *MemoryCache) Flush() {
	for i := 0; i < shardCount; i++ {
		sh := c.shards[i]
		sh.mu.Lock()
		sh.items = make(map[string]entry)
		sh.mu.Unlock()
	}
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		c.Cleanup()
	}
}

// Cleanup deletes items that have passed their expiration time.
func (c *MemoryCache) Cleanup() {
	now := time.Now()
	for i := 0; i < shardCount; i++ {
		sh := c.shards[i]
		sh.mu.Lock()
		for k, v := range sh.items {
			if now.After(v.expiresAt) {
				delete(sh.items, k)
			}
		}
		sh.mu.Unlock()
	}
}
