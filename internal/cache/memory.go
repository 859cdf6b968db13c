package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryClient is an in-process LRU cache with per-entry expiry.
type MemoryClient struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
	now      func() time.Time
}

type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryClient creates a cache holding at most capacity entries.
func NewMemoryClient(capacity int) *MemoryClient {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryClient{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
func (c *MemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	entry := elem.Value.(*cacheEntry)
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.lru.Remove(elem)
		delete(c.cache, key)
		return nil, ErrCacheMiss
	}
	c.lru.MoveToFront(elem)
	return entry.value, nil
}

// Set stores value for key, evicting the least recently used entry if at capacity.
func (c *MemoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		return nil
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value, expiresAt: expiresAt})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
	return nil
}

// Delete removes key.
func (c *MemoryClient) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.lru.Remove(elem)
		delete(c.cache, key)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryClient) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Close is a no-op.
func (c *MemoryClient) Close() error {
	return nil
}
