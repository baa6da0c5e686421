// Package memorycache is the in-process cache driver for cache-backed token
// storage: a bounded LRU whose items may carry their own expiry.
package memorycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"forrest/internal/storage"
	"forrest/pkg/logging"
)

const defaultCleanupInterval = 5 * time.Minute

type item struct {
	data      []byte
	expiresAt time.Time
}

func (i *item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Cache is a size-bounded in-memory storage.Cache.
type Cache struct {
	mu    sync.Mutex
	items *lru.Cache[string, *item]

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once

	now func() time.Time
}

var _ storage.Cache = (*Cache)(nil)

// New creates a memory cache holding at most size items and starts the
// background janitor that evicts expired ones.
func New(size int) (*Cache, error) {
	items, err := lru.New[string, *item](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	c := &Cache{
		items:           items,
		cleanupInterval: defaultCleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go c.cleanupLoop()

	return c, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	if it.expired(c.now()) {
		c.items.Remove(key)
		return nil, false, nil
	}

	out := make([]byte, len(it.data))
	copy(out, it.data)
	return out, true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := &item{data: make([]byte, len(value))}
	copy(it.data, value)
	if ttl > 0 {
		it.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items.Add(key, it)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	c.items.Remove(key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of items held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// Close stops the janitor and drops every item.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCleanup) })

	c.mu.Lock()
	c.items.Purge()
	c.mu.Unlock()
	return nil
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

// cleanup removes every expired item.
func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.items.Keys() {
		if it, ok := c.items.Peek(key); ok && it.expired(now) {
			c.items.Remove(key)
			removed++
		}
	}
	if removed > 0 {
		logging.Debug("Storage", "Evicted %d expired cache items", removed)
	}
}
