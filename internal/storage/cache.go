package storage

import (
	"context"
	"fmt"
	"time"
)

// Cache is the shared cache a CacheStorage writes through.
// A zero ttl stores the value without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheStorage is the cache-backed Handle.
type CacheStorage struct {
	path  string
	cache Cache
	ttl   time.Duration
}

var _ Handle = (*CacheStorage)(nil)

// NewCacheStorage creates a cache-backed handle. path prefixes every key and
// ttl bounds the lifetime of every value (zero keeps values forever).
func NewCacheStorage(path string, cache Cache, ttl time.Duration) *CacheStorage {
	return &CacheStorage{
		path:  path,
		cache: cache,
		ttl:   ttl,
	}
}

// Path returns the key prefix.
func (c *CacheStorage) Path() string {
	return c.path
}

// TTL returns the lifetime applied to stored values.
func (c *CacheStorage) TTL() time.Duration {
	return c.ttl
}

func (c *CacheStorage) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok, err := c.cache.Get(ctx, c.path+key)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if !ok {
		return nil, missing(key)
	}
	return value, nil
}

func (c *CacheStorage) Put(ctx context.Context, key string, value []byte) error {
	if err := c.cache.Set(ctx, c.path+key, value, c.ttl); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

func (c *CacheStorage) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := c.cache.Get(ctx, c.path+key)
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return ok, nil
}

func (c *CacheStorage) Forget(ctx context.Context, key string) error {
	if err := c.cache.Delete(ctx, c.path+key); err != nil {
		return fmt.Errorf("failed to remove cache key %s: %w", key, err)
	}
	return nil
}
