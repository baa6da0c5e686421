// Package rediscache is the Redis cache driver for cache-backed token
// storage.
//
// An optional TinyLFU tier in front of Redis absorbs repeated reads of the
// same token within a process. Entries in that tier live for up to a minute
// and are not invalidated by writes from other processes, so a token revoked
// or rotated elsewhere can still be served locally until it ages out. The
// tier is off unless a positive local size is given.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"forrest/internal/storage"
)

const localTTL = time.Minute

// Cache is a Redis-backed storage.Cache.
type Cache struct {
	rdb  *redis.Client
	data *cache.Cache
}

var _ storage.Cache = (*Cache)(nil)

// New connects to redisURL and checks the connection. localSize bounds the
// in-process tier; zero or less disables it.
func New(ctx context.Context, redisURL string, localSize int) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewFromClient(ctx, redis.NewClient(opt), localSize)
}

// NewFromClient wraps an existing client.
func NewFromClient(ctx context.Context, rdb *redis.Client, localSize int) (*Cache, error) {
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return &Cache{rdb: rdb, data: cache.New(options(rdb, localSize))}, nil
}

func options(rdb *redis.Client, localSize int) *cache.Options {
	opts := &cache.Options{Redis: rdb}
	if localSize > 0 {
		opts.LocalCache = cache.NewTinyLFU(localSize, localTTL)
	}
	return opts
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := c.data.Get(ctx, key, &val)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   itemTTL(ttl),
	})
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.data.Delete(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// itemTTL maps a storage lifetime onto go-redis/cache, which reads a zero
// TTL as one hour and a negative one as no expiry.
func itemTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return -1
	}
	return ttl
}
