// Package rediscache implements cache.ProgressCache on top of go-redis v9,
// mirroring the teacher's GoRedisAdapter/RedisHubStore indirection: the
// domain package (internal/cache) only sees a minimal interface, and this
// package wires the concrete driver in behind it.
package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a go-redis client as a cache.ProgressCache.
type Cache struct {
	rdb *redis.Client
}

// New connects to addr and verifies it with a ping.
func New(addr, password string, db int) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("rediscache: ping %s: %w", addr, err)
	}
	return &Cache{rdb: rdb}, nil
}

// Close shuts down the underlying client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Set publishes value under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}
