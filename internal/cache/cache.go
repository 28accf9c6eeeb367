// Package cache implements the engine's keyed-fingerprint cache: an
// in-memory reference backend with TTL sweeping, and an optional
// Redis-backed distributed backend, both satisfying a single Cache
// interface with an at-most-one-concurrent-build getOrSet.
package cache

import (
	"context"
	"time"
)

// Factory builds the value for a cache miss inside getOrSet.
type Factory func(ctx context.Context) (string, error)

// Cache is the keyed-fingerprint cache contract every backend satisfies.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	MGet(ctx context.Context, keys []string) (map[string]string, error)
	MSet(ctx context.Context, entries map[string]string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	DelPattern(ctx context.Context, glob string) error
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	GetOrSet(ctx context.Context, key string, ttl time.Duration, factory Factory) (string, error)
	Connected() bool
	Disconnect(ctx context.Context) error
}
