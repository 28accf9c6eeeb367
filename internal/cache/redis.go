package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/cutstock/engine/pkg/cuterr"
)

// Redis is the optional distributed cache backend, wrapping
// github.com/redis/go-redis/v9. getOrSet collapses same-process callers
// through a local singleflight group and cross-process callers through
// a short SET-NX lock held on the key.
type Redis struct {
	client *redis.Client
	group  singleflight.Group
}

// RedisConfig configures the distributed backend connection.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// NewRedis connects to Redis per cfg and verifies the connection with a
// Ping before returning.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// Stats mirrors the underlying client's pool statistics.
type Stats struct {
	Hits, Misses, Timeouts            uint32
	TotalConns, IdleConns, StaleConns uint32
}

// Stats returns the connection pool's current statistics.
func (r *Redis) Stats() Stats {
	s := r.client.PoolStats()
	return Stats{
		Hits: s.Hits, Misses: s.Misses, Timeouts: s.Timeouts,
		TotalConns: s.TotalConns, IdleConns: s.IdleConns, StaleConns: s.StaleConns,
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, cuterr.Wrap(cuterr.ErrCacheUnavailable, "redis get failed", err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return cuterr.Wrap(cuterr.ErrCacheUnavailable, "redis set failed", err)
	}
	return nil
}

func (r *Redis) MGet(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok, err := r.Get(ctx, k); err != nil {
			return nil, err
		} else if ok {
			out[k] = v
		}
	}
	return out, nil
}

func (r *Redis) MSet(ctx context.Context, entries map[string]string, ttl time.Duration) error {
	for k, v := range entries {
		if err := r.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (r *Redis) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return cuterr.Wrap(cuterr.ErrCacheUnavailable, "redis del failed", err)
	}
	return nil
}

// DelPattern scans for keys matching glob and deletes them.
func (r *Redis) DelPattern(ctx context.Context, glob string) error {
	iter := r.client.Scan(ctx, 0, glob, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return cuterr.Wrap(cuterr.ErrCacheUnavailable, "redis scan failed", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, cuterr.Wrap(cuterr.ErrCacheUnavailable, "redis exists failed", err)
	}
	return n > 0, nil
}

func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, cuterr.Wrap(cuterr.ErrCacheUnavailable, "redis ttl failed", err)
	}
	if d < 0 {
		return 0, false, nil
	}
	return d, true, nil
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, cuterr.Wrap(cuterr.ErrCacheUnavailable, "redis incr failed", err)
	}
	return n, nil
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return cuterr.Wrap(cuterr.ErrCacheUnavailable, "redis expire failed", err)
	}
	return nil
}

// GetOrSet collapses same-process concurrent builders through
// singleflight, then (for the one goroutine that proceeds) holds a
// short-lived Redis lock so only one process across the fleet runs the
// factory for a given key at a time.
func (r *Redis) GetOrSet(ctx context.Context, key string, ttl time.Duration, factory Factory) (string, error) {
	if v, ok, err := r.Get(ctx, key); err != nil {
		return "", err
	} else if ok {
		return v, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok, err := r.Get(ctx, key); err != nil {
			return "", err
		} else if ok {
			return v, nil
		}

		lockKey := key + ":lock"
		acquired, err := r.client.SetNX(ctx, lockKey, "1", 10*time.Second).Result()
		if err != nil {
			return "", cuterr.Wrap(cuterr.ErrCacheUnavailable, "redis lock failed", err)
		}
		if !acquired {
			return pollForValue(ctx, r, key)
		}
		defer r.client.Del(context.Background(), lockKey)

		built, err := factory(ctx)
		if err != nil {
			return "", err
		}
		if err := r.Set(ctx, key, built, ttl); err != nil {
			return "", err
		}
		return built, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func pollForValue(ctx context.Context, r *Redis, key string) (string, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if v, ok, err := r.Get(ctx, key); err != nil {
			return "", err
		} else if ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Redis) Connected() bool {
	return r.client.Ping(context.Background()).Err() == nil
}

func (r *Redis) Disconnect(_ context.Context) error {
	return r.client.Close()
}
