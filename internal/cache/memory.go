package cache

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cutstock/engine/pkg/cuterr"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is the in-process reference cache backend: a mutex-guarded
// map swept for expired entries on a periodic ticker, with getOrSet
// collapsed through a singleflight group per key.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewMemory creates a Memory cache with a sweep goroutine running every
// sweepInterval (default 60s when zero).
func NewMemory(sweepInterval time.Duration) *Memory {
	if sweepInterval <= 0 {
		sweepInterval = 60 * time.Second
	}
	m := &Memory{
		entries:       make(map[string]entry),
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

func (m *Memory) sweepLoop() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) sweep() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
}

// Get returns the value for key; lazily evicts it if already expired.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if e.expired(time.Now()) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value under key with an optional TTL (zero means no expiry).
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

func (m *Memory) MGet(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok, _ := m.Get(ctx, k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *Memory) MSet(ctx context.Context, values map[string]string, ttl time.Duration) error {
	for k, v := range values {
		if err := m.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// DelPattern removes every key matching glob (path.Match syntax).
func (m *Memory) DelPattern(_ context.Context, glob string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if matched, err := path.Match(glob, k); err == nil && matched {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

func (m *Memory) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return 0, false, nil
	}
	if e.expiresAt.IsZero() {
		return 0, true, nil
	}
	return time.Until(e.expiresAt), true, nil
}

// Incr increments the integer value stored at key (default 0) and
// returns the new value.
func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[key]
	n, _ := strconv.ParseInt(e.value, 10, 64)
	n++
	e.value = strconv.FormatInt(n, 10)
	m.entries[key] = e
	return n, nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return cuterr.Newf(cuterr.ErrCacheUnavailable, "key %q not found", key)
	}
	e.expiresAt = time.Now().Add(ttl)
	m.entries[key] = e
	return nil
}

// GetOrSet guarantees at most one concurrent factory invocation per key
// across goroutines by routing misses through a singleflight group.
func (m *Memory) GetOrSet(ctx context.Context, key string, ttl time.Duration, factory Factory) (string, error) {
	if v, ok, _ := m.Get(ctx, key); ok {
		return v, nil
	}
	v, err, _ := m.group.Do(key, func() (any, error) {
		if v, ok, _ := m.Get(ctx, key); ok {
			return v, nil
		}
		built, err := factory(ctx)
		if err != nil {
			return "", err
		}
		if err := m.Set(ctx, key, built, ttl); err != nil {
			return "", err
		}
		return built, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Memory) Connected() bool { return true }

// Disconnect stops the sweep goroutine and clears all entries.
func (m *Memory) Disconnect(_ context.Context) error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}
