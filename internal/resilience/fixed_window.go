package resilience

import (
	"sync"
	"time"
)

// FixedWindowLimiter buckets requests into fixed-size time windows and
// counts per key, grounded in the teacher's rest.RateLimiter: a mutex-
// guarded map of per-client counters with a periodic cleanup goroutine.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	clients map[string]*fixedWindowState
	limit   int
	window  time.Duration
	stop    chan struct{}
	once    sync.Once
}

type fixedWindowState struct {
	count      int
	windowOpen time.Time
}

// NewFixedWindowLimiter allows limit requests per window per key.
func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowLimiter {
	l := &FixedWindowLimiter{
		clients: make(map[string]*fixedWindowState),
		limit:   limit,
		window:  window,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *FixedWindowLimiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	state, ok := l.clients[key]
	if !ok || now.Sub(state.windowOpen) > l.window {
		state = &fixedWindowState{count: 0, windowOpen: now}
		l.clients[key] = state
	}

	resetAt := state.windowOpen.Add(l.window)
	if state.count >= l.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt, RetryAfter: time.Until(resetAt)}
	}
	state.count++
	return Decision{Allowed: true, Remaining: l.limit - state.count, ResetAt: resetAt}
}

func (l *FixedWindowLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, state := range l.clients {
				if now.Sub(state.windowOpen) > l.window {
					delete(l.clients, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Stop halts the cleanup goroutine.
func (l *FixedWindowLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
