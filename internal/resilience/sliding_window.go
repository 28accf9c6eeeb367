package resilience

import (
	"sync"
	"time"
)

// SlidingWindowLimiter tracks a sorted list of recent request timestamps
// per key and admits a request only if fewer than limit fall within the
// trailing window.
type SlidingWindowLimiter struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	limit     int
	window    time.Duration
	nowFunc   func() time.Time
}

// NewSlidingWindowLimiter allows limit requests per trailing window per key.
func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		hits:    make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		nowFunc: time.Now,
	}
}

func (l *SlidingWindowLimiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	cutoff := now.Add(-l.window)

	timestamps := l.hits[key]
	kept := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		oldest := kept[0]
		resetAt := oldest.Add(l.window)
		l.hits[key] = kept
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt, RetryAfter: resetAt.Sub(now)}
	}

	kept = append(kept, now)
	l.hits[key] = kept
	return Decision{Allowed: true, Remaining: l.limit - len(kept), ResetAt: now.Add(l.window)}
}
