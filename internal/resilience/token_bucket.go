package resilience

import (
	"sync"
	"time"
)

// TokenBucketLimiter admits a request by spending one token from a
// per-key bucket of the given capacity, refilled continuously at
// refillPerSecond tokens/second.
type TokenBucketLimiter struct {
	mu              sync.Mutex
	buckets         map[string]*tokenBucketState
	capacity        float64
	refillPerSecond float64
}

type tokenBucketState struct {
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucketLimiter creates a limiter with capacity tokens and a
// refillPerSecond replenishment rate.
func NewTokenBucketLimiter(capacity, refillPerSecond float64) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		buckets:         make(map[string]*tokenBucketState),
		capacity:        capacity,
		refillPerSecond: refillPerSecond,
	}
}

func (l *TokenBucketLimiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	state, ok := l.buckets[key]
	if !ok {
		state = &tokenBucketState{tokens: l.capacity, lastRefill: now}
		l.buckets[key] = state
	}

	elapsed := now.Sub(state.lastRefill).Seconds()
	state.tokens = min(l.capacity, state.tokens+elapsed*l.refillPerSecond)
	state.lastRefill = now

	if state.tokens < 1 {
		deficit := 1 - state.tokens
		retryAfter := time.Duration(deficit/l.refillPerSecond*1000) * time.Millisecond
		return Decision{Allowed: false, Remaining: 0, ResetAt: now.Add(retryAfter), RetryAfter: retryAfter}
	}

	state.tokens--
	return Decision{Allowed: true, Remaining: int(state.tokens), ResetAt: now}
}
