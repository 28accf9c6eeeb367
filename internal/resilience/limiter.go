// Package resilience implements the circuit breaker and rate limiters
// that wrap calls to external predictors and caches.
package resilience

import "time"

// Decision is the uniform result shape every rate limiter returns.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter is the capability interface for rate-limiting calls to
// external dependencies, satisfied by all three algorithms.
type Limiter interface {
	Allow(key string) Decision
}
