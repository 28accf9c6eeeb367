package resilience

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cutstock/engine/pkg/cuterr"
)

// State is one of the breaker's three lifecycle states.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// BreakerConfig configures the breaker's thresholds, with spec defaults.
type BreakerConfig struct {
	Timeout                  time.Duration
	ErrorThresholdPercentage int
	ResetTimeout             time.Duration
	VolumeThreshold          int
}

// DefaultBreakerConfig returns the spec-mandated defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Timeout: 30 * time.Second, ErrorThresholdPercentage: 50, ResetTimeout: 10 * time.Second, VolumeThreshold: 5}
}

// Breaker wraps calls to external predictors/caches with a
// CLOSED->OPEN->HALF_OPEN->CLOSED state machine. The HALF_OPEN probe's
// retry timing is scheduled with an exponential backoff policy rather
// than a hand-rolled timer.
type Breaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       State
	requests    int
	failures    int
	openedAt    time.Time
	nextProbeAt time.Time
	boff        backoff.BackOff
}

// NewBreaker creates a breaker in the CLOSED state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Timeout <= 0 {
		cfg = DefaultBreakerConfig()
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.ResetTimeout
	eb.MaxInterval = cfg.ResetTimeout * 4
	eb.MaxElapsedTime = 0
	return &Breaker{cfg: cfg, state: StateClosed, boff: eb}
}

// Allow reports whether a call may proceed, transitioning OPEN->HALF_OPEN
// once the next scheduled probe time has arrived.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Now().After(b.nextProbeAt) {
			b.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return true
	}
}

// Success records a successful call, closing the breaker if it was
// probing in HALF_OPEN.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.reset()
		return
	}
	b.requests++
}

// Failure records a failed call, tripping the breaker to OPEN once the
// volume threshold and error-rate threshold are both reached, or
// immediately re-opening from HALF_OPEN.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.trip()
		return
	}

	b.requests++
	b.failures++
	if b.requests < b.cfg.VolumeThreshold {
		return
	}
	if pct := b.failures * 100 / b.requests; pct >= b.cfg.ErrorThresholdPercentage {
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = time.Now()
	b.nextProbeAt = b.openedAt.Add(b.boff.NextBackOff())
}

func (b *Breaker) reset() {
	b.state = StateClosed
	b.requests = 0
	b.failures = 0
	b.boff.Reset()
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call runs fn if the breaker allows it, recording success/failure, and
// returns ERR_BREAKER_OPEN without calling fn otherwise.
func (b *Breaker) Call(fn func() error) error {
	if !b.Allow() {
		return cuterr.New(cuterr.ErrBreakerOpen, "circuit breaker is open")
	}
	if err := fn(); err != nil {
		b.Failure()
		return err
	}
	b.Success()
	return nil
}
