package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/cutstock/engine/internal/platform/logger"
)

// Handler is notified of every event whose type it subscribed to.
// An error is logged but never aborts sibling handlers or the publisher.
type Handler func(ctx context.Context, event Event) error

type registration struct {
	name    string
	handler Handler
}

// Bus is the process-wide, owned event dispatcher: a subscriber table
// plus a bounded ring buffer of recently published events.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	logger   *logger.Logger

	ringMu sync.Mutex
	ring   []Event
	head   int
	size   int
}

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithLogger attaches a logger used to report handler failures/panics.
func WithLogger(l *logger.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithRingSize sets the ring buffer's retained-event capacity (default 1000).
func WithRingSize(n int) Option {
	return func(b *Bus) { b.ring = make([]Event, n) }
}

// New creates a Bus with the default ring size of 1000.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[string][]registration),
		ring:     make([]Event, 1000),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler under name for eventType, rejecting a
// duplicate name for the same type.
func (b *Bus) Subscribe(eventType, name string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.handlers[eventType] {
		if r.name == name {
			return fmt.Errorf("handler %q already subscribed to %q", name, eventType)
		}
	}
	b.handlers[eventType] = append(b.handlers[eventType], registration{name: name, handler: handler})
	return nil
}

// Unsubscribe removes the named handler from eventType, if present.
func (b *Bus) Unsubscribe(eventType, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.handlers[eventType]
	for i, r := range regs {
		if r.name == name {
			b.handlers[eventType] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Publish invokes every handler registered for event.EventType
// concurrently and records the event in the ring buffer. It never
// blocks on handler execution and never propagates handler errors.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	regs := append([]registration(nil), b.handlers[event.EventType]...)
	b.mu.RUnlock()

	b.record(event)

	for _, r := range regs {
		go b.dispatch(ctx, r, event)
	}
}

func (b *Bus) dispatch(ctx context.Context, r registration, event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			if b.logger != nil {
				b.logger.ErrorContext(ctx, "event handler panic recovered",
					"handler", r.name, "event_type", event.EventType, "panic", rec)
			}
		}
	}()
	if err := r.handler(ctx, event); err != nil {
		if b.logger != nil {
			b.logger.ErrorContext(ctx, "event handler failed",
				"handler", r.name, "event_type", event.EventType, "error", err)
		}
	}
}

func (b *Bus) record(event Event) {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()
	if len(b.ring) == 0 {
		return
	}
	b.ring[b.head] = event
	b.head = (b.head + 1) % len(b.ring)
	if b.size < len(b.ring) {
		b.size++
	}
}

// Recent returns a copy of the ring buffer's retained events, oldest
// first.
func (b *Bus) Recent() []Event {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()
	out := make([]Event, 0, b.size)
	if b.size < len(b.ring) {
		out = append(out, b.ring[:b.size]...)
		return out
	}
	out = append(out, b.ring[b.head:]...)
	out = append(out, b.ring[:b.head]...)
	return out
}

// HandlerCount returns the number of handlers subscribed to eventType.
func (b *Bus) HandlerCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
