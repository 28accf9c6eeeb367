package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBus_PublishFansOutToAllHandlersNonBlocking(t *testing.T) {
	b := New()
	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	track := func(name string) Handler {
		return func(ctx context.Context, e Event) error {
			defer wg.Done()
			mu.Lock()
			seen[name] = true
			mu.Unlock()
			return nil
		}
	}
	require.NoError(t, b.Subscribe(EventPlanCreated, "a", track("a")))
	require.NoError(t, b.Subscribe(EventPlanCreated, "b", track("b")))

	start := time.Now()
	b.Publish(context.Background(), Event{EventType: EventPlanCreated})
	require.Less(t, time.Since(start), 50*time.Millisecond, "Publish must not block on handler execution")

	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handlers to run")
	}

	mu.Lock()
	defer mu.Unlock()
	require.True(t, seen["a"])
	require.True(t, seen["b"])
}

func TestBus_SubscribeRejectsDuplicateName(t *testing.T) {
	b := New()
	require.NoError(t, b.Subscribe(EventPlanCreated, "x", func(context.Context, Event) error { return nil }))
	err := b.Subscribe(EventPlanCreated, "x", func(context.Context, Event) error { return nil })
	require.Error(t, err)
}

func TestBus_UnsubscribeRemovesHandler(t *testing.T) {
	b := New()
	require.NoError(t, b.Subscribe(EventPlanCreated, "x", func(context.Context, Event) error { return nil }))
	require.Equal(t, 1, b.HandlerCount(EventPlanCreated))
	b.Unsubscribe(EventPlanCreated, "x")
	require.Equal(t, 0, b.HandlerCount(EventPlanCreated))
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	b := New()
	done := make(chan struct{})
	require.NoError(t, b.Subscribe(EventPlanCreated, "panicker", func(context.Context, Event) error {
		defer close(done)
		panic("boom")
	}))

	require.NotPanics(t, func() {
		b.Publish(context.Background(), Event{EventType: EventPlanCreated})
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}

func TestBus_HandlerErrorDoesNotAbortSiblings(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	wg.Add(2)
	ran := make(map[string]bool)
	var mu sync.Mutex

	require.NoError(t, b.Subscribe(EventPlanCreated, "failing", func(context.Context, Event) error {
		defer wg.Done()
		mu.Lock()
		ran["failing"] = true
		mu.Unlock()
		return errors.New("nope")
	}))
	require.NoError(t, b.Subscribe(EventPlanCreated, "ok", func(context.Context, Event) error {
		defer wg.Done()
		mu.Lock()
		ran["ok"] = true
		mu.Unlock()
		return nil
	}))

	b.Publish(context.Background(), Event{EventType: EventPlanCreated})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.True(t, ran["failing"])
	require.True(t, ran["ok"])
}

func TestBus_RecentReturnsEventsOldestFirst(t *testing.T) {
	b := New(WithRingSize(2))
	b.Publish(context.Background(), Event{EventType: "e1"})
	b.Publish(context.Background(), Event{EventType: "e2"})
	b.Publish(context.Background(), Event{EventType: "e3"})

	recent := b.Recent()
	require.Len(t, recent, 2)
	require.Equal(t, "e2", recent[0].EventType)
	require.Equal(t, "e3", recent[1].EventType)
}
