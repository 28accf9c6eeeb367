package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetRoundTrip(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Disconnect(context.Background())

	require.NoError(t, m.Set(context.Background(), "k", "v", 0))
	v, ok, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestMemory_GetExpiresOnTTL(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Disconnect(context.Background())

	require.NoError(t, m.Set(context.Background(), "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok, "expired entries must not be returned")
}

func TestMemory_DelPatternMatchesGlob(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Disconnect(context.Background())

	require.NoError(t, m.Set(context.Background(), "plan:1", "a", 0))
	require.NoError(t, m.Set(context.Background(), "plan:2", "b", 0))
	require.NoError(t, m.Set(context.Background(), "scenario:1", "c", 0))

	require.NoError(t, m.DelPattern(context.Background(), "plan:*"))

	_, ok, _ := m.Get(context.Background(), "plan:1")
	require.False(t, ok)
	_, ok, _ = m.Get(context.Background(), "scenario:1")
	require.True(t, ok)
}

func TestMemory_IncrStartsAtZero(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Disconnect(context.Background())

	n, err := m.Incr(context.Background(), "counter")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = m.Incr(context.Background(), "counter")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestMemory_GetOrSetBuildsAtMostOnceUnderConcurrency(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Disconnect(context.Background())

	var builds int64
	factory := func(ctx context.Context) (string, error) {
		atomic.AddInt64(&builds, 1)
		time.Sleep(20 * time.Millisecond)
		return "built", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := m.GetOrSet(context.Background(), "shared-key", time.Minute, factory)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(1), atomic.LoadInt64(&builds), "factory must run at most once across concurrent callers")
	for _, r := range results {
		require.Equal(t, "built", r)
	}
}

func TestMemory_DisconnectClearsEntries(t *testing.T) {
	m := NewMemory(time.Minute)
	require.NoError(t, m.Set(context.Background(), "k", "v", 0))
	require.NoError(t, m.Disconnect(context.Background()))

	_, ok, _ := m.Get(context.Background(), "k")
	require.False(t, ok)
}
