package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(RedisConfig{URL: fmt.Sprintf("redis://%s/0", mr.Addr())})
	require.NoError(t, err)
	t.Cleanup(func() { r.Disconnect(context.Background()) })
	return r
}

func TestRedis_SetGetRoundTrip(t *testing.T) {
	r := newTestRedis(t)
	require.NoError(t, r.Set(context.Background(), "k", "v", 0))

	v, ok, err := r.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestRedis_GetMissReturnsFalseNotError(t *testing.T) {
	r := newTestRedis(t)
	_, ok, err := r.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedis_DelPatternMatchesGlob(t *testing.T) {
	r := newTestRedis(t)
	require.NoError(t, r.Set(context.Background(), "plan:1", "a", 0))
	require.NoError(t, r.Set(context.Background(), "plan:2", "b", 0))
	require.NoError(t, r.Set(context.Background(), "scenario:1", "c", 0))

	require.NoError(t, r.DelPattern(context.Background(), "plan:*"))

	_, ok, _ := r.Get(context.Background(), "plan:1")
	require.False(t, ok)
	_, ok, _ = r.Get(context.Background(), "scenario:1")
	require.True(t, ok)
}

func TestRedis_GetOrSetBuildsOnceAndCaches(t *testing.T) {
	r := newTestRedis(t)
	calls := 0
	factory := func(ctx context.Context) (string, error) {
		calls++
		return "built", nil
	}

	v1, err := r.GetOrSet(context.Background(), "k", time.Minute, factory)
	require.NoError(t, err)
	require.Equal(t, "built", v1)

	v2, err := r.GetOrSet(context.Background(), "k", time.Minute, factory)
	require.NoError(t, err)
	require.Equal(t, "built", v2)
	require.Equal(t, 1, calls, "factory must not rerun once the value is cached")
}

func TestRedis_Connected(t *testing.T) {
	r := newTestRedis(t)
	require.True(t, r.Connected())
	require.NoError(t, r.Disconnect(context.Background()))
}
