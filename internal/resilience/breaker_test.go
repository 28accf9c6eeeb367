package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cutstock/engine/pkg/cuterr"
)

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{Timeout: time.Second, ErrorThresholdPercentage: 50, ResetTimeout: 20 * time.Millisecond, VolumeThreshold: 4}
}

func TestBreaker_StartsClosed(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	require.Equal(t, StateClosed, b.State())
	require.True(t, b.Allow())
}

func TestBreaker_TripsOpenAboveVolumeAndErrorThreshold(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	for i := 0; i < 4; i++ {
		b.Failure()
	}
	require.Equal(t, StateOpen, b.State())
	require.False(t, b.Allow())
}

func TestBreaker_StaysClosedBelowVolumeThreshold(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	b.Failure()
	b.Failure()
	require.Equal(t, StateClosed, b.State())
}

func TestBreaker_StaysClosedWhenErrorRateBelowThreshold(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	b.Success()
	b.Success()
	b.Success()
	b.Failure()
	require.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	for i := 0; i < 4; i++ {
		b.Failure()
	}
	require.Equal(t, StateOpen, b.State())

	time.Sleep(40 * time.Millisecond)
	require.True(t, b.Allow())
	require.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	for i := 0; i < 4; i++ {
		b.Failure()
	}
	time.Sleep(40 * time.Millisecond)
	require.True(t, b.Allow())
	b.Success()
	require.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	for i := 0; i < 4; i++ {
		b.Failure()
	}
	time.Sleep(40 * time.Millisecond)
	require.True(t, b.Allow())
	b.Failure()
	require.Equal(t, StateOpen, b.State())
}

func TestBreaker_CallReturnsBreakerOpenWithoutInvokingFn(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	for i := 0; i < 4; i++ {
		b.Failure()
	}

	called := false
	err := b.Call(func() error {
		called = true
		return nil
	})
	require.False(t, called)
	require.True(t, cuterr.Is(err, cuterr.ErrBreakerOpen))
}

func TestBreaker_CallRecordsFailureOnError(t *testing.T) {
	b := NewBreaker(testBreakerConfig())
	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Call(func() error { return boom }), boom)
	}
	require.Equal(t, StateClosed, b.State())
	require.ErrorIs(t, b.Call(func() error { return boom }), boom)
	require.Equal(t, StateOpen, b.State())
}
