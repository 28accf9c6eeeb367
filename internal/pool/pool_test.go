package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cutstock/engine/internal/platform/logger"
	"github.com/cutstock/engine/pkg/models"
)

func testLogger() *logger.Logger { return logger.New(logger.Config{Level: "error"}) }

func testPool() *Pool {
	return New(Config{MinThreads: 1, MaxThreads: 2, MaxQueue: 4}, testLogger())
}

func TestPool_SubmitRunsAndReturnsResult(t *testing.T) {
	p := testPool()
	defer p.Shutdown(time.Second)

	h, err := p.Submit(models.TaskType1D, 0, func(ctx context.Context, report func(float64)) (any, error) {
		return 42, nil
	}, nil)
	require.NoError(t, err)

	result, err := h.Result(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, result)
}

func TestPool_SubmitPropagatesFuncError(t *testing.T) {
	p := testPool()
	defer p.Shutdown(time.Second)

	boom := errors.New("boom")
	h, err := p.Submit(models.TaskType1D, 0, func(ctx context.Context, report func(float64)) (any, error) {
		return nil, boom
	}, nil)
	require.NoError(t, err)

	_, resultErr := h.Result(context.Background())
	require.ErrorIs(t, resultErr, boom)
}

func TestPool_CancelBeforeTerminalMovesToCancelled(t *testing.T) {
	p := testPool()
	defer p.Shutdown(time.Second)

	release := make(chan struct{})
	var progressed []models.TaskPhase
	h, err := p.Submit(models.TaskType1D, 0, func(ctx context.Context, report func(float64)) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, func(tp models.TaskProgress) {
		progressed = append(progressed, tp.Phase)
		if tp.Phase == models.PhaseRunning {
			close(release)
		}
	})
	require.NoError(t, err)

	<-release
	h.Cancel()
	<-h.Done()

	require.Contains(t, progressed, models.PhaseCancelled)
}

func TestPool_CancelAfterTerminalIsNoOp(t *testing.T) {
	p := testPool()
	defer p.Shutdown(time.Second)

	h, err := p.Submit(models.TaskType1D, 0, func(ctx context.Context, report func(float64)) (any, error) {
		return "done", nil
	}, nil)
	require.NoError(t, err)
	<-h.Done()

	require.NotPanics(t, func() { h.Cancel() })
	result, resultErr := h.Result(context.Background())
	require.NoError(t, resultErr)
	require.Equal(t, "done", result)
}

func TestPool_TimeoutDistinctFromCancel(t *testing.T) {
	p := testPool()
	defer p.Shutdown(time.Second)

	done := make(chan models.TaskPhase, 1)
	_, err := p.Submit(models.TaskType1D, 20*time.Millisecond, func(ctx context.Context, report func(float64)) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, func(tp models.TaskProgress) {
		if tp.Phase.Terminal() {
			select {
			case done <- tp.Phase:
			default:
			}
		}
	})
	require.NoError(t, err)

	select {
	case phase := <-done:
		require.Equal(t, models.PhaseTimeout, phase)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for task to reach a terminal phase")
	}
}

func TestPool_QueueFullFailsFast(t *testing.T) {
	p := New(Config{MinThreads: 1, MaxThreads: 1, MaxQueue: 1}, testLogger())
	defer p.Shutdown(time.Second)

	block := make(chan struct{})
	started := make(chan struct{})
	_, err := p.Submit(models.TaskType1D, 0, func(ctx context.Context, report func(float64)) (any, error) {
		close(started)
		<-block
		return nil, nil
	}, nil)
	require.NoError(t, err)
	<-started

	// Fill the one queue slot behind the running task.
	_, err = p.Submit(models.TaskType1D, 0, func(ctx context.Context, report func(float64)) (any, error) {
		return nil, nil
	}, nil)
	require.NoError(t, err)

	_, err = p.Submit(models.TaskType1D, 0, func(ctx context.Context, report func(float64)) (any, error) {
		return nil, nil
	}, nil)
	require.Error(t, err)

	close(block)
}

func TestPool_HealthReportsUtilization(t *testing.T) {
	p := testPool()
	defer p.Shutdown(time.Second)

	h := p.Health()
	require.True(t, h.Initialized)
	require.Equal(t, 2, h.MaxThreads)
	require.Equal(t, 1, h.MinThreads)
}

func TestPool_ShutdownForceCancelsOnHardStop(t *testing.T) {
	p := New(Config{MinThreads: 1, MaxThreads: 1, MaxQueue: 1}, testLogger())

	started := make(chan struct{})
	finished := make(chan struct{})
	_, err := p.Submit(models.TaskType1D, 0, func(ctx context.Context, report func(float64)) (any, error) {
		close(started)
		<-ctx.Done()
		close(finished)
		return nil, ctx.Err()
	}, nil)
	require.NoError(t, err)

	<-started
	p.Shutdown(10 * time.Millisecond)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("expected hard-stop shutdown to force-cancel the in-flight task")
	}
}

func TestPool_SubmitRejectedWhileDraining(t *testing.T) {
	p := testPool()
	p.Shutdown(time.Second)

	_, err := p.Submit(models.TaskType1D, 0, func(ctx context.Context, report func(float64)) (any, error) {
		return nil, nil
	}, nil)
	require.Error(t, err)
}
