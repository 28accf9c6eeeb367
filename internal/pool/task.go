package pool

import (
	"context"
	"sync"
	"time"

	"github.com/cutstock/engine/pkg/models"
)

// Func is the unit of work a pool worker runs. report delivers
// intermediate progress in [0,1]; implementations must treat it as
// non-blocking and best-effort.
type Func func(ctx context.Context, report func(fraction float64)) (any, error)

// ProgressFunc receives every task state transition. It must be
// non-blocking and must never panic the caller.
type ProgressFunc func(models.TaskProgress)

// Handle is returned on successful submission.
type Handle struct {
	TaskID string
	cancel context.CancelFunc
	done   chan struct{}
	j      *job
}

// Cancel transitions the task to cancelled if it has not already
// reached a terminal state. It is a no-op once terminal.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed once the task reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result blocks until the task reaches a terminal state (or ctx is
// cancelled) and returns the value Func produced, or the error that
// terminated it.
func (h *Handle) Result(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		h.j.mu.Lock()
		defer h.j.mu.Unlock()
		return h.j.result, h.j.resultErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// job is the pool's internal bookkeeping for one submitted task.
type job struct {
	id          string
	taskType    models.TaskType
	fn          Func
	onProgress  ProgressFunc
	ctx         context.Context
	cancel      context.CancelFunc
	submittedAt time.Time

	mu          sync.Mutex
	phase       models.TaskPhase
	startedAt   *time.Time
	completedAt *time.Time
	result      any
	resultErr   error

	done chan struct{}
}

func (j *job) setPhase(phase models.TaskPhase, progress float64, message string) {
	j.mu.Lock()
	j.phase = phase
	now := time.Now()
	if phase == models.PhaseRunning && j.startedAt == nil {
		j.startedAt = &now
	}
	if phase.Terminal() {
		j.completedAt = &now
	}
	started, completed := j.startedAt, j.completedAt
	j.mu.Unlock()

	if j.onProgress != nil {
		j.onProgress(models.TaskProgress{
			TaskID:      j.id,
			Phase:       phase,
			Progress:    progress,
			Message:     message,
			StartedAt:   started,
			CompletedAt: completed,
		})
	}
}

func (j *job) currentPhase() models.TaskPhase {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.phase
}
