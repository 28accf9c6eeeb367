// Package pool implements the bounded-concurrency worker pool that
// executes optimization strategies off the request-serving path: a
// fixed set of workers draining a bounded task queue, with per-task
// cooperative cancellation, timeout, and progress broadcast.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cutstock/engine/internal/platform/logger"
	"github.com/cutstock/engine/pkg/cuterr"
	"github.com/cutstock/engine/pkg/models"
)

// Config configures pool sizing, mirroring the engine's pool.* settings.
type Config struct {
	MinThreads  int
	MaxThreads  int
	MaxQueue    int
	IdleTimeout time.Duration
}

// DefaultConfig returns the spec-mandated defaults: min=4, max=12, queue=256.
func DefaultConfig() Config {
	return Config{MinThreads: 4, MaxThreads: 12, MaxQueue: 256, IdleTimeout: 60 * time.Second}
}

// Pool is the bounded-concurrency worker pool.
type Pool struct {
	cfg    Config
	logger *logger.Logger

	queue chan *job
	wg    sync.WaitGroup

	mu       sync.RWMutex
	draining bool
	stopCh   chan struct{}

	active    int64
	completed int64

	activeMu   sync.Mutex
	activeJobs map[string]*job
}

// New starts cfg.MaxThreads worker goroutines draining a queue of
// capacity cfg.MaxQueue.
func New(cfg Config, log *logger.Logger) *Pool {
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = 12
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = 256
	}
	p := &Pool{
		cfg:    cfg,
		logger: log,
		queue:      make(chan *job, cfg.MaxQueue),
		stopCh:     make(chan struct{}),
		activeJobs: make(map[string]*job),
	}
	for i := 0; i < cfg.MaxThreads; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues fn as a new task of the given type with a deadline of
// timeout (zero means no deadline). Submission fails fast with
// ERR_QUEUE_FULL when the queue is at capacity, and with
// ERR_POOL_NOT_READY while the pool is draining.
func (p *Pool) Submit(taskType models.TaskType, timeout time.Duration, fn Func, onProgress ProgressFunc) (*Handle, error) {
	p.mu.RLock()
	draining := p.draining
	p.mu.RUnlock()
	if draining {
		return nil, cuterr.New(cuterr.ErrPoolNotReady, "pool is draining")
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	j := &job{
		id:          uuid.NewString(),
		taskType:    taskType,
		fn:          fn,
		onProgress:  onProgress,
		ctx:         ctx,
		cancel:      cancel,
		submittedAt: time.Now(),
		phase:       models.PhaseQueued,
		done:        make(chan struct{}),
	}

	select {
	case p.queue <- j:
		j.setPhase(models.PhaseQueued, 0, "")
		return &Handle{TaskID: j.id, cancel: p.cancelFunc(j), done: j.done, j: j}, nil
	default:
		cancel()
		return nil, cuterr.New(cuterr.ErrQueueFull, "task queue is full")
	}
}

// cancelFunc wraps a job's context cancel so that calling it also moves
// a still-queued or still-running task toward the cancelled terminal
// state; it is a no-op once the task is already terminal.
func (p *Pool) cancelFunc(j *job) context.CancelFunc {
	return func() {
		if j.currentPhase().Terminal() {
			return
		}
		j.cancel()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			p.run(j)
		}
	}
}

func (p *Pool) run(j *job) {
	atomic.AddInt64(&p.active, 1)
	p.activeMu.Lock()
	p.activeJobs[j.id] = j
	p.activeMu.Unlock()
	defer func() {
		atomic.AddInt64(&p.active, -1)
		p.activeMu.Lock()
		delete(p.activeJobs, j.id)
		p.activeMu.Unlock()
	}()

	if j.ctx.Err() != nil {
		p.finish(j, terminalFor(j.ctx.Err()), 0, j.ctx.Err().Error())
		return
	}

	j.setPhase(models.PhaseRunning, 10, "")

	report := func(fraction float64) {
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		// Scale into the [10,100) band; completion always reports 100.
		progress := 10 + fraction*89
		j.setPhase(models.PhaseRunning, progress, "")
	}

	result, err := j.fn(j.ctx, report)

	if j.ctx.Err() != nil {
		p.finish(j, terminalFor(j.ctx.Err()), 0, j.ctx.Err().Error())
		return
	}
	j.mu.Lock()
	j.result, j.resultErr = result, err
	j.mu.Unlock()
	if err != nil {
		p.finish(j, models.PhaseFailed, 0, err.Error())
		return
	}
	p.finish(j, models.PhaseCompleted, 100, "")
}

func terminalFor(err error) models.TaskPhase {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.PhaseTimeout
	}
	return models.PhaseCancelled
}

func (p *Pool) finish(j *job, phase models.TaskPhase, progress float64, message string) {
	switch phase {
	case models.PhaseCancelled:
		j.mu.Lock()
		j.resultErr = cuterr.Wrap(cuterr.ErrCancelled, "task cancelled", j.ctx.Err())
		j.mu.Unlock()
	case models.PhaseTimeout:
		j.mu.Lock()
		j.resultErr = cuterr.Wrap(cuterr.ErrTimeout, "task timed out", j.ctx.Err())
		j.mu.Unlock()
	}
	j.setPhase(phase, progress, message)
	if phase == models.PhaseCompleted {
		atomic.AddInt64(&p.completed, 1)
	}
	close(j.done)
}

// Health reports the pool's current operating snapshot.
type Health struct {
	Initialized bool
	Completed   int64
	Utilization float64
	QueueSize   int
	MinThreads  int
	MaxThreads  int
}

// Health returns the pool's current health snapshot.
func (p *Pool) Health() Health {
	active := atomic.LoadInt64(&p.active)
	return Health{
		Initialized: true,
		Completed:   atomic.LoadInt64(&p.completed),
		Utilization: float64(active) / float64(p.cfg.MaxThreads),
		QueueSize:   len(p.queue),
		MinThreads:  p.cfg.MinThreads,
		MaxThreads:  p.cfg.MaxThreads,
	}
}

// Shutdown enters drain mode (new submissions are rejected), waits for
// in-flight tasks to reach a terminal state, and force-cancels anything
// still running once hardStop elapses.
func (p *Pool) Shutdown(hardStop time.Duration) {
	p.mu.Lock()
	p.draining = true
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		close(p.stopCh)
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(hardStop):
		if p.logger != nil {
			p.logger.Warn("pool shutdown hard-stop elapsed; force-cancelling in-flight tasks")
		}
		p.activeMu.Lock()
		for _, j := range p.activeJobs {
			j.cancel()
		}
		p.activeMu.Unlock()
		<-drained
	}
}
