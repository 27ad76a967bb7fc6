package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/leonardotrapani/transcribebridge/internal/metrics"
	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the number of one-shot operations an engine runs concurrently.
const DefaultWorkers = 4

// Engine executes one-shot operations on a fixed number of workers and hosts
// long-running background tasks. It stops once every Handle has been released.
type Engine struct {
	workers int
	sem     *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	refs  atomic.Int64
	tasks sync.WaitGroup
	live  atomic.Int64
	done  chan struct{}
}

// New builds an engine with the given worker count. The returned Handle holds the first reference.
func New(workers int) (*Handle, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("failed to create runtime: invalid worker count %d", workers)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		workers: workers,
		sem:     semaphore.NewWeighted(int64(workers)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	metrics.EnginesLive.Inc()

	l := logger.For("engine")
	l.Debug().Int("workers", workers).Msg("engine created")
	return e.acquire(), nil
}

// Workers returns the configured worker count
func (e *Engine) Workers() int { return e.workers }

// Tasks returns the number of spawned tasks that have not returned yet
func (e *Engine) Tasks() int { return int(e.live.Load()) }

// Done is closed once the engine has stopped and all of its tasks have returned.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) acquire() *Handle {
	e.refs.Add(1)
	return &Handle{Engine: e}
}

func (e *Engine) release() {
	if e.refs.Add(-1) != 0 {
		return
	}

	// last reference gone: abort tasks and finish stopping in the background so that
	// a task releasing the final reference does not wait on itself
	e.cancel()
	go func() {
		e.tasks.Wait()
		metrics.EnginesLive.Dec()
		close(e.done)
		l := logger.For("engine")
		l.Debug().Msg("engine stopped")
	}()
}

// run executes fn on a worker slot. It fails only if the engine has already stopped.
func (e *Engine) run(fn func(ctx context.Context)) error {
	if err := e.ctx.Err(); err != nil {
		return fmt.Errorf("runtime is shutting down: %w", err)
	}
	if err := e.sem.Acquire(e.ctx, 1); err != nil {
		return fmt.Errorf("runtime is shutting down: %w", err)
	}
	go func() {
		defer e.sem.Release(1)
		fn(e.ctx)
	}()
	return nil
}

// Spawn starts fn as a background task bound to the engine. fn must return promptly once
// its context is cancelled, either by Task.Abort or by the engine stopping.
func (e *Engine) Spawn(fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(e.ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	e.tasks.Add(1)
	e.live.Add(1)
	metrics.EngineTasks.Inc()
	go func() {
		defer func() {
			cancel()
			e.live.Add(-1)
			metrics.EngineTasks.Dec()
			close(t.done)
			e.tasks.Done()
		}()
		fn(ctx)
	}()
	return t
}

// Handle is a shared reference to an Engine. Release it exactly once; extra calls are ignored.
type Handle struct {
	*Engine
	released atomic.Bool
}

// Clone returns a new reference to the same engine
func (h *Handle) Clone() *Handle {
	return h.Engine.acquire()
}

func (h *Handle) Release() {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return
	}
	h.Engine.release()
}

// Task is a background task spawned on an engine
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Abort cancels the task; it stops at its next suspension point.
func (t *Task) Abort() { t.cancel() }

// Done is closed when the task function has returned
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task has returned
func (t *Task) Wait() { <-t.done }
