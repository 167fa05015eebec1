package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
)

var ErrClosed = errors.New("executor closed")

// TaskError is reported on the executor's error channel when a task fails.
type TaskError struct {
	Task string
	Err  error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

func (e TaskError) Unwrap() error {
	return e.Err
}

// Executor runs fire-and-forget tasks on a bounded ants pool. Submit never
// blocks; failures go to an error channel drained by a logging goroutine.
type Executor struct {
	pool        *ants.Pool
	logger      *logging.Logger
	taskTimeout time.Duration

	wg        sync.WaitGroup
	errs      chan TaskError
	drainDone chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	onError func(TaskError)
}

type Option func(*Executor)

// WithErrorHook lets callers observe task failures besides the log line.
func WithErrorHook(fn func(TaskError)) Option {
	return func(e *Executor) {
		e.onError = fn
	}
}

func NewExecutor(size int, taskTimeout time.Duration, logger *logging.Logger, opts ...Option) (*Executor, error) {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = logging.Default()
	}

	e := &Executor{
		logger:      logger.Named("worker"),
		taskTimeout: taskTimeout,
		errs:        make(chan TaskError, size*4),
		drainDone:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(rec any) {
			e.report(TaskError{Task: "unknown", Err: fmt.Errorf("panic: %v", rec)})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	e.pool = pool

	go e.drain()
	return e, nil
}

// Submit schedules fn detached from ctx cancellation but keeping its values,
// so trace ids follow the task.
func (e *Executor) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if e.closed.Load() {
		return ErrClosed
	}

	taskCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	err := e.pool.Submit(func() {
		defer e.wg.Done()

		runCtx := taskCtx
		if e.taskTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(taskCtx, e.taskTimeout)
			defer cancel()
		}

		defer func() {
			if rec := recover(); rec != nil {
				e.report(TaskError{Task: name, Err: fmt.Errorf("panic: %v", rec)})
			}
		}()

		if err := fn(runCtx); err != nil {
			e.report(TaskError{Task: name, Err: err})
		}
	})
	if err != nil {
		e.wg.Done()
		e.logger.WarnContext(ctx, "background task dropped", "task", name, "error", err)
		return fmt.Errorf("submit %s: %w", name, err)
	}
	return nil
}

// Wait blocks until every submitted task has finished.
func (e *Executor) Wait() {
	e.wg.Wait()
}

func (e *Executor) Running() int {
	return e.pool.Running()
}

// Close stops accepting tasks, waits for in-flight ones until ctx ends and
// releases the pool.
func (e *Executor) Close(ctx context.Context) error {
	var closeErr error
	e.closeOnce.Do(func() {
		e.closed.Store(true)

		done := make(chan struct{})
		go func() {
			e.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			closeErr = fmt.Errorf("wait background tasks: %w", ctx.Err())
		}

		e.pool.Release()
		if closeErr == nil {
			close(e.errs)
			<-e.drainDone
		}
	})
	return closeErr
}

func (e *Executor) report(taskErr TaskError) {
	defer func() {
		// errs is closed only after all tasks finished; a late panic handler
		// call must not crash the process.
		_ = recover()
	}()
	e.errs <- taskErr
}

func (e *Executor) drain() {
	defer close(e.drainDone)
	for taskErr := range e.errs {
		e.logger.Warn("background task failed", "task", taskErr.Task, "error", taskErr.Err)
		if e.onError != nil {
			e.onError(taskErr)
		}
	}
}
