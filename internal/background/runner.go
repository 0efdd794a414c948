// Package background runs fire-and-forget units of work detached from the
// request/response cycle. Tasks run at most once, are never retried, and
// report nothing back to the dispatching caller.
package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/filebox/internal/logger"
)

// Runner dispatches tasks on their own goroutines with panic recovery.
// Each task gets a fresh context detached from the caller's, so it outlives
// the HTTP response that scheduled it. Wait drains in-flight tasks on
// shutdown; a running task has no cancellation hook.
type Runner struct {
	log *slog.Logger
	wg  sync.WaitGroup

	// taskTimeout bounds a single task. Zero means no deadline.
	taskTimeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithTaskTimeout sets a deadline applied to each dispatched task.
func WithTaskTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.taskTimeout = d
		}
	}
}

// NewRunner returns a Runner logging through log. A nil log falls back to
// slog.Default.
func NewRunner(log *slog.Logger, opts ...Option) *Runner {
	if log == nil {
		log = slog.Default()
	}
	r := &Runner{log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Go schedules fn on its own goroutine and returns immediately. The name is
// used only for logging.
func (r *Runner) Go(name string, fn func(ctx context.Context)) {
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("background task panicked",
					logger.Component("background"),
					slog.String("task", name),
					slog.Any("panic", rec),
				)
			}
		}()

		ctx := context.Background()
		if r.taskTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.taskTimeout)
			defer cancel()
		}

		fn(ctx)
	}()
}

// Wait blocks until all in-flight tasks finish or ctx expires, whichever
// comes first. Tasks still running when ctx expires keep running; only the
// wait is abandoned.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
