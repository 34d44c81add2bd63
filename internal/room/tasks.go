package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// taskRunner spawns fire-and-forget tasks. Spawning never blocks; the
// concurrency bound is enforced inside each task's goroutine.
type taskRunner struct {
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	onError func(error)
}

func newTaskRunner(limit int, onError func(error)) *taskRunner {
	return &taskRunner{
		sem:     semaphore.NewWeighted(int64(limit)),
		onError: onError,
	}
}

func (t *taskRunner) spawn(kind string, fn func() error) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		id := uuid.NewString()
		ctx := context.Background()

		// Acquire only fails on context cancellation.
		_ = t.sem.Acquire(ctx, 1)
		defer t.sem.Release(1)

		err := t.run(fn)
		if err != nil {
			slog.DebugContext(ctx, "room task failed", "task", kind, "task_id", id, "error", err)
			t.onError(fmt.Errorf("%s task %s: %w", kind, id, err))
		}
	}()
}

func (t *taskRunner) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return fn()
}

func (t *taskRunner) wait() {
	t.wg.Wait()
}
