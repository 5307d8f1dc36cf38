package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"golang.org/x/sync/semaphore"
)

// Dispatcher runs fire-and-forget tasks in the background.
// Tasks get a detached context so they outlive the request that triggered them;
// at most `workers` of them run at once and their errors are only logged.
type Dispatcher struct {
	sem     *semaphore.Weighted
	logger  Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(workers int64, timeout time.Duration, logger Logger) *Dispatcher {
	vala.BeginValidation().Validate(
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		sem:     semaphore.NewWeighted(workers),
		logger:  logger,
		timeout: timeout,
	}
}

// Go schedules fn and returns immediately.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error(fmt.Sprintf("task %s panicked: %v", name, r))
			}
		}()

		ctx := context.Background()
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer d.sem.Release(1)

		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		if err := fn(ctx); err != nil {
			d.logger.Error(fmt.Sprintf("task %s: %v", name, err), err)
		}
	}()
}

// Wait blocks until every scheduled task is done. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
