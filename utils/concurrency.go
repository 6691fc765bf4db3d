package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs jobs on a bounded number of goroutines. The first failing
// job cancels the context handed to every other job.
type WorkerPool struct {
	group *errgroup.Group
	ctx   context.Context
}

// NewWorkerPool creates a WorkerPool bound to ctx with the given concurrency.
func NewWorkerPool(ctx context.Context, maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxWorkers)
	return &WorkerPool{group: group, ctx: gctx}
}

// Submit enqueues a job for execution in the pool. It blocks while all
// workers are busy. Jobs submitted after a failure or cancellation are
// skipped.
func (wp *WorkerPool) Submit(job func(ctx context.Context) error) {
	wp.group.Go(func() error {
		if err := wp.ctx.Err(); err != nil {
			return err
		}
		return job(wp.ctx)
	})
}

// Wait blocks until all submitted jobs have completed and returns the first
// error.
func (wp *WorkerPool) Wait() error {
	return wp.group.Wait()
}
