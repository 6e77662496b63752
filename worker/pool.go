// Package worker provides a bounded goroutine pool for running fetch jobs
// with controlled concurrency.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Job is one unit of work. It receives the pool's context and should return
// promptly once that context is done.
type Job func(ctx context.Context) error

// ErrStopped is returned by Submit once the pool's context is done.
var ErrStopped = errors.New("worker: pool stopped")

// WorkerPool runs Jobs on a fixed number of goroutines draining a shared,
// buffered queue (capacity workerCount*4). Submit blocks only when the buffer
// is full. Stop waits for every queued job and returns their errors joined.
type WorkerPool struct {
	workerCount int
	jobQueue    chan Job
	wg          sync.WaitGroup
	ctx         context.Context

	mu   sync.Mutex
	errs []error

	completed atomic.Uint64
	failed    atomic.Uint64
	skipped   atomic.Uint64
}

// NewWorkerPool creates a WorkerPool with workerCount goroutines bound to
// ctx. A workerCount below one is raised to one.
func NewWorkerPool(ctx context.Context, workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan Job, workerCount*4),
		ctx:         ctx,
	}
}

// Start launches the worker goroutines. It must be called exactly once before
// any jobs are submitted.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			for job := range wp.jobQueue {
				wp.run(job)
			}
		}()
	}
}

func (wp *WorkerPool) run(job Job) {
	if wp.ctx.Err() != nil {
		wp.skipped.Add(1)
		return
	}
	if err := job(wp.ctx); err != nil {
		wp.failed.Add(1)
		wp.mu.Lock()
		wp.errs = append(wp.errs, err)
		wp.mu.Unlock()
		return
	}
	wp.completed.Add(1)
}

// Submit enqueues job. It blocks while the buffer is full and returns
// ErrStopped if the pool's context ends first. Submit must not be called
// after Stop.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case <-wp.ctx.Done():
		return ErrStopped
	default:
	}
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return ErrStopped
	}
}

// Stop closes the queue, waits for the workers to drain it and returns the
// joined job errors, or nil. Jobs still queued when the context ends are
// skipped, not run.
func (wp *WorkerPool) Stop() error {
	close(wp.jobQueue)
	wp.wg.Wait()
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return errors.Join(wp.errs...)
}

// Stats reports how many jobs completed, failed and were skipped.
func (wp *WorkerPool) Stats() (completed, failed, skipped uint64) {
	return wp.completed.Load(), wp.failed.Load(), wp.skipped.Load()
}
