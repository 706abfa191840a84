package pool

import (
	"context"
	"sync"

	"github.com/alitto/pond"
)

// ReadPool is a fixed-size submission pool for short-lived, ad-hoc read
// fan-out: parallel nearest-k station lookups answering one request,
// parallel per-entity-kind retention sweeps on a timer tick. Unlike Bulk,
// callers don't already hold the item list as a single slice up front, or
// want to keep submitting across several call sites against one shared
// worker count.
type ReadPool struct {
	pool *pond.WorkerPool
}

// NewReadPool starts a pool of n workers (no task queue growth beyond n in
// flight; pond.MinWorkers keeps them warm instead of spinning up lazily).
// The pool stops automatically once ctx is cancelled.
func NewReadPool(ctx context.Context, n int) *ReadPool {
	if n <= 0 {
		n = 1
	}
	return &ReadPool{pool: pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))}
}

// Submit runs fn on a pool worker. The pool has no task queue, so Submit
// blocks while every worker is busy.
func (p *ReadPool) Submit(fn func()) {
	p.pool.Submit(fn)
}

// Map runs fn over every item on the pool and returns the results once all
// have completed, preserving input order.
func Map[T, R any](p *ReadPool, items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		i, item := i, item
		p.Submit(func() {
			defer wg.Done()
			out[i] = fn(item)
		})
	}
	wg.Wait()
	return out
}

// StopAndWait drains queued tasks and waits for running ones to finish.
func (p *ReadPool) StopAndWait() {
	p.pool.StopAndWait()
}
