// Package pool provides the two bounded-concurrency shapes the rest of the
// repo needs: Bulk for a one-shot fan-out over a known item list (retention
// sweeps, batched upserts), and ReadPool/ConnPool for long-lived,
// submission-style workers (ad-hoc parallel reads, upstream connections).
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Bulk runs fn over every item in items, at most parallel at a time, and
// returns the first error encountered (remaining in-flight calls are
// allowed to finish; no new ones are started once ctx is cancelled).
//
// The semaphore-over-errgroup shape mirrors the teacher's joggerSyncGroup:
// a buffered channel of free slots gates how many goroutines run at once,
// and an errgroup collects the first error and cancels the shared context.
func Bulk[T any](ctx context.Context, items []T, parallel int, fn func(context.Context, T) error) error {
	if parallel <= 0 {
		parallel = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	sema := make(chan struct{}, parallel)

	for _, item := range items {
		item := item
		select {
		case sema <- struct{}{}:
		case <-gctx.Done():
			return g.Wait()
		}
		g.Go(func() error {
			defer func() { <-sema }()
			return fn(gctx, item)
		})
	}
	return g.Wait()
}
