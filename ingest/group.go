package ingest

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group runs one ingest loop per entity kind, the way mpather.JoggerGroup
// runs one jogger per mountpath: an errgroup.Group for fan-out and
// first-error propagation, plus a shared stop channel every member polls
// cooperatively instead of being killed outright.
type Group struct {
	wg       *errgroup.Group
	ctx      context.Context
	stop     chan struct{}
	stopOnce sync.Once
}

func NewGroup(ctx context.Context) *Group {
	wg, gctx := errgroup.WithContext(ctx)
	return &Group{wg: wg, ctx: gctx, stop: make(chan struct{})}
}

// Go schedules fn to run until the group's stop channel closes, the
// group's context is cancelled, or fn returns an error (which cancels
// every other member's context).
func (g *Group) Go(fn func(ctx context.Context, stop <-chan struct{}) error) {
	g.wg.Go(func() error {
		return fn(g.ctx, g.stop)
	})
}

// Stop closes the shared stop channel and waits for every loop to
// return, matching JoggerGroup.Stop's abort-then-wait sequencing.
func (g *Group) Stop() error {
	g.stopOnce.Do(func() { close(g.stop) })
	return g.wg.Wait()
}
