package ingest

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Maintainer owns the watermark set and scheduling group shared by every
// entity kind's ingest loop; callers build one Loop[T] per kind (see
// cmd/obsenginectl for the wiring) and register it with Start.
type Maintainer struct {
	Group      *Group
	Watermarks *WatermarkSet
	Log        *logrus.Entry
}

func NewMaintainer(ctx context.Context, log *logrus.Entry) *Maintainer {
	return &Maintainer{
		Group:      NewGroup(ctx),
		Watermarks: NewWatermarkSet(),
		Log:        log.WithField("component", "ingest"),
	}
}

// Start schedules loop on the maintainer's group. Go generics forbid a
// generic method here, so Start is a free function parameterized over
// the entity's row type instead of a Maintainer method.
func Start[T any](m *Maintainer, loop *Loop[T]) {
	if loop.Watermark == nil {
		loop.Watermark = m.Watermarks.Get(loop.Kind)
	}
	if loop.Log == nil {
		loop.Log = m.Log
	}
	m.Group.Go(loop.Run)
}

// Stop signals every running loop to finish its current tick and wait
// for them to return.
func (m *Maintainer) Stop() error {
	return m.Group.Stop()
}
