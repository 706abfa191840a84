// Package ingest implements upstream mirror maintenance: per-entity-kind
// watermark tracking, a pure dedup core, and a jogger-style scheduler
// that pulls new/modified rows into the mirror and memory snapshot and
// runs retention sweeps behind them.
package ingest

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fmidev/obsengine/cmn"
	"github.com/fmidev/obsengine/dedup"
	"github.com/fmidev/obsengine/memsnap"
	"github.com/fmidev/obsengine/mirror"
	"github.com/fmidev/obsengine/stats"
)

// Fetcher pulls rows modified (or observed, when useObsTime) since since.
type Fetcher[T any] func(ctx context.Context, since time.Time, useObsTime bool) ([]T, error)

// Loop runs the periodic pull/commit/sweep cycle for one entity kind.
// All fields must be set before calling Run; none are safe to mutate
// afterwards.
type Loop[T any] struct {
	Kind cmn.EntityKind

	Fetch  Fetcher[T]
	Mirror *mirror.Store[T]
	Memory *memsnap.Snapshot[T]
	Dedup  *dedup.LRU

	HashOf   func(T) uint64
	ObsTime  func(T) time.Time // observation timestamp, for ordering and the obs-time watermark
	Modified func(T) time.Time // modified_last, for the modified-at watermark
	Less     func(a, b T) bool // pull ordering per §4.5 (station,obstime) / (stroketime,flashid)

	Watermark *Watermark

	MirrorRetention time.Duration
	MemoryRetention time.Duration
	BatchSize       int
	Interval        time.Duration

	Log   *logrus.Entry
	Stats *stats.Collector // nil disables metric recording
}

// RunOnce executes a single pull/dedup/commit cycle. A fetch or mirror
// error is returned unwrapped-of-LRU-mutation: the dedup LRU is only
// advanced after a successful mirror commit, so the caller may retry the
// identical window on the next tick.
func (l *Loop[T]) RunOnce(ctx context.Context) error {
	now := time.Now()
	if l.Stats != nil {
		defer func(start time.Time) { l.Stats.ObserveIngestBatch(l.Kind.String(), time.Since(start)) }(now)
	}
	since, useObsTime := l.Watermark.EffectiveSince(now)

	rows, err := l.Fetch(ctx, since, useObsTime)
	if err != nil {
		return cmn.NewError("ingest.RunOnce", err, "fetch failed for %s", l.Kind)
	}
	if len(rows) == 0 {
		return nil
	}

	sort.Slice(rows, func(i, j int) bool { return l.Less(rows[i], rows[j]) })

	fresh, hashes := Dedup(rows, l.Dedup, l.HashOf)
	if len(fresh) == 0 {
		return nil
	}

	if _, err := l.Mirror.Upsert(fresh, l.BatchSize); err != nil {
		return cmn.NewError("ingest.RunOnce", err, "mirror commit failed for %s", l.Kind)
	}
	Commit(l.Dedup, hashes)
	l.Memory.Fill(fresh)

	var maxObs, maxMod time.Time
	for _, it := range fresh {
		if o := l.ObsTime(it); o.After(maxObs) {
			maxObs = o
		}
		if m := l.Modified(it); m.After(maxMod) {
			maxMod = m
		}
	}
	l.Watermark.Advance(maxObs, maxMod)

	if now.Sub(since) >= cmn.LargeSweepThreshold {
		l.Log.WithField("entity_kind", l.Kind.String()).
			WithField("span", now.Sub(since)).
			Warn("ingest: large sweep")
	} else {
		l.Log.WithField("entity_kind", l.Kind.String()).
			WithField("rows", len(fresh)).
			Debug("ingest: batch committed")
	}
	return nil
}

// RetentionSweep trims the mirror to MirrorRetention and the memory
// snapshot to MemoryRetention (which must be <= MirrorRetention so the
// memory tier's floor never outruns what the mirror can still answer).
func (l *Loop[T]) RetentionSweep() error {
	now := time.Now()
	if l.MirrorRetention > 0 {
		n, err := l.Mirror.RangeDelete(now.Add(-l.MirrorRetention).Truncate(cmn.RetentionGranularity))
		if err != nil {
			return cmn.NewError("ingest.RetentionSweep", err, "mirror sweep failed for %s", l.Kind)
		}
		if n > 0 {
			l.Log.WithField("entity_kind", l.Kind.String()).WithField("rows", n).
				Warn("ingest: retention sweep evicted rows")
		}
		if l.Stats != nil {
			l.Stats.AddRetentionEvicted(l.Kind.String(), n)
		}
	}
	if l.MemoryRetention > 0 {
		l.Memory.Clean(now.Add(-l.MemoryRetention))
	}
	return nil
}

// Run ticks RunOnce/RetentionSweep until stop closes or ctx is
// cancelled. A batch error is logged and retried on the next tick rather
// than aborting the loop, per §4.5's "idempotent upsert makes retries
// safe."
func (l *Loop[T]) Run(ctx context.Context, stop <-chan struct{}) error {
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return cmn.NewError("ingest.Run", cmn.ErrShutdown, "ingest loop stopped for %s", l.Kind)
		case <-ctx.Done():
			return cmn.NewError("ingest.Run", cmn.ErrShutdown, "ingest loop cancelled for %s: %v", l.Kind, ctx.Err())
		case <-ticker.C:
			if err := l.RunOnce(ctx); err != nil {
				l.Log.WithError(err).WithField("entity_kind", l.Kind.String()).Error("ingest: batch failed")
				continue
			}
			if err := l.RetentionSweep(); err != nil {
				l.Log.WithError(err).WithField("entity_kind", l.Kind.String()).Warn("ingest: retention sweep failed")
			}
		}
	}
}
