package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fmidev/obsengine/cmn"
	"github.com/fmidev/obsengine/dedup"
	"github.com/fmidev/obsengine/memsnap"
	"github.com/fmidev/obsengine/mirror"
)

func TestWatermarkUsesObsTimeAfterGuardElapses(t *testing.T) {
	w := &Watermark{}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	w.Advance(now.Add(-400*24*time.Hour), now.Add(-400*24*time.Hour))

	since, useObs := w.EffectiveSince(now)
	if !useObs {
		t.Fatalf("expected obs-time fallback once modified watermark guard elapsed")
	}
	if !since.Equal(now.Add(-400 * 24 * time.Hour)) {
		t.Fatalf("expected since to equal obs-time watermark, got %v", since)
	}
}

func TestWatermarkUsesModifiedWithinGuard(t *testing.T) {
	w := &Watermark{}
	now := time.Now()
	w.Advance(now.Add(-time.Hour), now.Add(-time.Hour))

	since, useObs := w.EffectiveSince(now)
	if useObs {
		t.Fatalf("expected modified-at watermark while within the guard window")
	}
	if !since.Equal(now.Add(-time.Hour)) {
		t.Fatalf("expected since to equal modified-at watermark, got %v", since)
	}
}

func TestWatermarkNeverMovesBackwards(t *testing.T) {
	w := &Watermark{}
	later := time.Now()
	earlier := later.Add(-time.Hour)
	w.Advance(later, later)
	w.Advance(earlier, earlier)
	obs, mod := w.Snapshot()
	if !obs.Equal(later) || !mod.Equal(later) {
		t.Fatalf("expected watermark to stay at the later time, got obs=%v mod=%v", obs, mod)
	}
}

func TestDedupSkipsKnownHashesAndLeavesLRUUntouchedUntilCommit(t *testing.T) {
	lru := dedup.New(10)
	lru.Add(42)

	batch := []uint64{1, 42, 2}
	fresh, hashes := Dedup(batch, lru, func(h uint64) uint64 { return h })
	if len(fresh) != 2 || fresh[0] != 1 || fresh[1] != 2 {
		t.Fatalf("expected [1 2], got %v", fresh)
	}
	if len(hashes) != 2 {
		t.Fatalf("expected 2 hashes queued for commit, got %d", len(hashes))
	}
	if lru.Exists(1) {
		t.Fatalf("Dedup must not mutate the LRU before Commit is called")
	}
	Commit(lru, hashes)
	if !lru.Exists(1) || !lru.Exists(2) {
		t.Fatalf("expected committed hashes to now exist in the LRU")
	}
}

func TestLoopRunOnceAdvancesWatermarkAndFillsTiers(t *testing.T) {
	db, err := mirror.Open(":memory:")
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	store, err := mirror.NewDataItemStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	snap := memsnap.NewDataItemSnapshot()
	lru := dedup.New(100)
	wm := &Watermark{}

	obsTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	value := 5.0
	fetchCalled := false
	loop := &Loop[*cmn.DataItem]{
		Kind: cmn.KindObservation,
		Fetch: func(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.DataItem, error) {
			fetchCalled = true
			return []*cmn.DataItem{
				{Station: 1, Sensor: cmn.DefaultSensorNo, MeasurandID: 1, Producer: 1, ObsTime: obsTime, Value: &value, ModifiedLast: obsTime},
			}, nil
		},
		Mirror:    store,
		Memory:    snap,
		Dedup:     lru,
		HashOf:    func(d *cmn.DataItem) uint64 { return d.Hash() },
		ObsTime:   func(d *cmn.DataItem) time.Time { return d.ObsTime },
		Modified:  func(d *cmn.DataItem) time.Time { return d.ModifiedLast },
		Less:      func(a, b *cmn.DataItem) bool { return a.Station < b.Station },
		Watermark: wm,
		BatchSize: 100,
		Log:       logrus.NewEntry(logrus.New()),
	}

	if err := loop.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !fetchCalled {
		t.Fatalf("expected Fetch to be invoked")
	}
	if snap.Len() != 1 {
		t.Fatalf("expected memory snapshot to hold 1 row, got %d", snap.Len())
	}
	obs, mod := wm.Snapshot()
	if !obs.Equal(obsTime) || !mod.Equal(obsTime) {
		t.Fatalf("expected watermark advanced to %v, got obs=%v mod=%v", obsTime, obs, mod)
	}

	// A second RunOnce with the same fetch result must not double-insert:
	// the dedup LRU should have already absorbed the row's hash.
	if err := loop.RunOnce(context.Background()); err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if snap.Len() != 1 {
		t.Fatalf("expected duplicate row to be suppressed, snapshot now holds %d", snap.Len())
	}
}

func TestLoopRunReturnsErrShutdownWhenStopped(t *testing.T) {
	db, err := mirror.Open(":memory:")
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	store, err := mirror.NewDataItemStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	loop := &Loop[*cmn.DataItem]{
		Kind: cmn.KindObservation,
		Fetch: func(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.DataItem, error) {
			return nil, nil
		},
		Mirror:    store,
		Memory:    memsnap.NewDataItemSnapshot(),
		Dedup:     dedup.New(10),
		HashOf:    func(d *cmn.DataItem) uint64 { return d.Hash() },
		ObsTime:   func(d *cmn.DataItem) time.Time { return d.ObsTime },
		Modified:  func(d *cmn.DataItem) time.Time { return d.ModifiedLast },
		Less:      func(a, b *cmn.DataItem) bool { return a.Station < b.Station },
		Watermark: &Watermark{},
		BatchSize: 100,
		Interval:  time.Hour,
		Log:       logrus.NewEntry(logrus.New()),
	}

	stop := make(chan struct{})
	close(stop)

	err = loop.Run(context.Background(), stop)
	if !errors.Is(err, cmn.ErrShutdown) {
		t.Fatalf("expected Run to surface ErrShutdown when stop is closed, got %v", err)
	}
}

func TestLoopRunReturnsErrShutdownWhenContextCancelled(t *testing.T) {
	db, err := mirror.Open(":memory:")
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	store, err := mirror.NewDataItemStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	loop := &Loop[*cmn.DataItem]{
		Kind: cmn.KindObservation,
		Fetch: func(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.DataItem, error) {
			return nil, nil
		},
		Mirror:    store,
		Memory:    memsnap.NewDataItemSnapshot(),
		Dedup:     dedup.New(10),
		HashOf:    func(d *cmn.DataItem) uint64 { return d.Hash() },
		ObsTime:   func(d *cmn.DataItem) time.Time { return d.ObsTime },
		Modified:  func(d *cmn.DataItem) time.Time { return d.ModifiedLast },
		Less:      func(a, b *cmn.DataItem) bool { return a.Station < b.Station },
		Watermark: &Watermark{},
		BatchSize: 100,
		Interval:  time.Hour,
		Log:       logrus.NewEntry(logrus.New()),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = loop.Run(ctx, make(chan struct{}))
	if !errors.Is(err, cmn.ErrShutdown) {
		t.Fatalf("expected Run to surface ErrShutdown when the context is cancelled, got %v", err)
	}
}
