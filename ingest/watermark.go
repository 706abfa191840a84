package ingest

import (
	"sync"
	"time"

	"github.com/fmidev/obsengine/cmn"
)

// Watermark tracks the obs-time and modified-at high-water marks for one
// entity kind, per §4.5.
type Watermark struct {
	mu         sync.Mutex
	obsTime    time.Time
	modifiedAt time.Time
}

// EffectiveSince returns the timestamp the next pull should query against
// and whether that timestamp is the obs-time watermark (true) or the
// modified-at watermark (false). The obs-time watermark is used whenever
// the modified-at watermark has fallen more than ModifiedWatermarkGuard
// behind now, guarding against a clock regression producing a sweep of
// the entire table.
func (w *Watermark) EffectiveSince(now time.Time) (since time.Time, useObsTime bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modifiedAt.IsZero() || now.Sub(w.modifiedAt) >= cmn.ModifiedWatermarkGuard {
		return w.obsTime, true
	}
	return w.modifiedAt, false
}

// Advance raises both watermarks to obs/modified if they are newer than
// what is currently recorded; it never moves a watermark backwards.
func (w *Watermark) Advance(obs, modified time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if obs.After(w.obsTime) {
		w.obsTime = obs
	}
	if modified.After(w.modifiedAt) {
		w.modifiedAt = modified
	}
}

// Snapshot returns the current pair of watermarks for diagnostics.
func (w *Watermark) Snapshot() (obs, modified time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.obsTime, w.modifiedAt
}

// WatermarkSet lazily owns one Watermark per entity kind.
type WatermarkSet struct {
	mu    sync.Mutex
	marks map[cmn.EntityKind]*Watermark
}

func NewWatermarkSet() *WatermarkSet {
	return &WatermarkSet{marks: make(map[cmn.EntityKind]*Watermark)}
}

func (s *WatermarkSet) Get(kind cmn.EntityKind) *Watermark {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.marks[kind]
	if !ok {
		w = &Watermark{}
		s.marks[kind] = w
	}
	return w
}
