package query

import (
	"context"
	"time"

	"github.com/fmidev/obsengine/cmn"
	"github.com/fmidev/obsengine/ingest"
	"github.com/fmidev/obsengine/memsnap"
	"github.com/fmidev/obsengine/mirror"
	"github.com/fmidev/obsengine/stats"
)

// Tier identifies which layer of the cache answered a request, per
// §4.6's tier-selection rule.
type Tier int

const (
	TierNone Tier = iota
	TierMemory
	TierMirror
	TierUpstream
)

func (t Tier) String() string {
	switch t {
	case TierMemory:
		return "memory"
	case TierMirror:
		return "mirror"
	case TierUpstream:
		return "upstream"
	default:
		return "none"
	}
}

// Source bundles the three tiers backing one entity kind. Fetch decides
// on start alone which tier can serve, per §4.6: "the decision is made
// on starttime alone against each tier's published floor."
type Source[T any] struct {
	Memory   *memsnap.Snapshot[T]
	Mirror   *mirror.Store[T]
	Upstream ingest.Fetcher[T] // nil if no upstream fallback is wired

	Kind  string           // entity kind label for Stats; required only if Stats is set
	Stats *stats.Collector // nil disables metric recording
}

// Fetch returns the rows covering [from, to] plus the tier that served
// them. When no tier can serve and upstream access is disallowed, it
// returns cmn.ErrCacheMiss per §4.6's failure semantics.
func (s *Source[T]) Fetch(ctx context.Context, from, to time.Time, allowUpstream bool) ([]T, Tier, error) {
	if memFloor, ok := s.Memory.GetStartTime(); ok && !from.Before(memFloor) {
		s.recordHit(TierMemory)
		return s.Memory.Search(from, to), TierMemory, nil
	}
	if mirrorFloor, ok, err := s.Mirror.Floor(); err == nil && ok && !from.Before(mirrorFloor) {
		rows, err := s.Mirror.RangeQuery(from, to, nil)
		if err != nil {
			return nil, TierMirror, err
		}
		s.recordHit(TierMirror)
		return rows, TierMirror, nil
	}
	if allowUpstream && s.Upstream != nil {
		rows, err := s.Upstream(ctx, from, true)
		if err != nil {
			return nil, TierUpstream, err
		}
		s.recordHit(TierUpstream)
		return rows, TierUpstream, nil
	}
	if s.Stats != nil {
		s.Stats.RecordCacheMiss(s.Kind)
	}
	return nil, TierNone, cmn.NewError("query.Source.Fetch", cmn.ErrCacheMiss, "no tier covers start %s", from)
}

func (s *Source[T]) recordHit(tier Tier) {
	if s.Stats != nil {
		s.Stats.RecordCacheHit(tier.String(), s.Kind)
	}
}
