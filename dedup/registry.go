package dedup

import "github.com/fmidev/obsengine/cmn"

// Registry holds one LRU per entity kind, sized from cmn.DedupConfig.
// Like LRU itself, a Registry belongs to a single ingest goroutine.
type Registry struct {
	lru map[cmn.EntityKind]*LRU
}

func NewRegistry(cfg cmn.DedupConfig) *Registry {
	r := &Registry{lru: make(map[cmn.EntityKind]*LRU, len(cfg.Capacity))}
	for kind, cap := range cfg.Capacity {
		r.lru[kind] = New(cap)
	}
	return r
}

// For returns the LRU for kind, creating a default-capacity one on
// first use if the configuration omitted that kind.
func (r *Registry) For(kind cmn.EntityKind) *LRU {
	l, ok := r.lru[kind]
	if !ok {
		l = New(10_000)
		r.lru[kind] = l
	}
	return l
}

// Resize updates the capacity for kind without discarding the existing
// LRU's contents.
func (r *Registry) Resize(kind cmn.EntityKind, k int) {
	r.For(kind).Resize(k)
}
