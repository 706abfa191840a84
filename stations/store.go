package stations

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fmidev/obsengine/cmn"
	"github.com/fmidev/obsengine/stats"
)

// Owner holds the currently published Registry plus the two bounded
// LRU caches that memoise expensive lookups against it, the way
// cluster.Sowner exposes Get() over an atomically swapped Smap. Both
// caches are invalidated by discarding them on every Republish, since a
// new registry version may answer the same cache key differently.
type Owner struct {
	current atomic.Pointer[Registry]

	mu         sync.Mutex // guards the two LRUs below
	nearestLRU *lru
	byIDLRU    *lru

	cacheCapacity int
	stats         *stats.Collector // nil disables metric recording
}

func NewOwner(cacheCapacity int) *Owner {
	o := &Owner{cacheCapacity: cacheCapacity}
	o.nearestLRU = newLRU(cacheCapacity)
	o.byIDLRU = newLRU(cacheCapacity)
	return o
}

// WithStats attaches a metrics collector for nearest-k cache hit/miss
// recording; it returns o so construction can chain.
func (o *Owner) WithStats(c *stats.Collector) *Owner {
	o.stats = c
	return o
}

// Get returns the currently published registry, or nil before the
// first Republish.
func (o *Owner) Get() *Registry {
	return o.current.Load()
}

// Republish atomically swaps in r and drops both caches.
func (o *Owner) Republish(r *Registry) {
	o.current.Store(r)
	o.mu.Lock()
	o.nearestLRU = newLRU(o.cacheCapacity)
	o.byIDLRU = newLRU(o.cacheCapacity)
	o.mu.Unlock()
}

func dayBucket(t time.Time) int64 { return t.Unix() / 86400 }

// NearestKCacheKey matches §4.7's cache key: (geoid, k, station-type,
// max-distance, day-bucket(start), day-bucket(end)).
type NearestKCacheKey struct {
	GeoID       int
	K           int
	StationType string
	MaxDistKM   float64
	StartDay    int64
	EndDay      int64
}

func (k NearestKCacheKey) cacheKey() string {
	return fmt.Sprintf("%d|%d|%s|%g|%d|%d", k.GeoID, k.K, k.StationType, k.MaxDistKM, k.StartDay, k.EndDay)
}

// NearestKCached memoises NearestK results against the currently
// published registry under the §4.7 cache key; it is invalidated
// automatically on the next Republish.
func (o *Owner) NearestKCached(key NearestKCacheKey, lon, lat, radiusM float64, group string) []Nearby {
	ck := key.cacheKey()
	o.mu.Lock()
	if v, ok := o.nearestLRU.get(ck); ok {
		o.mu.Unlock()
		o.recordNearestK(true)
		return v.([]Nearby)
	}
	o.mu.Unlock()
	o.recordNearestK(false)

	reg := o.Get()
	if reg == nil {
		return nil
	}
	result := reg.NearestK(lon, lat, radiusM, key.K, group)

	o.mu.Lock()
	o.nearestLRU.put(ck, result)
	o.mu.Unlock()
	return result
}

func (o *Owner) recordNearestK(hit bool) {
	if o.stats != nil {
		o.stats.RecordNearestKLookup(hit)
	}
}

// ByIDCached memoises a station-by-id resolution of the given kind
// ("fmisid", "geoid", "wmo", "lpnn", "rwsid").
func (o *Owner) ByIDCached(kind string, id int) (*cmn.Station, bool) {
	ck := fmt.Sprintf("%s|%d", kind, id)
	o.mu.Lock()
	if v, ok := o.byIDLRU.get(ck); ok {
		o.mu.Unlock()
		return v.(*cmn.Station), true
	}
	o.mu.Unlock()

	reg := o.Get()
	if reg == nil {
		return nil, false
	}
	var s *cmn.Station
	var ok bool
	switch kind {
	case "fmisid":
		s, ok = reg.ByFmisid(id)
	case "geoid":
		s, ok = reg.ByGeoID(id)
	case "wmo":
		s, ok = reg.ByWMO(id)
	case "lpnn":
		s, ok = reg.ByLPNN(id)
	case "rwsid":
		s, ok = reg.ByRWSID(id)
	}
	if !ok {
		return nil, false
	}
	o.mu.Lock()
	o.byIDLRU.put(ck, s)
	o.mu.Unlock()
	return s, true
}

// lru is a minimal bounded cache, the same container/list + map
// structure used by dedup.LRU, generalized to arbitrary values since
// station lookups cache structs, not bare hashes.
type lru struct {
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

type lruEntry struct {
	key string
	val interface{}
}

func newLRU(capacity int) *lru {
	if capacity <= 0 {
		capacity = 1
	}
	return &lru{capacity: capacity, order: list.New(), index: make(map[string]*list.Element)}
}

func (l *lru) get(key string) (interface{}, bool) {
	el, ok := l.index[key]
	if !ok {
		return nil, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*lruEntry).val, true
}

func (l *lru) put(key string, val interface{}) {
	if el, ok := l.index[key]; ok {
		el.Value.(*lruEntry).val = val
		l.order.MoveToFront(el)
		return
	}
	el := l.order.PushFront(&lruEntry{key: key, val: val})
	l.index[key] = el
	for l.order.Len() > l.capacity {
		oldest := l.order.Back()
		if oldest == nil {
			break
		}
		l.order.Remove(oldest)
		delete(l.index, oldest.Value.(*lruEntry).key)
	}
}
