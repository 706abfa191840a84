// Package dedup implements the insert-dedup LRU: a bounded, ordered set
// of the most recently inserted item hashes, consulted by the ingest
// core before an upsert so that overlapping upstream deltas become
// effectively free.
//
// An LRU is owned by a single ingest goroutine per entity kind; none of
// its methods are safe for concurrent use.
package dedup

import (
	"container/list"
	"encoding/binary"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// LRU remembers the last Capacity hashes added to it. exists(h) is
// answered fast by a cuckoo-filter pre-check: a negative answer proves
// absence without touching the exact index; a positive answer (which
// may be a false positive) falls through to the exact map.
type LRU struct {
	capacity int
	pre      *cuckoo.Filter
	order    *list.List               // front = most recently added
	index    map[uint64]*list.Element // hash -> node in order
}

// New returns an LRU bounded to capacity entries. capacity must be
// positive.
func New(capacity int) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{
		capacity: capacity,
		pre:      cuckoo.NewFilter(uint(capacity * 2)),
		order:    list.New(),
		index:    make(map[uint64]*list.Element, capacity),
	}
}

func key(h uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], h)
	return b[:]
}

// Exists reports whether h was added and has not since been evicted.
func (l *LRU) Exists(h uint64) bool {
	if !l.pre.Lookup(key(h)) {
		return false
	}
	_, ok := l.index[h]
	return ok
}

// Add marks h as the most recently inserted hash, evicting the least
// recently added entry if Capacity is exceeded.
func (l *LRU) Add(h uint64) {
	if el, ok := l.index[h]; ok {
		l.order.MoveToFront(el)
		return
	}
	el := l.order.PushFront(h)
	l.index[h] = el
	l.pre.Insert(key(h))

	for l.order.Len() > l.capacity {
		l.evictOldest()
	}
}

func (l *LRU) evictOldest() {
	oldest := l.order.Back()
	if oldest == nil {
		return
	}
	h := oldest.Value.(uint64)
	l.order.Remove(oldest)
	delete(l.index, h)
	l.pre.Delete(key(h))
}

// Resize changes the capacity, evicting least-recently-added entries
// immediately if the new capacity is smaller than the current size.
func (l *LRU) Resize(k int) {
	if k <= 0 {
		k = 1
	}
	l.capacity = k
	for l.order.Len() > l.capacity {
		l.evictOldest()
	}
}

// Len returns the current number of remembered hashes.
func (l *LRU) Len() int {
	return l.order.Len()
}
