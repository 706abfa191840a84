package ingest

import "github.com/fmidev/obsengine/dedup"

// Dedup is the pure ingest core described in Design Note §9: given a
// batch and the current LRU state, it returns the rows that are not
// already known plus the hashes the caller should commit to the LRU
// after, and only after, those rows are durably written. It never
// mutates lru itself, so a failed mirror commit leaves the LRU state
// untouched and the batch is safe to retry verbatim on the next tick.
func Dedup[T any](batch []T, lru *dedup.LRU, hashOf func(T) uint64) (fresh []T, hashes []uint64) {
	fresh = make([]T, 0, len(batch))
	hashes = make([]uint64, 0, len(batch))
	for _, item := range batch {
		h := hashOf(item)
		if lru.Exists(h) {
			continue
		}
		fresh = append(fresh, item)
		hashes = append(hashes, h)
	}
	return fresh, hashes
}

// Commit records hashes as freshly inserted. Call only after the batch
// they came from has been durably committed to the mirror.
func Commit(lru *dedup.LRU, hashes []uint64) {
	for _, h := range hashes {
		lru.Add(h)
	}
}
