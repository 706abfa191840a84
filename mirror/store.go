// Package mirror implements the persistent mirror tier: a local,
// spatially-indexed buntdb store holding observations within the
// retention window, behind the upstream authoritative store and in
// front of the in-memory snapshot.
package mirror

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/fmidev/obsengine/cmn"
)

// msgpCodec is the constraint every mirrored entity type must satisfy;
// see cmn/msgp.go for the hand-written implementations.
type msgpCodec interface {
	MarshalMsg([]byte) ([]byte, error)
	UnmarshalMsg([]byte) ([]byte, error)
}

// Store is a buntdb-backed mirror for one entity kind. Keys are built
// so that a lexicographic range scan over a fixed prefix visits rows in
// time order; a companion spatial index (geo-indexed on longitude and
// latitude) supports bounding-box and point+radius predicates.
type Store[T msgpCodec] struct {
	db       *buntdb.DB
	table    string // key/index namespace, one per entity kind
	geoIndex string // spatial index name, table+"_geo"

	mu sync.Mutex // serializes batches against this table, per §4.3

	keyOf    func(T) string // stable-identity key, independent of ObsTime
	timeOf   func(T) time.Time
	lonLatOf func(T) (float64, float64)
	fresh    func() T
}

// Open opens (or creates) a buntdb file at path. path may be ":memory:"
// for an ephemeral store.
func Open(path string) (*buntdb.DB, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, cmn.NewError("mirror.Open", err, "failed to open buntdb at %s", path)
	}
	return db, nil
}

// NewStore wires a table inside db for one entity kind and creates its
// spatial index if it does not already exist (idempotent, per §5.3).
func NewStore[T msgpCodec](
	db *buntdb.DB,
	table string,
	keyOf func(T) string,
	timeOf func(T) time.Time,
	lonLatOf func(T) (float64, float64),
	fresh func() T,
) (*Store[T], error) {
	idx := table + "_geo"
	s := &Store[T]{
		db:       db,
		table:    table,
		geoIndex: idx,
		keyOf:    keyOf,
		timeOf:   timeOf,
		lonLatOf: lonLatOf,
		fresh:    fresh,
	}
	err := db.CreateSpatialIndex(idx, table+":*", buntdb.IndexRect)
	if err != nil && err != buntdb.ErrIndexExists {
		return nil, cmn.NewError("mirror.NewStore", err, "failed to create spatial index for %s", table)
	}
	return s, nil
}

// rowKey embeds the time component so a prefix-bounded ascending scan
// visits rows oldest-first; the stable-identity suffix keeps it unique
// even when several rows share an obs-time.
func (s *Store[T]) rowKey(item T) string {
	return fmt.Sprintf("%s:%020d:%s", s.table, s.timeOf(item).UnixNano(), s.keyOf(item))
}

func (s *Store[T]) prefixFrom(t time.Time) string {
	return fmt.Sprintf("%s:%020d:", s.table, t.UnixNano())
}

// Upsert writes items in chunks of at most batchSize, acquiring the
// table's write lock for the whole call. Within one chunk, rows sharing
// a stable identity are separated so the same row is never written
// twice inside one buntdb transaction; duplicates spill into the next
// chunk instead.
func (s *Store[T]) Upsert(items []T, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = len(items)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	pending := items
	for len(pending) > 0 {
		n := batchSize
		if n > len(pending) {
			n = len(pending)
		}
		chunk := pending[:n]
		pending = pending[n:]

		primary, deferred := splitDuplicates(chunk, s.rowKey)
		pending = append(deferred, pending...)

		if err := s.writeChunk(primary); err != nil {
			return written, err
		}
		written += len(primary)
	}
	return written, nil
}

func splitDuplicates[T any](chunk []T, keyOf func(T) string) (primary, deferred []T) {
	seen := make(map[string]bool, len(chunk))
	for _, it := range chunk {
		k := keyOf(it)
		if seen[k] {
			deferred = append(deferred, it)
			continue
		}
		seen[k] = true
		primary = append(primary, it)
	}
	return primary, deferred
}

func (s *Store[T]) writeChunk(chunk []T) error {
	if len(chunk) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *buntdb.Tx) error {
		for _, item := range chunk {
			buf, err := item.MarshalMsg(nil)
			if err != nil {
				return fmt.Errorf("marshal %s row: %w", s.table, err)
			}
			packed, err := compress(buf)
			if err != nil {
				return fmt.Errorf("compress %s row: %w", s.table, err)
			}
			lon, lat := s.lonLatOf(item)
			rect := fmt.Sprintf("[%f %f]", lon, lat)
			if _, _, err := tx.Set(s.rowKey(item), rect+"\x00"+string(packed), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return cmn.NewError("mirror.Upsert", err, "batch commit failed for table %s", s.table)
	}
	return nil
}

// RangeDelete evicts every row older than cutoff. An optimistic check
// of the oldest row skips issuing any delete when the sweep would be a
// no-op.
func (s *Store[T]) RangeDelete(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldest, ok, err := s.oldestTime()
	if err != nil {
		return 0, err
	}
	if !ok || !oldest.Before(cutoff) {
		return 0, nil
	}

	var toDelete []string
	err = s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendRange("", s.table+":", s.prefixFrom(cutoff), func(key, _ string) bool {
			toDelete = append(toDelete, key)
			return true
		})
	})
	if err != nil {
		return 0, cmn.NewError("mirror.RangeDelete", err, "scan failed for table %s", s.table)
	}
	if len(toDelete) == 0 {
		return 0, nil
	}
	err = s.db.Update(func(tx *buntdb.Tx) error {
		for _, k := range toDelete {
			if _, err := tx.Delete(k); err != nil && err != buntdb.ErrNotFound {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, cmn.NewError("mirror.RangeDelete", err, "delete failed for table %s", s.table)
	}
	return len(toDelete), nil
}

// Floor returns the oldest observation time currently held, i.e. the
// published floor the query dispatcher compares a request's start time
// against when deciding whether this tier can serve it (§4.6).
func (s *Store[T]) Floor() (time.Time, bool, error) {
	return s.oldestTime()
}

func (s *Store[T]) oldestTime() (time.Time, bool, error) {
	var found time.Time
	var ok bool
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(s.table+":*", func(key, _ string) bool {
			found = s.parseTimeFromKey(key)
			ok = true
			return false
		})
	})
	if err != nil {
		return time.Time{}, false, cmn.NewError("mirror.oldestTime", err, "scan failed for table %s", s.table)
	}
	return found, ok, nil
}

func (s *Store[T]) parseTimeFromKey(key string) time.Time {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return time.Time{}
	}
	var nanos int64
	fmt.Sscanf(parts[1], "%d", &nanos)
	return time.Unix(0, nanos).UTC()
}

// RangeQuery returns every row in [from, to] passing geo (nil means no
// geometry predicate — every station matches). Results are sorted by
// time. It applies no data filter and no parameter list: every row of
// every measurand in the window and geometry is returned.
//
// When geo can describe itself as a bounding rectangle (rectBounder),
// the scan runs against the table's spatial index instead of the full
// time range: Intersects yields only the keys inside geo's enclosing
// box, each is still checked against [from, to] and geo's exact
// Contains, but rows outside the box are never decoded. A geo without
// a Rect() falls back to the plain time-range scan.
func (s *Store[T]) RangeQuery(from, to time.Time, geo GeoPredicate) ([]T, error) {
	out := make([]T, 0, 256)
	var scanErr error

	visit := func(key, val string) bool {
		item := s.fresh()
		sep := strings.IndexByte(val, '\x00')
		if sep < 0 {
			scanErr = fmt.Errorf("mirror: malformed row at %s", key)
			return false
		}
		if geo != nil {
			lon, lat, ok := parseRect(val[:sep])
			if !ok || !geo.Contains(lon, lat) {
				return true
			}
		}
		raw, err := decompress([]byte(val[sep+1:]))
		if err != nil {
			scanErr = err
			return false
		}
		if _, err := item.UnmarshalMsg(raw); err != nil {
			scanErr = err
			return false
		}
		out = append(out, item)
		return true
	}

	lo, hi := s.prefixFrom(from), s.prefixFrom(to.Add(time.Nanosecond))

	var txFn func(tx *buntdb.Tx) error
	if bounder, ok := geo.(rectBounder); ok {
		txFn = func(tx *buntdb.Tx) error {
			return tx.Intersects(s.geoIndex, bounder.Rect(), func(key, val string) bool {
				if key < lo || key >= hi {
					return true
				}
				return visit(key, val)
			})
		}
	} else {
		txFn = func(tx *buntdb.Tx) error {
			return tx.AscendRange("", lo, hi, visit)
		}
	}
	if err := s.db.View(txFn); err != nil {
		return nil, cmn.NewError("mirror.RangeQuery", err, "scan failed for table %s", s.table)
	}
	if scanErr != nil {
		return nil, cmn.NewError("mirror.RangeQuery", scanErr, "decode failed for table %s", s.table)
	}
	sort.Slice(out, func(i, j int) bool { return s.timeOf(out[i]).Before(s.timeOf(out[j])) })
	return out, nil
}

func parseRect(rect string) (lon, lat float64, ok bool) {
	_, err := fmt.Sscanf(rect, "[%f %f]", &lon, &lat)
	return lon, lat, err == nil
}
