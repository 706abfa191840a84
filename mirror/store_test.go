package mirror

import (
	"testing"
	"time"

	"github.com/fmidev/obsengine/cmn"
)

func openTestDB(t *testing.T) *Store[*cmn.DataItem] {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := NewDataItemStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func testItem(station int, t time.Time, v float64) *cmn.DataItem {
	val := v
	return &cmn.DataItem{Station: station, Sensor: cmn.DefaultSensorNo, MeasurandID: 1, Producer: 1, ObsTime: t, Value: &val}
}

func TestUpsertAndRangeQuery(t *testing.T) {
	s := openTestDB(t)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	items := []*cmn.DataItem{
		testItem(1, base, 1.0),
		testItem(1, base.Add(time.Hour), 2.0),
		testItem(2, base.Add(2*time.Hour), 3.0),
	}
	n, err := s.Upsert(items, 10)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows written, got %d", n)
	}

	got, err := s.RangeQuery(base, base.Add(time.Hour), nil)
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows in range, got %d", len(got))
	}
}

func TestUpsertDefersDuplicateStableIdentity(t *testing.T) {
	s := openTestDB(t)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	a := testItem(1, base, 1.0)
	b := testItem(1, base, 2.0) // same stable identity, different value

	n, err := s.Upsert([]*cmn.DataItem{a, b}, 10)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows written across mini-batches, got %d", n)
	}
	got, err := s.RangeQuery(base, base, nil)
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected last writer to win for one stable identity, got %d rows", len(got))
	}
	if *got[0].Value != 2.0 {
		t.Fatalf("expected overwrite-on-conflict, got value %v", *got[0].Value)
	}
}

func TestRangeDeleteSkipsNoOpSweep(t *testing.T) {
	s := openTestDB(t)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	s.Upsert([]*cmn.DataItem{testItem(1, base.Add(time.Hour), 1.0)}, 10)

	n, err := s.RangeDelete(base) // cutoff older than all rows
	if err != nil {
		t.Fatalf("range delete: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no-op sweep, deleted %d", n)
	}

	n, err = s.RangeDelete(base.Add(2 * time.Hour))
	if err != nil {
		t.Fatalf("range delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row deleted, got %d", n)
	}
}

func TestRangeQueryWithGeoPredicate(t *testing.T) {
	db, _ := Open(":memory:")
	defer db.Close()
	s, err := NewFlashStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	near := &cmn.FlashDataItem{StrokeTime: base, FlashID: 1, Longitude: 25.0, Latitude: 60.0}
	far := &cmn.FlashDataItem{StrokeTime: base, FlashID: 2, Longitude: 100.0, Latitude: 10.0}
	if _, err := s.Upsert([]*cmn.FlashDataItem{near, far}, 10); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.RangeQuery(base, base, RadiusPredicate{Lon: 25.0, Lat: 60.0, RadiusM: 1000})
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(got) != 1 || got[0].FlashID != 1 {
		t.Fatalf("expected only the nearby flash to match, got %+v", got)
	}
}

func TestRangeQueryWithBBoxUsesSpatialIndex(t *testing.T) {
	db, _ := Open(":memory:")
	defer db.Close()
	s, err := NewFlashStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	inside := &cmn.FlashDataItem{StrokeTime: base, FlashID: 1, Longitude: 25.0, Latitude: 60.0}
	outside := &cmn.FlashDataItem{StrokeTime: base, FlashID: 2, Longitude: -10.0, Latitude: -10.0}
	if _, err := s.Upsert([]*cmn.FlashDataItem{inside, outside}, 10); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	box := BBoxPredicate{XMin: 20, YMin: 55, XMax: 30, YMax: 65}
	if _, ok := interface{}(box).(rectBounder); !ok {
		t.Fatalf("BBoxPredicate must implement rectBounder for RangeQuery to use the spatial index")
	}
	got, err := s.RangeQuery(base, base, box)
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(got) != 1 || got[0].FlashID != 1 {
		t.Fatalf("expected only the in-box flash to match, got %+v", got)
	}
}
