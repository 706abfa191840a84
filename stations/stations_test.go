package stations

import (
	"testing"
	"time"

	"github.com/fmidev/obsengine/cmn"
)

func testRegistry() *Registry {
	b := NewBuilder(1)
	geo1, geo2 := 100, 200
	helsinki := &cmn.Station{FmiSID: 1, GeoID: &geo1, Name: "Helsinki", Longitude: 24.9, Latitude: 60.2,
		Start: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)}
	tampere := &cmn.Station{FmiSID: 2, GeoID: &geo2, Name: "Tampere", Longitude: 23.8, Latitude: 61.5,
		Start: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)}
	b.AddStation(helsinki).AddStation(tampere)
	b.AddGroup(&cmn.StationGroup{Code: "synop", Members: map[int]cmn.GroupMembership{
		1: {ValidFrom: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), ValidTo: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)},
	}})
	return b.Build()
}

func TestResolveByFmisid(t *testing.T) {
	r := testRegistry()
	out := r.Resolve(Selector{Fmisids: []int{1, 2}})
	if len(out) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(out))
	}
}

func TestResolveGroupFilterExcludesNonMembers(t *testing.T) {
	r := testRegistry()
	out := r.Resolve(Selector{Fmisids: []int{1, 2}, Group: "synop"})
	if len(out) != 1 || out[0].Station.FmiSID != 1 {
		t.Fatalf("expected only station 1 (synop member), got %+v", out)
	}
}

func TestResolveUnionAndDedup(t *testing.T) {
	r := testRegistry()
	out := r.Resolve(Selector{Fmisids: []int{1}, Geoids: []int{100}}) // both resolve to station 1
	if len(out) != 1 {
		t.Fatalf("expected duplicates collapsed to 1, got %d", len(out))
	}
}

func TestNearestKOrdersByDistanceThenID(t *testing.T) {
	r := testRegistry()
	got := r.NearestK(24.9, 60.2, 500_000, 2, "")
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Station.FmiSID != 1 {
		t.Fatalf("expected closest station (self) first, got %d", got[0].Station.FmiSID)
	}
	if got[0].DistanceKM > got[1].DistanceKM {
		t.Fatalf("expected ascending distance order")
	}
}

func TestOwnerRepublishInvalidatesCache(t *testing.T) {
	o := NewOwner(16)
	o.Republish(testRegistry())

	s, ok := o.ByIDCached("fmisid", 1)
	if !ok || s.Name != "Helsinki" {
		t.Fatalf("expected to resolve station 1, got %+v ok=%v", s, ok)
	}

	// Republish with a registry missing station 1 entirely.
	b := NewBuilder(2)
	b.AddStation(&cmn.Station{FmiSID: 2, Name: "Tampere"})
	o.Republish(b.Build())

	if _, ok := o.ByIDCached("fmisid", 1); ok {
		t.Fatalf("expected stale cache entry to be gone after republish")
	}
}
