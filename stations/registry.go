// Package stations implements the station resolution subsystem: a
// versioned, atomically-published registry (modelled on cluster.Smap's
// publish-by-replace cluster map) plus nearest-k search, group
// membership filtering, and bounded LRU caches invalidated on republish.
package stations

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/OneOfOne/xxhash"

	"github.com/fmidev/obsengine/cmn"
)

// Registry is one immutable, versioned view of every station, its
// locations and its group memberships. A new Registry entirely replaces
// the previous one on republish; nothing in this package mutates a
// Registry's fields after it is built.
type Registry struct {
	Version int64
	Digest  uint64

	byFmisid map[int]*cmn.Station
	byGeoID  map[int]*cmn.Station
	byWMO    map[int]*cmn.Station
	byLPNN   map[int]*cmn.Station
	byRWSID  map[int]*cmn.Station

	locations map[int][]cmn.LocationItem // fmisid -> validity-ordered locations
	groups    map[string]*cmn.StationGroup
}

// Builder accumulates stations/locations/groups for one registry
// version; call Build to freeze it.
type Builder struct {
	version   int64
	stations  []*cmn.Station
	locations map[int][]cmn.LocationItem
	groups    map[string]*cmn.StationGroup
}

func NewBuilder(version int64) *Builder {
	return &Builder{
		version:   version,
		locations: make(map[int][]cmn.LocationItem),
		groups:    make(map[string]*cmn.StationGroup),
	}
}

func (b *Builder) AddStation(s *cmn.Station) *Builder {
	b.stations = append(b.stations, s)
	return b
}

func (b *Builder) AddLocation(l cmn.LocationItem) *Builder {
	b.locations[l.Station] = append(b.locations[l.Station], l)
	return b
}

func (b *Builder) AddGroup(g *cmn.StationGroup) *Builder {
	b.groups[g.Code] = g
	return b
}

func (b *Builder) Build() *Registry {
	r := &Registry{
		Version:   b.version,
		byFmisid:  make(map[int]*cmn.Station, len(b.stations)),
		byGeoID:   make(map[int]*cmn.Station),
		byWMO:     make(map[int]*cmn.Station),
		byLPNN:    make(map[int]*cmn.Station),
		byRWSID:   make(map[int]*cmn.Station),
		locations: b.locations,
		groups:    b.groups,
	}
	for fmisid, locs := range r.locations {
		sort.Slice(locs, func(i, j int) bool { return locs[i].ValidFrom.Before(locs[j].ValidFrom) })
		r.locations[fmisid] = locs
	}
	for _, s := range b.stations {
		r.byFmisid[s.FmiSID] = s
		if s.GeoID != nil {
			r.byGeoID[*s.GeoID] = s
		}
		if s.WMO != nil {
			r.byWMO[*s.WMO] = s
		}
		if s.LPNN != nil {
			r.byLPNN[*s.LPNN] = s
		}
		if s.RWSID != nil {
			r.byRWSID[*s.RWSID] = s
		}
	}
	r.Digest = digestOf(r.byFmisid, b.version)
	return r
}

// digestOf mirrors cluster.Snode.Digest()'s use of a seeded xxhash
// checksum over a stable string key, here the sorted station-id list
// salted with the registry version so two registries holding the same
// stations at different versions still digest differently.
func digestOf(stations map[int]*cmn.Station, version int64) uint64 {
	ids := make([]int, 0, len(stations))
	for id := range stations {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(strconv.Itoa(id))
		sb.WriteByte(',')
	}
	return xxhash.ChecksumString64S(sb.String(), uint64(version))
}

// ByFmisid, ByGeoID, ByWMO, ByLPNN, ByRWSID resolve a single numeric
// identifier to a station, or (nil, false) if unknown.
func (r *Registry) ByFmisid(id int) (*cmn.Station, bool) { s, ok := r.byFmisid[id]; return s, ok }
func (r *Registry) ByGeoID(id int) (*cmn.Station, bool)  { s, ok := r.byGeoID[id]; return s, ok }
func (r *Registry) ByWMO(id int) (*cmn.Station, bool)    { s, ok := r.byWMO[id]; return s, ok }
func (r *Registry) ByLPNN(id int) (*cmn.Station, bool)   { s, ok := r.byLPNN[id]; return s, ok }
func (r *Registry) ByRWSID(id int) (*cmn.Station, bool)  { s, ok := r.byRWSID[id]; return s, ok }

// Group returns the named station group, or (nil, false) if unknown.
func (r *Registry) Group(code string) (*cmn.StationGroup, bool) {
	g, ok := r.groups[code]
	return g, ok
}

// LocationAt returns the location valid at t for fmisid, falling back
// to the station's own Longitude/Latitude when no interval-bounded
// location covers t (matching MovingLocationItem's role for producers
// that carry no location table, per SPEC_FULL.md §5.4).
func (r *Registry) LocationAt(fmisid int, t time.Time) (cmn.LocationItem, bool) {
	for _, l := range r.locations[fmisid] {
		if l.Covers(t) {
			return l, true
		}
	}
	if s, ok := r.byFmisid[fmisid]; ok {
		return cmn.LocationItem{Station: fmisid, Longitude: s.Longitude, Latitude: s.Latitude, TimezoneName: s.Timezone}, true
	}
	return cmn.LocationItem{}, false
}

// AllStations returns every station in the registry, in fmisid order,
// for callers that need the full "allplaces" set.
func (r *Registry) AllStations() []*cmn.Station {
	out := make([]*cmn.Station, 0, len(r.byFmisid))
	for _, s := range r.byFmisid {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FmiSID < out[j].FmiSID })
	return out
}

// InGroup reports whether station fmisid belongs to group at time t.
func (r *Registry) InGroup(code string, fmisid int, t time.Time) bool {
	g, ok := r.groups[code]
	if !ok {
		return false
	}
	m, ok := g.Members[fmisid]
	return ok && m.Covers(t)
}
