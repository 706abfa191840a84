package stations

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/fmidev/obsengine/cmn"
)

// PointRadius is a coordinate plus a search radius in kilometres.
type PointRadius struct {
	Lon, Lat, RadiusKM float64
}

// TaggedLocation is a named point+radius or geoid+radius search, whose
// Tag is copied onto every station it resolves (§4.7 post-processing).
type TaggedLocation struct {
	Tag     string
	GeoID   *int
	Point   *PointRadius
	BBox    *BBox
}

// BBox is an axis-aligned longitude/latitude envelope (EPSG:4326).
type BBox struct {
	XMin, YMin, XMax, YMax float64
}

func (b BBox) contains(lon, lat float64) bool {
	return lon >= b.XMin && lon <= b.XMax && lat >= b.YMin && lat <= b.YMax
}

// Selector is the union of every request-level station identifier
// channel; Resolve unions whatever is populated.
type Selector struct {
	TaggedLocations []TaggedLocation
	Geoids          []int
	Fmisids         []int
	WMOs            []int
	LPNNs           []int
	RWSIDs          []int
	Points          []PointRadius
	BBox            *BBox
	WKT             string
	AllPlaces       bool

	Group    string // empty means no group restriction
	WindowAt time.Time
	MaxK     int // numberofstations, applied per point+radius channel
}

// Resolved is a station plus the post-processing fields attached by
// whichever channel produced it.
type Resolved struct {
	Station          *cmn.Station
	DistanceKM       float64
	StationDirection float64
	RequestedLon     float64
	RequestedLat     float64
	Tag              string
}

// Resolve converts sel into a concrete, deduplicated station set (union
// across channels, collapsed by FmiSID) against Registry r.
func (r *Registry) Resolve(sel Selector) []Resolved {
	var out []Resolved
	add := func(res Resolved) {
		if sel.Group != "" && !r.InGroup(sel.Group, res.Station.FmiSID, sel.WindowAt) {
			return
		}
		out = append(out, res)
	}

	for _, id := range sel.Geoids {
		if s, ok := r.ByGeoID(id); ok {
			add(Resolved{Station: s})
		}
	}
	for _, id := range sel.Fmisids {
		if s, ok := r.ByFmisid(id); ok {
			add(Resolved{Station: s})
		}
	}
	for _, id := range sel.WMOs {
		if s, ok := r.ByWMO(id); ok {
			add(Resolved{Station: s})
		}
	}
	for _, id := range sel.LPNNs {
		if s, ok := r.ByLPNN(id); ok {
			add(Resolved{Station: s})
		}
	}
	for _, id := range sel.RWSIDs {
		if s, ok := r.ByRWSID(id); ok {
			add(Resolved{Station: s})
		}
	}

	for _, p := range sel.Points {
		for _, n := range r.NearestK(p.Lon, p.Lat, p.RadiusKM*1000, sel.MaxK, sel.Group) {
			add(Resolved{
				Station: n.Station, DistanceKM: n.DistanceKM, StationDirection: n.StationDirection,
				RequestedLon: p.Lon, RequestedLat: p.Lat,
			})
		}
	}

	for _, tl := range sel.TaggedLocations {
		switch {
		case tl.GeoID != nil:
			if s, ok := r.ByGeoID(*tl.GeoID); ok {
				add(Resolved{Station: s, Tag: tl.Tag})
			}
		case tl.Point != nil:
			for _, n := range r.NearestK(tl.Point.Lon, tl.Point.Lat, tl.Point.RadiusKM*1000, sel.MaxK, sel.Group) {
				add(Resolved{
					Station: n.Station, DistanceKM: n.DistanceKM, StationDirection: n.StationDirection,
					RequestedLon: tl.Point.Lon, RequestedLat: tl.Point.Lat, Tag: tl.Tag,
				})
			}
		case tl.BBox != nil:
			for _, s := range r.byFmisid {
				if tl.BBox.contains(s.Longitude, s.Latitude) {
					add(Resolved{Station: s, Tag: tl.Tag})
				}
			}
		}
	}

	if sel.BBox != nil {
		for _, s := range r.byFmisid {
			if sel.BBox.contains(s.Longitude, s.Latitude) {
				add(Resolved{Station: s})
			}
		}
	}

	if sel.WKT != "" {
		poly, ok := parseWKTPolygon(sel.WKT)
		if ok {
			for _, s := range r.byFmisid {
				if pointInPolygon(s.Longitude, s.Latitude, poly) {
					add(Resolved{Station: s})
				}
			}
		}
	}

	if sel.AllPlaces {
		for _, s := range r.AllStations() {
			if s.Active(sel.WindowAt) {
				add(Resolved{Station: s})
			}
		}
	}

	// Duplicates across channels are collapsed by station id; the first
	// channel to surface a station wins its tag/distance fields.
	return lo.UniqBy(out, func(res Resolved) int { return res.Station.FmiSID })
}

type point struct{ x, y float64 }

// parseWKTPolygon parses a single-ring "POLYGON((x y, x y, ...))"
// string. Holes and multi-geometries are not supported; an unsupported
// shape returns ok=false so the caller simply skips the predicate.
func parseWKTPolygon(wkt string) ([]point, bool) {
	s := strings.TrimSpace(wkt)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "POLYGON") {
		return nil, false
	}
	open := strings.Index(s, "((")
	close := strings.LastIndex(s, "))")
	if open < 0 || close < 0 || close <= open {
		return nil, false
	}
	body := s[open+2 : close]
	pairs := strings.Split(body, ",")
	pts := make([]point, 0, len(pairs))
	for _, p := range pairs {
		fields := strings.Fields(strings.TrimSpace(p))
		if len(fields) < 2 {
			return nil, false
		}
		x, err1 := strconv.ParseFloat(fields[0], 64)
		y, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return nil, false
		}
		pts = append(pts, point{x, y})
	}
	if len(pts) < 3 {
		return nil, false
	}
	return pts, true
}

// pointInPolygon uses the standard even-odd ray casting rule.
func pointInPolygon(x, y float64, poly []point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.y > y) != (pj.y > y) &&
			x < (pj.x-pi.x)*(y-pi.y)/(pj.y-pi.y)+pi.x {
			inside = !inside
		}
	}
	return inside
}
