package stations

import (
	"math"
	"sort"

	"github.com/fmidev/obsengine/cmn"
)

const earthRadiusM = 6371000.0

// Nearby is one nearest-k search hit, carrying the post-processing
// fields §4.7 requires on every returned station.
type Nearby struct {
	Station          *cmn.Station
	DistanceKM       float64 // to one decimal, per spec
	StationDirection float64 // bearing in degrees from the requested point
}

// NearestK returns up to k stations within radiusM metres of
// (lon, lat), restricted to group, ordered ascending by distance then
// by FmiSID for determinism.
func (r *Registry) NearestK(lon, lat, radiusM float64, k int, group string) []Nearby {
	type cand struct {
		s    *cmn.Station
		dist float64
		bear float64
	}
	var all []cand
	for _, s := range r.byFmisid {
		if group != "" && !r.InGroup(group, s.FmiSID, s.Start) {
			continue
		}
		d := greatCircleMeters(lon, lat, s.Longitude, s.Latitude)
		if d > radiusM {
			continue
		}
		all = append(all, cand{s: s, dist: d, bear: bearing(lon, lat, s.Longitude, s.Latitude)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].s.FmiSID < all[j].s.FmiSID
	})
	if k > 0 && len(all) > k {
		all = all[:k]
	}
	out := make([]Nearby, len(all))
	for i, c := range all {
		out[i] = Nearby{
			Station:          c.s,
			DistanceKM:       math.Round(c.dist/100) / 10, // metres -> km, one decimal
			StationDirection: c.bear,
		}
	}
	return out
}

func greatCircleMeters(lon1, lat1, lon2, lat2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// bearing returns the initial great-circle bearing in degrees [0, 360)
// from (lon1, lat1) to (lon2, lat2).
func bearing(lon1, lat1, lon2, lat2 float64) float64 {
	rad := math.Pi / 180
	phi1, phi2 := lat1*rad, lat2*rad
	dLon := (lon2 - lon1) * rad
	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	theta := math.Atan2(y, x) / rad
	return math.Mod(theta+360, 360)
}
