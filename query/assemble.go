package query

import (
	"context"
	"sort"
	"time"

	"github.com/fmidev/obsengine/cmn"
	"github.com/fmidev/obsengine/stations"
)

// Canonical measurand names the derived parameters depend on; callers
// register these against each station type's numeric measurand ids via
// MeasurandRegistry.Register.
const (
	MeasurandWindDirection  = "winddirection"
	MeasurandTemperature    = "temperature"
	MeasurandHumidity       = "humidity"
	MeasurandWindSpeed      = "windspeedms"
	MeasurandCloudCover     = "totalcloudcover"
	MeasurandPresentWeather = "presentweather"
)

// byTime indexes a station's observations by obs-time and measurand id,
// the shape Execute needs to both answer a requested measurand directly
// and to look up a derived parameter's sibling inputs at the same tick.
type byTime map[time.Time]map[int]*cmn.DataItem

func indexByTime(rows []*cmn.DataItem) byTime {
	idx := make(byTime)
	for _, r := range rows {
		m, ok := idx[r.ObsTime]
		if !ok {
			m = make(map[int]*cmn.DataItem)
			idx[r.ObsTime] = m
		}
		m[r.MeasurandID] = r
	}
	return idx
}

func valueAt(idx byTime, t time.Time, measurandID int) cmn.Value {
	m, ok := idx[t]
	if !ok {
		return cmn.Value{}
	}
	item, ok := m[measurandID]
	if !ok || item.Value == nil {
		return cmn.Value{}
	}
	return cmn.DoubleValue(*item.Value)
}

// Execute answers req for a single already-resolved station, producing
// a column-major Response per §4.6. measurands supplies the
// name->id mapping for req.StationType; station carries the metadata
// special parameters and the derived parameters' lat/lon need. nearby
// carries the station's hit from the resolution search (distance and
// bearing) when req.Stations was a proximity- or group-shaped selector;
// it is nil for selectors that never run a nearest-k search (e.g. a bare
// fmisid list), in which case distance/direction report absent.
// tag/place/geoid always report absent.
func Execute(ctx context.Context, req *Request, src *Source[*cmn.DataItem], measurands *MeasurandRegistry, station *cmn.Station, nearby *stations.Nearby) (*Response, error) {
	rows, _, err := src.Fetch(ctx, req.StartTime, req.EndTime, !req.PreventUpstream)
	if err != nil {
		return nil, err
	}

	own := make([]*cmn.DataItem, 0, len(rows))
	for _, r := range rows {
		if r.Station == station.FmiSID {
			own = append(own, r)
		}
	}

	idx := indexByTime(own)

	var ticks []time.Time
	if req.LatestOnly {
		latest := LatestPerStation(own, func(r *cmn.DataItem) int { return r.Station }, func(r *cmn.DataItem) time.Time { return r.ObsTime })
		for _, r := range latest {
			ticks = append(ticks, r.ObsTime)
		}
	} else if req.TimestepMinutes > 0 {
		loc := req.Timezone
		if loc == nil {
			loc = time.UTC
		}
		ticks = GenerateTicks(req.StartTime, req.EndTime, req.TimestepMinutes, loc)
	} else {
		seen := make(map[time.Time]bool, len(own))
		for _, r := range own {
			if !seen[r.ObsTime] {
				seen[r.ObsTime] = true
				ticks = append(ticks, r.ObsTime)
			}
		}
		sort.Slice(ticks, func(i, j int) bool { return ticks[i].Before(ticks[j]) })
	}

	if err := checkLimits(req.Limits, len(ticks), 1, len(req.Parameters)); err != nil {
		return nil, err
	}

	resp := &Response{Station: station.FmiSID}
	for _, name := range req.Parameters {
		kind, ok := Classify(measurands, req.StationType, name)
		if !ok {
			// Per §7: a name that was presumably meant as a measurand
			// reference but isn't in the station-type's parameter map is
			// ErrUnknownParameter; a recognised-but-unimplemented special
			// parameter name is ErrUnsupportedParameter.
			if kind == ParamMeasurand {
				return nil, cmn.NewError("query.Execute", cmn.ErrUnknownParameter, "parameter %q", name)
			}
			return nil, cmn.NewError("query.Execute", cmn.ErrUnsupportedParameter, "parameter %q", name)
		}
		for _, t := range ticks {
			resp.Set(name, t, evalParam(measurands, req.StationType, name, kind, idx, t, station, nearby))
		}
	}
	return resp, nil
}

func evalParam(measurands *MeasurandRegistry, stationType, name string, kind ParamKind, idx byTime, t time.Time, station *cmn.Station, nearby *stations.Nearby) cmn.Value {
	switch kind {
	case ParamMeasurand:
		id, _ := measurands.Resolve(stationType, name)
		return valueAt(idx, t, id)
	case ParamSpecial:
		return evalSpecial(name, station, t, nearby)
	case ParamDerived:
		return evalDerived(measurands, stationType, name, idx, t, station)
	default:
		return cmn.Value{}
	}
}

// evalSpecial answers the fixed special-parameter set. fmisid/name/
// longitude/latitude/localtime come straight off station; distance and
// direction come from nearby, the station's hit in the nearest-k search
// that produced req.Stations (§4.7), and are absent when Execute was
// not handed one (the selector never ran a proximity search). place/tag
// and geoid are not yet backed by a gazetteer or geoid table, so they
// stay absent until one exists.
func evalSpecial(name string, station *cmn.Station, t time.Time, nearby *stations.Nearby) cmn.Value {
	switch normalizeParam(name) {
	case SpecialStation:
		return cmn.IntValue(int64(station.FmiSID))
	case SpecialName:
		return cmn.StringValue(station.Name)
	case SpecialLongitude:
		return cmn.DoubleValue(station.Longitude)
	case SpecialLatitude:
		return cmn.DoubleValue(station.Latitude)
	case SpecialLocalTime:
		return cmn.TimeValue(t)
	case SpecialDistance:
		if nearby == nil {
			return cmn.Value{}
		}
		return cmn.DoubleValue(nearby.DistanceKM)
	case SpecialDirection:
		if nearby == nil {
			return cmn.Value{}
		}
		return cmn.DoubleValue(nearby.StationDirection)
	default:
		return cmn.Value{}
	}
}

func evalDerived(measurands *MeasurandRegistry, stationType, name string, idx byTime, t time.Time, station *cmn.Station) cmn.Value {
	need := func(m string) cmn.Value {
		id, ok := measurands.Resolve(stationType, m)
		if !ok {
			return cmn.Value{}
		}
		return valueAt(idx, t, id)
	}
	switch normalizeParam(name) {
	case cmn.ParamWindCompass8, cmn.ParamWindCompass16, cmn.ParamWindCompass32:
		return WindCompass(normalizeParam(name), need(MeasurandWindDirection))
	case cmn.ParamFeelsLike:
		return FeelsLike(need(MeasurandTemperature), need(MeasurandHumidity), need(MeasurandWindSpeed))
	case cmn.ParamSmartSymbol:
		return SmartSymbol(need(MeasurandPresentWeather), need(MeasurandCloudCover), need(MeasurandTemperature),
			station.Latitude, station.Longitude, t)
	default:
		return cmn.Value{}
	}
}
