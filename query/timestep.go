package query

import (
	"sort"
	"time"
)

// GenerateTicks returns the regular series of timestamps in [start, end]
// for a timestep of stepMinutes, in loc, starting at the first tick
// aligned to the step boundary (e.g. a 10-minute step yields :00, :10,
// :20, ...). A non-positive stepMinutes means "native observation
// times," which this function does not produce — callers check that
// case before calling.
func GenerateTicks(start, end time.Time, stepMinutes int, loc *time.Location) []time.Time {
	if stepMinutes <= 0 || end.Before(start) {
		return nil
	}
	step := time.Duration(stepMinutes) * time.Minute
	local := start.In(loc)

	stepSecs := int64(step.Seconds())
	truncated := (local.Unix() / stepSecs) * stepSecs
	aligned := time.Unix(truncated, 0).In(loc)
	if aligned.Before(local) {
		aligned = aligned.Add(step)
	}

	var out []time.Time
	for ts := aligned; !ts.After(end); ts = ts.Add(step) {
		out = append(out, ts)
	}
	return out
}

// LatestPerStation collapses items to the single most recent row per
// station, per §4.6's "latest-only" mode. Ties keep whichever row the
// input presented last.
func LatestPerStation[T any](items []T, stationOf func(T) int, timeOf func(T) time.Time) []T {
	best := make(map[int]T, len(items))
	for _, it := range items {
		st := stationOf(it)
		cur, ok := best[st]
		if !ok || !timeOf(it).Before(timeOf(cur)) {
			best[st] = it
		}
	}
	stationIDs := make([]int, 0, len(best))
	for st := range best {
		stationIDs = append(stationIDs, st)
	}
	sort.Ints(stationIDs)

	out := make([]T, len(stationIDs))
	for i, st := range stationIDs {
		out[i] = best[st]
	}
	return out
}
