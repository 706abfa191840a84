// Package query implements the dispatcher: tier selection, parameter
// classification, derived-parameter computation, timestep generation,
// and column-major result assembly described by §4.6.
package query

import (
	"time"

	"github.com/fmidev/obsengine/cmn"
	"github.com/fmidev/obsengine/filter"
	"github.com/fmidev/obsengine/stations"
)

// Request carries everything the dispatcher needs to answer one query,
// per §4.6's "request object" (station-type, selectors, time window,
// timestep, timezone, parameters, filters, limits).
type Request struct {
	StationType string
	Stations    stations.Selector

	StartTime time.Time
	EndTime   time.Time
	WantedAt  *time.Time // optional nearest-tick anchor

	TimestepMinutes int
	LatestOnly      bool
	Timezone        *time.Location

	Parameters []string
	Filters    map[string]string // name -> raw filter expression, compiled via filter.Set

	PreventUpstream bool // "prevent-database-query"
	Debug           bool

	Limits RequestLimits
}

// RequestLimits bounds assembly cost; exceeding any of them raises
// cmn.ErrRequestLimitExceeded.
type RequestLimits struct {
	MaxTimesteps int
	MaxStations  int
	MaxElements  int // timesteps * parameters * stations, the final result cell count
}

// CompileFilters turns the request's raw per-name filter expressions
// into a filter.Set, surfacing the first malformed expression as an
// error carrying the offending substring (§4.1).
func (r *Request) CompileFilters() (*filter.Set, error) {
	set := filter.NewSet()
	for name, expr := range r.Filters {
		if err := set.Add(name, expr); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// checkLimits enforces RequestLimits against the shape about to be
// assembled, per §4.6's failure semantics.
func checkLimits(limits RequestLimits, numTicks, numStations, numParams int) error {
	if limits.MaxTimesteps > 0 && numTicks > limits.MaxTimesteps {
		return cmn.NewError("query.checkLimits", cmn.ErrRequestLimitExceeded, "timesteps %d exceeds limit %d", numTicks, limits.MaxTimesteps)
	}
	if limits.MaxStations > 0 && numStations > limits.MaxStations {
		return cmn.NewError("query.checkLimits", cmn.ErrRequestLimitExceeded, "stations %d exceeds limit %d", numStations, limits.MaxStations)
	}
	if limits.MaxElements > 0 {
		if elems := numTicks * numStations * numParams; elems > limits.MaxElements {
			return cmn.NewError("query.checkLimits", cmn.ErrRequestLimitExceeded, "elements %d exceeds limit %d", elems, limits.MaxElements)
		}
	}
	return nil
}
