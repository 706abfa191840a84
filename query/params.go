package query

import "github.com/fmidev/obsengine/cmn"

// ParamKind classifies a requested parameter name, per §4.6.
type ParamKind int

const (
	ParamMeasurand ParamKind = iota
	ParamSpecial
	ParamDerived
)

// Special parameter names, not backed by a measurand id.
const (
	SpecialStation   = "fmisid"
	SpecialGeoID     = "geoid"
	SpecialName      = "name"
	SpecialLongitude = "longitude"
	SpecialLatitude  = "latitude"
	SpecialLocalTime = "localtime"
	SpecialPlace     = "place"
	SpecialTag       = "tag"
	SpecialDistance  = "distance"
	SpecialDirection = "direction"
)

var derivedParams = map[string]bool{
	cmn.ParamWindCompass8:  true,
	cmn.ParamWindCompass16: true,
	cmn.ParamWindCompass32: true,
	cmn.ParamFeelsLike:     true,
	cmn.ParamSmartSymbol:   true,
}

var specialParams = map[string]bool{
	SpecialStation: true, SpecialGeoID: true, SpecialName: true,
	SpecialLongitude: true, SpecialLatitude: true, SpecialLocalTime: true,
	SpecialPlace: true, SpecialTag: true, SpecialDistance: true, SpecialDirection: true,
}

// Station-metadata special-parameter names (§3's Station fields) that the
// grammar recognises as special-parameter-shaped but that the dispatcher
// does not implement. Requesting one of these is an explicit
// ErrUnsupportedParameter, distinct from a name that simply isn't in the
// station-type's measurand map (ErrUnknownParameter).
var unsupportedSpecialParams = map[string]bool{
	"wmo": true, "lpnn": true, "rwsid": true, "stationtype": true,
}

// ObservableProperty describes a special parameter that carries its own
// id/label/unit/stattype, consulted only for the subset of special
// parameters that need more than a bare value (§5.5); the numeric
// measurand fast path never touches this table.
type ObservableProperty struct {
	ID       int
	Label    string
	Unit     string
	StatType string
}

var observableProperties = map[string]ObservableProperty{
	SpecialLongitude: {ID: 1, Label: "Longitude", Unit: "degree", StatType: "instant"},
	SpecialLatitude:  {ID: 2, Label: "Latitude", Unit: "degree", StatType: "instant"},
	SpecialDistance:  {ID: 3, Label: "Distance", Unit: "km", StatType: "instant"},
	SpecialDirection: {ID: 4, Label: "Direction", Unit: "degree", StatType: "instant"},
}

// LookupObservableProperty returns the descriptive metadata for a
// self-describing special parameter.
func LookupObservableProperty(name string) (ObservableProperty, bool) {
	p, ok := observableProperties[normalizeParam(name)]
	return p, ok
}

// Classify categorises name against measurands (station-type specific),
// the fixed special-parameter set, and the fixed derived-parameter set.
// Per §7's error taxonomy, an unrecognised name reports which sentinel
// the caller should raise: a name shaped like station metadata that
// isn't implemented is ParamSpecial/ok=false (ErrUnsupportedParameter);
// anything else is presumed to have been meant as a measurand reference
// and is not in the station-type's parameter map, so it is
// ParamMeasurand/ok=false (ErrUnknownParameter).
func Classify(measurands *MeasurandRegistry, stationType, name string) (kind ParamKind, ok bool) {
	n := normalizeParam(name)
	if derivedParams[n] {
		return ParamDerived, true
	}
	if specialParams[n] {
		return ParamSpecial, true
	}
	if _, found := measurands.Resolve(stationType, n); found {
		return ParamMeasurand, true
	}
	if unsupportedSpecialParams[n] {
		return ParamSpecial, false
	}
	return ParamMeasurand, false
}
