package cmn

import "time"

// EntityKind identifies one of the observation families the cache mirrors.
// Each kind has its own mirror table, watermark pair, insert-dedup LRU
// capacity, and retention window.
type EntityKind int

const (
	KindObservation EntityKind = iota // DataItem: authoritative weather station data
	KindFlash                         // FlashDataItem: lightning strokes
	KindRoadWeather                   // QualityCodedDatum: road/foreign-station readings
	KindMobile                        // MobileExternalDatum: crowd-sourced samples
)

func (k EntityKind) String() string {
	switch k {
	case KindObservation:
		return "observation"
	case KindFlash:
		return "flash"
	case KindRoadWeather:
		return "road_weather"
	case KindMobile:
		return "mobile"
	default:
		return "unknown"
	}
}

// Self-assigned producer numbers, carried over from the authoritative
// schema so that mirror rows can be joined back against it.
const (
	ForeignProducer = 1001
	RoadProducer    = 1002
)

// Default sensor number used when a reading omits one.
const DefaultSensorNo = 1

// Comparison operators recognised by the data filter compiler (§4.1).
const (
	OpLT = "lt"
	OpLE = "le"
	OpEQ = "eq"
	OpGE = "ge"
	OpGT = "gt"
)

// Join operators for two-term filter sub-expressions.
const (
	JoinAND = "AND"
	JoinOR  = "OR"
)

// Derived parameter names recognised by the query dispatcher (§4.6).
const (
	ParamWindCompass8  = "windcompass8"
	ParamWindCompass16 = "windcompass16"
	ParamWindCompass32 = "windcompass32"
	ParamFeelsLike     = "feelslike"
	ParamSmartSymbol   = "smartsymbol"
)

// QCPrefix is stripped from parameter names during case-insensitive lookup.
const QCPrefix = "qc_"

// AllPlaces is the station-selector sentinel meaning "every station in the
// requested groups with a validity interval covering the request window."
const AllPlaces = "allplaces"

// Retention sweeps round the cutoff down to the minute to batch deletions.
const RetentionGranularity = time.Minute

// ModifiedWatermarkGuard bounds an incremental pull: if the modified-at
// watermark is older than this, the maintainer falls back to the obs-time
// watermark to guard against clock regressions producing huge sweeps.
const ModifiedWatermarkGuard = 366 * 24 * time.Hour

// LargeSweepThreshold is the delta span above which the maintainer emits a
// large-sweep warning.
const LargeSweepThreshold = 24 * time.Hour
