package cmn

import (
	"fmt"
	"time"

	"github.com/OneOfOne/xxhash"
)

// Value is a tagged union over {absent, double, integer, string,
// local-date-time}, used for both measurand and special/derived parameter
// output columns.
type Value struct {
	Kind ValueKind
	Num  float64
	Int  int64
	Str  string
	Time time.Time
}

type ValueKind uint8

const (
	ValueAbsent ValueKind = iota
	ValueDouble
	ValueInt
	ValueString
	ValueTime
)

func DoubleValue(v float64) Value  { return Value{Kind: ValueDouble, Num: v} }
func IntValue(v int64) Value       { return Value{Kind: ValueInt, Int: v} }
func StringValue(v string) Value   { return Value{Kind: ValueString, Str: v} }
func TimeValue(v time.Time) Value  { return Value{Kind: ValueTime, Time: v} }
func (v Value) IsAbsent() bool     { return v.Kind == ValueAbsent }

// DataItem is a single authoritative-network measurement. Stable identity
// is (Station, Sensor, MeasurandID, Producer, MeasurandNo, ObsTime); the
// dedup hash additionally folds in Value/Quality/DataSource/ModifiedLast,
// matching original_source/observation/DataItem.cpp::hash_value (see
// DESIGN.md "Open Question resolutions" for why this is intentional).
type DataItem struct {
	Station      int
	Sensor       int // default DefaultSensorNo
	MeasurandID  int
	Producer     int
	MeasurandNo  int
	ObsTime      time.Time
	Value        *float64 // nil == unknown
	Quality      int
	DataSource   *int // nil == NULL
	ModifiedLast time.Time
}

func (d *DataItem) valueString() string {
	if d.Value == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", *d.Value)
}

func (d *DataItem) sourceString() string {
	if d.DataSource == nil {
		return "NULL"
	}
	return fmt.Sprintf("%d", *d.DataSource)
}

// Hash returns the stable-identity + value fingerprint used by the
// insert-dedup LRU and the memory snapshot's duplicate check.
func (d *DataItem) Hash() uint64 {
	h := xxhash.New64()
	fmt.Fprintf(h, "%d|%d|%d|%d|%d|%d|%s|%d|%s|%d",
		d.Station, d.Sensor, d.MeasurandID, d.Producer, d.MeasurandNo,
		d.ObsTime.UnixNano(), d.valueString(), d.Quality, d.sourceString(),
		d.ModifiedLast.UnixNano())
	return h.Sum64()
}

// Key is the stable-identity tuple, independent of the observed value —
// used for upsert conflict resolution (overwrite-on-conflict).
type DataItemKey struct {
	Station, Sensor, MeasurandID, Producer, MeasurandNo int
	ObsTime                                             time.Time
}

func (d *DataItem) Key() DataItemKey {
	return DataItemKey{d.Station, d.Sensor, d.MeasurandID, d.Producer, d.MeasurandNo, d.ObsTime}
}

// FlashDataItem is a single lightning stroke. Stable identity is
// (StrokeTime, StrokeTimeFraction, FlashID).
type FlashDataItem struct {
	StrokeTime         time.Time
	StrokeTimeFraction int
	FlashID            uint
	Longitude          float64
	Latitude           float64
	Multiplicity       int
	PeakCurrent        int
	Sensors            int
	FreedomDegree      int
	EllipseAngle       float64
	EllipseMajor       float64
	EllipseMinor       float64
	ChiSquare          float64
	RiseTime           float64
	PTZTime            float64
	CloudIndicator     int
	AngleIndicator     int
	SignalIndicator    int
	TimingIndicator    int
	StrokeStatus       int
	DataSource         *int
	ModifiedBy         int
	Created            time.Time
	ModifiedLast       time.Time
}

type FlashKey struct {
	StrokeTime         time.Time
	StrokeTimeFraction int
	FlashID            uint
}

func (f *FlashDataItem) Key() FlashKey {
	return FlashKey{f.StrokeTime, f.StrokeTimeFraction, f.FlashID}
}

func (f *FlashDataItem) Hash() uint64 {
	h := xxhash.New64()
	src := -1
	if f.DataSource != nil {
		src = *f.DataSource
	}
	fmt.Fprintf(h, "%d|%d|%d|%d|%f|%f|%d|%d|%d|%d|%f|%f|%f|%f|%f|%f|%d|%d|%d|%d|%d|%d|%d|%d",
		f.StrokeTime.UnixNano(), f.StrokeTimeFraction, f.FlashID, f.Multiplicity,
		f.Longitude, f.Latitude, f.PeakCurrent, f.Sensors, f.FreedomDegree, src,
		f.EllipseAngle, f.EllipseMajor, f.EllipseMinor, f.ChiSquare, f.RiseTime, f.PTZTime,
		f.CloudIndicator, f.AngleIndicator, f.SignalIndicator, f.TimingIndicator,
		f.StrokeStatus, f.ModifiedBy, f.Created.UnixNano(), f.ModifiedLast.UnixNano())
	return h.Sum64()
}

// QualityCodedDatum is a road/foreign-station reading keyed by a
// categorical parameter symbol rather than a numeric measurand id.
// Stable identity is (ObsTime, Station, Parameter, Sensor).
type QualityCodedDatum struct {
	ObsTime      time.Time
	Station      int
	Parameter    string
	Sensor       int
	Value        *float64
	Flag         int
	ModifiedLast time.Time
}

type QCKey struct {
	ObsTime   time.Time
	Station   int
	Parameter string
	Sensor    int
}

func (q *QualityCodedDatum) Key() QCKey {
	return QCKey{q.ObsTime, q.Station, q.Parameter, q.Sensor}
}

func (q *QualityCodedDatum) Hash() uint64 {
	h := xxhash.New64()
	v := "NULL"
	if q.Value != nil {
		v = fmt.Sprintf("%v", *q.Value)
	}
	fmt.Fprintf(h, "%d|%d|%s|%d|%s|%d|%d",
		q.Station, q.ObsTime.UnixNano(), q.Parameter, q.Sensor, v, q.Flag, q.ModifiedLast.UnixNano())
	return h.Sum64()
}

// MobileExternalDatum is a crowd-sourced sample (road-cloud, citizen
// weather, road-weather IoT). Stable identity is (Producer, Measurand,
// DataTime, Lon, Lat); when Sensor is present it is folded in too, per
// MobileExternalDataItem::hash_value.
type MobileExternalDatum struct {
	Producer     int
	Station      *int
	Dataset      *string
	Level        *int
	MeasurandID  int
	Sensor       *int
	DataTime     time.Time
	Value        float64
	ValueText    *string
	Quality      *int
	ControlState *int
	Created      time.Time
	Altitude     *float64
	Longitude    float64
	Latitude     float64
}

type MobileKey struct {
	Producer, MeasurandID int
	DataTime              time.Time
	Longitude, Latitude   float64
	Sensor                int // 0 when absent
}

func (m *MobileExternalDatum) Key() MobileKey {
	k := MobileKey{m.Producer, m.MeasurandID, m.DataTime, m.Longitude, m.Latitude, 0}
	if m.Sensor != nil {
		k.Sensor = *m.Sensor
	}
	return k
}

func (m *MobileExternalDatum) Hash() uint64 {
	h := xxhash.New64()
	fmt.Fprintf(h, "%d|%d|%d|%s", m.Producer, m.MeasurandID, m.DataTime.UnixNano(), fmt.Sprintf("%v", m.Value))
	if m.Station != nil {
		fmt.Fprintf(h, "|s%d", *m.Station)
	}
	if m.Dataset != nil {
		fmt.Fprintf(h, "|d%s", *m.Dataset)
	}
	if m.Level != nil {
		fmt.Fprintf(h, "|l%d", *m.Level)
	}
	if m.Sensor != nil {
		fmt.Fprintf(h, "|n%d", *m.Sensor)
	}
	if m.ValueText != nil {
		fmt.Fprintf(h, "|t%s", *m.ValueText)
	}
	if m.Quality != nil {
		fmt.Fprintf(h, "|q%d", *m.Quality)
	}
	if m.ControlState != nil {
		fmt.Fprintf(h, "|c%d", *m.ControlState)
	}
	if m.Longitude != 0 {
		fmt.Fprintf(h, "|x%f", m.Longitude)
	}
	if m.Latitude != 0 {
		fmt.Fprintf(h, "|y%f", m.Latitude)
	}
	if m.Altitude != nil {
		fmt.Fprintf(h, "|a%f", *m.Altitude)
	}
	fmt.Fprintf(h, "|%d", m.Created.UnixNano())
	return h.Sum64()
}

// LocationItem is a station position valid over [ValidFrom, ValidTo).
type LocationItem struct {
	Station          int
	LocationID       int
	CountryID        int
	ValidFrom        time.Time
	ValidTo          time.Time
	Longitude        float64
	Latitude         float64
	X, Y             float64
	Elevation        float64
	TimezoneName     string
	TimezoneAbbrev   string
}

// Covers reports whether the interval [ValidFrom, ValidTo) covers t.
func (l *LocationItem) Covers(t time.Time) bool {
	return !t.Before(l.ValidFrom) && t.Before(l.ValidTo)
}

// Station is an identity-bearing station record.
type Station struct {
	FmiSID       int
	WMO          *int
	GeoID        *int
	LPNN         *int
	RWSID        *int
	Name         string
	StationType  string
	Start        time.Time
	End          time.Time
	Longitude    float64
	Latitude     float64
	Timezone     string
	WSI          *string
}

// Active reports whether the station's lifespan covers t.
func (s *Station) Active(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// StationGroup is a named, time-bounded membership set.
type StationGroup struct {
	Code    string
	Members map[int]GroupMembership // fmisid -> interval
}

type GroupMembership struct {
	ValidFrom time.Time
	ValidTo   time.Time
}

func (g GroupMembership) Covers(t time.Time) bool {
	return !t.Before(g.ValidFrom) && t.Before(g.ValidTo)
}
