package mirror

import (
	"strconv"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/fmidev/obsengine/cmn"
)

func dataItemKeyOf(d *cmn.DataItem) string {
	k := d.Key()
	return strconv.Itoa(k.Station) + "/" + strconv.Itoa(k.Sensor) + "/" +
		strconv.Itoa(k.MeasurandID) + "/" + strconv.Itoa(k.Producer) + "/" +
		strconv.Itoa(k.MeasurandNo)
}

// NewDataItemStore takes no station coordinate lookup: DataItem itself
// carries no longitude/latitude (see cmn.Station), and obs observations
// are geo-queried by joining through the station registry, so lonLatOf
// here returns (0, 0) and geometry filtering for this kind
// happens at the station-selection step instead (§4.7), not in the
// mirror's spatial index.
func NewDataItemStore(db *buntdb.DB) (*Store[*cmn.DataItem], error) {
	return NewStore(db, "obs",
		dataItemKeyOf,
		func(d *cmn.DataItem) time.Time { return d.ObsTime },
		func(*cmn.DataItem) (float64, float64) { return 0, 0 },
		func() *cmn.DataItem { return &cmn.DataItem{} },
	)
}

func NewFlashStore(db *buntdb.DB) (*Store[*cmn.FlashDataItem], error) {
	return NewStore(db, "flash",
		func(f *cmn.FlashDataItem) string {
			k := f.Key()
			return k.StrokeTime.Format(time.RFC3339Nano) + "/" +
				strconv.Itoa(k.StrokeTimeFraction) + "/" + strconv.FormatUint(uint64(k.FlashID), 10)
		},
		func(f *cmn.FlashDataItem) time.Time { return f.StrokeTime },
		func(f *cmn.FlashDataItem) (float64, float64) { return f.Longitude, f.Latitude },
		func() *cmn.FlashDataItem { return &cmn.FlashDataItem{} },
	)
}

func NewQCStore(db *buntdb.DB) (*Store[*cmn.QualityCodedDatum], error) {
	return NewStore(db, "roadweather",
		func(q *cmn.QualityCodedDatum) string {
			k := q.Key()
			return strconv.Itoa(k.Station) + "/" + k.Parameter + "/" + strconv.Itoa(k.Sensor)
		},
		func(q *cmn.QualityCodedDatum) time.Time { return q.ObsTime },
		func(*cmn.QualityCodedDatum) (float64, float64) { return 0, 0 },
		func() *cmn.QualityCodedDatum { return &cmn.QualityCodedDatum{} },
	)
}

func NewMobileStore(db *buntdb.DB) (*Store[*cmn.MobileExternalDatum], error) {
	return NewStore(db, "mobile",
		func(m *cmn.MobileExternalDatum) string {
			k := m.Key()
			return strconv.Itoa(k.Producer) + "/" + strconv.Itoa(k.MeasurandID) + "/" +
				k.DataTime.Format(time.RFC3339Nano) + "/" +
				strconv.FormatFloat(k.Longitude, 'f', -1, 64) + "/" +
				strconv.FormatFloat(k.Latitude, 'f', -1, 64) + "/" + strconv.Itoa(k.Sensor)
		},
		func(m *cmn.MobileExternalDatum) time.Time { return m.DataTime },
		func(m *cmn.MobileExternalDatum) (float64, float64) { return m.Longitude, m.Latitude },
		func() *cmn.MobileExternalDatum { return &cmn.MobileExternalDatum{} },
	)
}
