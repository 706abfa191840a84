package cmn

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// MarshalMsg/UnmarshalMsg below are hand-written against msgp's runtime
// helpers rather than generated by msgp's codegen tool: the entity
// structs are small and stable enough that the generator would buy
// little over writing the array-of-fields encoding directly, and it
// keeps this package free of a go:generate build step.

func (d *DataItem) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendArrayHeader(b, 10)
	o = msgp.AppendInt(o, d.Station)
	o = msgp.AppendInt(o, d.Sensor)
	o = msgp.AppendInt(o, d.MeasurandID)
	o = msgp.AppendInt(o, d.Producer)
	o = msgp.AppendInt(o, d.MeasurandNo)
	o = msgp.AppendTime(o, d.ObsTime)
	o = appendFloat64Ptr(o, d.Value)
	o = msgp.AppendInt(o, d.Quality)
	o = appendIntPtr(o, d.DataSource)
	o = msgp.AppendTime(o, d.ModifiedLast)
	return o, nil
}

func (d *DataItem) UnmarshalMsg(bts []byte) ([]byte, error) {
	sz, bts, err := msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return bts, err
	}
	if sz != 10 {
		return bts, fmt.Errorf("cmn.DataItem: array size %d != 10", sz)
	}
	if d.Station, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if d.Sensor, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if d.MeasurandID, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if d.Producer, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if d.MeasurandNo, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if d.ObsTime, bts, err = msgp.ReadTimeBytes(bts); err != nil {
		return bts, err
	}
	if d.Value, bts, err = readFloat64Ptr(bts); err != nil {
		return bts, err
	}
	if d.Quality, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if d.DataSource, bts, err = readIntPtr(bts); err != nil {
		return bts, err
	}
	if d.ModifiedLast, bts, err = msgp.ReadTimeBytes(bts); err != nil {
		return bts, err
	}
	return bts, nil
}

func (f *FlashDataItem) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendArrayHeader(b, 24)
	o = msgp.AppendTime(o, f.StrokeTime)
	o = msgp.AppendInt(o, f.StrokeTimeFraction)
	o = msgp.AppendUint(o, f.FlashID)
	o = msgp.AppendFloat64(o, f.Longitude)
	o = msgp.AppendFloat64(o, f.Latitude)
	o = msgp.AppendInt(o, f.Multiplicity)
	o = msgp.AppendInt(o, f.PeakCurrent)
	o = msgp.AppendInt(o, f.Sensors)
	o = msgp.AppendInt(o, f.FreedomDegree)
	o = msgp.AppendFloat64(o, f.EllipseAngle)
	o = msgp.AppendFloat64(o, f.EllipseMajor)
	o = msgp.AppendFloat64(o, f.EllipseMinor)
	o = msgp.AppendFloat64(o, f.ChiSquare)
	o = msgp.AppendFloat64(o, f.RiseTime)
	o = msgp.AppendFloat64(o, f.PTZTime)
	o = msgp.AppendInt(o, f.CloudIndicator)
	o = msgp.AppendInt(o, f.AngleIndicator)
	o = msgp.AppendInt(o, f.SignalIndicator)
	o = msgp.AppendInt(o, f.TimingIndicator)
	o = msgp.AppendInt(o, f.StrokeStatus)
	o = appendIntPtr(o, f.DataSource)
	o = msgp.AppendInt(o, f.ModifiedBy)
	o = msgp.AppendTime(o, f.Created)
	o = msgp.AppendTime(o, f.ModifiedLast)
	return o, nil
}

func (f *FlashDataItem) UnmarshalMsg(bts []byte) ([]byte, error) {
	sz, bts, err := msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return bts, err
	}
	if sz != 24 {
		return bts, fmt.Errorf("cmn.FlashDataItem: array size %d != 24", sz)
	}
	readers := []func() error{
		func() (e error) { f.StrokeTime, bts, e = msgp.ReadTimeBytes(bts); return },
		func() (e error) { f.StrokeTimeFraction, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.FlashID, bts, e = msgp.ReadUintBytes(bts); return },
		func() (e error) { f.Longitude, bts, e = msgp.ReadFloat64Bytes(bts); return },
		func() (e error) { f.Latitude, bts, e = msgp.ReadFloat64Bytes(bts); return },
		func() (e error) { f.Multiplicity, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.PeakCurrent, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.Sensors, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.FreedomDegree, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.EllipseAngle, bts, e = msgp.ReadFloat64Bytes(bts); return },
		func() (e error) { f.EllipseMajor, bts, e = msgp.ReadFloat64Bytes(bts); return },
		func() (e error) { f.EllipseMinor, bts, e = msgp.ReadFloat64Bytes(bts); return },
		func() (e error) { f.ChiSquare, bts, e = msgp.ReadFloat64Bytes(bts); return },
		func() (e error) { f.RiseTime, bts, e = msgp.ReadFloat64Bytes(bts); return },
		func() (e error) { f.PTZTime, bts, e = msgp.ReadFloat64Bytes(bts); return },
		func() (e error) { f.CloudIndicator, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.AngleIndicator, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.SignalIndicator, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.TimingIndicator, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.StrokeStatus, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.DataSource, bts, e = readIntPtr(bts); return },
		func() (e error) { f.ModifiedBy, bts, e = msgp.ReadIntBytes(bts); return },
		func() (e error) { f.Created, bts, e = msgp.ReadTimeBytes(bts); return },
		func() (e error) { f.ModifiedLast, bts, e = msgp.ReadTimeBytes(bts); return },
	}
	for _, read := range readers {
		if err := read(); err != nil {
			return bts, err
		}
	}
	return bts, nil
}

func (q *QualityCodedDatum) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendArrayHeader(b, 7)
	o = msgp.AppendTime(o, q.ObsTime)
	o = msgp.AppendInt(o, q.Station)
	o = msgp.AppendString(o, q.Parameter)
	o = msgp.AppendInt(o, q.Sensor)
	o = appendFloat64Ptr(o, q.Value)
	o = msgp.AppendInt(o, q.Flag)
	o = msgp.AppendTime(o, q.ModifiedLast)
	return o, nil
}

func (q *QualityCodedDatum) UnmarshalMsg(bts []byte) ([]byte, error) {
	sz, bts, err := msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return bts, err
	}
	if sz != 7 {
		return bts, fmt.Errorf("cmn.QualityCodedDatum: array size %d != 7", sz)
	}
	if q.ObsTime, bts, err = msgp.ReadTimeBytes(bts); err != nil {
		return bts, err
	}
	if q.Station, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if q.Parameter, bts, err = msgp.ReadStringBytes(bts); err != nil {
		return bts, err
	}
	if q.Sensor, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if q.Value, bts, err = readFloat64Ptr(bts); err != nil {
		return bts, err
	}
	if q.Flag, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if q.ModifiedLast, bts, err = msgp.ReadTimeBytes(bts); err != nil {
		return bts, err
	}
	return bts, nil
}

func (m *MobileExternalDatum) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendArrayHeader(b, 15)
	o = msgp.AppendInt(o, m.Producer)
	o = appendIntPtr(o, m.Station)
	o = appendStringPtr(o, m.Dataset)
	o = appendIntPtr(o, m.Level)
	o = msgp.AppendInt(o, m.MeasurandID)
	o = appendIntPtr(o, m.Sensor)
	o = msgp.AppendTime(o, m.DataTime)
	o = msgp.AppendFloat64(o, m.Value)
	o = appendStringPtr(o, m.ValueText)
	o = appendIntPtr(o, m.Quality)
	o = appendIntPtr(o, m.ControlState)
	o = msgp.AppendTime(o, m.Created)
	o = appendFloat64Ptr(o, m.Altitude)
	o = msgp.AppendFloat64(o, m.Longitude)
	o = msgp.AppendFloat64(o, m.Latitude)
	return o, nil
}

func (m *MobileExternalDatum) UnmarshalMsg(bts []byte) ([]byte, error) {
	sz, bts, err := msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return bts, err
	}
	if sz != 15 {
		return bts, fmt.Errorf("cmn.MobileExternalDatum: array size %d != 15", sz)
	}
	if m.Producer, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if m.Station, bts, err = readIntPtr(bts); err != nil {
		return bts, err
	}
	if m.Dataset, bts, err = readStringPtr(bts); err != nil {
		return bts, err
	}
	if m.Level, bts, err = readIntPtr(bts); err != nil {
		return bts, err
	}
	if m.MeasurandID, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return bts, err
	}
	if m.Sensor, bts, err = readIntPtr(bts); err != nil {
		return bts, err
	}
	if m.DataTime, bts, err = msgp.ReadTimeBytes(bts); err != nil {
		return bts, err
	}
	if m.Value, bts, err = msgp.ReadFloat64Bytes(bts); err != nil {
		return bts, err
	}
	if m.ValueText, bts, err = readStringPtr(bts); err != nil {
		return bts, err
	}
	if m.Quality, bts, err = readIntPtr(bts); err != nil {
		return bts, err
	}
	if m.ControlState, bts, err = readIntPtr(bts); err != nil {
		return bts, err
	}
	if m.Created, bts, err = msgp.ReadTimeBytes(bts); err != nil {
		return bts, err
	}
	if m.Altitude, bts, err = readFloat64Ptr(bts); err != nil {
		return bts, err
	}
	if m.Longitude, bts, err = msgp.ReadFloat64Bytes(bts); err != nil {
		return bts, err
	}
	if m.Latitude, bts, err = msgp.ReadFloat64Bytes(bts); err != nil {
		return bts, err
	}
	return bts, nil
}

func appendFloat64Ptr(b []byte, v *float64) []byte {
	if v == nil {
		return msgp.AppendNil(b)
	}
	return msgp.AppendFloat64(b, *v)
}

func readFloat64Ptr(bts []byte) (*float64, []byte, error) {
	if msgp.IsNil(bts) {
		return nil, bts[1:], nil
	}
	v, bts, err := msgp.ReadFloat64Bytes(bts)
	if err != nil {
		return nil, bts, err
	}
	return &v, bts, nil
}

func appendIntPtr(b []byte, v *int) []byte {
	if v == nil {
		return msgp.AppendNil(b)
	}
	return msgp.AppendInt(b, *v)
}

func readIntPtr(bts []byte) (*int, []byte, error) {
	if msgp.IsNil(bts) {
		return nil, bts[1:], nil
	}
	v, bts, err := msgp.ReadIntBytes(bts)
	if err != nil {
		return nil, bts, err
	}
	return &v, bts, nil
}

func appendStringPtr(b []byte, v *string) []byte {
	if v == nil {
		return msgp.AppendNil(b)
	}
	return msgp.AppendString(b, *v)
}

func readStringPtr(bts []byte) (*string, []byte, error) {
	if msgp.IsNil(bts) {
		return nil, bts[1:], nil
	}
	v, bts, err := msgp.ReadStringBytes(bts)
	if err != nil {
		return nil, bts, err
	}
	return &v, bts, nil
}
