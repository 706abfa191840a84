package memsnap

import (
	"time"

	"github.com/fmidev/obsengine/cmn"
)

func NewDataItemSnapshot() *Snapshot[*cmn.DataItem] {
	return New(
		func(d *cmn.DataItem) time.Time { return d.ObsTime },
		func(d *cmn.DataItem) uint64 { return d.Hash() },
		CloneDataItem,
	)
}

func NewFlashSnapshot() *Snapshot[*cmn.FlashDataItem] {
	return New(
		func(f *cmn.FlashDataItem) time.Time { return f.StrokeTime },
		func(f *cmn.FlashDataItem) uint64 { return f.Hash() },
		CloneFlash,
	)
}

func NewQCSnapshot() *Snapshot[*cmn.QualityCodedDatum] {
	return New(
		func(q *cmn.QualityCodedDatum) time.Time { return q.ObsTime },
		func(q *cmn.QualityCodedDatum) uint64 { return q.Hash() },
		CloneQC,
	)
}

func NewMobileSnapshot() *Snapshot[*cmn.MobileExternalDatum] {
	return New(
		func(m *cmn.MobileExternalDatum) time.Time { return m.DataTime },
		func(m *cmn.MobileExternalDatum) uint64 { return m.Hash() },
		CloneMobile,
	)
}
