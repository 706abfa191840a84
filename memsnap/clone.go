package memsnap

import "github.com/fmidev/obsengine/cmn"

// cloneViaMsgp round-trips v through its hand-written msgp encoding so
// the returned value shares no pointer (Value, DataSource, ...) with
// the caller's copy, the way the original's boost::make_shared copy
// construction detaches the cache's vector from the upstream buffer.
func cloneViaMsgp[T interface {
	MarshalMsg([]byte) ([]byte, error)
	UnmarshalMsg([]byte) ([]byte, error)
}](v T, fresh func() T) T {
	buf, err := v.MarshalMsg(nil)
	if err != nil {
		panic("memsnap: marshal for clone failed: " + err.Error())
	}
	out := fresh()
	if _, err := out.UnmarshalMsg(buf); err != nil {
		panic("memsnap: unmarshal for clone failed: " + err.Error())
	}
	return out
}

// CloneDataItem, CloneFlash, CloneQC and CloneMobile are the clone
// callbacks wired into each entity kind's Snapshot.
func CloneDataItem(v *cmn.DataItem) *cmn.DataItem {
	return cloneViaMsgp(v, func() *cmn.DataItem { return &cmn.DataItem{} })
}

func CloneFlash(v *cmn.FlashDataItem) *cmn.FlashDataItem {
	return cloneViaMsgp(v, func() *cmn.FlashDataItem { return &cmn.FlashDataItem{} })
}

func CloneQC(v *cmn.QualityCodedDatum) *cmn.QualityCodedDatum {
	return cloneViaMsgp(v, func() *cmn.QualityCodedDatum { return &cmn.QualityCodedDatum{} })
}

func CloneMobile(v *cmn.MobileExternalDatum) *cmn.MobileExternalDatum {
	return cloneViaMsgp(v, func() *cmn.MobileExternalDatum { return &cmn.MobileExternalDatum{} })
}
