package query

import (
	"context"
	"testing"
	"time"

	"github.com/fmidev/obsengine/cmn"
	"github.com/fmidev/obsengine/memsnap"
	"github.com/fmidev/obsengine/mirror"
)

func TestClassifyMeasurandSpecialAndDerived(t *testing.T) {
	m := NewMeasurandRegistry()
	m.Register("weather", "temperature", 1)

	if kind, ok := Classify(m, "weather", "temperature"); kind != ParamMeasurand || !ok {
		t.Fatalf("expected temperature to classify as measurand, got %v ok=%v", kind, ok)
	}
	if kind, ok := Classify(m, "weather", "qc_temperature"); kind != ParamMeasurand || !ok {
		t.Fatalf("expected qc_ prefix to still resolve, got %v ok=%v", kind, ok)
	}
	if kind, ok := Classify(m, "weather", "feelslike"); kind != ParamDerived || !ok {
		t.Fatalf("expected feelslike to classify as derived, got %v ok=%v", kind, ok)
	}
	if kind, ok := Classify(m, "weather", "fmisid"); kind != ParamSpecial || !ok {
		t.Fatalf("expected fmisid to classify as special, got %v ok=%v", kind, ok)
	}
	if kind, ok := Classify(m, "weather", "nonexistent"); ok || kind != ParamMeasurand {
		t.Fatalf("expected a name not in the measurand map to classify as ParamMeasurand/ok=false, got %v ok=%v", kind, ok)
	}
	if kind, ok := Classify(m, "weather", "wmo"); ok || kind != ParamSpecial {
		t.Fatalf("expected an unimplemented special name to classify as ParamSpecial/ok=false, got %v ok=%v", kind, ok)
	}
}

func TestWindCompass8Sectors(t *testing.T) {
	cases := map[float64]string{
		0: "N", 45: "NE", 90: "E", 180: "S", 270: "W", 350: "N",
	}
	for dir, want := range cases {
		got := WindCompass(cmn.ParamWindCompass8, cmn.DoubleValue(dir))
		if got.Str != want {
			t.Fatalf("direction %v: expected %s, got %s", dir, want, got.Str)
		}
	}
}

func TestWindCompassMissingInputIsMissing(t *testing.T) {
	got := WindCompass(cmn.ParamWindCompass16, cmn.Value{})
	if !got.IsAbsent() {
		t.Fatalf("expected missing direction to produce a missing value")
	}
}

func TestFeelsLikeMissingWindIsMissing(t *testing.T) {
	got := FeelsLike(cmn.DoubleValue(-5), cmn.DoubleValue(80), cmn.Value{})
	if !got.IsAbsent() {
		t.Fatalf("expected missing wind speed to produce a missing feelslike value")
	}
}

func TestFeelsLikeComputesWhenAllInputsPresent(t *testing.T) {
	got := FeelsLike(cmn.DoubleValue(-5), cmn.DoubleValue(80), cmn.DoubleValue(5))
	if got.IsAbsent() {
		t.Fatalf("expected a computed value")
	}
	if got.Num >= -5 {
		t.Fatalf("expected wind chill to push the apparent temperature below the air temperature, got %v", got.Num)
	}
}

func TestSmartSymbolMissingCloudCoverIsMissing(t *testing.T) {
	got := SmartSymbol(cmn.IntValue(0), cmn.Value{}, cmn.DoubleValue(10), 60.2, 24.9, time.Now())
	if !got.IsAbsent() {
		t.Fatalf("expected missing cloud cover to produce a missing smartsymbol value")
	}
}

func TestGenerateTicksAlignsToStepBoundary(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 3, 0, 0, time.UTC)
	end := time.Date(2026, 1, 1, 10, 25, 0, 0, time.UTC)
	ticks := GenerateTicks(start, end, 10, time.UTC)
	want := []int{10, 20}
	if len(ticks) != len(want) {
		t.Fatalf("expected %d ticks, got %d: %v", len(want), len(ticks), ticks)
	}
	for i, w := range want {
		if ticks[i].Minute() != w {
			t.Fatalf("tick %d: expected minute %d, got %d", i, w, ticks[i].Minute())
		}
	}
}

func TestLatestPerStationKeepsMostRecentPerID(t *testing.T) {
	type row struct {
		station int
		at      time.Time
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{1, base}, {1, base.Add(10 * time.Minute)},
		{2, base.Add(5 * time.Minute)},
	}
	out := LatestPerStation(rows, func(r row) int { return r.station }, func(r row) time.Time { return r.at })
	if len(out) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(out))
	}
	if !out[0].at.Equal(base.Add(10 * time.Minute)) {
		t.Fatalf("expected station 1's latest row to win, got %v", out[0].at)
	}
}

func TestSourceFetchMissesThenServesFromMemoryOnceFloorPublished(t *testing.T) {
	snap := memsnap.NewDataItemSnapshot()
	db, err := mirror.Open(":memory:")
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	store, err := mirror.NewDataItemStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	src := &Source[*cmn.DataItem]{Memory: snap, Mirror: store}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	// Nothing published yet anywhere and no upstream: cache miss.
	if _, tier, err := src.Fetch(context.Background(), from, to, false); err == nil || tier != TierNone {
		t.Fatalf("expected a cache miss with no tier covering the window, got tier=%v err=%v", tier, err)
	}

	// Publish a memory floor at "from": memory should now serve it.
	snap.Clean(from)
	if _, tier, err := src.Fetch(context.Background(), from, to, false); err != nil || tier != TierMemory {
		t.Fatalf("expected memory tier once its floor covers from, got tier=%v err=%v", tier, err)
	}
}
