package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fmidev/obsengine/cmn"
	"github.com/fmidev/obsengine/memsnap"
	"github.com/fmidev/obsengine/mirror"
	"github.com/fmidev/obsengine/stations"
)

func TestExecuteAssemblesMeasurandAndDerivedColumns(t *testing.T) {
	measurands := NewMeasurandRegistry()
	measurands.Register("weather", MeasurandTemperature, 1)
	measurands.Register("weather", MeasurandWindDirection, 2)

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

	obsTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	temp := -5.0
	dir := 90.0
	snap.Fill([]*cmn.DataItem{
		{Station: 1, MeasurandID: 1, ObsTime: obsTime, Value: &temp},
		{Station: 1, MeasurandID: 2, ObsTime: obsTime, Value: &dir},
	})
	snap.Clean(obsTime.Add(-time.Hour))

	station := &cmn.Station{FmiSID: 1, Name: "Test", Longitude: 24.9, Latitude: 60.2}
	req := &Request{
		StationType: "weather",
		StartTime:   obsTime.Add(-time.Minute),
		EndTime:     obsTime.Add(time.Minute),
		Parameters:  []string{MeasurandTemperature, cmn.ParamWindCompass8},
	}

	resp, err := Execute(context.Background(), req, src, measurands, station, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(resp.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(resp.Columns))
	}
	tempCol := resp.column(MeasurandTemperature)
	if len(tempCol.Values) != 1 || tempCol.Values[0].Value.Num != temp {
		t.Fatalf("expected temperature column with value %v, got %+v", temp, tempCol.Values)
	}
	windCol := resp.column(cmn.ParamWindCompass8)
	if len(windCol.Values) != 1 || windCol.Values[0].Value.Str != "E" {
		t.Fatalf("expected windcompass8 = E, got %+v", windCol.Values)
	}
}

func TestExecuteUnknownParameterFails(t *testing.T) {
	measurands := NewMeasurandRegistry()
	snap := memsnap.NewDataItemSnapshot()
	db, _ := mirror.Open(":memory:")
	store, _ := mirror.NewDataItemStore(db)
	src := &Source[*cmn.DataItem]{Memory: snap, Mirror: store}

	snap.Clean(time.Time{}) // publish a floor so the (empty) window is served from memory

	station := &cmn.Station{FmiSID: 1}
	req := &Request{StationType: "weather", Parameters: []string{"doesnotexist"}}

	_, err := Execute(context.Background(), req, src, measurands, station, nil)
	if err == nil {
		t.Fatalf("expected an error for an unrecognised parameter")
	}
	if !errors.Is(err, cmn.ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter for a name absent from the measurand map, got %v", err)
	}
}

func TestExecuteUnimplementedSpecialParameterFails(t *testing.T) {
	measurands := NewMeasurandRegistry()
	snap := memsnap.NewDataItemSnapshot()
	db, _ := mirror.Open(":memory:")
	store, _ := mirror.NewDataItemStore(db)
	src := &Source[*cmn.DataItem]{Memory: snap, Mirror: store}

	snap.Clean(time.Time{}) // publish a floor so the (empty) window is served from memory

	station := &cmn.Station{FmiSID: 1}
	req := &Request{StationType: "weather", Parameters: []string{"wmo"}}

	_, err := Execute(context.Background(), req, src, measurands, station, nil)
	if err == nil {
		t.Fatalf("expected an error for an unimplemented special parameter")
	}
	if !errors.Is(err, cmn.ErrUnsupportedParameter) {
		t.Fatalf("expected ErrUnsupportedParameter for a recognised-but-unimplemented special name, got %v", err)
	}
}

func TestExecuteFillsDistanceAndDirectionFromNearby(t *testing.T) {
	measurands := NewMeasurandRegistry()
	snap := memsnap.NewDataItemSnapshot()
	db, _ := mirror.Open(":memory:")
	store, _ := mirror.NewDataItemStore(db)
	src := &Source[*cmn.DataItem]{Memory: snap, Mirror: store}

	station := &cmn.Station{FmiSID: 1, Longitude: 24.9, Latitude: 60.2}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap.Clean(start) // publish a floor so the (empty) window is served from memory
	req := &Request{
		StationType:     "weather",
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		TimestepMinutes: 60,
		Parameters:      []string{SpecialDistance, SpecialDirection},
	}
	nearby := &stations.Nearby{Station: station, DistanceKM: 12.3, StationDirection: 45.0}

	resp, err := Execute(context.Background(), req, src, measurands, station, nearby)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	distCol := resp.column(SpecialDistance)
	if len(distCol.Values) == 0 || distCol.Values[0].Value.Num != 12.3 {
		t.Fatalf("expected distance column 12.3, got %+v", distCol.Values)
	}
	dirCol := resp.column(SpecialDirection)
	if len(dirCol.Values) == 0 || dirCol.Values[0].Value.Num != 45.0 {
		t.Fatalf("expected direction column 45.0, got %+v", dirCol.Values)
	}
}
