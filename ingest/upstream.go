package ingest

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/fmidev/obsengine/cmn"
)

// UpstreamClient is the small interface the ingest loops consume; a
// production instance is backed by *sql.DB plus the lib/pq driver, but
// the loops themselves never see database/sql types directly.
type UpstreamClient interface {
	FetchObservations(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.DataItem, error)
	FetchFlash(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.FlashDataItem, error)
	FetchRoadWeather(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.QualityCodedDatum, error)
	FetchMobile(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.MobileExternalDatum, error)
}

// PostgresUpstream implements UpstreamClient against the authoritative
// observation_data / weather_data_qc / flash_data / ext_obsdata_* tables,
// grounded on the column layout in PostgreSQLCacheDB's schema bootstrap.
type PostgresUpstream struct {
	db        *sql.DB
	producers *cmn.ProducerRegistry
}

// Open connects to dsn using the lib/pq driver. The caller owns the
// returned client's lifetime and must Close it.
func Open(dsn string) (*PostgresUpstream, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, cmn.NewError("ingest.Open", err, "failed to open upstream connection")
	}
	return &PostgresUpstream{db: db, producers: cmn.NewProducerRegistry()}, nil
}

func (p *PostgresUpstream) Close() error { return p.db.Close() }

func sinceColumn(useObsTime bool, obsCol string) string {
	if useObsTime {
		return obsCol
	}
	return "modified_last"
}

func (p *PostgresUpstream) FetchObservations(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.DataItem, error) {
	col := sinceColumn(useObsTime, "data_time")
	rows, err := p.db.QueryContext(ctx, `
		SELECT fmisid, sensor_no, measurand_id, producer_id, measurand_no,
		       data_time, data_value, data_quality, data_source, modified_last
		  FROM observation_data
		 WHERE `+col+` >= $1`, since)
	if err != nil {
		return nil, cmn.NewError("ingest.FetchObservations", err, "query failed")
	}
	defer rows.Close()

	var out []*cmn.DataItem
	for rows.Next() {
		d := &cmn.DataItem{}
		var value sql.NullFloat64
		var source sql.NullInt64
		if err := rows.Scan(&d.Station, &d.Sensor, &d.MeasurandID, &d.Producer, &d.MeasurandNo,
			&d.ObsTime, &value, &d.Quality, &source, &d.ModifiedLast); err != nil {
			return nil, cmn.NewError("ingest.FetchObservations", err, "scan failed")
		}
		if value.Valid {
			v := value.Float64
			d.Value = &v
		}
		if source.Valid {
			s := int(source.Int64)
			d.DataSource = &s
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *PostgresUpstream) FetchFlash(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.FlashDataItem, error) {
	col := sinceColumn(useObsTime, "stroke_time")
	rows, err := p.db.QueryContext(ctx, `
		SELECT stroke_time, stroke_time_fraction, flash_id, x(stroke_location), y(stroke_location),
		       multiplicity, peak_current, sensors, freedom_degree, ellipse_angle, ellipse_major,
		       ellipse_minor, chi_square, rise_time, ptz_time, cloud_indicator, angle_indicator,
		       signal_indicator, timing_indicator, stroke_status, data_source, modified_by,
		       created, modified_last
		  FROM flash_data
		 WHERE `+col+` >= $1`, since)
	if err != nil {
		return nil, cmn.NewError("ingest.FetchFlash", err, "query failed")
	}
	defer rows.Close()

	var out []*cmn.FlashDataItem
	for rows.Next() {
		f := &cmn.FlashDataItem{}
		var source sql.NullInt64
		if err := rows.Scan(&f.StrokeTime, &f.StrokeTimeFraction, &f.FlashID, &f.Longitude, &f.Latitude,
			&f.Multiplicity, &f.PeakCurrent, &f.Sensors, &f.FreedomDegree, &f.EllipseAngle, &f.EllipseMajor,
			&f.EllipseMinor, &f.ChiSquare, &f.RiseTime, &f.PTZTime, &f.CloudIndicator, &f.AngleIndicator,
			&f.SignalIndicator, &f.TimingIndicator, &f.StrokeStatus, &source, &f.ModifiedBy,
			&f.Created, &f.ModifiedLast); err != nil {
			return nil, cmn.NewError("ingest.FetchFlash", err, "scan failed")
		}
		if source.Valid {
			s := int(source.Int64)
			f.DataSource = &s
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (p *PostgresUpstream) FetchRoadWeather(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.QualityCodedDatum, error) {
	col := sinceColumn(useObsTime, "obstime")
	rows, err := p.db.QueryContext(ctx, `
		SELECT obstime, fmisid, parameter, sensor_no, value, flag, modified_last
		  FROM weather_data_qc
		 WHERE `+col+` >= $1`, since)
	if err != nil {
		return nil, cmn.NewError("ingest.FetchRoadWeather", err, "query failed")
	}
	defer rows.Close()

	var out []*cmn.QualityCodedDatum
	for rows.Next() {
		q := &cmn.QualityCodedDatum{}
		var value sql.NullFloat64
		var modified sql.NullTime
		if err := rows.Scan(&q.ObsTime, &q.Station, &q.Parameter, &q.Sensor, &value, &q.Flag, &modified); err != nil {
			return nil, cmn.NewError("ingest.FetchRoadWeather", err, "scan failed")
		}
		if value.Valid {
			v := value.Float64
			q.Value = &v
		}
		if modified.Valid {
			q.ModifiedLast = modified.Time
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (p *PostgresUpstream) FetchMobile(ctx context.Context, since time.Time, useObsTime bool) ([]*cmn.MobileExternalDatum, error) {
	col := sinceColumn(useObsTime, "data_time")
	var out []*cmn.MobileExternalDatum
	for _, producer := range []int{cmn.RoadProducer, cmn.ForeignProducer} {
		info, err := p.producers.Lookup(producer)
		if err != nil {
			return nil, err
		}
		table := info.MirrorTable
		rows, err := p.db.QueryContext(ctx, `
			SELECT prod_id, mid, data_time, data_value, x(geom), y(geom)
			  FROM `+table+`
			 WHERE `+col+` >= $1`, since)
		if err != nil {
			return nil, cmn.NewError("ingest.FetchMobile", err, "query failed for %s", table)
		}
		for rows.Next() {
			m := &cmn.MobileExternalDatum{}
			if err := rows.Scan(&m.Producer, &m.MeasurandID, &m.DataTime, &m.Value, &m.Longitude, &m.Latitude); err != nil {
				rows.Close()
				return nil, cmn.NewError("ingest.FetchMobile", err, "scan failed for %s", table)
			}
			out = append(out, m)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
