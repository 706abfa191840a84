// Package main is a thin operational CLI wrapping the cache core: a
// "serve" command that runs the upstream ingest maintainer against a
// persistent mirror, and a "query" command that answers one request
// against that same mirror, for smoke-testing outside any HTTP layer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/fmidev/obsengine/cmn"
	"github.com/fmidev/obsengine/dedup"
	"github.com/fmidev/obsengine/ingest"
	"github.com/fmidev/obsengine/memsnap"
	"github.com/fmidev/obsengine/mirror"
	"github.com/fmidev/obsengine/pool"
	"github.com/fmidev/obsengine/query"
	"github.com/fmidev/obsengine/stats"
	"github.com/fmidev/obsengine/stations"
)

var version, build string

func main() {
	os.Exit(run())
}

func run() int {
	log := logrus.New()
	app := &cli.App{
		Name:    "obsenginectl",
		Usage:   "operate and query the observation cache core",
		Version: fmt.Sprintf("%s (%s)", version, build),
		Commands: []*cli.Command{
			serveCommand(log),
			queryCommand(log),
			nearestCommand(log),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Error("obsenginectl: exiting with error")
		return 1
	}
	return 0
}

func serveCommand(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the upstream ingest maintainer against a persistent mirror",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mirror-path", Value: "obsengine.mirror", Usage: "buntdb file backing the persistent mirror"},
			&cli.StringFlag{Name: "dsn", Required: true, Usage: "upstream PostgreSQL DSN"},
		},
		Action: func(c *cli.Context) error {
			return serve(c.Context, log, c.String("mirror-path"), c.String("dsn"))
		},
	}
}

func serve(ctx context.Context, log *logrus.Logger, mirrorPath, dsn string) error {
	cfg := cmn.DefaultConfig()

	db, err := mirror.Open(mirrorPath)
	if err != nil {
		return cmn.NewError("serve", err, "opening mirror at %s", mirrorPath)
	}
	defer db.Close()

	upstream, err := ingest.Open(dsn)
	if err != nil {
		return cmn.NewError("serve", err, "connecting upstream")
	}
	defer upstream.Close()

	reg := dedup.NewRegistry(cfg.Dedup)
	collector := stats.NewCollector(prometheus.DefaultRegisterer)
	logEntry := logrus.NewEntry(log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := ingest.NewMaintainer(ctx, logEntry)

	obsStore, err := mirror.NewDataItemStore(db)
	if err != nil {
		return err
	}
	ingest.Start(m, &ingest.Loop[*cmn.DataItem]{
		Kind:            cmn.KindObservation,
		Fetch:           upstream.FetchObservations,
		Mirror:          obsStore,
		Memory:          memsnap.NewDataItemSnapshot(),
		Dedup:           reg.For(cmn.KindObservation),
		HashOf:          func(d *cmn.DataItem) uint64 { return d.Hash() },
		ObsTime:         func(d *cmn.DataItem) time.Time { return d.ObsTime },
		Modified:        func(d *cmn.DataItem) time.Time { return d.ModifiedLast },
		Less:            func(a, b *cmn.DataItem) bool { return a.ObsTime.Before(b.ObsTime) },
		MirrorRetention: cfg.Retention.Mirror[cmn.KindObservation],
		MemoryRetention: cfg.Retention.Memory[cmn.KindObservation],
		BatchSize:       cfg.Mirror.InsertBatch,
		Interval:        cfg.Ingest.TickInterval,
		Stats:           collector,
	})

	flashStore, err := mirror.NewFlashStore(db)
	if err != nil {
		return err
	}
	ingest.Start(m, &ingest.Loop[*cmn.FlashDataItem]{
		Kind:            cmn.KindFlash,
		Fetch:           upstream.FetchFlash,
		Mirror:          flashStore,
		Memory:          memsnap.NewFlashSnapshot(),
		Dedup:           reg.For(cmn.KindFlash),
		HashOf:          func(f *cmn.FlashDataItem) uint64 { return f.Hash() },
		ObsTime:         func(f *cmn.FlashDataItem) time.Time { return f.StrokeTime },
		Modified:        func(f *cmn.FlashDataItem) time.Time { return f.ModifiedLast },
		Less:            func(a, b *cmn.FlashDataItem) bool { return a.StrokeTime.Before(b.StrokeTime) },
		MirrorRetention: cfg.Retention.Mirror[cmn.KindFlash],
		MemoryRetention: cfg.Retention.Memory[cmn.KindFlash],
		BatchSize:       cfg.Mirror.InsertBatch,
		Interval:        cfg.Ingest.TickInterval,
		Stats:           collector,
	})

	roadStore, err := mirror.NewQCStore(db)
	if err != nil {
		return err
	}
	ingest.Start(m, &ingest.Loop[*cmn.QualityCodedDatum]{
		Kind:            cmn.KindRoadWeather,
		Fetch:           upstream.FetchRoadWeather,
		Mirror:          roadStore,
		Memory:          memsnap.NewQCSnapshot(),
		Dedup:           reg.For(cmn.KindRoadWeather),
		HashOf:          func(q *cmn.QualityCodedDatum) uint64 { return q.Hash() },
		ObsTime:         func(q *cmn.QualityCodedDatum) time.Time { return q.ObsTime },
		Modified:        func(q *cmn.QualityCodedDatum) time.Time { return q.ModifiedLast },
		Less:            func(a, b *cmn.QualityCodedDatum) bool { return a.ObsTime.Before(b.ObsTime) },
		MirrorRetention: cfg.Retention.Mirror[cmn.KindRoadWeather],
		MemoryRetention: cfg.Retention.Memory[cmn.KindRoadWeather],
		BatchSize:       cfg.Mirror.InsertBatch,
		Interval:        cfg.Ingest.TickInterval,
		Stats:           collector,
	})

	mobileStore, err := mirror.NewMobileStore(db)
	if err != nil {
		return err
	}
	ingest.Start(m, &ingest.Loop[*cmn.MobileExternalDatum]{
		Kind:            cmn.KindMobile,
		Fetch:           upstream.FetchMobile,
		Mirror:          mobileStore,
		Memory:          memsnap.NewMobileSnapshot(),
		Dedup:           reg.For(cmn.KindMobile),
		HashOf:          func(m *cmn.MobileExternalDatum) uint64 { return m.Hash() },
		ObsTime:         func(m *cmn.MobileExternalDatum) time.Time { return m.DataTime },
		Modified:        func(m *cmn.MobileExternalDatum) time.Time { return m.DataTime },
		Less:            func(a, b *cmn.MobileExternalDatum) bool { return a.DataTime.Before(b.DataTime) },
		MirrorRetention: cfg.Retention.Mirror[cmn.KindMobile],
		MemoryRetention: cfg.Retention.Memory[cmn.KindMobile],
		BatchSize:       cfg.Mirror.InsertBatch,
		Interval:        cfg.Ingest.TickInterval,
		Stats:           collector,
	})

	logEntry.Info("serve: ingest maintainer running, press ctrl-c to stop")
	<-ctx.Done()
	logEntry.Info("serve: shutting down")
	return m.Stop()
}

func queryCommand(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "answer one request against the persistent mirror",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mirror-path", Value: "obsengine.mirror", Usage: "buntdb file backing the persistent mirror"},
			&cli.IntFlag{Name: "fmisid", Required: true},
			&cli.Float64Flag{Name: "lon", Required: true},
			&cli.Float64Flag{Name: "lat", Required: true},
			&cli.StringFlag{Name: "station-type", Value: "weather"},
			&cli.StringFlag{Name: "params", Required: true, Usage: "comma-separated parameter names"},
			&cli.DurationFlag{Name: "lookback", Value: time.Hour},
		},
		Action: func(c *cli.Context) error {
			return runQuery(log, c)
		},
	}
}

func runQuery(log *logrus.Logger, c *cli.Context) error {
	logEntry := logrus.NewEntry(log).WithField("component", "query")
	logEntry.WithField("fmisid", c.Int("fmisid")).Debug("query: resolving request")

	db, err := mirror.Open(c.String("mirror-path"))
	if err != nil {
		return cmn.NewError("query", err, "opening mirror at %s", c.String("mirror-path"))
	}
	defer db.Close()

	obsStore, err := mirror.NewDataItemStore(db)
	if err != nil {
		return err
	}

	owner := stations.NewOwner(1024)
	station := &cmn.Station{
		FmiSID:      c.Int("fmisid"),
		Name:        "cli-station",
		StationType: c.String("station-type"),
		Longitude:   c.Float64("lon"),
		Latitude:    c.Float64("lat"),
		Start:       time.Unix(0, 0),
		End:         time.Now().Add(100 * 365 * 24 * time.Hour),
	}
	owner.Republish(stations.NewBuilder(1).AddStation(station).Build())

	measurands := query.NewMeasurandRegistry()
	measurands.Register(station.StationType, query.MeasurandTemperature, 1)
	measurands.Register(station.StationType, query.MeasurandWindDirection, 2)
	measurands.Register(station.StationType, query.MeasurandHumidity, 3)
	measurands.Register(station.StationType, query.MeasurandWindSpeed, 4)

	src := &query.Source[*cmn.DataItem]{
		Memory: memsnap.NewDataItemSnapshot(),
		Mirror: obsStore,
		Kind:   cmn.KindObservation.String(),
	}

	now := time.Now()
	req := &query.Request{
		StationType:     station.StationType,
		StartTime:       now.Add(-c.Duration("lookback")),
		EndTime:         now,
		Parameters:      strings.Split(c.String("params"), ","),
		PreventUpstream: true,
		Limits: query.RequestLimits{
			MaxTimesteps: 50_000,
			MaxStations:  1,
			MaxElements:  500,
		},
	}

	// This command resolves by a bare fmisid, never a nearest-k search, so
	// there is no Nearby hit to hand Execute for distance/direction.
	resp, err := query.Execute(c.Context, req, src, measurands, station, nil)
	if err != nil {
		return cmn.NewError("query", err, "execute failed")
	}
	out, err := resp.EncodeJSON()
	if err != nil {
		return cmn.NewError("query", err, "encode failed")
	}
	fmt.Println(string(out))
	return nil
}

func nearestCommand(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "nearest",
		Usage: "resolve several station ids concurrently against a small inline registry (smoke test for pool.ReadPool)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fmisids", Required: true, Usage: "comma-separated fmisid list"},
		},
		Action: func(c *cli.Context) error {
			logrus.NewEntry(log).WithField("component", "nearest").Debug("nearest: resolving fmisids")
			owner := stations.NewOwner(64)
			b := stations.NewBuilder(1)
			ids, err := parseFmisids(c.String("fmisids"))
			if err != nil {
				return err
			}
			for _, id := range ids {
				b.AddStation(&cmn.Station{FmiSID: id, Name: fmt.Sprintf("station-%d", id), Start: time.Unix(0, 0), End: time.Now().Add(100 * 365 * 24 * time.Hour)})
			}
			owner.Republish(b.Build())

			p := pool.NewReadPool(c.Context, 4)
			defer p.StopAndWait()
			results := pool.Map(p, ids, func(id int) *cmn.Station {
				s, _ := owner.ByIDCached("fmisid", id)
				return s
			})
			for _, s := range results {
				if s == nil {
					continue
				}
				fmt.Printf("%d\t%s\n", s.FmiSID, s.Name)
			}
			return nil
		},
	}
}

func parseFmisids(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, cmn.NewError("parseFmisids", err, "invalid fmisid %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
