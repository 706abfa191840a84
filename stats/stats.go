// Package stats registers the Prometheus counters and histograms exported
// per cache tier and entity kind: cache hit/miss by tier, ingest batch
// latency, retention rows evicted, and nearest-k lookup cache hit rate.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "obsengine"

// Collector holds every metric this module exports, registered against a
// caller-supplied prometheus.Registerer rather than the global default
// registry so tests (and multiple in-process instances) don't collide.
type Collector struct {
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	ingestBatchSecs *prometheus.HistogramVec
	retentionEvict  *prometheus.CounterVec
	nearestKHits    prometheus.Counter
	nearestKMisses  prometheus.Counter
}

// NewCollector registers and returns a Collector. reg may be
// prometheus.DefaultRegisterer in production or a fresh
// prometheus.NewRegistry() in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Observation requests served by tier and entity kind.",
		}, []string{"tier", "kind"}),
		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Observation requests no tier could serve, by entity kind.",
		}, []string{"kind"}),
		ingestBatchSecs: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_batch_duration_seconds",
			Help:      "Wall time of one ingest fetch-dedup-commit cycle, by entity kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		retentionEvict: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_rows_evicted_total",
			Help:      "Rows dropped by a retention sweep, by entity kind.",
		}, []string{"kind"}),
		nearestKHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nearest_k_cache_hits_total",
			Help:      "Nearest-k station lookups served from the bounded LRU.",
		}),
		nearestKMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nearest_k_cache_misses_total",
			Help:      "Nearest-k station lookups that required a fresh search.",
		}),
	}
}

// RecordCacheHit records one request served by tier (memory/mirror/upstream).
func (c *Collector) RecordCacheHit(tier, kind string) {
	c.cacheHits.WithLabelValues(tier, kind).Inc()
}

// RecordCacheMiss records one request no tier could serve.
func (c *Collector) RecordCacheMiss(kind string) {
	c.cacheMisses.WithLabelValues(kind).Inc()
}

// ObserveIngestBatch records how long one ingest RunOnce call took.
func (c *Collector) ObserveIngestBatch(kind string, d time.Duration) {
	c.ingestBatchSecs.WithLabelValues(kind).Observe(d.Seconds())
}

// AddRetentionEvicted adds n rows dropped by a retention sweep.
func (c *Collector) AddRetentionEvicted(kind string, n int) {
	if n <= 0 {
		return
	}
	c.retentionEvict.WithLabelValues(kind).Add(float64(n))
}

// RecordNearestKLookup records whether a nearest-k lookup hit the LRU.
func (c *Collector) RecordNearestKLookup(hit bool) {
	if hit {
		c.nearestKHits.Inc()
		return
	}
	c.nearestKMisses.Inc()
}
