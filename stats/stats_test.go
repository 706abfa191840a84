package stats

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCacheHitIncrementsByTierAndKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheHit("memory", "observation")
	c.RecordCacheHit("memory", "observation")
	c.RecordCacheHit("mirror", "observation")

	if got := testutil.ToFloat64(c.cacheHits.WithLabelValues("memory", "observation")); got != 2 {
		t.Fatalf("expected 2 memory hits, got %v", got)
	}
	if got := testutil.ToFloat64(c.cacheHits.WithLabelValues("mirror", "observation")); got != 1 {
		t.Fatalf("expected 1 mirror hit, got %v", got)
	}
}

func TestRecordCacheMiss(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheMiss("flash")
	if got := testutil.ToFloat64(c.cacheMisses.WithLabelValues("flash")); got != 1 {
		t.Fatalf("expected 1 miss, got %v", got)
	}
}

func TestObserveIngestBatchRecordsAGivenKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveIngestBatch("roadweather", 250*time.Millisecond)
	if n := testutil.CollectAndCount(c.ingestBatchSecs); n != 1 {
		t.Fatalf("expected 1 series in the histogram vec, got %d", n)
	}
}

func TestAddRetentionEvictedIgnoresNonPositive(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.AddRetentionEvicted("mobile", 0)
	c.AddRetentionEvicted("mobile", -5)
	if got := testutil.ToFloat64(c.retentionEvict.WithLabelValues("mobile")); got != 0 {
		t.Fatalf("expected no change from non-positive counts, got %v", got)
	}

	c.AddRetentionEvicted("mobile", 3)
	if got := testutil.ToFloat64(c.retentionEvict.WithLabelValues("mobile")); got != 3 {
		t.Fatalf("expected 3 evicted rows, got %v", got)
	}
}

func TestRecordNearestKLookupSplitsHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNearestKLookup(true)
	c.RecordNearestKLookup(true)
	c.RecordNearestKLookup(false)

	if got := testutil.ToFloat64(c.nearestKHits); got != 2 {
		t.Fatalf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(c.nearestKMisses); got != 1 {
		t.Fatalf("expected 1 miss, got %v", got)
	}
}
