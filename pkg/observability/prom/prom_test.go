package prom

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordEngineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OnPathCacheMiss("single")
	m.OnPathCacheHit("single")
	m.OnPathCacheHit("single")
	m.OnCompile(7, 2, "full", 3*time.Millisecond)
	m.OnHighlightRejected("CAPACITY_EXCEEDED")

	if got := testutil.ToFloat64(m.pathCacheHits.WithLabelValues("single")); got != 2 {
		t.Errorf("path cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.pathCacheMisses.WithLabelValues("single")); got != 1 {
		t.Errorf("path cache misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.compileSegments); got != 7 {
		t.Errorf("compile segments = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.compileTotal.WithLabelValues("full")); got != 1 {
		t.Errorf("compile total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.highlightRejected.WithLabelValues("CAPACITY_EXCEEDED")); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
}

func TestMetricsRecordCacheAndHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	ctx := context.Background()

	m.OnCacheMiss(ctx, "artifact")
	m.OnCacheSet(ctx, "artifact", 512)
	m.OnCacheHit(ctx, "artifact")
	m.OnResponse(ctx, "GET", "/render", 200, time.Millisecond)

	if got := testutil.ToFloat64(m.cacheBytes); got != 512 {
		t.Errorf("cache bytes = %v, want 512", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/render", "200")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
}
