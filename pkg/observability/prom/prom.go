// Package prom implements the observability hooks on top of Prometheus
// client_golang. Register a *Metrics with observability.SetEngineHooks,
// SetCacheHooks and SetHTTPHooks, and expose the registry with promhttp.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/kintree/pkg/observability"
)

// Metrics holds the kintree collectors.
type Metrics struct {
	pathCacheHits      *prometheus.CounterVec
	pathCacheMisses    *prometheus.CounterVec
	compileTotal       *prometheus.CounterVec
	compileDuration    prometheus.Histogram
	compileSegments    prometheus.Gauge
	compileOverlapping prometheus.Gauge
	highlightSkipped   *prometheus.CounterVec
	highlightRejected  *prometheus.CounterVec
	cacheEvents        *prometheus.CounterVec
	cacheBytes         prometheus.Counter
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New registers the kintree collectors with reg. Passing nil registers them
// with the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		pathCacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kintree_path_cache_hits_total",
			Help: "Path resolver cache hits by path kind",
		}, []string{"kind"}),
		pathCacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kintree_path_cache_misses_total",
			Help: "Path resolver cache misses by path kind",
		}, []string{"kind"}),
		compileTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kintree_compile_total",
			Help: "Render compilations by selected quality tier",
		}, []string{"tier"}),
		compileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kintree_compile_duration_seconds",
			Help:    "Render compilation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50us to ~100ms
		}),
		compileSegments: f.NewGauge(prometheus.GaugeOpts{
			Name: "kintree_compile_segments",
			Help: "Highlighted segments in the last compilation",
		}),
		compileOverlapping: f.NewGauge(prometheus.GaugeOpts{
			Name: "kintree_compile_overlapping_segments",
			Help: "Overlapping segments in the last compilation",
		}),
		highlightSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kintree_highlight_skipped_total",
			Help: "Highlights skipped during compilation by reason",
		}, []string{"reason"}),
		highlightRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kintree_highlight_rejected_total",
			Help: "Highlight add requests rejected by error code",
		}, []string{"code"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kintree_artifact_cache_events_total",
			Help: "Artifact cache events by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "kintree_artifact_cache_written_bytes_total",
			Help: "Bytes written to the artifact cache",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kintree_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kintree_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// OnPathCacheHit implements observability.EngineHooks.
func (m *Metrics) OnPathCacheHit(kind string) { m.pathCacheHits.WithLabelValues(kind).Inc() }

// OnPathCacheMiss implements observability.EngineHooks.
func (m *Metrics) OnPathCacheMiss(kind string) { m.pathCacheMisses.WithLabelValues(kind).Inc() }

// OnCompile implements observability.EngineHooks.
func (m *Metrics) OnCompile(segments, overlapping int, tier string, d time.Duration) {
	m.compileTotal.WithLabelValues(tier).Inc()
	m.compileDuration.Observe(d.Seconds())
	m.compileSegments.Set(float64(segments))
	m.compileOverlapping.Set(float64(overlapping))
}

// OnHighlightSkipped implements observability.EngineHooks.
func (m *Metrics) OnHighlightSkipped(reason string) {
	m.highlightSkipped.WithLabelValues(reason).Inc()
}

// OnHighlightRejected implements observability.EngineHooks.
func (m *Metrics) OnHighlightRejected(code string) {
	m.highlightRejected.WithLabelValues(code).Inc()
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.EngineHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)
