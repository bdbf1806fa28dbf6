// Package metrics содержит Prometheus-метрики сервиса галереи.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var GalleryQueries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rsip_gallery_queries_total",
	Help: "Number of gallery queries by kind",
}, []string{"kind"})

var StoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rsip_gallery_store_failures_total",
	Help: "Number of failed data store calls by operation",
}, []string{"op"})

var StoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "rsip_gallery_store_duration_seconds",
	Help:    "A histogram of data store call latencies",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
}, []string{"op"})

var RelatedFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rsip_gallery_related_fallbacks_total",
	Help: "Number of times related items fell back to the loose query",
})

var ModerationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rsip_gallery_moderation_transitions_total",
	Help: "Moderation actions by action and outcome",
}, []string{"action", "outcome"})

var ReportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rsip_gallery_reports_submitted_total",
	Help: "Content reports submitted by reason",
}, []string{"reason"})

var ReportsReviewed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rsip_gallery_reports_reviewed_total",
	Help: "Content reports closed by resulting status",
}, []string{"status"})

var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rsip_gallery_cache_lookups_total",
	Help: "Cache lookups by result",
}, []string{"result"})

var ViewIncrements = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rsip_gallery_view_increments_total",
	Help: "Fire-and-forget view counter calls by outcome",
}, []string{"outcome"})

var reqDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "http_request_duration_seconds",
	Help:    "A histogram of latencies for requests.",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
}, []string{"code", "method", "path"})

var reqCnt = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "A counter for requests to the wrapped handler.",
}, []string{"code", "method", "path"})

var resSz = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "http_response_size_bytes",
	Help:    "A histogram of response sizes for requests.",
	Buckets: prometheus.ExponentialBuckets(100, 10, 8),
}, []string{"code", "method", "path"})
