package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	accessDenied    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	notifications   *prometheus.CounterVec
	achievements    *prometheus.CounterVec
	cleanupItems    *prometheus.CounterVec
	backlog         atomic.Value

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds by route template",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status_class"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route template, status class and caller role",
	}, []string{"method", "route", "status_class", "role"})

	accessDenied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_access_denied_total",
		Help: "Requests refused with 401 or 403, by route and caller role",
	}, []string{"route", "role"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Redis cache lookups by key namespace and result",
	}, []string{"namespace", "result"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notifications by pipeline outcome",
	}, []string{"outcome"})

	achievements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "achievements_awarded_total",
		Help: "Achievements awarded by type",
	}, []string{"type"})

	cleanupItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanup_items_total",
		Help: "Items retired by the cleanup job",
	}, []string{"kind"})

	var m *MetricsService
	backlog := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "notification_queue_backlog",
		Help: "Notifications waiting for a worker",
	}, func() float64 {
		return float64(m.notificationBacklog())
	})

	registry.MustRegister(requestDuration, requestTotal, accessDenied, cacheLatency, cacheWrite, cacheHitRatio, cacheLookups, dbQueryDuration, goroutines,
		notifications, achievements, cleanupItems, backlog)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	m = &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		accessDenied:    accessDenied,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheLookups:    cacheLookups,
		dbQueryDuration: dbQueryDuration,
		notifications:   notifications,
		achievements:    achievements,
		cleanupItems:    cleanupItems,
	}
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// RequestObservation is one finished HTTP request.
type RequestObservation struct {
	Method   string
	Route    string
	Status   int
	Role     string
	Duration time.Duration
}

// ObserveHTTPRequest records a finished request and counts refusals separately
// so RBAC denials per role are visible.
func (m *MetricsService) ObserveHTTPRequest(obs RequestObservation) {
	if m == nil {
		return
	}
	class := statusClass(obs.Status)
	m.requestDuration.WithLabelValues(obs.Method, obs.Route, class).Observe(obs.Duration.Seconds())
	m.requestTotal.WithLabelValues(obs.Method, obs.Route, class, obs.Role).Inc()
	if obs.Status == http.StatusUnauthorized || obs.Status == http.StatusForbidden {
		m.accessDenied.WithLabelValues(obs.Route, obs.Role).Inc()
	}
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(obs.Duration.Nanoseconds()))
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return fmt.Sprintf("%dxx", status/100)
}

// RecordCacheOperation records one lookup in namespace and updates the overall hit ratio.
func (m *MetricsService) RecordCacheOperation(namespace string, hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheLookups.WithLabelValues(namespace, "hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues(namespace, "miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordNotification counts a notification reaching outcome (queued, delivered, dropped).
func (m *MetricsService) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *MetricsService) RecordAchievement(kind models.AchievementType) {
	if m == nil {
		return
	}
	m.achievements.WithLabelValues(string(kind)).Inc()
}

func (m *MetricsService) RecordCleanup(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cleanupItems.WithLabelValues(kind).Add(float64(n))
}

// TrackNotificationBacklog reports fn's value as the notification queue depth.
func (m *MetricsService) TrackNotificationBacklog(fn func() int) {
	if m == nil || fn == nil {
		return
	}
	m.backlog.Store(fn)
}

func (m *MetricsService) notificationBacklog() int {
	if fn, ok := m.backlog.Load().(func() int); ok {
		return fn()
	}
	return 0
}

// Snapshot returns aggregated metrics suitable for analytics endpoints.
func (m *MetricsService) Snapshot() models.AnalyticsSystemMetrics {
	if m == nil {
		return models.AnalyticsSystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return models.AnalyticsSystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		NotificationsQueued:      m.notificationBacklog(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
