package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the assignment engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	mappingsCreated    prometheus.Counter
	seatsAssigned      prometheus.Counter
	invigilatorsPlaced prometheus.Counter
	conflictsDetected  *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	mappingsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exam_room_mappings_created_total",
		Help: "Total session-room mappings committed",
	})

	seatsAssigned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exam_seats_assigned_total",
		Help: "Total seat assignments committed",
	})

	invigilatorsPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exam_invigilators_placed_total",
		Help: "Total invigilator roles filled",
	})

	conflictsDetected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_conflicts_detected_total",
		Help: "Conflicts rejected before commit",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses,
		mappingsCreated, seatsAssigned, invigilatorsPlaced, conflictsDetected, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		mappingsCreated:    mappingsCreated,
		seatsAssigned:      seatsAssigned,
		invigilatorsPlaced: invigilatorsPlaced,
		conflictsDetected:  conflictsDetected,
	}
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordMappingsCreated counts committed session-room mappings.
func (m *MetricsService) RecordMappingsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mappingsCreated.Add(float64(n))
}

// RecordSeatsAssigned counts committed seat assignments.
func (m *MetricsService) RecordSeatsAssigned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.seatsAssigned.Add(float64(n))
}

// RecordInvigilatorsPlaced counts filled invigilator roles.
func (m *MetricsService) RecordInvigilatorsPlaced(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invigilatorsPlaced.Add(float64(n))
}

// RecordConflict counts a rejected placement by kind (room, teacher, seat).
func (m *MetricsService) RecordConflict(kind string) {
	if m == nil {
		return
	}
	m.conflictsDetected.WithLabelValues(kind).Inc()
}
