package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, the stats
// cache and the certificate lifecycle.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	certificates    *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	documents       *prometheus.CounterVec
	allocation      prometheus.Histogram
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

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	certificates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certificates_events_total",
		Help: "Certificate lifecycle events by outcome",
	}, []string{"event", "outcome"})

	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certificate_verifications_total",
		Help: "Public verification lookups by result",
	}, []string{"result"})

	documents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certificate_documents_total",
		Help: "Certificate document renders by source and outcome",
	}, []string{"source", "outcome"})

	allocation := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "certificate_number_allocation_seconds",
		Help:    "Time spent allocating certificate numbers",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, certificates, verifications, documents, allocation, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
		certificates:    certificates,
		verifications:   verifications,
		documents:       documents,
		allocation:      allocation,
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordCacheOperation records a cache lookup by result (hit, miss or error).
func (m *MetricsService) RecordCacheOperation(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordCertificateEvent counts issue/revoke/regenerate outcomes.
func (m *MetricsService) RecordCertificateEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.certificates.WithLabelValues(event, outcome).Inc()
}

// RecordVerification counts public verification results.
func (m *MetricsService) RecordVerification(result string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result).Inc()
}

// RecordDocument counts document renders.
func (m *MetricsService) RecordDocument(source, outcome string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(source, outcome).Inc()
}

// ObserveAllocation records how long a number allocation took.
func (m *MetricsService) ObserveAllocation(duration time.Duration) {
	if m == nil {
		return
	}
	m.allocation.Observe(duration.Seconds())
}
