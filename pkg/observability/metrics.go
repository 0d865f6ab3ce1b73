package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Edge filter metrics
	EdgeRequestsTotal *prometheus.CounterVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec

	// Routing metrics
	IngestMessagesTotal      *prometheus.CounterVec
	TenantSpoofAttemptsTotal prometheus.Counter

	// Resolver metrics
	ResolverOperationsTotal *prometheus.CounterVec

	// Store metrics
	StoreOperationsTotal     *prometheus.CounterVec
	StoreOperationDuration   *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetgate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fleetgate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		EdgeRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetgate_edge_requests_total",
				Help: "Edge filter decisions by outcome and rejection reason",
			},
			[]string{"decision", "reason"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetgate_authz_decisions_total",
				Help: "Authorization decisions by outcome and reason",
			},
			[]string{"decision", "reason"},
		),
		IngestMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetgate_ingest_messages_total",
				Help: "Telemetry messages processed by routing outcome",
			},
			[]string{"status"},
		),
		TenantSpoofAttemptsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fleetgate_tenant_spoof_attempts_total",
				Help: "Telemetry messages dropped because the topic tenant did not match the publisher tenant",
			},
		),
		ResolverOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetgate_resolver_operations_total",
				Help: "Resolver operations by name and status",
			},
			[]string{"operation", "status"},
		),
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetgate_store_operations_total",
				Help: "Total number of robot record store operations",
			},
			[]string{"operation", "backend", "status"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fleetgate_store_operation_duration_seconds",
				Help:    "Robot record store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.EdgeRequestsTotal,
		m.AuthzDecisionsTotal,
		m.IngestMessagesTotal,
		m.TenantSpoofAttemptsTotal,
		m.ResolverOperationsTotal,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry in Prometheus format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStoreOperation records one store operation outcome with its duration
func (m *Metrics) ObserveStoreOperation(operation, backend string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreOperationsTotal.WithLabelValues(operation, backend, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

// statusRecorder captures the response status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// InstrumentHandler wraps an HTTP handler with request count and duration metrics.
// The path label is the route template, not the raw URL, to keep cardinality bounded.
func (m *Metrics) InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
