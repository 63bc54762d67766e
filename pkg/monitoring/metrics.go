package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Database metrics
	dbConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
		[]string{"database", "service"},
	)

	dbQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"query_type", "service"},
	)

	// Inventory metrics
	stockAdjustmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_adjustments_total",
			Help: "Total number of stock adjustments",
		},
		[]string{"operation", "status", "service"},
	)

	medicinesLowStock = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medicines_low_stock",
			Help: "Number of medicines currently under the low-stock threshold",
		},
		[]string{"service"},
	)

	medicinesOutOfStock = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medicines_out_of_stock",
			Help: "Number of medicines currently out of stock",
		},
		[]string{"service"},
	)

	// Lab metrics
	labTestsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_tests_processed_total",
			Help: "Total number of lab test status transitions",
		},
		[]string{"status", "priority", "service"},
	)

	labCompletionHours = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lab_test_completion_hours",
			Help:    "Completion time of lab tests in hours",
			Buckets: []float64{0.5, 1, 2, 4, 8, 24, 48, 96},
		},
		[]string{"priority", "service"},
	)

	// Authentication metrics
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "status", "service"},
	)

	// System metrics
	systemErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_errors_total",
			Help: "Total number of system errors",
		},
		[]string{"error_type", "service", "component"},
	)
)

var registerOnce sync.Once

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	// Metrics are process-wide; register them once
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			dbConnectionsActive,
			dbQueryDuration,
			stockAdjustmentsTotal,
			medicinesLowStock,
			medicinesOutOfStock,
			labTestsProcessedTotal,
			labCompletionHours,
			authAttemptsTotal,
			systemErrors,
		)
	})

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordDBConnection records database connection metrics
func (m *MetricsCollector) RecordDBConnection(database string, activeConnections int) {
	dbConnectionsActive.WithLabelValues(database, m.serviceName).Set(float64(activeConnections))
}

// RecordDBQuery records database query metrics
func (m *MetricsCollector) RecordDBQuery(queryType string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(queryType, m.serviceName).Observe(duration.Seconds())
}

// RecordStockAdjustment records stock adjustment metrics
func (m *MetricsCollector) RecordStockAdjustment(operation, status string) {
	stockAdjustmentsTotal.WithLabelValues(operation, status, m.serviceName).Inc()
}

// RecordStockLevels records current low/out-of-stock gauge values
func (m *MetricsCollector) RecordStockLevels(lowStock, outOfStock int) {
	medicinesLowStock.WithLabelValues(m.serviceName).Set(float64(lowStock))
	medicinesOutOfStock.WithLabelValues(m.serviceName).Set(float64(outOfStock))
}

// RecordLabTestTransition records a lab test status transition
func (m *MetricsCollector) RecordLabTestTransition(status, priority string) {
	labTestsProcessedTotal.WithLabelValues(status, priority, m.serviceName).Inc()
}

// RecordLabCompletion records the completion time of a lab test
func (m *MetricsCollector) RecordLabCompletion(priority string, hours float64) {
	labCompletionHours.WithLabelValues(priority, m.serviceName).Observe(hours)
}

// RecordAuthAttempt records authentication attempt metrics
func (m *MetricsCollector) RecordAuthAttempt(method, status string) {
	authAttemptsTotal.WithLabelValues(method, status, m.serviceName).Inc()
}

// RecordSystemError records system error metrics
func (m *MetricsCollector) RecordSystemError(errorType, component string) {
	systemErrors.WithLabelValues(errorType, m.serviceName, component).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}
