package monitoring

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Logger interface for the monitoring middleware
type Logger interface {
	HTTPRequest(ctx context.Context, method, path, userAgent, clientIP string, statusCode int, duration int64, details map[string]interface{})
}

// MonitoringMiddleware combines metrics and request logging
type MonitoringMiddleware struct {
	metrics *MetricsCollector
	logger  Logger
}

// NewMonitoringMiddleware creates a new monitoring middleware
func NewMonitoringMiddleware(metrics *MetricsCollector, logger Logger) *MonitoringMiddleware {
	return &MonitoringMiddleware{
		metrics: metrics,
		logger:  logger,
	}
}

// HTTPMiddleware creates HTTP monitoring middleware
func (mm *MonitoringMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Generate request ID if not present
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// Add request ID to context
		ctx := context.WithValue(r.Context(), "request_id", requestID)

		// Create response writer wrapper
		wrapper := &monitoringResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Add request ID to response headers
		wrapper.Header().Set("X-Request-ID", requestID)

		// Call next handler
		next.ServeHTTP(wrapper, r.WithContext(ctx))

		duration := time.Since(start)

		mm.metrics.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(wrapper.statusCode), duration)
		mm.logger.HTTPRequest(ctx, r.Method, r.URL.Path, r.UserAgent(), r.RemoteAddr, wrapper.statusCode, duration.Milliseconds(), nil)
	})
}

// monitoringResponseWriter captures the response status code
type monitoringResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code
func (w *monitoringResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
