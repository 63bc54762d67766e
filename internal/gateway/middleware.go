package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/caretrack/hms-backend/pkg/types"
)

type contextKey string

const userClaimsKey contextKey = "user_claims"

// ClaimsFromContext returns the authenticated user claims, if any
func ClaimsFromContext(ctx context.Context) (*types.UserClaims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*types.UserClaims)
	return claims, ok
}

// corsMiddleware handles CORS headers
func (s *Service) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware adds security headers
func (s *Service) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs requests with status and timing
func (s *Service) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		s.metrics.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(recorder.statusCode), duration)
		s.logger.HTTPRequest(r.Context(), r.Method, r.URL.Path, r.UserAgent(), r.RemoteAddr,
			recorder.statusCode, duration.Milliseconds(), nil)
	})
}

// authMiddleware validates bearer tokens and stamps the user identity onto
// the request for downstream services
func (s *Service) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.metrics.RecordAuthAttempt("jwt", "missing")
			s.writeErrorResponse(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.metrics.RecordAuthAttempt("jwt", "malformed")
			s.writeErrorResponse(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := s.tokenValidator.ValidateJWT(parts[1])
		if err != nil {
			s.metrics.RecordAuthAttempt("jwt", "rejected")
			s.logger.WithError(err).Warn("Token validation failed")
			s.writeErrorResponse(w, http.StatusUnauthorized, "invalid token")
			return
		}

		s.metrics.RecordAuthAttempt("jwt", "accepted")

		// Downstream services trust these headers from the gateway
		r.Header.Set("X-User-ID", claims.UserID)
		r.Header.Set("X-User-Role", string(claims.Role))

		ctx := context.WithValue(r.Context(), userClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitMiddleware applies per-user rate limiting
func (s *Service) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.RateLimit.Enabled || s.isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			s.writeErrorResponse(w, http.StatusInternalServerError, "user claims not found in context")
			return
		}

		allowed, err := s.rateLimiter.Allow(claims.UserID)
		if err != nil {
			s.logger.WithError(err).Error("Rate limit check failed")
			s.writeErrorResponse(w, http.StatusInternalServerError, "rate limit check failed")
			return
		}

		if !allowed {
			s.logger.WithUserID(claims.UserID).Warn("Rate limit exceeded")
			s.writeErrorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isPublicPath reports whether a path bypasses authentication
func (s *Service) isPublicPath(path string) bool {
	return path == s.config.Monitoring.HealthPath ||
		path == s.config.Monitoring.MetricsPath
}

// responseRecorder captures the response status code
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
