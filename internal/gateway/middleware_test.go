package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/caretrack/hms-backend/pkg/config"
	"github.com/caretrack/hms-backend/pkg/logger"
)

func newTestGateway(t *testing.T, pharmacyURL, labURL string, rateLimitEnabled bool) *Service {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  5,
			WriteTimeout: 5,
			IdleTimeout:  30,
		},
		JWT: config.JWTConfig{
			SecretKey:      testSecret,
			AccessTokenTTL: 3600,
			Issuer:         "caretrack-api-gateway",
		},
		Services: config.ServicesConfig{
			PharmacyURL: pharmacyURL,
			LabURL:      labURL,
		},
		RateLimit: config.RateLimitConfig{
			Enabled:        rateLimitEnabled,
			RequestsPerMin: 60,
			BurstSize:      2,
		},
		Monitoring: config.MonitoringConfig{
			Enabled:     true,
			MetricsPath: "/metrics",
			HealthPath:  "/health",
		},
		LogLevel: "error",
	}

	service, err := New(cfg, logger.New("error"))
	assert.NoError(t, err)
	return service
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1", "http://localhost:1", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pharmacist/medicines", nil)
	rec := httptest.NewRecorder()

	gw.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1", "http://localhost:1", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pharmacist/medicines", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()

	gw.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1", "http://localhost:1", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pharmacist/medicines", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	gw.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateway_ProxiesToPharmacyWithIdentityHeaders(t *testing.T) {
	var gotUserID, gotRole, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Header.Get("X-User-ID")
		gotRole = r.Header.Get("X-User-Role")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	gw := newTestGateway(t, upstream.URL, "http://localhost:1", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pharmacist/medicines", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testSecret, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	gw.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUserID)
	assert.Equal(t, "pharmacist", gotRole)
	assert.Equal(t, "/api/v1/pharmacist/medicines", gotPath)
}

func TestGateway_RoutesLabPathsToLabService(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	gw := newTestGateway(t, "http://localhost:1", upstream.URL, false)

	for _, path := range []string{
		"/api/v1/labtech/performance",
		"/api/v1/admin/lab/analytics",
		"/api/v1/admin/lab-techs",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, testSecret, time.Now().Add(time.Hour)))
		rec := httptest.NewRecorder()

		gw.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, path, gotPath)
	}
}

func TestGateway_UpstreamDown(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1", "http://localhost:1", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pharmacist/medicines", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testSecret, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	gw.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRateLimitMiddleware_ExhaustsBurst(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	gw := newTestGateway(t, upstream.URL, "http://localhost:1", true)
	token := signTestToken(t, testSecret, time.Now().Add(time.Hour))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/pharmacist/medicines", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		gw.router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func TestHealthEndpoint_IsPublic(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	gw := newTestGateway(t, upstream.URL, upstream.URL, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	gw.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSecurityHeaders(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1", "http://localhost:1", false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	gw.router.ServeHTTP(rec, req)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestCORSPreflight(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1", "http://localhost:1", false)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/pharmacist/medicines", nil)
	rec := httptest.NewRecorder()

	gw.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitStatusEndpoint(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:1", "http://localhost:1", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/limits", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testSecret, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	gw.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "remaining")
}
