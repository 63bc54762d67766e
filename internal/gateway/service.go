package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/caretrack/hms-backend/pkg/config"
	"github.com/caretrack/hms-backend/pkg/interfaces"
	"github.com/caretrack/hms-backend/pkg/logger"
	"github.com/caretrack/hms-backend/pkg/monitoring"
)

// Service implements the API gateway. It authenticates and rate limits
// requests, then proxies them to the pharmacy or lab service.
type Service struct {
	config         *config.Config
	logger         *logger.Logger
	router         *mux.Router
	server         *http.Server
	tokenValidator interfaces.TokenValidator
	rateLimiter    interfaces.RateLimiter
	metrics        *monitoring.MetricsCollector
	pharmacyProxy  http.Handler
	labProxy       http.Handler
	startTime      time.Time
}

// New creates a new API gateway service
func New(cfg *config.Config, log *logger.Logger) (*Service, error) {
	pharmacyProxy, err := newProxy(cfg.Services.PharmacyURL, log)
	if err != nil {
		return nil, fmt.Errorf("invalid pharmacy service URL: %w", err)
	}

	labProxy, err := newProxy(cfg.Services.LabURL, log)
	if err != nil {
		return nil, fmt.Errorf("invalid lab service URL: %w", err)
	}

	rateLimiter := NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize)
	rateLimiter.StartCleanup(time.Hour)

	s := &Service{
		config:         cfg,
		logger:         log,
		router:         mux.NewRouter(),
		tokenValidator: NewTokenValidator(&cfg.JWT),
		rateLimiter:    rateLimiter,
		metrics:        monitoring.NewMetricsCollector("gateway"),
		pharmacyProxy:  pharmacyProxy,
		labProxy:       labProxy,
		startTime:      time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return s, nil
}

// newProxy builds a reverse proxy to a downstream service
func newProxy(rawURL string, log *logger.Logger) (http.Handler, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).WithFields(map[string]interface{}{
			"path":   r.URL.Path,
			"target": target.String(),
		}).Error("Upstream request failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, `{"error":{"code":"UPSTREAM_UNAVAILABLE","message":"upstream service unavailable"}}`)
	}

	return proxy, nil
}

// setupRoutes sets up the routing
func (s *Service) setupRoutes() {
	// Operational endpoints
	s.router.HandleFunc(s.config.Monitoring.HealthPath, s.handleHealth).Methods("GET")
	s.router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")

	// Rate limit introspection for authenticated callers
	s.router.HandleFunc("/api/v1/auth/limits", s.handleRateLimitStatus).Methods("GET")

	// Pharmacy service routes
	s.router.PathPrefix("/api/v1/pharmacist/").Handler(s.pharmacyProxy)
	s.router.PathPrefix("/api/v1/admin/pharmacy/").Handler(s.pharmacyProxy)

	// Lab service routes
	s.router.PathPrefix("/api/v1/labtech/").Handler(s.labProxy)
	s.router.PathPrefix("/api/v1/admin/lab").Handler(s.labProxy)
}

// setupMiddleware sets up the middleware chain
func (s *Service) setupMiddleware() {
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.authMiddleware)
	s.router.Use(s.rateLimitMiddleware)
}

// Start starts the API gateway server
func (s *Service) Start(addr string) error {
	if addr != "" {
		s.server.Addr = addr
	}

	s.logger.WithField("addr", s.server.Addr).Info("Starting API Gateway")
	return s.server.ListenAndServe()
}

// Stop stops the API gateway server
func (s *Service) Stop() error {
	s.logger.Info("Stopping API Gateway")
	return s.server.Close()
}
