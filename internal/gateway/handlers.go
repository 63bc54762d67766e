package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

var healthClient = &http.Client{Timeout: 5 * time.Second}

// handleHealth reports gateway health including downstream service checks
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	downstream := map[string]string{
		"pharmacy": s.checkUpstream(s.config.Services.PharmacyURL),
		"labtech":  s.checkUpstream(s.config.Services.LabURL),
	}

	status := "healthy"
	httpStatus := http.StatusOK
	for _, state := range downstream {
		if state != "healthy" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	s.writeJSONResponse(w, httpStatus, map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"services":       downstream,
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// checkUpstream probes a downstream service health endpoint
func (s *Service) checkUpstream(baseURL string) string {
	resp, err := healthClient.Get(strings.TrimSuffix(baseURL, "/") + s.config.Monitoring.HealthPath)
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "unhealthy"
	}
	return "healthy"
}

// handleRateLimitStatus reports the caller's remaining request budget
func (s *Service) handleRateLimitStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	remaining, limit, err := s.rateLimiter.GetLimits(claims.UserID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read rate limits")
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to read rate limits")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"data": map[string]int{
			"remaining": remaining,
			"limit":     limit,
		},
	})
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, status int, message string) {
	s.writeJSONResponse(w, status, map[string]interface{}{
		"error": map[string]string{
			"message": message,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
