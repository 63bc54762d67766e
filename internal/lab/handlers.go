package lab

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/caretrack/hms-backend/pkg/monitoring"
	"github.com/caretrack/hms-backend/pkg/types"
)

// setupRoutes registers the lab service HTTP routes
func (s *Service) setupRoutes(router *mux.Router) {
	mw := monitoring.NewMonitoringMiddleware(s.metrics, s.logger)
	router.Use(mw.HTTPMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Technician routes
	api.HandleFunc("/labtech/performance", s.handlePerformance).Methods("GET")
	api.HandleFunc("/labtech/tests", s.handleListTests).Methods("GET")
	api.HandleFunc("/labtech/tests", s.handleCreateTest).Methods("POST")
	api.HandleFunc("/labtech/tests/{testID}/status", s.handleUpdateStatus).Methods("PUT")

	// Admin routes
	api.HandleFunc("/admin/lab/tests", s.handleListTests).Methods("GET")
	api.HandleFunc("/admin/lab-techs", s.handleListTechnicians).Methods("GET")
	api.HandleFunc("/admin/lab/analytics", s.handleAnalytics).Methods("GET")

	// Operational endpoints
	api.Handle("/health", s.health.Handler()).Methods("GET")
	router.Handle(s.config.Monitoring.HealthPath, s.health.Handler()).Methods("GET")
	router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
}

// handlePerformance handles the technician performance report
func (s *Service) handlePerformance(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	// Admins may ask for a specific technician; technicians get their own report
	technicianID := r.URL.Query().Get("technician_id")
	if technicianID == "" {
		tech, err := s.repository.GetTechnicianByUserID(userID)
		if err != nil {
			s.writeServiceError(w, err, "Failed to resolve technician")
			return
		}
		technicianID = tech.ID
	}

	report, err := s.GetTechnicianPerformance(technicianID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to build technician performance")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"data": report})
}

// handleListTests handles filtered lab test listing
func (s *Service) handleListTests(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	filters := parseTestFilters(r)

	tests, err := s.GetTests(filters, userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to list lab tests")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"data": tests})
}

// handleCreateTest handles lab test creation
func (s *Service) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	var test types.LabTest
	if err := json.NewDecoder(r.Body).Decode(&test); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	created, err := s.CreateTest(&test, userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to create lab test")
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{"data": created})
}

// handleUpdateStatus handles lab test status transitions
func (s *Service) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	vars := mux.Vars(r)
	testID := vars["testID"]

	var update types.TestStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	test, err := s.UpdateTestStatus(testID, update.Status, userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to update lab test status")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"data": test})
}

// handleListTechnicians handles the technician roster with stats
func (s *Service) handleListTechnicians(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	summaries, err := s.GetTechnicians(userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to list lab technicians")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"data": summaries})
}

// handleAnalytics handles the lab-wide analytics report
func (s *Service) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	report, err := s.GetLabAnalytics(userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to build lab analytics")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"data": report})
}

// parseTestFilters extracts lab test filters from query parameters
func parseTestFilters(r *http.Request) *types.LabTestFilters {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	return &types.LabTestFilters{
		Status:       types.TestStatus(q.Get("status")),
		Priority:     types.TestPriority(q.Get("priority")),
		TechnicianID: q.Get("technician_id"),
		Limit:        limit,
		Offset:       offset,
	}
}

// getUserIDFromRequest extracts the user ID from the request headers
func (s *Service) getUserIDFromRequest(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// writeServiceError maps service errors to HTTP responses
func (s *Service) writeServiceError(w http.ResponseWriter, err error, logMessage string) {
	s.logger.WithError(err).Error(logMessage)

	var svcErr *types.ServiceError
	if errors.As(err, &svcErr) {
		s.writeErrorResponse(w, statusForErrorType(svcErr.Type), svcErr.Code, svcErr.Message)
		return
	}

	s.writeErrorResponse(w, http.StatusInternalServerError, types.ErrCodeInternalError, "Internal server error")
}

// statusForErrorType maps error types to HTTP status codes
func statusForErrorType(errType types.ErrorType) int {
	switch errType {
	case types.ErrorTypeValidation:
		return http.StatusBadRequest
	case types.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case types.ErrorTypeAuthorization:
		return http.StatusForbidden
	case types.ErrorTypeNotFound:
		return http.StatusNotFound
	case types.ErrorTypeConflict:
		return http.StatusConflict
	case types.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
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
func (s *Service) writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	errorResponse := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}

	s.writeJSONResponse(w, status, errorResponse)
}
