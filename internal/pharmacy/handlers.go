package pharmacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/caretrack/hms-backend/pkg/monitoring"
	"github.com/caretrack/hms-backend/pkg/types"
)

// setupRoutes registers the pharmacy service HTTP routes
func (s *Service) setupRoutes(router *mux.Router) {
	mw := monitoring.NewMonitoringMiddleware(s.metrics, s.logger)
	router.Use(mw.HTTPMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Pharmacist routes
	api.HandleFunc("/pharmacist/medicines", s.handleListMedicines).Methods("GET")
	api.HandleFunc("/pharmacist/medicines", s.handleCreateMedicine).Methods("POST")
	api.HandleFunc("/pharmacist/medicines/search", s.handleSearchMedicines).Methods("GET")
	api.HandleFunc("/pharmacist/medicines/inventory", s.handleInventoryView).Methods("GET")
	api.HandleFunc("/pharmacist/medicines/export", s.handleExportInventory).Methods("GET")
	api.HandleFunc("/pharmacist/medicines/{medicineID}/stock", s.handleAdjustStock).Methods("PUT")

	// Admin routes
	api.HandleFunc("/admin/pharmacy/medicines", s.handleInventoryView).Methods("GET")
	api.HandleFunc("/admin/pharmacy/alerts/low-stock", s.handleLowStockAlerts).Methods("GET")

	// Operational endpoints
	api.Handle("/health", s.health.Handler()).Methods("GET")
	router.Handle(s.config.Monitoring.HealthPath, s.health.Handler()).Methods("GET")
	router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
}

// handleListMedicines handles paginated medicine listing
func (s *Service) handleListMedicines(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	medicines, err := s.ListMedicines(limit, (page-1)*limit, userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to list medicines")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"data": medicines})
}

// handleSearchMedicines handles medicine search
func (s *Service) handleSearchMedicines(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	query := r.URL.Query().Get("query")

	medicines, err := s.SearchMedicines(query, userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to search medicines")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"data": medicines})
}

// handleInventoryView handles the filtered inventory view with totals
func (s *Service) handleInventoryView(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	filters := parseInventoryFilters(r)

	view, err := s.GetInventoryView(filters, userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to build inventory view")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"data":   view.Medicines,
		"totals": view.Totals,
	})
}

// handleCreateMedicine handles medicine creation
func (s *Service) handleCreateMedicine(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	var med types.Medicine
	if err := json.NewDecoder(r.Body).Decode(&med); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	created, err := s.CreateMedicine(&med, userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to create medicine")
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{"data": created})
}

// handleAdjustStock handles stock adjustments
func (s *Service) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	vars := mux.Vars(r)
	medicineID := vars["medicineID"]

	var adjustment types.StockAdjustment
	if err := json.NewDecoder(r.Body).Decode(&adjustment); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	med, txn, err := s.AdjustStock(medicineID, &adjustment, userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to adjust stock")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"medicine":    med,
			"transaction": txn,
		},
	})
}

// handleExportInventory handles inventory file export
func (s *Service) handleExportInventory(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	data, contentType, filename, err := s.ExportInventory(format, userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to export inventory")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.WithError(err).Error("Failed to write export response")
	}
}

// handleLowStockAlerts handles the low stock alert list
func (s *Service) handleLowStockAlerts(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserIDFromRequest(r)
	if userID == "" {
		s.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User ID not found in request")
		return
	}

	alerts, err := s.GetLowStockAlerts(userID)
	if err != nil {
		s.writeServiceError(w, err, "Failed to build low stock alerts")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"data": alerts})
}

// parseInventoryFilters extracts inventory filters from query parameters
func parseInventoryFilters(r *http.Request) types.InventoryFilters {
	q := r.URL.Query()

	sortOrder := q.Get("sort_order")
	if sortOrder != "desc" {
		sortOrder = "asc"
	}

	return types.InventoryFilters{
		Category:    q.Get("category"),
		StockFilter: q.Get("stock"),
		Search:      q.Get("search"),
		Tab:         q.Get("tab"),
		SortBy:      q.Get("sort_by"),
		SortOrder:   sortOrder,
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
