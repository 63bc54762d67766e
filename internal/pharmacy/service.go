package pharmacy

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/caretrack/hms-backend/internal/analytics"
	"github.com/caretrack/hms-backend/pkg/config"
	"github.com/caretrack/hms-backend/pkg/database"
	"github.com/caretrack/hms-backend/pkg/interfaces"
	"github.com/caretrack/hms-backend/pkg/logger"
	"github.com/caretrack/hms-backend/pkg/monitoring"
	"github.com/caretrack/hms-backend/pkg/types"
)

// Service implements the PharmacyService interface
type Service struct {
	config     *config.Config
	logger     *logger.Logger
	repository interfaces.MedicineRepository
	db         *database.DB
	server     *http.Server
	metrics    *monitoring.MetricsCollector
	health     *monitoring.HealthManager
}

// New creates a new pharmacy service
func New(cfg *config.Config, log *logger.Logger) interfaces.PharmacyService {
	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		panic(err)
	}

	// Initialize repository
	repository := NewRepository(db, log)

	// Initialize monitoring
	metrics := monitoring.NewMetricsCollector("pharmacy")
	health := monitoring.NewHealthManager("pharmacy", "1.0.0")
	health.RegisterChecker("database", monitoring.NewDatabaseHealthChecker(db.DB, "database"))

	return &Service{
		config:     cfg,
		logger:     log,
		repository: repository,
		db:         db,
		metrics:    metrics,
		health:     health,
	}
}

// ListMedicines retrieves a page of medicines with derived metrics attached
func (s *Service) ListMedicines(limit, offset int, userID string) ([]*types.MedicineWithMetrics, error) {
	s.logger.WithUserID(userID).Info("Listing medicines")

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	medicines, err := s.repository.ListMedicines(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}

	return analytics.WithMetrics(medicines), nil
}

// SearchMedicines finds medicines matching the query
func (s *Service) SearchMedicines(query, userID string) ([]*types.MedicineWithMetrics, error) {
	s.logger.WithUserID(userID).WithField("query", query).Info("Searching medicines")

	if query == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "search query is required", nil)
	}

	medicines, err := s.repository.SearchMedicines(query)
	if err != nil {
		return nil, fmt.Errorf("failed to search medicines: %w", err)
	}

	return analytics.WithMetrics(medicines), nil
}

// GetInventoryView produces the filtered, sorted inventory view with
// aggregate totals
func (s *Service) GetInventoryView(filters types.InventoryFilters, userID string) (*types.InventoryView, error) {
	s.logger.WithUserID(userID).Info("Building inventory view")

	medicines, err := s.repository.ListAllMedicines()
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	filtered := analytics.FilterAndSort(medicines, filters)
	totals := analytics.AggregateTotals(medicines)
	s.metrics.RecordStockLevels(totals.LowStockCount, totals.OutOfStockCount)

	return &types.InventoryView{
		Medicines: analytics.WithMetrics(filtered),
		Totals:    totals,
	}, nil
}

// CreateMedicine creates a new medicine record
func (s *Service) CreateMedicine(med *types.Medicine, userID string) (*types.Medicine, error) {
	s.logger.WithUserID(userID).WithField("name", med.Name).Info("Creating medicine")

	if err := s.validateMedicine(med); err != nil {
		return nil, fmt.Errorf("medicine validation failed: %w", err)
	}

	// Generate ID and set timestamps
	med.ID = uuid.New().String()
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()

	if err := s.repository.CreateMedicine(med); err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}

	s.logger.Audit(userID, "create", "medicine:"+med.ID, true, nil)
	return med, nil
}

// AdjustStock applies a stock adjustment and records the transaction
func (s *Service) AdjustStock(medicineID string, adjustment *types.StockAdjustment, userID string) (*types.Medicine, *types.StockTransaction, error) {
	s.logger.WithUserID(userID).WithFields(map[string]interface{}{
		"medicine_id": medicineID,
		"operation":   adjustment.Operation,
		"quantity":    adjustment.Quantity,
	}).Info("Adjusting stock")

	if err := s.validateAdjustment(adjustment); err != nil {
		s.metrics.RecordStockAdjustment(string(adjustment.Operation), "rejected")
		return nil, nil, err
	}

	med, err := s.repository.GetMedicineByID(medicineID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get medicine: %w", err)
	}

	newQuantity, err := applyOperation(med.StockQuantity, adjustment)
	if err != nil {
		s.metrics.RecordStockAdjustment(string(adjustment.Operation), "rejected")
		return nil, nil, err
	}

	txn := &types.StockTransaction{
		ID:            uuid.New().String(),
		MedicineID:    medicineID,
		Operation:     adjustment.Operation,
		Quantity:      adjustment.Quantity,
		PreviousStock: med.StockQuantity,
		CurrentStock:  newQuantity,
		Reason:        adjustment.Reason,
		PerformedBy:   userID,
		CreatedAt:     time.Now(),
	}

	if err := s.repository.ApplyStockAdjustment(medicineID, newQuantity, txn); err != nil {
		s.metrics.RecordStockAdjustment(string(adjustment.Operation), "failed")
		return nil, nil, fmt.Errorf("failed to apply stock adjustment: %w", err)
	}

	med.StockQuantity = newQuantity
	med.UpdatedAt = txn.CreatedAt

	s.metrics.RecordStockAdjustment(string(adjustment.Operation), "applied")
	s.logger.Audit(userID, "adjust_stock", "medicine:"+medicineID, true, map[string]interface{}{
		"operation": adjustment.Operation,
		"quantity":  adjustment.Quantity,
	})

	return med, txn, nil
}

// GetLowStockAlerts returns medicines under the restock triage cutoff with
// their urgency classification
func (s *Service) GetLowStockAlerts(userID string) ([]*types.LowStockAlert, error) {
	s.logger.WithUserID(userID).Info("Building low stock alerts")

	medicines, err := s.repository.ListAllMedicines()
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	alerts := []*types.LowStockAlert{}
	for _, med := range medicines {
		if med.StockQuantity >= analytics.RestockTriageThreshold {
			continue
		}

		days := analytics.DaysOfSupply(med.StockQuantity, med.Usage.PrescriptionCount)
		alerts = append(alerts, &types.LowStockAlert{
			Medicine:       med,
			DaysOfSupply:   days,
			ReorderUrgency: analytics.ClassifyReorderUrgency(days),
		})
	}

	return alerts, nil
}

// Start starts the pharmacy service HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
	}

	s.logger.WithField("addr", addr).Info("Starting Pharmacy Service")
	return s.server.ListenAndServe()
}

// Stop stops the pharmacy service
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping Pharmacy Service")
		if err := s.server.Close(); err != nil {
			return err
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// validateMedicine validates medicine data
func (s *Service) validateMedicine(med *types.Medicine) error {
	if med.Name == "" {
		return types.NewValidationError(types.ErrCodeValidationFailed, "medicine name is required", nil)
	}

	if med.Category == "" {
		return types.NewValidationError(types.ErrCodeValidationFailed, "medicine category is required", nil)
	}

	if med.Unit == "" {
		return types.NewValidationError(types.ErrCodeValidationFailed, "medicine unit is required", nil)
	}

	if med.Price.IsNegative() {
		return types.NewValidationError(types.ErrCodeValidationFailed, "medicine price cannot be negative", nil)
	}

	if med.StockQuantity < 0 {
		return types.NewValidationError(types.ErrCodeValidationFailed, "stock quantity cannot be negative", nil)
	}

	return nil
}

// validateAdjustment validates a stock adjustment request
func (s *Service) validateAdjustment(adjustment *types.StockAdjustment) error {
	switch adjustment.Operation {
	case types.StockOpAdd, types.StockOpSubtract, types.StockOpSet:
	default:
		return types.NewValidationError(types.ErrCodeValidationFailed,
			fmt.Sprintf("unknown stock operation: %s", adjustment.Operation), nil)
	}

	if adjustment.Quantity < 0 {
		return types.NewValidationError(types.ErrCodeValidationFailed, "quantity cannot be negative", nil)
	}

	return nil
}

// applyOperation computes the new stock quantity for an adjustment
func applyOperation(current int, adjustment *types.StockAdjustment) (int, error) {
	switch adjustment.Operation {
	case types.StockOpAdd:
		return current + adjustment.Quantity, nil
	case types.StockOpSubtract:
		if adjustment.Quantity > current {
			return 0, types.NewValidationError(types.ErrCodeInsufficientStock,
				fmt.Sprintf("cannot subtract %d from stock of %d", adjustment.Quantity, current), nil)
		}
		return current - adjustment.Quantity, nil
	case types.StockOpSet:
		return adjustment.Quantity, nil
	default:
		return 0, types.NewValidationError(types.ErrCodeValidationFailed,
			fmt.Sprintf("unknown stock operation: %s", adjustment.Operation), nil)
	}
}
