package lab

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

const recentTestsLimit = 10

// Service implements the LabService interface
type Service struct {
	config     *config.Config
	logger     *logger.Logger
	repository interfaces.LabRepository
	db         *database.DB
	server     *http.Server
	metrics    *monitoring.MetricsCollector
	health     *monitoring.HealthManager
}

// New creates a new lab service
func New(cfg *config.Config, log *logger.Logger) interfaces.LabService {
	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		panic(err)
	}

	// Initialize repository
	repository := NewRepository(db, log)

	// Initialize monitoring
	metrics := monitoring.NewMetricsCollector("labtech")
	health := monitoring.NewHealthManager("labtech", "1.0.0")
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

// CreateTest creates a new lab test in the requested state
func (s *Service) CreateTest(test *types.LabTest, userID string) (*types.LabTest, error) {
	s.logger.WithUserID(userID).WithField("test_name", test.TestName).Info("Creating lab test")

	if err := s.validateTest(test); err != nil {
		return nil, fmt.Errorf("lab test validation failed: %w", err)
	}

	now := time.Now()
	test.ID = uuid.New().String()
	test.Status = types.TestRequested
	if test.Priority == "" {
		test.Priority = types.PriorityMedium
	}
	if test.RequestedAt.IsZero() {
		test.RequestedAt = now
	}
	test.CompletedAt = nil
	test.CompletionTime = ""
	test.CreatedAt = now
	test.UpdatedAt = now

	if err := s.repository.CreateTest(test); err != nil {
		return nil, fmt.Errorf("failed to create lab test: %w", err)
	}

	s.metrics.RecordLabTestTransition(string(test.Status), string(test.Priority))
	s.logger.Audit(userID, "create", "lab_test:"+test.ID, true, nil)
	return test, nil
}

// UpdateTestStatus moves a lab test through its lifecycle. Completing a test
// stamps the completion time from the requested-at timestamp.
func (s *Service) UpdateTestStatus(testID string, status types.TestStatus, userID string) (*types.LabTest, error) {
	s.logger.WithUserID(userID).WithFields(map[string]interface{}{
		"test_id": testID,
		"status":  status,
	}).Info("Updating lab test status")

	test, err := s.repository.GetTestByID(testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lab test: %w", err)
	}

	if err := validateTransition(test.Status, status); err != nil {
		return nil, err
	}

	now := time.Now()
	test.Status = status
	test.UpdatedAt = now

	switch status {
	case types.TestProcessing:
		// Taking a test into processing claims it for the acting technician
		if test.TechnicianID == "" {
			if tech, err := s.repository.GetTechnicianByUserID(userID); err == nil {
				test.TechnicianID = tech.ID
			}
		}
	case types.TestCompleted:
		hours := now.Sub(test.RequestedAt).Hours()
		if hours < 0 {
			hours = 0
		}
		test.CompletedAt = &now
		test.CompletionTime = fmt.Sprintf("%.2f hours", hours)
		s.metrics.RecordLabCompletion(string(test.Priority), hours)
	}

	if err := s.repository.UpdateTest(test); err != nil {
		return nil, fmt.Errorf("failed to update lab test: %w", err)
	}

	s.metrics.RecordLabTestTransition(string(status), string(test.Priority))
	s.logger.Audit(userID, "update_status", "lab_test:"+testID, true, map[string]interface{}{
		"status": status,
	})

	return test, nil
}

// GetTests retrieves lab tests matching the filters
func (s *Service) GetTests(filters *types.LabTestFilters, userID string) ([]*types.LabTest, error) {
	s.logger.WithUserID(userID).Info("Listing lab tests")

	if filters == nil {
		filters = &types.LabTestFilters{}
	}
	if filters.Limit <= 0 || filters.Limit > 200 {
		filters.Limit = 50
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	tests, err := s.repository.ListTests(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list lab tests: %w", err)
	}

	return tests, nil
}

// GetTechnicianPerformance builds the performance report for a technician
func (s *Service) GetTechnicianPerformance(technicianID string) (*types.TechnicianPerformance, error) {
	s.logger.WithField("technician_id", technicianID).Info("Building technician performance")

	if technicianID == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "technician ID is required", nil)
	}

	tests, err := s.repository.ListTestsByTechnician(technicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to load technician tests: %w", err)
	}

	recent, err := s.repository.ListRecentTests(technicianID, recentTestsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent tests: %w", err)
	}

	return &types.TechnicianPerformance{
		BasicStats:        analytics.BasicStats(tests),
		RecentPerformance: analytics.DailyTrend(tests, time.Now()),
		RecentTests:       recent,
	}, nil
}

// GetTechnicians returns all active technicians with their headline stats
func (s *Service) GetTechnicians(userID string) ([]*types.TechnicianSummary, error) {
	s.logger.WithUserID(userID).Info("Listing lab technicians")

	technicians, err := s.repository.ListTechnicians()
	if err != nil {
		return nil, fmt.Errorf("failed to list lab technicians: %w", err)
	}

	summaries := []*types.TechnicianSummary{}
	for _, tech := range technicians {
		tests, err := s.repository.ListTestsByTechnician(tech.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tests for technician %s: %w", tech.ID, err)
		}

		summaries = append(summaries, &types.TechnicianSummary{
			Technician: tech,
			Stats:      analytics.BasicStats(tests),
		})
	}

	return summaries, nil
}

// GetLabAnalytics builds the lab-wide aggregate report
func (s *Service) GetLabAnalytics(userID string) (*types.LabAnalytics, error) {
	s.logger.WithUserID(userID).Info("Building lab analytics")

	tests, err := s.repository.ListTests(&types.LabTestFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load lab tests: %w", err)
	}

	byStatus := map[types.TestStatus]int{}
	byPriority := map[types.TestPriority]int{}
	for _, test := range tests {
		byStatus[test.Status]++
		byPriority[test.Priority]++
	}

	return &types.LabAnalytics{
		ByStatus:     byStatus,
		ByPriority:   byPriority,
		MonthlyTrend: analytics.MonthlyTrend(tests),
		DailyTrend:   analytics.DailyTrend(tests, time.Now()),
	}, nil
}

// Start starts the lab service HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
	}

	s.logger.WithField("addr", addr).Info("Starting Lab Service")
	return s.server.ListenAndServe()
}

// Stop stops the lab service
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping Lab Service")
		if err := s.server.Close(); err != nil {
			return err
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// validateTest validates lab test data
func (s *Service) validateTest(test *types.LabTest) error {
	if test.TestName == "" {
		return types.NewValidationError(types.ErrCodeValidationFailed, "test name is required", nil)
	}

	if test.PatientID == "" {
		return types.NewValidationError(types.ErrCodeValidationFailed, "patient ID is required", nil)
	}

	switch test.Priority {
	case "", types.PriorityLow, types.PriorityMedium, types.PriorityHigh, types.PriorityCritical:
	default:
		return types.NewValidationError(types.ErrCodeValidationFailed,
			fmt.Sprintf("unknown test priority: %s", test.Priority), nil)
	}

	return nil
}

// validateTransition enforces the lab test lifecycle
func validateTransition(from, to types.TestStatus) error {
	allowed := map[types.TestStatus][]types.TestStatus{
		types.TestRequested:  {types.TestProcessing, types.TestCancelled},
		types.TestProcessing: {types.TestCompleted, types.TestCancelled},
	}

	for _, next := range allowed[from] {
		if next == to {
			return nil
		}
	}

	return types.NewValidationError(types.ErrCodeInvalidInput,
		fmt.Sprintf("cannot transition lab test from %s to %s", from, to), nil)
}
