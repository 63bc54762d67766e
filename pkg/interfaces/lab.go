package interfaces

import "github.com/caretrack/hms-backend/pkg/types"

// LabService defines the lab service operations
type LabService interface {
	CreateTest(test *types.LabTest, userID string) (*types.LabTest, error)
	UpdateTestStatus(testID string, status types.TestStatus, userID string) (*types.LabTest, error)
	GetTests(filters *types.LabTestFilters, userID string) ([]*types.LabTest, error)
	GetTechnicianPerformance(technicianID string) (*types.TechnicianPerformance, error)
	GetTechnicians(userID string) ([]*types.TechnicianSummary, error)
	GetLabAnalytics(userID string) (*types.LabAnalytics, error)

	Start(addr string) error
	Stop() error
}

// LabRepository defines the lab storage operations
type LabRepository interface {
	CreateTest(test *types.LabTest) error
	GetTestByID(id string) (*types.LabTest, error)
	UpdateTest(test *types.LabTest) error
	ListTests(filters *types.LabTestFilters) ([]*types.LabTest, error)
	ListTestsByTechnician(technicianID string) ([]*types.LabTest, error)
	ListRecentTests(technicianID string, limit int) ([]*types.LabTest, error)
	ListTechnicians() ([]*types.LabTechnician, error)
	GetTechnicianByUserID(userID string) (*types.LabTechnician, error)
}
