package lab

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/caretrack/hms-backend/pkg/logger"
	"github.com/caretrack/hms-backend/pkg/monitoring"
	"github.com/caretrack/hms-backend/pkg/types"
)

// MockLabRepository is a mock implementation of LabRepository
type MockLabRepository struct {
	mock.Mock
}

func (m *MockLabRepository) CreateTest(test *types.LabTest) error {
	args := m.Called(test)
	return args.Error(0)
}

func (m *MockLabRepository) GetTestByID(id string) (*types.LabTest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LabTest), args.Error(1)
}

func (m *MockLabRepository) UpdateTest(test *types.LabTest) error {
	args := m.Called(test)
	return args.Error(0)
}

func (m *MockLabRepository) ListTests(filters *types.LabTestFilters) ([]*types.LabTest, error) {
	args := m.Called(filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.LabTest), args.Error(1)
}

func (m *MockLabRepository) ListTestsByTechnician(technicianID string) ([]*types.LabTest, error) {
	args := m.Called(technicianID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.LabTest), args.Error(1)
}

func (m *MockLabRepository) ListRecentTests(technicianID string, limit int) ([]*types.LabTest, error) {
	args := m.Called(technicianID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.LabTest), args.Error(1)
}

func (m *MockLabRepository) ListTechnicians() ([]*types.LabTechnician, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.LabTechnician), args.Error(1)
}

func (m *MockLabRepository) GetTechnicianByUserID(userID string) (*types.LabTechnician, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LabTechnician), args.Error(1)
}

func newTestService(repo *MockLabRepository) *Service {
	return &Service{
		logger:     logger.New("error"),
		repository: repo,
		metrics:    monitoring.NewMetricsCollector("labtech-test"),
	}
}

func completedTest(id string, completedAt time.Time, completionTime string) *types.LabTest {
	return &types.LabTest{
		ID:             id,
		TestName:       "CBC",
		PatientID:      "patient-1",
		TechnicianID:   "tech-1",
		Priority:       types.PriorityMedium,
		Status:         types.TestCompleted,
		RequestedAt:    completedAt.Add(-2 * time.Hour),
		CompletedAt:    &completedAt,
		CompletionTime: completionTime,
	}
}

func TestCreateTest_Defaults(t *testing.T) {
	repo := &MockLabRepository{}
	service := newTestService(repo)

	repo.On("CreateTest", mock.AnythingOfType("*types.LabTest")).Return(nil)

	created, err := service.CreateTest(&types.LabTest{
		TestName:  "Lipid Panel",
		PatientID: "patient-7",
	}, "user-1")

	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, types.TestRequested, created.Status)
	assert.Equal(t, types.PriorityMedium, created.Priority)
	assert.False(t, created.RequestedAt.IsZero())
	assert.Nil(t, created.CompletedAt)
	repo.AssertExpectations(t)
}

func TestCreateTest_Validation(t *testing.T) {
	repo := &MockLabRepository{}
	service := newTestService(repo)

	tests := []struct {
		name string
		test *types.LabTest
	}{
		{"missing name", &types.LabTest{PatientID: "patient-1"}},
		{"missing patient", &types.LabTest{TestName: "CBC"}},
		{"unknown priority", &types.LabTest{TestName: "CBC", PatientID: "patient-1", Priority: "urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateTest(tt.test, "user-1")
			assert.Error(t, err)
		})
	}

	repo.AssertNotCalled(t, "CreateTest", mock.Anything)
}

func TestUpdateTestStatus_Processing(t *testing.T) {
	repo := &MockLabRepository{}
	service := newTestService(repo)

	repo.On("GetTestByID", "test-1").Return(&types.LabTest{
		ID:          "test-1",
		TestName:    "CBC",
		PatientID:   "patient-1",
		Priority:    types.PriorityHigh,
		Status:      types.TestRequested,
		RequestedAt: time.Now().Add(-time.Hour),
	}, nil)
	repo.On("GetTechnicianByUserID", "user-9").Return(&types.LabTechnician{
		ID:     "tech-9",
		UserID: "user-9",
	}, nil)
	repo.On("UpdateTest", mock.AnythingOfType("*types.LabTest")).Return(nil)

	updated, err := service.UpdateTestStatus("test-1", types.TestProcessing, "user-9")
	assert.NoError(t, err)
	assert.Equal(t, types.TestProcessing, updated.Status)
	assert.Equal(t, "tech-9", updated.TechnicianID)
	assert.Nil(t, updated.CompletedAt)
	repo.AssertExpectations(t)
}

func TestUpdateTestStatus_CompletedStampsTime(t *testing.T) {
	repo := &MockLabRepository{}
	service := newTestService(repo)

	repo.On("GetTestByID", "test-1").Return(&types.LabTest{
		ID:           "test-1",
		TestName:     "CBC",
		PatientID:    "patient-1",
		TechnicianID: "tech-1",
		Priority:     types.PriorityMedium,
		Status:       types.TestProcessing,
		RequestedAt:  time.Now().Add(-150 * time.Minute),
	}, nil)
	repo.On("UpdateTest", mock.AnythingOfType("*types.LabTest")).Return(nil)

	updated, err := service.UpdateTestStatus("test-1", types.TestCompleted, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, types.TestCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
	assert.Regexp(t, regexp.MustCompile(`^2\.50 hours$`), updated.CompletionTime)
	repo.AssertExpectations(t)
}

func TestUpdateTestStatus_InvalidTransitions(t *testing.T) {
	repo := &MockLabRepository{}
	service := newTestService(repo)

	tests := []struct {
		name string
		from types.TestStatus
		to   types.TestStatus
	}{
		{"requested straight to completed", types.TestRequested, types.TestCompleted},
		{"completed back to processing", types.TestCompleted, types.TestProcessing},
		{"cancelled revived", types.TestCancelled, types.TestProcessing},
		{"processing back to requested", types.TestProcessing, types.TestRequested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.On("GetTestByID", "test-x").Return(&types.LabTest{
				ID:          "test-x",
				Status:      tt.from,
				RequestedAt: time.Now(),
			}, nil).Once()

			_, err := service.UpdateTestStatus("test-x", tt.to, "user-1")
			assert.Error(t, err)
		})
	}

	repo.AssertNotCalled(t, "UpdateTest", mock.Anything)
}

func TestGetTechnicianPerformance(t *testing.T) {
	repo := &MockLabRepository{}
	service := newTestService(repo)

	now := time.Now()
	tests := []*types.LabTest{
		completedTest("t1", now.Add(-24*time.Hour), "2.00 hours"),
		completedTest("t2", now.Add(-48*time.Hour), "4.00 hours"),
		{ID: "t3", Status: types.TestProcessing, TechnicianID: "tech-1", RequestedAt: now},
	}

	repo.On("ListTestsByTechnician", "tech-1").Return(tests, nil)
	repo.On("ListRecentTests", "tech-1", recentTestsLimit).Return(tests[:2], nil)

	report, err := service.GetTechnicianPerformance("tech-1")
	assert.NoError(t, err)
	assert.Equal(t, 3, report.BasicStats.TotalTests)
	assert.Equal(t, 2, report.BasicStats.CompletedTests)
	assert.Equal(t, 1, report.BasicStats.PendingTests)
	assert.InDelta(t, 3.0, report.BasicStats.AvgCompletionHours, 0.001)
	assert.Len(t, report.RecentPerformance, 7)
	assert.Len(t, report.RecentTests, 2)
}

func TestGetTechnicianPerformance_RequiresID(t *testing.T) {
	repo := &MockLabRepository{}
	service := newTestService(repo)

	_, err := service.GetTechnicianPerformance("")
	assert.Error(t, err)
	repo.AssertNotCalled(t, "ListTestsByTechnician", mock.Anything)
}

func TestGetTechnicians(t *testing.T) {
	repo := &MockLabRepository{}
	service := newTestService(repo)

	repo.On("ListTechnicians").Return([]*types.LabTechnician{
		{ID: "tech-1", Name: "Dana"},
		{ID: "tech-2", Name: "Ravi"},
	}, nil)
	repo.On("ListTestsByTechnician", "tech-1").Return([]*types.LabTest{
		completedTest("t1", time.Now(), "1.00 hours"),
	}, nil)
	repo.On("ListTestsByTechnician", "tech-2").Return([]*types.LabTest{}, nil)

	summaries, err := service.GetTechnicians("admin-1")
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)
	assert.Equal(t, 1, summaries[0].Stats.CompletedTests)
	assert.Equal(t, 0, summaries[1].Stats.TotalTests)
}

func TestGetLabAnalytics(t *testing.T) {
	repo := &MockLabRepository{}
	service := newTestService(repo)

	now := time.Now()
	repo.On("ListTests", mock.AnythingOfType("*types.LabTestFilters")).Return([]*types.LabTest{
		completedTest("t1", now, "2.00 hours"),
		completedTest("t2", now, "3.00 hours"),
		{ID: "t3", Status: types.TestRequested, Priority: types.PriorityCritical, RequestedAt: now},
		{ID: "t4", Status: types.TestCancelled, Priority: types.PriorityLow, RequestedAt: now},
	}, nil)

	report, err := service.GetLabAnalytics("admin-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, report.ByStatus[types.TestCompleted])
	assert.Equal(t, 1, report.ByStatus[types.TestRequested])
	assert.Equal(t, 1, report.ByStatus[types.TestCancelled])
	assert.Equal(t, 2, report.ByPriority[types.PriorityMedium])
	assert.Equal(t, 1, report.ByPriority[types.PriorityCritical])
	assert.Len(t, report.DailyTrend, 7)
	assert.NotEmpty(t, report.MonthlyTrend)
}
