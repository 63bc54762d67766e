package types

import "time"

// LabTest represents a laboratory test record
type LabTest struct {
	ID             string       `json:"id" db:"id"`
	TestName       string       `json:"test_name" db:"test_name"`
	PatientID      string       `json:"patient_id" db:"patient_id"`
	TechnicianID   string       `json:"technician_id" db:"technician_id"`
	Priority       TestPriority `json:"priority" db:"priority"`
	Status         TestStatus   `json:"status" db:"status"`
	RequestedAt    time.Time    `json:"requested_at" db:"requested_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	CompletionTime string       `json:"completion_time,omitempty" db:"completion_time"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// TestPriority represents lab test priority values
type TestPriority string

const (
	PriorityLow      TestPriority = "low"
	PriorityMedium   TestPriority = "medium"
	PriorityHigh     TestPriority = "high"
	PriorityCritical TestPriority = "critical"
)

// TestStatus represents lab test lifecycle states
type TestStatus string

const (
	TestRequested  TestStatus = "requested"
	TestProcessing TestStatus = "processing"
	TestCompleted  TestStatus = "completed"
	TestCancelled  TestStatus = "cancelled"
)

// LabTechnician represents a laboratory staff member
type LabTechnician struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Department string    `json:"department" db:"department"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// LabTestFilters represents filters for lab test queries
type LabTestFilters struct {
	Status       TestStatus   `json:"status,omitempty"`
	Priority     TestPriority `json:"priority,omitempty"`
	TechnicianID string       `json:"technician_id,omitempty"`
	Limit        int          `json:"limit,omitempty"`
	Offset       int          `json:"offset,omitempty"`
}

// TestStatusUpdate is the request body for a lab test status change
type TestStatusUpdate struct {
	Status TestStatus `json:"status"`
}

// MonthlyTrendPoint is one month of completed-test volume and timing
type MonthlyTrendPoint struct {
	Month    string  `json:"month"`
	Count    int     `json:"count"`
	AvgHours float64 `json:"avg_hours"`
}

// DailyTrendPoint is one calendar day of completed-test volume and timing
type DailyTrendPoint struct {
	Date     string  `json:"date"`
	Count    int     `json:"count"`
	AvgHours float64 `json:"avg_hours"`
}

// LabBasicStats holds headline counters for a technician or the whole lab
type LabBasicStats struct {
	TotalTests         int     `json:"total_tests"`
	CompletedTests     int     `json:"completed_tests"`
	PendingTests       int     `json:"pending_tests"`
	CancelledTests     int     `json:"cancelled_tests"`
	CompletionRate     float64 `json:"completion_rate"`
	AvgCompletionHours float64 `json:"avg_completion_hours"`
}

// TechnicianPerformance is the composed performance report for a technician
type TechnicianPerformance struct {
	BasicStats        LabBasicStats     `json:"basic_stats"`
	RecentPerformance []DailyTrendPoint `json:"recent_performance"`
	RecentTests       []*LabTest        `json:"recent_tests"`
}

// LabAnalytics is the lab-wide aggregate report for admin dashboards
type LabAnalytics struct {
	ByStatus     map[TestStatus]int   `json:"by_status"`
	ByPriority   map[TestPriority]int `json:"by_priority"`
	MonthlyTrend []MonthlyTrendPoint  `json:"monthly_trend"`
	DailyTrend   []DailyTrendPoint    `json:"daily_trend"`
}

// TechnicianSummary pairs a technician with their headline stats
type TechnicianSummary struct {
	Technician *LabTechnician `json:"technician"`
	Stats      LabBasicStats  `json:"stats"`
}
