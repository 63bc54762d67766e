package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/caretrack/hms-backend/pkg/types"
)

func TestParseCompletionHours(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"2.50 hours", 2.5, true},
		{"1 hour", 1, true},
		{"  3.25 hours", 3.25, true},
		{"0.5 hours", 0.5, true},
		{"pending", 0, false},
		{"", 0, false},
		{"hours 2", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hours, ok := ParseCompletionHours(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, hours)
		})
	}
}

func completedTest(name string, completedAt time.Time, completionTime string) *types.LabTest {
	return &types.LabTest{
		TestName:       name,
		Status:         types.TestCompleted,
		CompletedAt:    &completedAt,
		CompletionTime: completionTime,
	}
}

func TestMonthlyTrend(t *testing.T) {
	jan := time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 3, 9, 0, 0, 0, time.UTC)

	tests := []*types.LabTest{
		completedTest("CBC", jan, "2.00 hours"),
		completedTest("Lipid Panel", jan, "4.00 hours"),
		completedTest("Glucose", jan, "pending"), // counts toward volume, not average
		completedTest("CBC", feb, "1.50 hours"),
		{TestName: "Cancelled", Status: types.TestCancelled},
		{TestName: "NoTimestamp", Status: types.TestCompleted},
		nil,
	}

	trend := MonthlyTrend(tests)

	assert.Len(t, trend, 2)

	assert.Equal(t, "2026-01", trend[0].Month)
	assert.Equal(t, 3, trend[0].Count)
	assert.InDelta(t, 3.0, trend[0].AvgHours, 0.0001)

	assert.Equal(t, "2026-02", trend[1].Month)
	assert.Equal(t, 1, trend[1].Count)
	assert.InDelta(t, 1.5, trend[1].AvgHours, 0.0001)
}

func TestMonthlyTrend_NoParseableTimes(t *testing.T) {
	jan := time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC)

	trend := MonthlyTrend([]*types.LabTest{
		completedTest("CBC", jan, "pending"),
		completedTest("Glucose", jan, ""),
	})

	assert.Len(t, trend, 1)
	assert.Equal(t, 2, trend[0].Count)
	assert.Equal(t, 0.0, trend[0].AvgHours)
}

func TestDailyTrend(t *testing.T) {
	now := time.Date(2026, time.August, 31, 15, 0, 0, 0, time.UTC)

	tests := []*types.LabTest{
		completedTest("Today", now, "2.00 hours"),
		completedTest("Yesterday", now.AddDate(0, 0, -1), "4.00 hours"),
		completedTest("Yesterday2", now.AddDate(0, 0, -1), "2.00 hours"),
		completedTest("TooOld", now.AddDate(0, 0, -10), "1.00 hours"),
	}

	trend := DailyTrend(tests, now)

	assert.Len(t, trend, 7)
	assert.Equal(t, "2026-08-25", trend[0].Date)
	assert.Equal(t, "2026-08-31", trend[6].Date)

	assert.Equal(t, 1, trend[6].Count)
	assert.InDelta(t, 2.0, trend[6].AvgHours, 0.0001)

	assert.Equal(t, 2, trend[5].Count)
	assert.InDelta(t, 3.0, trend[5].AvgHours, 0.0001)

	// Empty days are present with zero counts
	assert.Equal(t, 0, trend[0].Count)
	assert.Equal(t, 0.0, trend[0].AvgHours)
}

func TestBasicStats(t *testing.T) {
	jan := time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC)

	tests := []*types.LabTest{
		completedTest("CBC", jan, "2.00 hours"),
		completedTest("Glucose", jan, "pending"),
		{TestName: "Queued", Status: types.TestRequested},
		{TestName: "Running", Status: types.TestProcessing},
		{TestName: "Dropped", Status: types.TestCancelled},
		nil,
	}

	stats := BasicStats(tests)

	assert.Equal(t, 5, stats.TotalTests)
	assert.Equal(t, 2, stats.CompletedTests)
	assert.Equal(t, 2, stats.PendingTests)
	assert.Equal(t, 1, stats.CancelledTests)
	assert.InDelta(t, 40.0, stats.CompletionRate, 0.0001)
	assert.InDelta(t, 2.0, stats.AvgCompletionHours, 0.0001)
}

func TestBasicStats_Empty(t *testing.T) {
	stats := BasicStats(nil)

	assert.Equal(t, 0, stats.TotalTests)
	assert.Equal(t, 0.0, stats.CompletionRate)
	assert.Equal(t, 0.0, stats.AvgCompletionHours)
}
