package analytics

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/caretrack/hms-backend/pkg/types"
)

// completionHoursPattern matches the numeric prefix of completion time
// strings such as "2.50 hours"
var completionHoursPattern = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)`)

// ParseCompletionHours extracts the hour value from a free-text completion
// time string. The second return value reports whether a value was found.
func ParseCompletionHours(s string) (float64, bool) {
	match := completionHoursPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}

	hours, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	return hours, true
}

// MonthlyTrend groups completed tests by calendar month of their completion
// timestamp. Records without a parseable completion time are excluded from
// the average but still count toward volume; a month with no parseable
// records reports an average of 0.
func MonthlyTrend(tests []*types.LabTest) []types.MonthlyTrendPoint {
	type bucket struct {
		count       int
		parsedCount int
		totalHours  float64
	}

	buckets := make(map[string]*bucket)

	for _, test := range tests {
		if test == nil || test.Status != types.TestCompleted || test.CompletedAt == nil {
			continue
		}

		key := test.CompletedAt.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}

		b.count++
		if hours, ok := ParseCompletionHours(test.CompletionTime); ok {
			b.parsedCount++
			b.totalHours += hours
		}
	}

	months := make([]string, 0, len(buckets))
	for key := range buckets {
		months = append(months, key)
	}
	sort.Strings(months)

	trend := make([]types.MonthlyTrendPoint, 0, len(months))
	for _, month := range months {
		b := buckets[month]
		point := types.MonthlyTrendPoint{
			Month: month,
			Count: b.count,
		}
		if b.parsedCount > 0 {
			point.AvgHours = b.totalHours / float64(b.parsedCount)
		}
		trend = append(trend, point)
	}

	return trend
}

// DailyTrend builds per-day figures for the trailing 7 calendar days ending
// at now. Days with no completed tests are present with zero counts so
// charts render a full week.
func DailyTrend(tests []*types.LabTest, now time.Time) []types.DailyTrendPoint {
	type bucket struct {
		count       int
		parsedCount int
		totalHours  float64
	}

	buckets := make(map[string]*bucket, 7)
	start := now.AddDate(0, 0, -6)
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	for i := 0; i < 7; i++ {
		key := startDay.AddDate(0, 0, i).Format("2006-01-02")
		buckets[key] = &bucket{}
	}

	for _, test := range tests {
		if test == nil || test.Status != types.TestCompleted || test.CompletedAt == nil {
			continue
		}

		key := test.CompletedAt.Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			continue
		}

		b.count++
		if hours, ok := ParseCompletionHours(test.CompletionTime); ok {
			b.parsedCount++
			b.totalHours += hours
		}
	}

	trend := make([]types.DailyTrendPoint, 0, 7)
	for i := 0; i < 7; i++ {
		key := startDay.AddDate(0, 0, i).Format("2006-01-02")
		b := buckets[key]
		point := types.DailyTrendPoint{
			Date:  key,
			Count: b.count,
		}
		if b.parsedCount > 0 {
			point.AvgHours = b.totalHours / float64(b.parsedCount)
		}
		trend = append(trend, point)
	}

	return trend
}

// BasicStats computes headline counters over a set of lab tests
func BasicStats(tests []*types.LabTest) types.LabBasicStats {
	stats := types.LabBasicStats{}

	parsedCount := 0
	totalHours := 0.0

	for _, test := range tests {
		if test == nil {
			continue
		}

		stats.TotalTests++

		switch test.Status {
		case types.TestCompleted:
			stats.CompletedTests++
			if hours, ok := ParseCompletionHours(test.CompletionTime); ok {
				parsedCount++
				totalHours += hours
			}
		case types.TestCancelled:
			stats.CancelledTests++
		default:
			stats.PendingTests++
		}
	}

	if stats.TotalTests > 0 {
		stats.CompletionRate = float64(stats.CompletedTests) / float64(stats.TotalTests) * 100
	}

	if parsedCount > 0 {
		stats.AvgCompletionHours = totalHours / float64(parsedCount)
	}

	return stats
}
