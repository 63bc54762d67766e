package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/caretrack/hms-backend/pkg/types"
)

// Stock classification thresholds. The restock triage cutoff is looser than
// the low band on purpose: the triage view is meant to catch medicines before
// they fall into the low band.
const (
	CriticalStockThreshold = 10
	LowStockThreshold      = 30
	NormalStockThreshold   = 100

	RestockTriageThreshold = 20

	// UsageWindowDays is the trailing window PrescriptionCount covers.
	UsageWindowDays = 30.0
)

// Reorder urgency thresholds in days of supply
const (
	urgencyCriticalDays = 7
	urgencyHighDays     = 14
	urgencyMediumDays   = 30
)

// ClassifyStockLevel maps an absolute stock quantity to its status bucket.
// Negative quantities are clamped to zero and reported as out of stock.
func ClassifyStockLevel(quantity int) types.StockStatus {
	if quantity <= 0 {
		return types.StockOutOfStock
	}

	switch {
	case quantity < CriticalStockThreshold:
		return types.StockCritical
	case quantity < LowStockThreshold:
		return types.StockLow
	case quantity < NormalStockThreshold:
		return types.StockNormal
	default:
		return types.StockHigh
	}
}

// DaysOfSupply estimates how many days current stock will last at the recent
// average consumption rate. With no usage history the runway is reported as 0
// rather than infinite, so dashboards flag the record for review.
func DaysOfSupply(stockQuantity, prescriptionCount int) int {
	if stockQuantity < 0 {
		stockQuantity = 0
	}

	avgDailyUsage := float64(prescriptionCount) / UsageWindowDays
	if avgDailyUsage <= 0 {
		return 0
	}

	return int(math.Round(float64(stockQuantity) / avgDailyUsage))
}

// ClassifyReorderUrgency maps days of supply to a restock urgency bucket
func ClassifyReorderUrgency(daysOfSupply int) types.ReorderUrgency {
	switch {
	case daysOfSupply < urgencyCriticalDays:
		return types.UrgencyCritical
	case daysOfSupply < urgencyHighDays:
		return types.UrgencyHigh
	case daysOfSupply < urgencyMediumDays:
		return types.UrgencyMedium
	default:
		return types.UrgencyLow
	}
}

// ClassifyDemand builds the display label for a medicine's usage. InDemand is
// an upstream-supplied flag and is surfaced as-is.
func ClassifyDemand(usage types.MedicineUsage) types.DemandLabel {
	if usage.PrescriptionCount == 0 {
		return types.DemandLabel{Label: "No usage", Tier: types.DemandNeutral}
	}

	if usage.InDemand {
		return types.DemandLabel{Label: "High demand", Tier: types.DemandAlert}
	}

	return types.DemandLabel{
		Label: fmt.Sprintf("%d prescriptions", usage.PrescriptionCount),
		Tier:  types.DemandInfo,
	}
}

// Derive computes the full set of per-record stock metrics
func Derive(med *types.Medicine) types.DerivedStockMetrics {
	days := DaysOfSupply(med.StockQuantity, med.Usage.PrescriptionCount)

	return types.DerivedStockMetrics{
		DaysOfSupply:   days,
		ReorderUrgency: ClassifyReorderUrgency(days),
		StockStatus:    ClassifyStockLevel(med.StockQuantity),
	}
}

// WithMetrics attaches derived metrics and demand labels to each record.
// Nil entries are skipped.
func WithMetrics(medicines []*types.Medicine) []*types.MedicineWithMetrics {
	result := make([]*types.MedicineWithMetrics, 0, len(medicines))
	for _, med := range medicines {
		if med == nil {
			continue
		}
		result = append(result, &types.MedicineWithMetrics{
			Medicine: *med,
			Metrics:  Derive(med),
			Demand:   ClassifyDemand(med.Usage),
		})
	}
	return result
}

// FilterAndSort produces a fresh ordered view over the record set. The input
// slice is never mutated, so views can be recomputed and reset without data
// loss. Sorting is stable with respect to input order for equal keys.
func FilterAndSort(records []*types.Medicine, filters types.InventoryFilters) []*types.Medicine {
	filtered := make([]*types.Medicine, 0, len(records))

	search := strings.ToLower(strings.TrimSpace(filters.Search))

	for _, med := range records {
		if med == nil {
			continue
		}

		if !matchesCategory(med, filters.Category) {
			continue
		}

		if !matchesStockFilter(med, filters.StockFilter) {
			continue
		}

		if filters.Tab == "lowstock" && med.StockQuantity >= RestockTriageThreshold {
			continue
		}

		if search != "" && !matchesSearch(med, search) {
			continue
		}

		filtered = append(filtered, med)
	}

	sortRecords(filtered, filters.SortBy, filters.SortOrder)
	return filtered
}

// matchesCategory checks the category filter; empty and "all" pass everything
func matchesCategory(med *types.Medicine, category string) bool {
	if category == "" || category == "all" {
		return true
	}
	return med.Category == category
}

// matchesStockFilter maps the stock filter value to the classification bands
func matchesStockFilter(med *types.Medicine, filter string) bool {
	if filter == "" || filter == "all" {
		return true
	}
	return string(ClassifyStockLevel(med.StockQuantity)) == filter
}

// matchesSearch does a case-insensitive substring match over name, category
// and id. The needle must already be lower-cased.
func matchesSearch(med *types.Medicine, needle string) bool {
	return strings.Contains(strings.ToLower(med.Name), needle) ||
		strings.Contains(strings.ToLower(med.Category), needle) ||
		strings.Contains(strings.ToLower(med.ID), needle)
}

// sortRecords orders records in place by the requested field and direction
func sortRecords(records []*types.Medicine, sortBy, sortOrder string) {
	desc := sortOrder == "desc"

	var less func(a, b *types.Medicine) bool
	switch sortBy {
	case "stock_quantity":
		less = func(a, b *types.Medicine) bool { return a.StockQuantity < b.StockQuantity }
	case "price":
		less = func(a, b *types.Medicine) bool { return a.Price.LessThan(b.Price) }
	default:
		less = func(a, b *types.Medicine) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

// AggregateTotals computes dashboard aggregates over a record set. Stock value
// arithmetic is decimal-exact. Records with negative quantity or price are
// malformed and are excluded from the aggregates rather than aborting the
// batch.
func AggregateTotals(records []*types.Medicine) types.InventoryTotals {
	totals := types.InventoryTotals{
		TotalStockValue: decimal.Zero,
	}

	for _, med := range records {
		if med == nil || med.StockQuantity < 0 || med.Price.IsNegative() {
			continue
		}

		totals.TotalCount++
		totals.TotalStockValue = totals.TotalStockValue.Add(
			med.Price.Mul(decimal.NewFromInt(int64(med.StockQuantity))))

		if med.StockQuantity == 0 {
			totals.OutOfStockCount++
		}
		if med.StockQuantity < LowStockThreshold {
			totals.LowStockCount++
		}
	}

	return totals
}
