package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine represents a pharmacy inventory record
type Medicine struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Category      string          `json:"category" db:"category"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	Unit          string          `json:"unit" db:"unit"`
	Usage         MedicineUsage   `json:"usage"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// MedicineUsage holds trailing-window consumption figures supplied by the
// prescription pipeline. PrescriptionCount covers the last 30 days.
type MedicineUsage struct {
	PrescriptionCount    int  `json:"prescription_count" db:"prescription_count"`
	PendingPrescriptions int  `json:"pending_prescriptions" db:"pending_prescriptions"`
	InDemand             bool `json:"in_demand" db:"in_demand"`
}

// StockStatus represents the coarse stock-level bucket derived from
// absolute quantity thresholds
type StockStatus string

const (
	StockOutOfStock StockStatus = "outofstock"
	StockCritical   StockStatus = "critical"
	StockLow        StockStatus = "low"
	StockNormal     StockStatus = "normal"
	StockHigh       StockStatus = "high"
)

// ReorderUrgency represents how soon restocking should occur, derived
// from days of supply
type ReorderUrgency string

const (
	UrgencyLow      ReorderUrgency = "low"
	UrgencyMedium   ReorderUrgency = "medium"
	UrgencyHigh     ReorderUrgency = "high"
	UrgencyCritical ReorderUrgency = "critical"
)

// DemandTier classifies how a demand label should be surfaced
type DemandTier string

const (
	DemandNeutral DemandTier = "neutral"
	DemandInfo    DemandTier = "info"
	DemandAlert   DemandTier = "alert"
)

// DemandLabel is the display classification of a medicine's usage
type DemandLabel struct {
	Label string     `json:"label"`
	Tier  DemandTier `json:"tier"`
}

// DerivedStockMetrics holds per-record figures recomputed on every read;
// they are never persisted
type DerivedStockMetrics struct {
	DaysOfSupply   int            `json:"days_of_supply"`
	ReorderUrgency ReorderUrgency `json:"reorder_urgency"`
	StockStatus    StockStatus    `json:"stock_status"`
}

// MedicineWithMetrics is a medicine record with its derived analytics attached
type MedicineWithMetrics struct {
	Medicine
	Metrics DerivedStockMetrics `json:"metrics"`
	Demand  DemandLabel         `json:"demand"`
}

// StockOperation represents the kind of stock adjustment
type StockOperation string

const (
	StockOpAdd      StockOperation = "add"
	StockOpSubtract StockOperation = "subtract"
	StockOpSet      StockOperation = "set"
)

// StockAdjustment is the request body for a stock update
type StockAdjustment struct {
	Operation StockOperation `json:"operation"`
	Quantity  int            `json:"quantity"`
	Reason    string         `json:"reason"`
}

// StockTransaction records a single stock movement for audit purposes
type StockTransaction struct {
	ID            string         `json:"id" db:"id"`
	MedicineID    string         `json:"medicine_id" db:"medicine_id"`
	Operation     StockOperation `json:"operation" db:"operation"`
	Quantity      int            `json:"quantity" db:"quantity"`
	PreviousStock int            `json:"previous_stock" db:"previous_stock"`
	CurrentStock  int            `json:"current_stock" db:"current_stock"`
	Reason        string         `json:"reason" db:"reason"`
	PerformedBy   string         `json:"performed_by" db:"performed_by"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// InventoryFilters represents filters for inventory view queries
type InventoryFilters struct {
	Category    string `json:"category,omitempty"`
	StockFilter string `json:"stock,omitempty"`
	Search      string `json:"search,omitempty"`
	Tab         string `json:"tab,omitempty"`
	SortBy      string `json:"sort_by,omitempty"`
	SortOrder   string `json:"sort_order,omitempty"`
}

// InventoryTotals holds aggregate figures over a record set
type InventoryTotals struct {
	TotalCount      int             `json:"total_count"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
}

// InventoryView is the composed response for the inventory screen
type InventoryView struct {
	Medicines []*MedicineWithMetrics `json:"medicines"`
	Totals    InventoryTotals        `json:"totals"`
}

// LowStockAlert pairs a medicine with its restock classification
type LowStockAlert struct {
	Medicine       *Medicine      `json:"medicine"`
	DaysOfSupply   int            `json:"days_of_supply"`
	ReorderUrgency ReorderUrgency `json:"reorder_urgency"`
}
