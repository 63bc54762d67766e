package interfaces

import "github.com/caretrack/hms-backend/pkg/types"

// PharmacyService defines the pharmacy service operations
type PharmacyService interface {
	ListMedicines(limit, offset int, userID string) ([]*types.MedicineWithMetrics, error)
	SearchMedicines(query, userID string) ([]*types.MedicineWithMetrics, error)
	GetInventoryView(filters types.InventoryFilters, userID string) (*types.InventoryView, error)
	CreateMedicine(med *types.Medicine, userID string) (*types.Medicine, error)
	AdjustStock(medicineID string, adjustment *types.StockAdjustment, userID string) (*types.Medicine, *types.StockTransaction, error)
	GetLowStockAlerts(userID string) ([]*types.LowStockAlert, error)
	ExportInventory(format, userID string) ([]byte, string, string, error)

	Start(addr string) error
	Stop() error
}

// MedicineRepository defines the pharmacy storage operations
type MedicineRepository interface {
	CreateMedicine(med *types.Medicine) error
	GetMedicineByID(id string) (*types.Medicine, error)
	ListMedicines(limit, offset int) ([]*types.Medicine, error)
	ListAllMedicines() ([]*types.Medicine, error)
	SearchMedicines(query string) ([]*types.Medicine, error)
	ApplyStockAdjustment(medicineID string, newQuantity int, txn *types.StockTransaction) error
	ListTransactions(medicineID string, limit int) ([]*types.StockTransaction, error)
}
