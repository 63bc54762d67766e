package pharmacy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/caretrack/hms-backend/pkg/database"
	"github.com/caretrack/hms-backend/pkg/interfaces"
	"github.com/caretrack/hms-backend/pkg/logger"
	"github.com/caretrack/hms-backend/pkg/types"
)

const medicineColumns = `id, name, category, price, stock_quantity, unit,
	   prescription_count, pending_prescriptions, in_demand, created_at, updated_at`

// Repository implements the MedicineRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new pharmacy repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.MedicineRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// CreateMedicine inserts a new medicine record
func (r *Repository) CreateMedicine(med *types.Medicine) error {
	query := `
		INSERT INTO medicines (
			id, name, category, price, stock_quantity, unit,
			prescription_count, pending_prescriptions, in_demand, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		med.ID,
		med.Name,
		med.Category,
		med.Price,
		med.StockQuantity,
		med.Unit,
		med.Usage.PrescriptionCount,
		med.Usage.PendingPrescriptions,
		med.Usage.InDemand,
		med.CreatedAt,
		med.UpdatedAt,
	)

	if err != nil {
		r.logger.WithError(err).Error("Failed to create medicine")
		return fmt.Errorf("failed to create medicine: %w", err)
	}

	r.logger.WithField("medicine_id", med.ID).Info("Created medicine")
	return nil
}

// GetMedicineByID retrieves a medicine by ID
func (r *Repository) GetMedicineByID(id string) (*types.Medicine, error) {
	query := fmt.Sprintf(`SELECT %s FROM medicines WHERE id = $1`, medicineColumns)

	med := &types.Medicine{}
	err := r.db.QueryRow(query, id).Scan(
		&med.ID,
		&med.Name,
		&med.Category,
		&med.Price,
		&med.StockQuantity,
		&med.Unit,
		&med.Usage.PrescriptionCount,
		&med.Usage.PendingPrescriptions,
		&med.Usage.InDemand,
		&med.CreatedAt,
		&med.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("medicine not found: %s", id))
		}
		r.logger.WithError(err).WithField("medicine_id", id).Error("Failed to get medicine")
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}

	return med, nil
}

// ListMedicines retrieves a page of medicines ordered by name
func (r *Repository) ListMedicines(limit, offset int) ([]*types.Medicine, error) {
	query := fmt.Sprintf(`SELECT %s FROM medicines ORDER BY name LIMIT $1 OFFSET $2`, medicineColumns)

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list medicines")
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	defer rows.Close()

	return r.scanMedicines(rows)
}

// ListAllMedicines retrieves the full medicine snapshot for analytics views
func (r *Repository) ListAllMedicines() ([]*types.Medicine, error) {
	query := fmt.Sprintf(`SELECT %s FROM medicines ORDER BY name`, medicineColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list all medicines")
		return nil, fmt.Errorf("failed to list all medicines: %w", err)
	}
	defer rows.Close()

	return r.scanMedicines(rows)
}

// SearchMedicines finds medicines matching the query in name or category
func (r *Repository) SearchMedicines(query string) ([]*types.Medicine, error) {
	sqlQuery := fmt.Sprintf(`
		SELECT %s FROM medicines
		WHERE name ILIKE $1 OR category ILIKE $1
		ORDER BY name`, medicineColumns)

	rows, err := r.db.Query(sqlQuery, "%"+query+"%")
	if err != nil {
		r.logger.WithError(err).Error("Failed to search medicines")
		return nil, fmt.Errorf("failed to search medicines: %w", err)
	}
	defer rows.Close()

	return r.scanMedicines(rows)
}

// ApplyStockAdjustment updates the stock quantity and records the transaction
// atomically
func (r *Repository) ApplyStockAdjustment(medicineID string, newQuantity int, txn *types.StockTransaction) error {
	ctx := context.Background()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE medicines SET stock_quantity = $1, updated_at = NOW() WHERE id = $2`,
		newQuantity, medicineID)
	if err != nil {
		r.logger.WithError(err).WithField("medicine_id", medicineID).Error("Failed to update stock")
		return fmt.Errorf("failed to update stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("medicine not found: %s", medicineID))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_transactions (
			id, medicine_id, operation, quantity, previous_stock, current_stock,
			reason, performed_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txn.ID,
		txn.MedicineID,
		txn.Operation,
		txn.Quantity,
		txn.PreviousStock,
		txn.CurrentStock,
		txn.Reason,
		txn.PerformedBy,
		txn.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithField("medicine_id", medicineID).Error("Failed to record stock transaction")
		return fmt.Errorf("failed to record stock transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"medicine_id": medicineID,
		"operation":   txn.Operation,
		"new_stock":   newQuantity,
	}).Info("Applied stock adjustment")
	return nil
}

// ListTransactions retrieves recent stock transactions for a medicine
func (r *Repository) ListTransactions(medicineID string, limit int) ([]*types.StockTransaction, error) {
	query := `
		SELECT id, medicine_id, operation, quantity, previous_stock, current_stock,
			   reason, performed_by, created_at
		FROM stock_transactions
		WHERE medicine_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(query, medicineID, limit)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list stock transactions")
		return nil, fmt.Errorf("failed to list stock transactions: %w", err)
	}
	defer rows.Close()

	transactions := []*types.StockTransaction{}
	for rows.Next() {
		txn := &types.StockTransaction{}
		if err := rows.Scan(
			&txn.ID,
			&txn.MedicineID,
			&txn.Operation,
			&txn.Quantity,
			&txn.PreviousStock,
			&txn.CurrentStock,
			&txn.Reason,
			&txn.PerformedBy,
			&txn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

// scanMedicines reads medicine rows into a slice
func (r *Repository) scanMedicines(rows *sql.Rows) ([]*types.Medicine, error) {
	medicines := []*types.Medicine{}

	for rows.Next() {
		med := &types.Medicine{}
		if err := rows.Scan(
			&med.ID,
			&med.Name,
			&med.Category,
			&med.Price,
			&med.StockQuantity,
			&med.Unit,
			&med.Usage.PrescriptionCount,
			&med.Usage.PendingPrescriptions,
			&med.Usage.InDemand,
			&med.CreatedAt,
			&med.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		medicines = append(medicines, med)
	}

	return medicines, rows.Err()
}
