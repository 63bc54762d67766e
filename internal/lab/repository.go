package lab

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/caretrack/hms-backend/pkg/database"
	"github.com/caretrack/hms-backend/pkg/interfaces"
	"github.com/caretrack/hms-backend/pkg/logger"
	"github.com/caretrack/hms-backend/pkg/types"
)

const labTestColumns = `id, test_name, patient_id, technician_id, priority, status,
	   requested_at, completed_at, completion_time, created_at, updated_at`

// Repository implements the LabRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new lab repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.LabRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// CreateTest inserts a new lab test record
func (r *Repository) CreateTest(test *types.LabTest) error {
	query := `
		INSERT INTO lab_tests (
			id, test_name, patient_id, technician_id, priority, status,
			requested_at, completed_at, completion_time, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		test.ID,
		test.TestName,
		test.PatientID,
		nullableString(test.TechnicianID),
		test.Priority,
		test.Status,
		test.RequestedAt,
		test.CompletedAt,
		nullableString(test.CompletionTime),
		test.CreatedAt,
		test.UpdatedAt,
	)

	if err != nil {
		r.logger.WithError(err).Error("Failed to create lab test")
		return fmt.Errorf("failed to create lab test: %w", err)
	}

	r.logger.WithField("test_id", test.ID).Info("Created lab test")
	return nil
}

// GetTestByID retrieves a lab test by ID
func (r *Repository) GetTestByID(id string) (*types.LabTest, error) {
	query := fmt.Sprintf(`SELECT %s FROM lab_tests WHERE id = $1`, labTestColumns)

	test, err := r.scanTest(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("lab test not found: %s", id))
		}
		r.logger.WithError(err).WithField("test_id", id).Error("Failed to get lab test")
		return nil, fmt.Errorf("failed to get lab test: %w", err)
	}

	return test, nil
}

// UpdateTest persists status and completion fields of a lab test
func (r *Repository) UpdateTest(test *types.LabTest) error {
	query := `
		UPDATE lab_tests
		SET status = $1, technician_id = $2, completed_at = $3, completion_time = $4, updated_at = NOW()
		WHERE id = $5`

	result, err := r.db.Exec(query,
		test.Status,
		nullableString(test.TechnicianID),
		test.CompletedAt,
		nullableString(test.CompletionTime),
		test.ID,
	)
	if err != nil {
		r.logger.WithError(err).WithField("test_id", test.ID).Error("Failed to update lab test")
		return fmt.Errorf("failed to update lab test: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("lab test not found: %s", test.ID))
	}

	return nil
}

// ListTests retrieves lab tests matching the filters
func (r *Repository) ListTests(filters *types.LabTestFilters) ([]*types.LabTest, error) {
	query := fmt.Sprintf(`SELECT %s FROM lab_tests WHERE 1=1`, labTestColumns)
	args := []interface{}{}
	argCount := 0

	if filters != nil {
		if filters.Status != "" {
			argCount++
			query += ` AND status = $` + strconv.Itoa(argCount)
			args = append(args, filters.Status)
		}
		if filters.Priority != "" {
			argCount++
			query += ` AND priority = $` + strconv.Itoa(argCount)
			args = append(args, filters.Priority)
		}
		if filters.TechnicianID != "" {
			argCount++
			query += ` AND technician_id = $` + strconv.Itoa(argCount)
			args = append(args, filters.TechnicianID)
		}
	}

	query += ` ORDER BY requested_at DESC`

	if filters != nil && filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		if filters.Offset > 0 {
			argCount++
			query += ` OFFSET $` + strconv.Itoa(argCount)
			args = append(args, filters.Offset)
		}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list lab tests")
		return nil, fmt.Errorf("failed to list lab tests: %w", err)
	}
	defer rows.Close()

	return r.scanTests(rows)
}

// ListTestsByTechnician retrieves all tests assigned to a technician
func (r *Repository) ListTestsByTechnician(technicianID string) ([]*types.LabTest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lab_tests
		WHERE technician_id = $1
		ORDER BY requested_at DESC`, labTestColumns)

	rows, err := r.db.Query(query, technicianID)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list technician tests")
		return nil, fmt.Errorf("failed to list technician tests: %w", err)
	}
	defer rows.Close()

	return r.scanTests(rows)
}

// ListRecentTests retrieves the most recently updated tests for a technician
func (r *Repository) ListRecentTests(technicianID string, limit int) ([]*types.LabTest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lab_tests
		WHERE technician_id = $1
		ORDER BY updated_at DESC
		LIMIT $2`, labTestColumns)

	rows, err := r.db.Query(query, technicianID, limit)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list recent tests")
		return nil, fmt.Errorf("failed to list recent tests: %w", err)
	}
	defer rows.Close()

	return r.scanTests(rows)
}

// ListTechnicians retrieves all active lab technicians
func (r *Repository) ListTechnicians() ([]*types.LabTechnician, error) {
	query := `
		SELECT id, user_id, name, department, is_active, created_at, updated_at
		FROM lab_technicians
		WHERE is_active = TRUE
		ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list lab technicians")
		return nil, fmt.Errorf("failed to list lab technicians: %w", err)
	}
	defer rows.Close()

	technicians := []*types.LabTechnician{}
	for rows.Next() {
		tech := &types.LabTechnician{}
		if err := rows.Scan(
			&tech.ID,
			&tech.UserID,
			&tech.Name,
			&tech.Department,
			&tech.IsActive,
			&tech.CreatedAt,
			&tech.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lab technician: %w", err)
		}
		technicians = append(technicians, tech)
	}

	return technicians, rows.Err()
}

// GetTechnicianByUserID retrieves the technician record for a user account
func (r *Repository) GetTechnicianByUserID(userID string) (*types.LabTechnician, error) {
	query := `
		SELECT id, user_id, name, department, is_active, created_at, updated_at
		FROM lab_technicians
		WHERE user_id = $1`

	tech := &types.LabTechnician{}
	err := r.db.QueryRow(query, userID).Scan(
		&tech.ID,
		&tech.UserID,
		&tech.Name,
		&tech.Department,
		&tech.IsActive,
		&tech.CreatedAt,
		&tech.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("lab technician not found for user: %s", userID))
		}
		r.logger.WithError(err).WithField("user_id", userID).Error("Failed to get lab technician")
		return nil, fmt.Errorf("failed to get lab technician: %w", err)
	}

	return tech, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTest reads one lab test row
func (r *Repository) scanTest(row rowScanner) (*types.LabTest, error) {
	test := &types.LabTest{}
	var technicianID, completionTime sql.NullString

	if err := row.Scan(
		&test.ID,
		&test.TestName,
		&test.PatientID,
		&technicianID,
		&test.Priority,
		&test.Status,
		&test.RequestedAt,
		&test.CompletedAt,
		&completionTime,
		&test.CreatedAt,
		&test.UpdatedAt,
	); err != nil {
		return nil, err
	}

	test.TechnicianID = technicianID.String
	test.CompletionTime = completionTime.String
	return test, nil
}

// scanTests reads lab test rows into a slice
func (r *Repository) scanTests(rows *sql.Rows) ([]*types.LabTest, error) {
	tests := []*types.LabTest{}

	for rows.Next() {
		test, err := r.scanTest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lab test: %w", err)
		}
		tests = append(tests, test)
	}

	return tests, rows.Err()
}

// nullableString converts empty strings to SQL NULL
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
