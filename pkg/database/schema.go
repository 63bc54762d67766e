package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema for pharmacy and lab storage
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	// Create extension for UUID generation
	if err := db.createExtensions(ctx); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	// Create tables
	tables := []string{
		createMedicinesTable,
		createStockTransactionsTable,
		createLabTestsTable,
		createLabTechniciansTable,
		createUsersTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Create indexes
	indexes := []string{
		createMedicinesIndexes,
		createStockTransactionsIndexes,
		createLabTestsIndexes,
		createLabTechniciansIndexes,
		createUsersIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func (db *DB) createExtensions(ctx context.Context) error {
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	return nil
}

// SQL DDL statements for table creation
const (
	createMedicinesTable = `
		CREATE TABLE IF NOT EXISTS medicines (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(200) NOT NULL,
			category VARCHAR(100) NOT NULL,
			price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
			stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
			unit VARCHAR(50) NOT NULL,
			prescription_count INTEGER NOT NULL DEFAULT 0,
			pending_prescriptions INTEGER NOT NULL DEFAULT 0,
			in_demand BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createStockTransactionsTable = `
		CREATE TABLE IF NOT EXISTS stock_transactions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			medicine_id UUID NOT NULL REFERENCES medicines(id),
			operation VARCHAR(20) NOT NULL,
			quantity INTEGER NOT NULL,
			previous_stock INTEGER NOT NULL,
			current_stock INTEGER NOT NULL,
			reason TEXT,
			performed_by UUID NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createLabTestsTable = `
		CREATE TABLE IF NOT EXISTS lab_tests (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			test_name VARCHAR(200) NOT NULL,
			patient_id UUID NOT NULL,
			technician_id UUID,
			priority VARCHAR(20) NOT NULL DEFAULT 'medium',
			status VARCHAR(20) NOT NULL DEFAULT 'requested',
			requested_at TIMESTAMP WITH TIME ZONE NOT NULL,
			completed_at TIMESTAMP WITH TIME ZONE,
			completion_time VARCHAR(50),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createLabTechniciansTable = `
		CREATE TABLE IF NOT EXISTS lab_technicians (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL UNIQUE,
			name VARCHAR(200) NOT NULL,
			department VARCHAR(100) NOT NULL,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createUsersTable = `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			username VARCHAR(100) UNIQUE NOT NULL,
			role VARCHAR(50) NOT NULL,
			org_id VARCHAR(100) NOT NULL,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`
)

// SQL DDL statements for index creation
const (
	createMedicinesIndexes = `
		CREATE INDEX IF NOT EXISTS idx_medicines_name ON medicines(name);
		CREATE INDEX IF NOT EXISTS idx_medicines_category ON medicines(category);
		CREATE INDEX IF NOT EXISTS idx_medicines_stock_quantity ON medicines(stock_quantity);`

	createStockTransactionsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_stock_transactions_medicine_id ON stock_transactions(medicine_id);
		CREATE INDEX IF NOT EXISTS idx_stock_transactions_created_at ON stock_transactions(created_at);
		CREATE INDEX IF NOT EXISTS idx_stock_transactions_performed_by ON stock_transactions(performed_by);`

	createLabTestsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_lab_tests_status ON lab_tests(status);
		CREATE INDEX IF NOT EXISTS idx_lab_tests_priority ON lab_tests(priority);
		CREATE INDEX IF NOT EXISTS idx_lab_tests_technician_id ON lab_tests(technician_id);
		CREATE INDEX IF NOT EXISTS idx_lab_tests_completed_at ON lab_tests(completed_at);`

	createLabTechniciansIndexes = `
		CREATE INDEX IF NOT EXISTS idx_lab_technicians_user_id ON lab_technicians(user_id);
		CREATE INDEX IF NOT EXISTS idx_lab_technicians_department ON lab_technicians(department);`

	createUsersIndexes = `
		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
		CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);`
)
