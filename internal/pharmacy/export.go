package pharmacy

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/caretrack/hms-backend/internal/analytics"
	"github.com/caretrack/hms-backend/pkg/types"
)

var exportHeader = []string{
	"id", "name", "category", "price", "stock_quantity", "unit",
	"stock_status", "days_of_supply", "reorder_urgency",
}

// ExportInventory renders the full inventory snapshot as a downloadable file.
// Supported formats are csv and xlsx.
func (s *Service) ExportInventory(format, userID string) ([]byte, string, string, error) {
	s.logger.WithUserID(userID).WithField("format", format).Info("Exporting inventory")

	if format != "csv" && format != "xlsx" {
		return nil, "", "", types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("unsupported export format: %s", format), nil)
	}

	medicines, err := s.repository.ListAllMedicines()
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to load inventory: %w", err)
	}

	records := analytics.WithMetrics(medicines)
	stamp := time.Now().Format("2006-01-02")

	if format == "xlsx" {
		data, err := renderXLSX(records)
		if err != nil {
			return nil, "", "", err
		}
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			fmt.Sprintf("inventory-%s.xlsx", stamp), nil
	}

	data, err := renderCSV(records)
	if err != nil {
		return nil, "", "", err
	}
	return data, "text/csv", fmt.Sprintf("inventory-%s.csv", stamp), nil
}

// renderCSV writes the inventory rows as CSV
func renderCSV(records []*types.MedicineWithMetrics) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, med := range records {
		row := []string{
			med.ID,
			med.Name,
			med.Category,
			med.Price.StringFixed(2),
			strconv.Itoa(med.StockQuantity),
			med.Unit,
			string(med.Metrics.StockStatus),
			strconv.Itoa(med.Metrics.DaysOfSupply),
			string(med.Metrics.ReorderUrgency),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// renderXLSX writes the inventory rows as an Excel workbook
func renderXLSX(records []*types.MedicineWithMetrics) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := "Inventory"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, col := range exportHeader {
		header[i] = col
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, med := range records {
		cell := fmt.Sprintf("A%d", i+2)
		price, _ := med.Price.Float64()
		row := []interface{}{
			med.ID,
			med.Name,
			med.Category,
			price,
			med.StockQuantity,
			med.Unit,
			string(med.Metrics.StockStatus),
			med.Metrics.DaysOfSupply,
			string(med.Metrics.ReorderUrgency),
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return buf.Bytes(), nil
}
