package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// WriteMovementsXLSX streams movement rows as an Excel workbook.
func WriteMovementsXLSX(w io.Writer, rows []MovementRow) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Number", "Kind", "Date", "Warehouse", "Item", "Party", "Quantity", "Returned", "Paper Ref"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []any{
			row.Number,
			string(row.Kind),
			row.OperationDate.Format("2006-01-02"),
			row.WarehouseName,
			row.ItemName,
			row.PartyName,
			row.Quantity.Float64(),
			row.ReturnedQuantity.Float64(),
			row.PaperRefNumber,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteStatusXLSX streams a status snapshot as an Excel workbook.
func WriteStatusXLSX(w io.Writer, report *StatusReport) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Warehouse", "Item", "Opening", "Current", "Unit", "Level", "Last Updated"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	for i, row := range report.Rows {
		values := []any{
			row.WarehouseName,
			row.ItemName,
			row.OpeningBalance.Float64(),
			row.CurrentQuantity.Float64(),
			row.Unit,
			string(row.Level),
			row.LastUpdated.Format("2006-01-02 15:04"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
