package dto

import (
	"time"

	"fuelstock/internal/core/apperror"
	"fuelstock/internal/domain/reports"
)

const dateLayout = "2006-01-02"

// Report output formats.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ReportQuery carries the common report query parameters.
type ReportQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Format    string `form:"format"`
}

// DateRange parses start_date and end_date into a report range.
// The end date is inclusive: it extends to the end of that day.
func (q *ReportQuery) DateRange() (reports.DateRange, error) {
	var rng reports.DateRange
	if q.StartDate != "" {
		t, err := time.Parse(dateLayout, q.StartDate)
		if err != nil {
			return rng, apperror.NewFieldValidation("start_date", "expected YYYY-MM-DD")
		}
		rng.From = &t
	}
	if q.EndDate != "" {
		t, err := time.Parse(dateLayout, q.EndDate)
		if err != nil {
			return rng, apperror.NewFieldValidation("end_date", "expected YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		rng.To = &end
	}
	if rng.From != nil && rng.To != nil && rng.To.Before(*rng.From) {
		return rng, apperror.NewValidation("end_date is before start_date")
	}
	return rng, nil
}

// WantsXLSX reports whether the client asked for a spreadsheet.
func (q *ReportQuery) WantsXLSX() bool {
	return q.Format == FormatXLSX
}

// FlattenWarehouseReport joins the grouped sections into one row list
// for spreadsheet export, ordered as the report presents them.
func FlattenWarehouseReport(r *reports.WarehouseReport) []reports.MovementRow {
	rows := make([]reports.MovementRow, 0,
		len(r.Supplies)+len(r.Exports)+len(r.Damages)+
			len(r.ReturnSupply)+len(r.ReturnExport)+
			len(r.TransfersIn)+len(r.TransfersOut)+len(r.Modifications))
	rows = append(rows, r.Supplies...)
	rows = append(rows, r.Exports...)
	rows = append(rows, r.Damages...)
	rows = append(rows, r.ReturnSupply...)
	rows = append(rows, r.ReturnExport...)
	rows = append(rows, r.TransfersIn...)
	rows = append(rows, r.TransfersOut...)
	rows = append(rows, r.Modifications...)
	return rows
}
