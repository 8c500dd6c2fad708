package attendance

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"aerocrew.com/aerocrew/core"
	"aerocrew.com/aerocrew/infrastructure/filesystem"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const reportSheet = "Punches"

var reportHeaders = []string{
	"Employee Code", "Employee ID", "Terminal", "Area",
	"Punch Time (local)", "Punch Time (UTC)", "State", "Run",
}

// BuildPunchReport renders the active punches for a date range into a
// workbook for payroll and fleet-roster review.
func BuildPunchReport(db *gorm.DB, employeeIDs []int32, start, end time.Time) (*excelize.File, error) {
	assists, _, err := core.SearchAssists(db, employeeIDs, start, end, 100000, 0)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", reportSheet)

	for col, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(reportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write report header: %w", err)
		}
	}

	for i, a := range assists {
		empID := ""
		if a.EmployeeID != nil {
			empID = fmt.Sprintf("%d", *a.EmployeeID)
		}
		row := []interface{}{
			a.EmployeeCode,
			empID,
			a.TerminalAlias,
			a.AreaAlias,
			a.PunchTime.Format("2006-01-02 15:04:05"),
			a.PunchTimeUTC.Format("2006-01-02 15:04:05"),
			a.PunchState,
			a.RunID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write report row %d: %w", i+2, err)
		}
	}

	return f, nil
}

// ArchiveReport uploads a workbook to the report bucket and returns its
// key.
func ArchiveReport(ctx context.Context, f *excelize.File, bucket string, day time.Time) (string, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	key := fmt.Sprintf("attendance/%s-%s.xlsx", day.Format("2006-01-02"), uuid.NewString()[:8])
	if err := filesystem.WriteFile(bucket, key, ctx, &buf); err != nil {
		return "", err
	}
	return key, nil
}
