package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"assesspulse/pkg/contracts/domain"
)

// Sheet names of an exported workbook.
const (
	SheetSummary     = "Summary"
	SheetDepartments = "Departments"
	SheetRanges      = "Score Ranges"
)

// BuildWorkbook lays the report out over three sheets. The caller closes
// the returned file.
func BuildWorkbook(stats *domain.OverallStatistics) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetDepartments); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet %s: %w", SheetDepartments, err)
	}
	if _, err := f.NewSheet(SheetRanges); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet %s: %w", SheetRanges, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	var ranges []domain.ScoreRangeCount
	var unbucketed domain.Unbucketed
	if stats != nil {
		ranges = stats.ScoreRanges
		unbucketed = stats.Unbucketed
	}

	tables := []struct {
		sheet   string
		headers []string
		rows    [][]string
	}{
		{SheetSummary, SummaryHeaders, SummaryRows(stats)},
		{SheetDepartments, DepartmentHeaders, ReportRows(stats)},
		{SheetRanges, RangeHeaders, RangeRows(ranges, unbucketed)},
	}
	for _, t := range tables {
		if err := writeSheet(f, t.sheet, t.headers, t.rows, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook streams the report workbook to w.
func WriteWorkbook(w io.Writer, stats *domain.OverallStatistics) error {
	f, err := BuildWorkbook(stats)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the report workbook to path, creating parent directories.
func SaveWorkbook(path string, stats *domain.OverallStatistics) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook file: %w", err)
	}
	if err := WriteWorkbook(file, stats); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// writeSheet stores numeric cells as numbers so spreadsheet formulas work.
// The first column is always a label.
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string, headerStyle int) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header %s!%s: %w", sheet, cell, err)
		}
	}
	if len(headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header row: %w", err)
		}
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := setCell(f, sheet, cell, value, c > 0); err != nil {
				return fmt.Errorf("failed to write cell %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet, cell, value string, numeric bool) error {
	if n, ok := parseNumber(value); numeric && ok {
		return f.SetCellFloat(sheet, cell, n, -1, 64)
	}
	return f.SetCellStr(sheet, cell, value)
}
