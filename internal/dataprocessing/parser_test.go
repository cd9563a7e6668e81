package dataprocessing

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "assesspulse/internal/errors"
	"assesspulse/pkg/contracts/domain"
)

// writeWorkbook saves rows to the first sheet of a new workbook.
func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Form Responses 1"
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))

	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

var assessmentHeader = []interface{}{"Timestamp", "NAME", "ROLL NUM", "DEPARTMENT", "ATTEMPT 1 (% percentage)", "ATTEMPT 2 (% percentage)"}

func TestParseWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Assessment Marks.xlsx")
	writeWorkbook(t, path, [][]interface{}{
		assessmentHeader,
		{"2024-01-05", "Asha", "21CS01", "CS", "50%", "70 %"},
		{"2024-01-05", "Bilal", "21CS02", "CS", 90, 40},
		{},
		{"2024-01-06", "Chen", "21EE01", "EE", "thirty", "30"},
	})

	records, err := ParseWorkbook(path)
	require.NoError(t, err)

	assert.Equal(t, []domain.StudentRecord{
		{Name: "Asha", RollNumber: "21CS01", Department: "CS", Attempt1: 50, Attempt2: 70},
		{Name: "Bilal", RollNumber: "21CS02", Department: "CS", Attempt1: 90, Attempt2: 40},
		{Name: "Chen", RollNumber: "21EE01", Department: "EE", Attempt1: 0, Attempt2: 30},
	}, records)
}

func TestParseWorkbookIgnoresNumberFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styled.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &assessmentHeader))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2024-01-05", "Asha", "21CS01", "CS", 66.6666, 0.85}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"2024-01-05", "Bilal", "21CS02", "CS", 20.4, 45}))

	whole, err := f.NewStyle(&excelize.Style{NumFmt: 1}) // "0"
	require.NoError(t, err)
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 9}) // "0%"
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "E2", "E3", whole))
	require.NoError(t, f.SetCellStyle(sheet, "F2", "F2", percent))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := ParseWorkbook(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.InDelta(t, 66.6666, records[0].Attempt1, 1e-9)
	assert.InDelta(t, 0.85, records[0].Attempt2, 1e-9)
	assert.InDelta(t, 20.4, records[1].Attempt1, 1e-9)
	assert.InDelta(t, 45, records[1].Attempt2, 1e-9)
}

func TestParseWorkbookReader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"DEPARTMENT", "ATTEMPT 1", "ATTEMPT 2"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"ME", "12.5", "60"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	records, err := ParseWorkbookReader(&buf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Name)
	assert.Equal(t, 12.5, records[0].Attempt1)
}

func TestParseWorkbookMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	writeWorkbook(t, path, [][]interface{}{
		{"NAME", "DEPARTMENT"},
		{"Asha", "CS"},
	})

	_, err := ParseWorkbook(path)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeParsing, appErr.Type)
	assert.Contains(t, appErr.Message, "ATTEMPT 1")
}

func TestParseWorkbookMissingFile(t *testing.T) {
	_, err := ParseWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"))
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeParsing, appErr.Type)
}

func TestMapRowsHeaderMatching(t *testing.T) {
	rows := [][]string{
		{"\ufeffname", " Department ", "attempt 2 (% percentage)", "Attempt 1 (% percentage)"},
		{"Dev", "IT", "88", "77"},
		{"Short", "IT"},
		{"", "  ", ""},
	}

	records, err := MapRows(rows)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.StudentRecord{Name: "Dev", Department: "IT", Attempt1: 77, Attempt2: 88}, records[0])
	assert.Equal(t, domain.StudentRecord{Name: "Short", Department: "IT"}, records[1])
}

func TestMapRowsEmpty(t *testing.T) {
	_, err := MapRows(nil)
	assert.Error(t, err)

	records, err := MapRows([][]string{{"DEPARTMENT", "ATTEMPT 1", "ATTEMPT 2"}})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"75", 75},
		{"75%", 75},
		{" 62.5 % ", 62.5},
		{"", 0},
		{"absent", 0},
		{"N/A", 0},
		{".", 0},
		{".5", 0.5},
		{"-5", 5},
		{"1.2.3", 1.2},
		{"80/100", 80100},
		{"105", 105},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseScore(tt.raw), "raw %q", tt.raw)
	}
}
