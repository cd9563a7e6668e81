package exporter

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, scenarioStats(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetDepartments, SheetRanges}, f.GetSheetList())

	rows, err := f.GetRows(SheetDepartments)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, DepartmentHeaders, rows[0])
	assert.Equal(t, "CS", rows[1][0])
	assert.Equal(t, "EE", rows[2][0])

	// Numeric columns are stored as numbers, so trailing zeros are dropped.
	students, err := f.GetCellValue(SheetDepartments, "C2")
	require.NoError(t, err)
	assert.Equal(t, "70", students)

	v, err := f.GetCellValue(SheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	ranges, err := f.GetRows(SheetRanges)
	require.NoError(t, err)
	assert.Len(t, ranges, 6)
	assert.Equal(t, RangeHeaders, ranges[0])
}

func TestSaveWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.xlsx")
	require.NoError(t, SaveWorkbook(path, scenarioStats(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}

func TestWriteWorkbookNilStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetDepartments)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
