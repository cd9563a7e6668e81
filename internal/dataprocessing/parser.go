package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "assesspulse/internal/errors"
	"assesspulse/pkg/contracts/domain"
)

// Header names used by the assessment workbook.
const (
	HeaderName       = "NAME"
	HeaderRollNumber = "ROLL NUM"
	HeaderDepartment = "DEPARTMENT"
	HeaderAttempt1   = "ATTEMPT 1 (% percentage)"
	HeaderAttempt2   = "ATTEMPT 2 (% percentage)"
)

// ParseWorkbook reads the first sheet of an assessment workbook on disk.
func ParseWorkbook(filePath string) ([]domain.StudentRecord, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", filePath)
	}
	defer f.Close()

	return readFirstSheet(f)
}

// ParseWorkbookReader reads the first sheet of an assessment workbook stream.
func ParseWorkbookReader(r io.Reader) ([]domain.StudentRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read workbook", err)
	}
	defer f.Close()

	return readFirstSheet(f)
}

func readFirstSheet(f *excelize.File) ([]domain.StudentRecord, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no sheets", nil)
	}

	// Raw values keep cell number formats (rounding, percent) out of the scores.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read rows", err).WithContext("sheet", sheets[0])
	}

	slog.Debug("Workbook sheet loaded",
		slog.String("sheet_name", sheets[0]),
		slog.Int("total_rows", len(rows)))

	return MapRows(rows)
}

// columnMap holds the index of every known header, -1 when absent.
type columnMap struct {
	name, roll, department, attempt1, attempt2 int
}

func mapHeader(header []string) (columnMap, error) {
	cols := columnMap{name: -1, roll: -1, department: -1, attempt1: -1, attempt2: -1}
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case h == HeaderName && cols.name < 0:
			cols.name = i
		case h == HeaderRollNumber && cols.roll < 0:
			cols.roll = i
		case h == HeaderDepartment && cols.department < 0:
			cols.department = i
		case strings.HasPrefix(h, "ATTEMPT 1") && cols.attempt1 < 0:
			cols.attempt1 = i
		case strings.HasPrefix(h, "ATTEMPT 2") && cols.attempt2 < 0:
			cols.attempt2 = i
		}
	}

	var missing []string
	if cols.department < 0 {
		missing = append(missing, HeaderDepartment)
	}
	if cols.attempt1 < 0 {
		missing = append(missing, HeaderAttempt1)
	}
	if cols.attempt2 < 0 {
		missing = append(missing, HeaderAttempt2)
	}
	if len(missing) > 0 {
		return cols, apperrors.NewParsingError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}
	return cols, nil
}

// MapRows converts a header row followed by data rows into records. Rows with
// no non-blank cell are skipped; short rows read missing cells as empty.
func MapRows(rows [][]string) ([]domain.StudentRecord, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("sheet is empty", nil)
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]domain.StudentRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		records = append(records, domain.StudentRecord{
			Name:       cell(row, cols.name),
			RollNumber: cell(row, cols.roll),
			Department: cell(row, cols.department),
			Attempt1:   ParseScore(cell(row, cols.attempt1)),
			Attempt2:   ParseScore(cell(row, cols.attempt2)),
		})
	}
	return records, nil
}

// ParseScore keeps only digits and dots, then reads the longest leading decimal
// number. Anything unreadable becomes 0. Signs are discarded, so "-5" is 5.
func ParseScore(raw string) float64 {
	var b strings.Builder
	for _, c := range raw {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	cleaned := b.String()

	end, dot, digits := 0, false, false
	for end < len(cleaned) {
		c := cleaned[end]
		if c == '.' {
			if dot {
				break
			}
			dot = true
		} else {
			digits = true
		}
		end++
	}
	if !digits {
		return 0
	}

	v, err := strconv.ParseFloat(cleaned[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
