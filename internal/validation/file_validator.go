// Package validation checks the files a command reads and writes before any
// work starts, so path mistakes surface as one clear message.
package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// WorkbookExtensions are the spreadsheet formats the parser reads.
var WorkbookExtensions = []string{".xlsx", ".xlsm"}

// ErrInvalidPath is wrapped by every validation failure.
var ErrInvalidPath = errors.New("invalid path")

// FileValidator validates input and output paths.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger.With(slog.String("component", "file_validator"))}
}

// ValidateInputDirectory checks that dir exists and holds at least one workbook.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return v.fail("input directory unavailable", dir, err)
	}
	if !info.IsDir() {
		return v.fail("input path is not a directory", dir, nil)
	}

	count, err := v.CountWorkbooks(dir)
	if err != nil {
		return err
	}
	if count == 0 {
		return v.fail("no workbook in directory", dir, nil)
	}

	v.logger.Debug("Input directory validated",
		slog.String("directory", dir),
		slog.Int("workbooks", count))
	return nil
}

// ValidateWorkbook checks that path is a readable workbook file.
func (v *FileValidator) ValidateWorkbook(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return v.fail("office lock file", path, nil)
	}
	if !hasExtension(path, WorkbookExtensions) {
		return v.fail(fmt.Sprintf("not a workbook (want %s)", strings.Join(WorkbookExtensions, ", ")), path, nil)
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return v.fail("file unavailable", path, err)
	}
	if info.IsDir() {
		return v.fail("path is a directory, not a file", path, nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return v.fail("file is not readable", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputFile checks that path has one of exts and that its directory
// exists or can be created and is writable.
func (v *FileValidator) ValidateOutputFile(path string, exts ...string) error {
	if len(exts) > 0 && !hasExtension(path, exts) {
		return v.fail(fmt.Sprintf("output must end in %s", strings.Join(exts, ", ")), path, nil)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return v.fail("cannot create output directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		return v.fail("output directory is not writable", dir, err)
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)
	return nil
}

// CountWorkbooks counts workbook files in dir, ignoring lock files.
func (v *FileValidator) CountWorkbooks(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, v.fail("cannot read directory", dir, err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		if hasExtension(e.Name(), WorkbookExtensions) {
			count++
		}
	}
	return count, nil
}

func (v *FileValidator) fail(reason, path string, cause error) error {
	attrs := []any{slog.String("path", path), slog.String("reason", reason)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
		v.logger.Error("Path validation failed", attrs...)
		return fmt.Errorf("%w: %s: %s: %w", ErrInvalidPath, path, reason, cause)
	}
	v.logger.Error("Path validation failed", attrs...)
	return fmt.Errorf("%w: %s: %s", ErrInvalidPath, path, reason)
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
