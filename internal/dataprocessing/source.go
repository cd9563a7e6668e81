package dataprocessing

import (
	"context"
	"log/slog"

	"assesspulse/internal/files"
	"assesspulse/pkg/contracts/domain"
)

// RecordSource produces the student records for one report computation.
type RecordSource interface {
	Load(ctx context.Context) ([]domain.StudentRecord, error)
	Name() string
}

// WorkbookSource loads a workbook from disk. With no explicit path it uses the
// newest workbook in the data directory at each load.
type WorkbookSource struct {
	path      string
	dataDir   string
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewWorkbookSource creates a workbook-backed source. path may be empty.
func NewWorkbookSource(path, dataDir string, logger *slog.Logger) *WorkbookSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookSource{
		path:      path,
		dataDir:   dataDir,
		discovery: files.NewDiscovery(""),
		logger:    logger.With(slog.String("component", "workbook_source")),
	}
}

// Name identifies the source in logs and report metadata.
func (s *WorkbookSource) Name() string {
	if s.path != "" {
		return "workbook:" + s.path
	}
	return "workbook:" + s.dataDir
}

// Load resolves the workbook path and parses it.
func (s *WorkbookSource) Load(ctx context.Context) ([]domain.StudentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.path
	if path == "" {
		latest, err := s.discovery.LatestWorkbook(s.dataDir)
		if err != nil {
			return nil, err
		}
		path = latest.Path
	}

	records, err := ParseWorkbook(path)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to parse workbook",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "Workbook loaded",
		slog.String("path", path),
		slog.Int("records", len(records)))
	return records, nil
}

// StaticSource serves a fixed record list. Used by tests and by callers that
// already hold parsed records.
type StaticSource struct {
	Label   string
	Records []domain.StudentRecord
}

// Name identifies the source.
func (s StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// Load returns a copy of the records.
func (s StaticSource) Load(ctx context.Context) ([]domain.StudentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.StudentRecord(nil), s.Records...), nil
}
