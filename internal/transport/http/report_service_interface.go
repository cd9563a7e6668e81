package http

import (
	"context"

	"assesspulse/internal/services"
	"assesspulse/pkg/contracts/domain"
)

// ReportServiceInterface is the report API consumed by ReportHandler.
type ReportServiceInterface interface {
	Report(ctx context.Context) (*domain.OverallStatistics, error)
	Reload(ctx context.Context) (*services.Snapshot, error)
	ScoreRanges(ctx context.Context) ([]domain.ScoreRangeCount, domain.Unbucketed, error)
	Departments(ctx context.Context) ([]domain.DepartmentSummary, error)
	Department(ctx context.Context, name string) (domain.GroupStatistics, error)
	NeedsSupport(ctx context.Context, page, perPage int) (domain.Page[domain.StudentInsight], error)
	NeedsFollowUp(ctx context.Context, page, perPage int) (domain.Page[domain.StudentInsight], error)
	TopImproved(ctx context.Context, n int) ([]domain.StudentInsight, error)
	TopDeclined(ctx context.Context, n int) ([]domain.StudentInsight, error)
	Batch(ctx context.Context, label string, page, perPage int) (domain.Page[domain.StudentInsight], error)
	SourceName() string
}
