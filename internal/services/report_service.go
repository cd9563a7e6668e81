package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"assesspulse/internal/dataprocessing"
	"assesspulse/internal/infrastructure"
	"assesspulse/pkg/contracts/domain"
)

// LoadTimeout bounds a single source load.
const LoadTimeout = 2 * time.Minute

// Snapshot is one loaded and computed report. It is never modified after
// publication; callers must not mutate its slices.
type Snapshot struct {
	Records    []domain.StudentRecord    `json:"-"`
	Statistics *domain.OverallStatistics `json:"-"`
	LoadedAt   time.Time                 `json:"loaded_at"`
	Source     string                    `json:"source"`
}

// ReloadSummary is the condensed result of a reload.
type ReloadSummary struct {
	TotalStudents int       `json:"total_students"`
	Departments   int       `json:"departments"`
	LoadedAt      time.Time `json:"loaded_at"`
	Source        string    `json:"source"`
}

// Summary condenses the snapshot.
func (s *Snapshot) Summary() ReloadSummary {
	sum := ReloadSummary{LoadedAt: s.LoadedAt, Source: s.Source}
	if s.Statistics != nil {
		sum.TotalStudents = s.Statistics.TotalStudents
		sum.Departments = len(s.Statistics.Departments)
	}
	return sum
}

// ReportService loads records from a source and serves statistics and
// insights computed from the current snapshot.
type ReportService struct {
	source  dataprocessing.RecordSource
	bands   []domain.ScoreBand
	metrics *infrastructure.ReportMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot
	group    singleflight.Group
}

// NewReportService creates a report service over source. metrics may be nil.
func NewReportService(source dataprocessing.RecordSource, metrics *infrastructure.ReportMetrics, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		source:  source,
		bands:   dataprocessing.DefaultScoreBands(),
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.MeterName),
		logger:  logger.With(slog.String("component", "report_service")),
		now:     time.Now,
	}
}

// Current returns the published snapshot without loading, or nil.
func (s *ReportService) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SourceName names the configured record source.
func (s *ReportService) SourceName() string {
	return s.source.Name()
}

// Snapshot returns the current snapshot, loading it on first use.
func (s *ReportService) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.Current(); snap != nil {
		return snap, nil
	}
	return s.Reload(ctx)
}

// Reload re-reads the source and publishes a new snapshot. Concurrent calls
// share a single load. On failure the previous snapshot stays published.
func (s *ReportService) Reload(ctx context.Context) (*Snapshot, error) {
	// The shared load must not be cancelled by whichever caller started it.
	ch := s.group.DoChan("reload", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()
		return s.load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (s *ReportService) load(ctx context.Context) (*Snapshot, error) {
	name := s.source.Name()
	ctx, span := s.tracer.Start(ctx, "report.load",
		trace.WithAttributes(attribute.String("source", name)))
	defer span.End()

	start := time.Now()
	records, err := s.source.Load(ctx)
	s.metrics.RecordLoad(ctx, name, len(records), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		s.logger.ErrorContext(ctx, "record source load failed",
			slog.String("source", name),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s: %w", ErrDataLoad, name, err)
	}

	computeStart := time.Now()
	stats, err := dataprocessing.ComputeStatisticsWithBands(records, s.bands)
	switch {
	case errors.Is(err, dataprocessing.ErrNoRecords):
		stats = nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute failed")
		return nil, fmt.Errorf("compute statistics: %w", err)
	default:
		s.metrics.RecordCompute(ctx, time.Since(computeStart), stats.Unbucketed.Attempt1+stats.Unbucketed.Attempt2)
	}

	snap := &Snapshot{
		Records:    records,
		Statistics: stats,
		LoadedAt:   s.now(),
		Source:     name,
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	sum := snap.Summary()
	span.SetAttributes(
		attribute.Int("records", len(records)),
		attribute.Int("departments", sum.Departments),
	)
	s.logger.InfoContext(ctx, "report snapshot published",
		slog.String("source", name),
		slog.Int("records", len(records)),
		slog.Int("departments", sum.Departments),
		slog.Duration("duration", time.Since(start)))
	if stats != nil && (stats.Unbucketed.Attempt1 > 0 || stats.Unbucketed.Attempt2 > 0) {
		s.logger.WarnContext(ctx, "scores outside every band",
			slog.Int("attempt1", stats.Unbucketed.Attempt1),
			slog.Int("attempt2", stats.Unbucketed.Attempt2))
	}
	return snap, nil
}

// loaded returns a snapshot that holds statistics.
func (s *ReportService) loaded(ctx context.Context) (*Snapshot, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Statistics == nil {
		return nil, ErrNoDataLoaded
	}
	return snap, nil
}

// Report returns the full statistics.
func (s *ReportService) Report(ctx context.Context) (*domain.OverallStatistics, error) {
	snap, err := s.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Statistics, nil
}

// ScoreRanges returns the overall histogram.
func (s *ReportService) ScoreRanges(ctx context.Context) ([]domain.ScoreRangeCount, domain.Unbucketed, error) {
	stats, err := s.Report(ctx)
	if err != nil {
		return nil, domain.Unbucketed{}, err
	}
	return stats.ScoreRanges, stats.Unbucketed, nil
}

// Departments lists department summaries in first-seen order.
func (s *ReportService) Departments(ctx context.Context) ([]domain.DepartmentSummary, error) {
	stats, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Summaries(), nil
}

// Department returns one department by exact name.
func (s *ReportService) Department(ctx context.Context, name string) (domain.GroupStatistics, error) {
	stats, err := s.Report(ctx)
	if err != nil {
		return domain.GroupStatistics{}, err
	}
	group, ok := stats.Department(name)
	if !ok {
		return domain.GroupStatistics{}, fmt.Errorf("%w: %q", ErrDepartmentNotFound, name)
	}
	return group, nil
}

// NeedsSupport pages through students below the support ceiling who improved.
func (s *ReportService) NeedsSupport(ctx context.Context, page, perPage int) (domain.Page[domain.StudentInsight], error) {
	snap, err := s.loaded(ctx)
	if err != nil {
		return domain.Page[domain.StudentInsight]{}, err
	}
	return dataprocessing.Paginate(dataprocessing.NeedsSupport(snap.Records), page, perPage)
}

// NeedsFollowUp pages through students whose score dropped sharply.
func (s *ReportService) NeedsFollowUp(ctx context.Context, page, perPage int) (domain.Page[domain.StudentInsight], error) {
	snap, err := s.loaded(ctx)
	if err != nil {
		return domain.Page[domain.StudentInsight]{}, err
	}
	return dataprocessing.Paginate(dataprocessing.NeedsFollowUp(snap.Records), page, perPage)
}

// TopImproved returns up to n students with the largest gains.
func (s *ReportService) TopImproved(ctx context.Context, n int) ([]domain.StudentInsight, error) {
	snap, err := s.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return dataprocessing.TopImproved(snap.Records, n), nil
}

// TopDeclined returns up to n students with the largest drops.
func (s *ReportService) TopDeclined(ctx context.Context, n int) ([]domain.StudentInsight, error) {
	snap, err := s.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return dataprocessing.TopDeclined(snap.Records, n), nil
}

// Batch pages through one performance quartile.
func (s *ReportService) Batch(ctx context.Context, label string, page, perPage int) (domain.Page[domain.StudentInsight], error) {
	snap, err := s.loaded(ctx)
	if err != nil {
		return domain.Page[domain.StudentInsight]{}, err
	}
	members, err := dataprocessing.BatchOf(snap.Records, label)
	if err != nil {
		return domain.Page[domain.StudentInsight]{}, err
	}
	return dataprocessing.Paginate(members, page, perPage)
}

// RunPeriodicReload reloads every interval until ctx is cancelled. Failures
// are logged and the previous snapshot keeps serving.
func (s *ReportService) RunPeriodicReload(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "periodic reload started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "periodic reload stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil && ctx.Err() == nil {
				s.logger.WarnContext(ctx, "periodic reload failed", slog.String("error", err.Error()))
			}
		}
	}
}
