package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"assesspulse/internal/config"
	"assesspulse/internal/dataprocessing"
	apierrors "assesspulse/internal/errors"
	"assesspulse/internal/exporter"
	"assesspulse/internal/infrastructure"
	"assesspulse/internal/middleware"
	"assesspulse/internal/services"
	"assesspulse/pkg/contracts/domain"
)

// Export content types.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportBaseName is the download file name without extension.
const ExportBaseName = "assessment-report"

// ReportHandler serves the report, department, student and export routes.
type ReportHandler struct {
	service      ReportServiceInterface
	validation   *middleware.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	metrics      *infrastructure.ReportMetrics
	perPage      int
	topN         int
	logger       *slog.Logger
}

// NewReportHandler creates a report handler. metrics may be nil.
func NewReportHandler(
	service ReportServiceInterface,
	dataCfg config.DataConfig,
	validation *middleware.ValidationMiddleware,
	errorHandler *apierrors.ErrorHandler,
	metrics *infrastructure.ReportMetrics,
	logger *slog.Logger,
) *ReportHandler {
	perPage := dataCfg.PerPage
	if perPage < 1 {
		perPage = config.DefaultPerPage
	}
	topN := dataCfg.TopN
	if topN < 1 {
		topN = config.DefaultTopN
	}
	return &ReportHandler{
		service:      service,
		validation:   validation,
		errorHandler: errorHandler,
		metrics:      metrics,
		perPage:      perPage,
		topN:         topN,
		logger:       logger.With(slog.String("handler", "report")),
	}
}

// ReportRoutes mounts under /api/report.
func (h *ReportHandler) ReportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetReport)
	r.Post("/reload", h.Reload)
	r.Get("/ranges", h.GetScoreRanges)
	return r
}

// DepartmentRoutes mounts under /api/departments.
func (h *ReportHandler) DepartmentRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.ListDepartments)
	r.Get("/{name}", h.GetDepartment)
	return r
}

// StudentRoutes mounts under /api/students.
func (h *ReportHandler) StudentRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/support", h.NeedsSupport)
	r.Get("/follow-up", h.NeedsFollowUp)
	r.Get("/improved", h.TopImproved)
	r.Get("/declined", h.TopDeclined)
	r.Get("/batches/{batch}", h.GetBatch)
	return r
}

// ExportRoutes mounts under /api/export.
func (h *ReportHandler) ExportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/report.csv", h.ExportCSV)
	r.Get("/report.xlsx", h.ExportXLSX)
	return r
}

// GetReport handles GET /api/report
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Report(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}

// Reload handles POST /api/report/reload
func (h *ReportHandler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Reload(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	summary := snap.Summary()
	h.logger.InfoContext(r.Context(), "report reloaded on request",
		slog.String("source", summary.Source),
		slog.Int("total_students", summary.TotalStudents))
	render.JSON(w, r, summary)
}

// ScoreRangesResponse is the body of GET /api/report/ranges.
type ScoreRangesResponse struct {
	ScoreRanges []domain.ScoreRangeCount `json:"score_ranges"`
	Unbucketed  domain.Unbucketed        `json:"unbucketed"`
}

// GetScoreRanges handles GET /api/report/ranges
func (h *ReportHandler) GetScoreRanges(w http.ResponseWriter, r *http.Request) {
	ranges, unbucketed, err := h.service.ScoreRanges(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, ScoreRangesResponse{ScoreRanges: ranges, Unbucketed: unbucketed})
}

// ListDepartments handles GET /api/departments
// and GET /api/departments?name= for names that cannot appear in a path,
// including the empty department.
func (h *ReportHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	if query := r.URL.Query(); query.Has("name") {
		h.serveDepartment(w, r, query.Get("name"))
		return
	}

	summaries, err := h.service.Departments(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summaries)
}

// GetDepartment handles GET /api/departments/{name}
func (h *ReportHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when it is set, leaving escapes in the parameter.
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "department name is not a valid path segment"))
			return
		}
		name = unescaped
	}
	h.serveDepartment(w, r, name)
}

func (h *ReportHandler) serveDepartment(w http.ResponseWriter, r *http.Request, name string) {
	group, err := h.service.Department(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, group)
}

// NeedsSupport handles GET /api/students/support
func (h *ReportHandler) NeedsSupport(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, h.service.NeedsSupport)
}

// NeedsFollowUp handles GET /api/students/follow-up
func (h *ReportHandler) NeedsFollowUp(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, h.service.NeedsFollowUp)
}

// GetBatch handles GET /api/students/batches/{batch}
func (h *ReportHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	label, err := h.validation.ParseBatch(chi.URLParam(r, "batch"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.servePage(w, r, func(ctx context.Context, page, perPage int) (domain.Page[domain.StudentInsight], error) {
		return h.service.Batch(ctx, label, page, perPage)
	})
}

// TopImproved handles GET /api/students/improved
func (h *ReportHandler) TopImproved(w http.ResponseWriter, r *http.Request) {
	h.serveRanking(w, r, h.service.TopImproved)
}

// TopDeclined handles GET /api/students/declined
func (h *ReportHandler) TopDeclined(w http.ResponseWriter, r *http.Request) {
	h.serveRanking(w, r, h.service.TopDeclined)
}

type pageFunc func(ctx context.Context, page, perPage int) (domain.Page[domain.StudentInsight], error)

func (h *ReportHandler) servePage(w http.ResponseWriter, r *http.Request, fetch pageFunc) {
	q, err := h.validation.ParsePageQuery(r, h.perPage)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	page, err := fetch(r.Context(), q.Page, q.PerPage)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

func (h *ReportHandler) serveRanking(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int) ([]domain.StudentInsight, error)) {
	q, err := h.validation.ParseLimitQuery(r, h.topN)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	students, err := fetch(r.Context(), q.Limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, students)
}

// ExportCSV handles GET /api/export/report.csv
func (h *ReportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", ContentTypeCSV, exporter.WriteReportCSV)
}

// ExportXLSX handles GET /api/export/report.xlsx
func (h *ReportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", ContentTypeXLSX, exporter.WriteWorkbook)
}

// export renders into memory first so a failure can still be reported as a
// problem response instead of a truncated download.
func (h *ReportHandler) export(w http.ResponseWriter, r *http.Request, format, contentType string,
	write func(io.Writer, *domain.OverallStatistics) error) {
	stats, err := h.service.Report(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, stats); err != nil {
		h.logger.ErrorContext(r.Context(), "report export failed",
			slog.String("format", format),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrExportFailed)
		return
	}
	h.metrics.RecordExport(r.Context(), format)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportBaseName+"."+format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleServiceError maps service and statistics errors to API errors.
func (h *ReportHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var mapped error
	switch {
	case errors.Is(err, services.ErrNoDataLoaded), errors.Is(err, dataprocessing.ErrNoRecords):
		mapped = apierrors.ErrNoData
	case errors.Is(err, services.ErrDepartmentNotFound):
		mapped = apierrors.NotFoundError("department")
	case errors.Is(err, services.ErrDataLoad):
		h.logger.WarnContext(r.Context(), "data source unavailable",
			slog.String("source", h.service.SourceName()),
			slog.String("error", err.Error()))
		mapped = apierrors.DataLoadFailed(h.service.SourceName())
	case errors.Is(err, dataprocessing.ErrUnknownBatch):
		mapped = apierrors.ErrValidation("batch", err.Error())
	case errors.Is(err, dataprocessing.ErrInvalidPage):
		mapped = apierrors.ErrValidation("page", err.Error())
	default:
		mapped = err
	}
	h.errorHandler.HandleError(w, r, mapped)
}
