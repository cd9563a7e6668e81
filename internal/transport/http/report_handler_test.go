package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"assesspulse/internal/config"
	"assesspulse/internal/dataprocessing"
	apierrors "assesspulse/internal/errors"
	"assesspulse/internal/middleware"
	"assesspulse/internal/services"
	"assesspulse/internal/shared/testutil"
	"assesspulse/pkg/contracts/domain"
)

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) Report(ctx context.Context) (*domain.OverallStatistics, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*domain.OverallStatistics)
	return stats, args.Error(1)
}

func (m *mockReportService) Reload(ctx context.Context) (*services.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*services.Snapshot)
	return snap, args.Error(1)
}

func (m *mockReportService) ScoreRanges(ctx context.Context) ([]domain.ScoreRangeCount, domain.Unbucketed, error) {
	args := m.Called(ctx)
	ranges, _ := args.Get(0).([]domain.ScoreRangeCount)
	return ranges, args.Get(1).(domain.Unbucketed), args.Error(2)
}

func (m *mockReportService) Departments(ctx context.Context) ([]domain.DepartmentSummary, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]domain.DepartmentSummary)
	return out, args.Error(1)
}

func (m *mockReportService) Department(ctx context.Context, name string) (domain.GroupStatistics, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.GroupStatistics), args.Error(1)
}

func (m *mockReportService) NeedsSupport(ctx context.Context, page, perPage int) (domain.Page[domain.StudentInsight], error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).(domain.Page[domain.StudentInsight]), args.Error(1)
}

func (m *mockReportService) NeedsFollowUp(ctx context.Context, page, perPage int) (domain.Page[domain.StudentInsight], error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).(domain.Page[domain.StudentInsight]), args.Error(1)
}

func (m *mockReportService) TopImproved(ctx context.Context, n int) ([]domain.StudentInsight, error) {
	args := m.Called(ctx, n)
	out, _ := args.Get(0).([]domain.StudentInsight)
	return out, args.Error(1)
}

func (m *mockReportService) TopDeclined(ctx context.Context, n int) ([]domain.StudentInsight, error) {
	args := m.Called(ctx, n)
	out, _ := args.Get(0).([]domain.StudentInsight)
	return out, args.Error(1)
}

func (m *mockReportService) Batch(ctx context.Context, label string, page, perPage int) (domain.Page[domain.StudentInsight], error) {
	args := m.Called(ctx, label, page, perPage)
	return args.Get(0).(domain.Page[domain.StudentInsight]), args.Error(1)
}

func (m *mockReportService) SourceName() string {
	return m.Called().String(0)
}

func newTestRouter(t *testing.T, svc ReportServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validation := middleware.NewValidationMiddleware(logger, errorHandler)
	h := NewReportHandler(svc, config.DataConfig{PerPage: 10, TopN: 5}, validation, errorHandler, nil, logger)

	r := chi.NewRouter()
	r.Mount("/api/report", h.ReportRoutes())
	r.Mount("/api/departments", h.DepartmentRoutes())
	r.Mount("/api/students", h.StudentRoutes())
	r.Mount("/api/export", h.ExportRoutes())
	return r
}

func scenarioStats(t *testing.T) *domain.OverallStatistics {
	t.Helper()
	stats, err := dataprocessing.ComputeStatistics(testutil.ScenarioRecords())
	require.NoError(t, err)
	return stats
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, apierrors.ContentTypeProblem, rec.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestReportHandler_GetReport(t *testing.T) {
	svc := new(mockReportService)
	stats := scenarioStats(t)
	svc.On("Report", mock.Anything).Return(stats, nil)

	rec := do(t, newTestRouter(t, svc), http.MethodGet, "/api/report")

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.OverallStatistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.TotalStudents)
	require.Len(t, got.Departments, 2)
	assert.Equal(t, "CS", got.Departments[0].Name)
	svc.AssertExpectations(t)
}

func TestReportHandler_ServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		errorCode string
	}{
		{"no snapshot", services.ErrNoDataLoaded, http.StatusNotFound, "NO_DATA"},
		{"empty input", dataprocessing.ErrNoRecords, http.StatusNotFound, "NO_DATA"},
		{"load failure", fmt.Errorf("%w: workbook: %w", services.ErrDataLoad, fmt.Errorf("open: permission denied")),
			http.StatusServiceUnavailable, "DATA_LOAD_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockReportService)
			svc.On("Report", mock.Anything).Return(nil, tt.err)
			svc.On("SourceName").Return("workbook").Maybe()

			rec := do(t, newTestRouter(t, svc), http.MethodGet, "/api/report")

			assert.Equal(t, tt.status, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.errorCode, body["error_code"])
			assert.NotContains(t, rec.Body.String(), "permission denied")
		})
	}
}

func TestReportHandler_Reload(t *testing.T) {
	svc := new(mockReportService)
	snap := &services.Snapshot{
		Records:    testutil.ScenarioRecords(),
		Statistics: scenarioStats(t),
		LoadedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:     "workbook",
	}
	svc.On("Reload", mock.Anything).Return(snap, nil)

	rec := do(t, newTestRouter(t, svc), http.MethodPost, "/api/report/reload")

	require.Equal(t, http.StatusOK, rec.Code)
	var got services.ReloadSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.TotalStudents)
	assert.Equal(t, "workbook", got.Source)
}

func TestReportHandler_ReloadRequiresPost(t *testing.T) {
	svc := new(mockReportService)
	rec := do(t, newTestRouter(t, svc), http.MethodGet, "/api/report/reload")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	svc.AssertNotCalled(t, "Reload", mock.Anything)
}

func TestReportHandler_GetScoreRanges(t *testing.T) {
	svc := new(mockReportService)
	stats := scenarioStats(t)
	svc.On("ScoreRanges", mock.Anything).Return(stats.ScoreRanges, domain.Unbucketed{Attempt1: 1}, nil)

	rec := do(t, newTestRouter(t, svc), http.MethodGet, "/api/report/ranges")

	require.Equal(t, http.StatusOK, rec.Code)
	var got ScoreRangesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.ScoreRanges, 5)
	assert.Equal(t, 1, got.Unbucketed.Attempt1)
}

func TestReportHandler_GetDepartment(t *testing.T) {
	svc := new(mockReportService)
	stats := scenarioStats(t)
	ee, ok := stats.Department("EE")
	require.True(t, ok)
	svc.On("Department", mock.Anything, "EE").Return(ee, nil)
	svc.On("Department", mock.Anything, "Civil Eng").Return(domain.GroupStatistics{}, services.ErrDepartmentNotFound)

	router := newTestRouter(t, svc)

	rec := do(t, router, http.MethodGet, "/api/departments/EE")
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.GroupStatistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "EE", got.Name)
	assert.Equal(t, 1, got.TotalStudents)

	rec = do(t, router, http.MethodGet, "/api/departments/Civil%20Eng")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeProblem(t, rec)["error_code"])
}

func TestReportHandler_GetDepartmentEscapedNames(t *testing.T) {
	tests := []struct {
		name   string
		target string
		dept   string
	}{
		{name: "literal percent escape", target: "/api/departments/R%2541D", dept: "R%41D"},
		{name: "trailing percent", target: "/api/departments/Top%2010%25", dept: "Top 10%"},
		{name: "escaped slash", target: "/api/departments/Mech%2FAuto", dept: "Mech/Auto"},
		{name: "query form", target: "/api/departments?name=Mech%2FAuto", dept: "Mech/Auto"},
		{name: "empty department via query", target: "/api/departments?name=", dept: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockReportService)
			svc.On("Department", mock.Anything, tt.dept).Return(domain.GroupStatistics{Name: tt.dept, TotalStudents: 1}, nil)

			rec := do(t, newTestRouter(t, svc), http.MethodGet, tt.target)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var got domain.GroupStatistics
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.dept, got.Name)
			svc.AssertExpectations(t)
		})
	}
}

func TestReportHandler_ListDepartments(t *testing.T) {
	svc := new(mockReportService)
	svc.On("Departments", mock.Anything).Return(scenarioStats(t).Summaries(), nil)

	rec := do(t, newTestRouter(t, svc), http.MethodGet, "/api/departments")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.DepartmentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, []string{"CS", "EE"}, []string{got[0].Name, got[1].Name})
}

func TestReportHandler_Pagination(t *testing.T) {
	svc := new(mockReportService)
	page := domain.Page[domain.StudentInsight]{Page: 2, PerPage: 1, TotalItems: 2, TotalPages: 2,
		Items: []domain.StudentInsight{domain.NewStudentInsight(testutil.ScenarioRecords()[2])}}
	svc.On("NeedsSupport", mock.Anything, 2, 1).Return(page, nil)
	svc.On("NeedsFollowUp", mock.Anything, 1, 10).Return(domain.Page[domain.StudentInsight]{Page: 1, PerPage: 10}, nil)

	router := newTestRouter(t, svc)

	rec := do(t, router, http.MethodGet, "/api/students/support?page=2&per_page=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Page[domain.StudentInsight]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Page)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Chen", got.Items[0].Name)

	// defaults come from the data config
	rec = do(t, router, http.MethodGet, "/api/students/follow-up")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestReportHandler_PaginationValidation(t *testing.T) {
	tests := []string{
		"/api/students/support?page=0",
		"/api/students/support?per_page=101",
		"/api/students/support?page=abc",
		"/api/students/improved?limit=0",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			svc := new(mockReportService)
			rec := do(t, newTestRouter(t, svc), http.MethodGet, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			decodeProblem(t, rec)
			svc.AssertNotCalled(t, "NeedsSupport", mock.Anything, mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "TopImproved", mock.Anything, mock.Anything)
		})
	}
}

func TestReportHandler_Rankings(t *testing.T) {
	svc := new(mockReportService)
	records := testutil.ScenarioRecords()
	svc.On("TopImproved", mock.Anything, 5).Return(dataprocessing.TopImproved(records, 5), nil)
	svc.On("TopDeclined", mock.Anything, 1).Return(dataprocessing.TopDeclined(records, 1), nil)

	router := newTestRouter(t, svc)

	rec := do(t, router, http.MethodGet, "/api/students/improved")
	require.Equal(t, http.StatusOK, rec.Code)
	var improved []domain.StudentInsight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &improved))
	require.NotEmpty(t, improved)
	assert.Equal(t, "Asha", improved[0].Name)

	rec = do(t, router, http.MethodGet, "/api/students/declined?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var declined []domain.StudentInsight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &declined))
	require.Len(t, declined, 1)
	assert.Equal(t, "Bilal", declined[0].Name)
	svc.AssertExpectations(t)
}

func TestReportHandler_GetBatch(t *testing.T) {
	svc := new(mockReportService)
	svc.On("Batch", mock.Anything, "B", 1, 10).Return(domain.Page[domain.StudentInsight]{Page: 1, PerPage: 10}, nil)

	router := newTestRouter(t, svc)

	rec := do(t, router, http.MethodGet, "/api/students/batches/b")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/students/batches/Z")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeProblem(t, rec)["error_code"])
	svc.AssertExpectations(t)
}

func TestReportHandler_ExportCSV(t *testing.T) {
	svc := new(mockReportService)
	svc.On("Report", mock.Anything).Return(scenarioStats(t), nil)

	rec := do(t, newTestRouter(t, svc), http.MethodGet, "/api/export/report.csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="assessment-report.csv"`)
	body := strings.TrimPrefix(rec.Body.String(), "\ufeff")
	assert.Contains(t, body, "CS,")
	assert.Contains(t, body, "EE,")
}

func TestReportHandler_ExportXLSX(t *testing.T) {
	svc := new(mockReportService)
	svc.On("Report", mock.Anything).Return(scenarioStats(t), nil)

	rec := do(t, newTestRouter(t, svc), http.MethodGet, "/api/export/report.xlsx")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeXLSX, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Departments")
}

func TestReportHandler_ExportWithoutData(t *testing.T) {
	svc := new(mockReportService)
	svc.On("Report", mock.Anything).Return(nil, services.ErrNoDataLoaded)

	rec := do(t, newTestRouter(t, svc), http.MethodGet, "/api/export/report.csv")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}
