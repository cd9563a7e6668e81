package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assesspulse/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "wrapped context canceled",
			err:        fmt.Errorf("reload: %w", context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "no data api error",
			err:        ErrNoData,
			wantStatus: http.StatusNotFound,
			wantType:   TypeDataNotFound,
			wantDetail: "No assessment data loaded",
		},
		{
			name:       "validation api error",
			err:        ErrValidation("per_page", "per_page must be at most 100"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "parsing app error hides cause",
			err:        NewParsingError("failed to open workbook", stderrors.New("secret path /etc/x")),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDataLoadFailed,
			wantDetail: DataLoadFailedMessage,
		},
		{
			name:       "network app error",
			err:        fmt.Errorf("load: %w", NewNetworkError("failed to read from sheets", nil)),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDataLoadFailed,
		},
		{
			name:       "not found app error",
			err:        NewNotFoundError("department"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "config app error",
			err:        NewConfigError("bad", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "plain not found string",
			err:        stderrors.New("batch not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "unknown error",
			err:        stderrors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, ContentTypeProblem, rec.Header().Get("Content-Type"))

			got := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, got["type"])
			assert.Equal(t, "/api/report", got["instance"])
			assert.NotContains(t, got, "stack")
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, got["detail"])
			}
			assert.NotContains(t, rec.Body.String(), "secret path")

			testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")
			assert.True(t, logs.ContainsAttr("component", "error_handler"))
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()

	NewErrorHandler(logger, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, logs.Count())
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()

	NewErrorHandler(logger, true).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), stderrors.New("boom"))

	got := decodeProblem(t, rec)
	assert.Contains(t, got, "stack")
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/report", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "DELETE"))
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("bad bucket")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "bad bucket")
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestErrorMiddlewareLogsSanitizedBody(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	m := NewErrorMiddleware(NewErrorHandler(logger, false), logger)

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	body := `{"level":"error","api_key":"k-123","message":"chart failed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	m.Handler(failing).ServeHTTP(rec, req)

	records := logs.GetRecordsByLevel(slog.LevelWarn)
	require.Len(t, records, 1)
	logged, ok := records[0].Attrs["request_body"].(string)
	require.True(t, ok)
	assert.Contains(t, logged, "[REDACTED]")
	assert.NotContains(t, logged, "k-123")
}

func TestSanitizeRequestBodyNonJSON(t *testing.T) {
	assert.Equal(t, "plain text", sanitizeRequestBody("plain text"))
}
