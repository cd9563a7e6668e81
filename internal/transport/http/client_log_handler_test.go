package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "assesspulse/internal/errors"
	"assesspulse/internal/middleware"
	"assesspulse/internal/shared/testutil"
)

func TestClientLogHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedLevel  slog.Level
		expectedMsg    string
	}{
		{
			name:           "info entry with data",
			body:           `{"level":"info","message":"report opened","source":"dashboard","data":{"tab":"ranges"}}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelInfo,
			expectedMsg:    "report opened",
		},
		{
			name:           "error entry",
			body:           `{"level":"error","message":"chart failed"}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelError,
			expectedMsg:    "chart failed",
		},
		{
			name:           "missing level defaults to info",
			body:           `{"message":"no level"}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelInfo,
			expectedMsg:    "no level",
		},
		{
			name:           "unknown level rejected",
			body:           `{"level":"fatal","message":"boom"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing message rejected",
			body:           `{"level":"warn"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "control characters rejected",
			body:           `{"level":"warn","message":"bad\u0007bell"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			body:           `{invalid`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := testutil.NewTestLogger(t)
			errorHandler := apierrors.NewErrorHandler(logger, false)
			handler := NewClientLogHandler(middleware.NewValidationMiddleware(logger, errorHandler), errorHandler, logger)

			req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.Handle(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, apierrors.ContentTypeProblem, rec.Header().Get("Content-Type"))
				return
			}

			var resp LogResponse
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			testutil.AssertLogContains(t, buf, tt.expectedLevel, tt.expectedMsg)
		})
	}
}
