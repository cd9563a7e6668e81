package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assesspulse/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		ServiceName:   "assesspulse-test",
		EnableMetrics: true,
		EnableTracing: true,
		TraceExporter: "none",
	}, quietLogger())
	require.NoError(t, err)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelDisabled(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Meter)

	metrics, err := CreateReportMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordLoad(context.Background(), "static", 3, time.Millisecond, nil)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelUnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{EnableTracing: true, TraceExporter: "zipkin"}, quietLogger())
	assert.Error(t, err)
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{EnableTracing: true, TraceExporter: "none"}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "compute")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Empty(t, TraceIDFromContext(context.Background()))

	SetSpanAttributes(ctx, map[string]interface{}{
		"students": 3, "department": "CSE", "rate": 66.7, "ok": true, "n": int64(2), "other": []int{1},
	})
	RecordError(ctx, assert.AnError)
	RecordError(ctx, nil)
}

func TestReportMetricsExposed(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{EnableMetrics: true}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	httpMetrics, err := CreateHTTPMetrics(providers.Meter)
	require.NoError(t, err)
	httpMetrics.RequestsTotal.Add(context.Background(), 1)

	metrics, err := CreateReportMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordLoad(ctx, "workbook", 6, 20*time.Millisecond, nil)
	metrics.RecordLoad(ctx, "workbook", 0, time.Millisecond, assert.AnError)
	metrics.RecordCompute(ctx, 2*time.Millisecond, 1)
	metrics.RecordExport(ctx, "csv")

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "assessment_records_loaded")
	assert.Contains(t, body, "assessment_load_failures_total")
	assert.Contains(t, body, "assessment_exports_total")
	assert.Contains(t, body, "http_requests_total")
}

func TestNilReportMetrics(t *testing.T) {
	var m *ReportMetrics
	assert.NotPanics(t, func() {
		m.RecordLoad(context.Background(), "x", 1, time.Second, nil)
		m.RecordCompute(context.Background(), time.Second, 0)
		m.RecordExport(context.Background(), "json")
	})
}
