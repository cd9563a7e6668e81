package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assesspulse/internal/shared/testutil"
	"assesspulse/pkg/contracts"
	"assesspulse/pkg/contracts/domain"
)

func TestHealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService(nil, "", logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, StatusOK, status.Status)
	assert.Equal(t, contracts.Version, status.Version)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, StatusAlive, live.Status)
	assert.Contains(t, live.Runtime, "goroutines")
}

func TestReadinessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	dataDir := t.TempDir()

	t.Run("no report service", func(t *testing.T) {
		status := NewHealthService(nil, dataDir, logger).ReadinessCheck(context.Background())
		assert.Equal(t, StatusNotReady, status.Status)
		assert.Equal(t, StatusReady, status.Services["data_dir"].Status)
	})

	t.Run("not loaded yet", func(t *testing.T) {
		svc := newTestService(t, &stubSource{records: testutil.ScenarioRecords()})
		status := NewHealthService(svc, dataDir, logger).ReadinessCheck(context.Background())
		assert.Equal(t, StatusNotReady, status.Status)
		assert.Contains(t, status.Services["report"].Message, "stub")
	})

	t.Run("loaded", func(t *testing.T) {
		svc := newTestService(t, &stubSource{records: testutil.ScenarioRecords()})
		_, err := svc.Reload(context.Background())
		require.NoError(t, err)

		status := NewHealthService(svc, dataDir, logger).ReadinessCheck(context.Background())
		assert.Equal(t, StatusReady, status.Status)
		assert.Contains(t, status.Services["report"].Message, "3 students")
	})

	t.Run("empty source", func(t *testing.T) {
		svc := newTestService(t, &stubSource{records: []domain.StudentRecord{}})
		_, err := svc.Reload(context.Background())
		require.NoError(t, err)

		status := NewHealthService(svc, dataDir, logger).ReadinessCheck(context.Background())
		assert.Equal(t, StatusNotReady, status.Status)
	})

	t.Run("missing data dir", func(t *testing.T) {
		svc := newTestService(t, &stubSource{records: testutil.ScenarioRecords()})
		_, err := svc.Reload(context.Background())
		require.NoError(t, err)

		status := NewHealthService(svc, filepath.Join(dataDir, "absent"), logger).ReadinessCheck(context.Background())
		assert.Equal(t, StatusNotReady, status.Status)
		assert.Equal(t, StatusNotReady, status.Services["data_dir"].Status)
	})
}

func TestVersion(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewHealthService(nil, "", logger).Version()

	assert.Equal(t, contracts.Version, v.Version)
	assert.Equal(t, contracts.APIVersion, v.APIVersion)
	assert.False(t, v.StartTime.IsZero())
	assert.GreaterOrEqual(t, v.UptimeSeconds, 0.0)
}
