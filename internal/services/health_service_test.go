package services_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"chavostd/internal/services"
	"chavostd/internal/shared/testutil"
)

type fixedCounter int

func (c fixedCounter) ClientCount() int { return int(c) }

func TestHealthCheckWithDataset(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := testutil.WriteTempCSV(t, testutil.SampleCSV)
	svc := services.NewHealthService(path, "1.0.0", fixedCounter(2), logger)

	status := svc.Check(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.True(t, status.DatasetOK)
	assert.Equal(t, path, status.DatasetPath)
	assert.Equal(t, 2, status.Clients)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthCheckMissingDataset(t *testing.T) {
	logger, captured := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "absent.csv")
	svc := services.NewHealthService(path, "1.0.0", nil, logger)

	status := svc.Check(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.False(t, status.DatasetOK)
	assert.Zero(t, status.Clients)
	assert.True(t, captured.ContainsMessage("dataset file unavailable"))
}
