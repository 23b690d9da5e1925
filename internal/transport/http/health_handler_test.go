package http_test

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chavostd/internal/services"
	"chavostd/internal/shared/testutil"
	transporthttp "chavostd/internal/transport/http"
)

func TestHealthCheckEndpoint(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := testutil.WriteTempCSV(t, testutil.SampleCSV)
	svc := services.NewHealthService(path, "1.0.0", nil, logger)
	h := transporthttp.NewHealthHandler(svc, logger)

	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest(nethttp.MethodGet, "/api/health", nil))

	require.Equal(t, nethttp.StatusOK, w.Code)

	var status services.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.True(t, status.DatasetOK)
	assert.Equal(t, "1.0.0", status.Version)
}
