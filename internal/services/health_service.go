package services

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ClientCounter reports the number of connected dashboard clients.
// Implemented by the websocket hub.
type ClientCounter interface {
	ClientCount() int
}

// HealthStatus is the /api/health payload.
type HealthStatus struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	UptimeSecs  int64     `json:"uptime_seconds"`
	DatasetPath string    `json:"dataset_path"`
	DatasetOK   bool      `json:"dataset_ok"`
	Clients     int       `json:"clients"`
}

// HealthService reports liveness and the dataset file's availability.
type HealthService struct {
	datasetPath string
	version     string
	started     time.Time
	counter     ClientCounter
	logger      *slog.Logger
}

// NewHealthService creates the health service.
func NewHealthService(datasetPath, version string, counter ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		datasetPath: datasetPath,
		version:     version,
		started:     time.Now(),
		counter:     counter,
		logger:      logger.With(slog.String("component", "health_service")),
	}
}

// Check returns the current health status. The service stays "ok" even when
// the dataset file is missing; the flag lets the dashboard surface it.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:      "ok",
		Version:     s.version,
		Timestamp:   time.Now().UTC(),
		UptimeSecs:  int64(time.Since(s.started).Seconds()),
		DatasetPath: s.datasetPath,
	}

	info, err := os.Stat(s.datasetPath)
	status.DatasetOK = err == nil && !info.IsDir()
	if !status.DatasetOK {
		s.logger.WarnContext(ctx, "dataset file unavailable", slog.String("path", s.datasetPath))
	}
	if s.counter != nil {
		status.Clients = s.counter.ClientCount()
	}
	return status
}
