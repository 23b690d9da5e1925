// Package services holds the business layer between the HTTP transport and
// the dataset/store packages.
package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"chavostd/internal/dataset"
	"chavostd/internal/infrastructure"
	"chavostd/internal/middleware"
	"chavostd/internal/store"
	"chavostd/internal/validation"
	"chavostd/pkg/contracts/domain"
	"chavostd/pkg/contracts/events"
)

// ChangeNotifier pushes dataset-change events to connected dashboards.
// Implemented by the websocket hub.
type ChangeNotifier interface {
	BroadcastDatasetChange(eventType events.EventType, rows int, traceID string)
}

// DatasetService exposes the dataset operations the API serves: load,
// filter, summarize, resolve, append, replace and export.
type DatasetService struct {
	store       *store.CSVStore
	summarizer  *dataset.Summarizer
	validate    *validator.Validate
	uploads     *validation.UploadValidator
	notifier    ChangeNotifier
	metrics     *infrastructure.DatasetMetrics
	logger      *slog.Logger
	defaultOpts dataset.Options
}

// DatasetServiceConfig collects the service dependencies.
type DatasetServiceConfig struct {
	Store       *store.CSVStore
	Summarizer  *dataset.Summarizer
	Uploads     *validation.UploadValidator
	Notifier    ChangeNotifier
	Metrics     *infrastructure.DatasetMetrics
	Logger      *slog.Logger
	PriceIsUnit bool
}

// NewDatasetService creates the dataset service.
func NewDatasetService(cfg DatasetServiceConfig) *DatasetService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		store:       cfg.Store,
		summarizer:  cfg.Summarizer,
		validate:    validator.New(),
		uploads:     cfg.Uploads,
		notifier:    cfg.Notifier,
		metrics:     cfg.Metrics,
		logger:      logger.With(slog.String("component", "dataset_service")),
		defaultOpts: dataset.Options{PriceIsUnit: cfg.PriceIsUnit},
	}
}

// Options resolves the per-request revenue definition. A nil override keeps
// the configured default.
func (s *DatasetService) Options(priceIsUnit *bool) dataset.Options {
	opts := s.defaultOpts
	if priceIsUnit != nil {
		opts.PriceIsUnit = *priceIsUnit
	}
	return opts
}

// Records returns the filtered dataset.
func (s *DatasetService) Records(ctx context.Context, filter dataset.Filter, opts dataset.Options) ([]domain.SalesRecord, dataset.LoadStats, error) {
	records, stats, err := s.load(ctx, opts)
	if err != nil {
		return nil, stats, err
	}
	return filter.Apply(records), stats, nil
}

// Summary returns the aggregate view of the filtered dataset.
func (s *DatasetService) Summary(ctx context.Context, filter dataset.Filter, opts dataset.Options) (*dataset.Summary, error) {
	records, stats, err := s.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.summarizer.Summarize(ctx, filter.Apply(records), stats), nil
}

// ProductHistory returns the yearly series of one product under the filter.
func (s *DatasetService) ProductHistory(ctx context.Context, filter dataset.Filter, opts dataset.Options, product string) ([]dataset.YearSummary, error) {
	records, _, err := s.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.summarizer.ProductHistory(filter.Apply(records), product), nil
}

// Filters returns the selectable filter values of the whole dataset.
func (s *DatasetService) Filters(ctx context.Context) (dataset.FilterOptions, error) {
	records, _, err := s.load(ctx, s.defaultOpts)
	if err != nil {
		return dataset.FilterOptions{}, err
	}
	return dataset.AvailableFilters(records), nil
}

// ResolveClient matches free-text input against the dataset's clients.
func (s *DatasetService) ResolveClient(ctx context.Context, query string) (domain.Resolution, error) {
	records, _, err := s.load(ctx, s.defaultOpts)
	if err != nil {
		return domain.Resolution{}, err
	}
	resolution := dataset.Resolve(records, query)

	s.logger.DebugContext(ctx, "client resolved",
		slog.String("query", query),
		slog.String("kind", string(resolution.Kind)),
		slog.Int("candidates", len(resolution.Candidates)))
	return resolution, nil
}

// Append validates and appends rows to the backing file, then notifies
// connected dashboards.
func (s *DatasetService) Append(ctx context.Context, records []domain.SalesRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no records supplied")
	}
	for i := range records {
		if err := s.validate.Struct(&records[i]); err != nil {
			return fmt.Errorf("record %d invalid: %w", i, err)
		}
	}

	if err := s.store.Append(ctx, records); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.Appends.Add(ctx, 1)
	}
	if s.notifier != nil {
		s.notifier.BroadcastDatasetChange(events.EventDatasetAppended, len(records), middleware.GetRequestID(ctx))
	}
	return nil
}

// Replace installs uploaded content as the new dataset after validation.
func (s *DatasetService) Replace(ctx context.Context, filename string, data []byte) (dataset.LoadStats, error) {
	if s.uploads != nil {
		if err := s.uploads.ValidateFilename(filename); err != nil {
			return dataset.LoadStats{}, err
		}
		if err := s.uploads.ValidateContent(data); err != nil {
			return dataset.LoadStats{}, err
		}
	}

	stats, err := s.store.Replace(ctx, bytes.NewReader(data))
	if err != nil {
		return stats, err
	}

	if s.notifier != nil {
		s.notifier.BroadcastDatasetChange(events.EventDatasetReplaced, stats.Kept, middleware.GetRequestID(ctx))
	}
	return stats, nil
}

// Invalidate discards the cached parse and notifies dashboards.
func (s *DatasetService) Invalidate(ctx context.Context) {
	s.store.Invalidate()
	if s.notifier != nil {
		s.notifier.BroadcastDatasetChange(events.EventDatasetInvalidated, 0, middleware.GetRequestID(ctx))
	}
}

// RecordExport counts an export download.
func (s *DatasetService) RecordExport(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.Exports.Add(ctx, 1)
	}
}

// DatasetPath returns the backing file path, used by health checks.
func (s *DatasetService) DatasetPath() string {
	return s.store.Path()
}

func (s *DatasetService) load(ctx context.Context, opts dataset.Options) ([]domain.SalesRecord, dataset.LoadStats, error) {
	start := time.Now()
	records, stats, err := s.store.Load(ctx, opts)
	if err != nil {
		return nil, stats, err
	}

	if s.metrics != nil {
		s.metrics.Loads.Add(ctx, 1)
		s.metrics.LoadDuration.Record(ctx, time.Since(start).Seconds())
		s.metrics.RowsKept.Add(ctx, int64(stats.Kept))
		s.metrics.RowsDropped.Add(ctx, int64(stats.Dropped))
	}
	return records, stats, nil
}
