package http

import (
	"context"

	"chavostd/internal/dataset"
	"chavostd/pkg/contracts/domain"
)

// DataServiceInterface is the dataset surface the handlers depend on.
// Satisfied by *services.DatasetService; tests substitute a mock.
type DataServiceInterface interface {
	Options(priceIsUnit *bool) dataset.Options
	Records(ctx context.Context, filter dataset.Filter, opts dataset.Options) ([]domain.SalesRecord, dataset.LoadStats, error)
	Summary(ctx context.Context, filter dataset.Filter, opts dataset.Options) (*dataset.Summary, error)
	ProductHistory(ctx context.Context, filter dataset.Filter, opts dataset.Options, product string) ([]dataset.YearSummary, error)
	Filters(ctx context.Context) (dataset.FilterOptions, error)
	ResolveClient(ctx context.Context, query string) (domain.Resolution, error)
	Append(ctx context.Context, records []domain.SalesRecord) error
	Replace(ctx context.Context, filename string, data []byte) (dataset.LoadStats, error)
	Invalidate(ctx context.Context)
	RecordExport(ctx context.Context)
}
