package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chavostd/internal/dataset"
	"chavostd/internal/services"
	"chavostd/internal/shared/testutil"
	"chavostd/internal/store"
	"chavostd/internal/validation"
	"chavostd/pkg/contracts/domain"
	"chavostd/pkg/contracts/events"
)

type recordedEvent struct {
	eventType events.EventType
	rows      int
}

type spyNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *spyNotifier) BroadcastDatasetChange(eventType events.EventType, rows int, traceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{eventType: eventType, rows: rows})
}

func (s *spyNotifier) recorded() []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedEvent(nil), s.events...)
}

func newService(t *testing.T, content string) (*services.DatasetService, *spyNotifier) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	notifier := &spyNotifier{}
	svc := services.NewDatasetService(services.DatasetServiceConfig{
		Store:      store.NewCSVStore(testutil.WriteTempCSV(t, content), logger),
		Summarizer: dataset.NewSummarizer(logger, dataset.SummarizerConfig{TopN: 10}),
		Uploads:    validation.NewUploadValidator(1024*1024, logger),
		Notifier:   notifier,
		Logger:     logger,
	})
	return svc, notifier
}

func TestOptionsOverride(t *testing.T) {
	svc, _ := newService(t, testutil.SampleCSV)

	assert.False(t, svc.Options(nil).PriceIsUnit)

	override := true
	assert.True(t, svc.Options(&override).PriceIsUnit)

	override = false
	assert.False(t, svc.Options(&override).PriceIsUnit)
}

func TestRecordsApplyFilter(t *testing.T) {
	svc, _ := newService(t, testutil.SampleCSV)

	records, stats, err := svc.Records(context.Background(),
		dataset.Filter{Years: []int{2023}}, dataset.Options{})
	require.NoError(t, err)

	assert.Len(t, records, 2)
	// Stats describe the full load, not the filtered subset.
	assert.Equal(t, 4, stats.Kept)
}

func TestSummaryOfFilteredSet(t *testing.T) {
	svc, _ := newService(t, testutil.SampleCSV)

	summary, err := svc.Summary(context.Background(),
		dataset.Filter{ProductTypes: []string{"Champagne"}}, dataset.Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.KPIs.Rows)
	assert.InDelta(t, 8.5, summary.KPIs.TotalRevenue, 1e-9)
}

func TestFiltersListsDatasetValues(t *testing.T) {
	svc, _ := newService(t, testutil.SampleCSV)

	opts, err := svc.Filters(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{2022, 2023}, opts.Years)
	assert.Len(t, opts.Clients, 3)
}

func TestResolveClientThroughService(t *testing.T) {
	svc, _ := newService(t, testutil.SampleCSV)

	res, err := svc.ResolveClient(context.Background(), "V001")
	require.NoError(t, err)

	assert.Equal(t, domain.ResolutionUnique, res.Kind)
}

func TestAppendValidRecordsBroadcasts(t *testing.T) {
	svc, notifier := newService(t, testutil.SampleCSV)
	ctx := context.Background()

	err := svc.Append(ctx, []domain.SalesRecord{{
		Year: 2024, ProductType: "Champagne", ProductName: "Millesime",
		Quantity: 5, Amount: 9.5, ChannelID: "V004",
	}})
	require.NoError(t, err)

	records, _, err := svc.Records(ctx, dataset.Filter{}, dataset.Options{})
	require.NoError(t, err)
	assert.Len(t, records, 5)

	evts := notifier.recorded()
	require.Len(t, evts, 1)
	assert.Equal(t, events.EventDatasetAppended, evts[0].eventType)
	assert.Equal(t, 1, evts[0].rows)
}

func TestAppendRejectsInvalidRecord(t *testing.T) {
	svc, notifier := newService(t, testutil.SampleCSV)

	err := svc.Append(context.Background(), []domain.SalesRecord{{
		// Year and product type missing.
		ProductName: "Millesime", ChannelID: "V004",
	}})

	assert.Error(t, err)
	assert.Empty(t, notifier.recorded())
}

func TestAppendRejectsEmptyBatch(t *testing.T) {
	svc, _ := newService(t, testutil.SampleCSV)
	assert.Error(t, svc.Append(context.Background(), nil))
}

func TestReplaceValidatesAndBroadcasts(t *testing.T) {
	svc, notifier := newService(t, testutil.SampleCSV)
	ctx := context.Background()

	stats, err := svc.Replace(ctx, "nouveau.csv", []byte(testutil.SampleSemicolonCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Kept)

	evts := notifier.recorded()
	require.Len(t, evts, 1)
	assert.Equal(t, events.EventDatasetReplaced, evts[0].eventType)
	assert.Equal(t, 2, evts[0].rows)
}

func TestReplaceRejectsBadExtension(t *testing.T) {
	svc, notifier := newService(t, testutil.SampleCSV)

	_, err := svc.Replace(context.Background(), "malware.exe", []byte(testutil.SampleCSV))

	assert.Error(t, err)
	assert.Empty(t, notifier.recorded())
}

func TestInvalidateBroadcasts(t *testing.T) {
	svc, notifier := newService(t, testutil.SampleCSV)

	svc.Invalidate(context.Background())

	evts := notifier.recorded()
	require.Len(t, evts, 1)
	assert.Equal(t, events.EventDatasetInvalidated, evts[0].eventType)
}
