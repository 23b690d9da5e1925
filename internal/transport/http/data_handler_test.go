package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chavostd/internal/dataset"
	apierrors "chavostd/internal/errors"
	"chavostd/internal/shared/testutil"
	transporthttp "chavostd/internal/transport/http"
	"chavostd/pkg/contracts/domain"
)

// stubService fakes the dataset service with canned data and captures what
// the handler passed down.
type stubService struct {
	records  []domain.SalesRecord
	stats    dataset.LoadStats
	err      error
	appended []domain.SalesRecord

	lastFilter  dataset.Filter
	lastOpts    dataset.Options
	exports     int
	invalidated int
}

func (s *stubService) Options(priceIsUnit *bool) dataset.Options {
	if priceIsUnit != nil {
		return dataset.Options{PriceIsUnit: *priceIsUnit}
	}
	return dataset.Options{}
}

func (s *stubService) Records(_ context.Context, filter dataset.Filter, opts dataset.Options) ([]domain.SalesRecord, dataset.LoadStats, error) {
	s.lastFilter, s.lastOpts = filter, opts
	return s.records, s.stats, s.err
}

func (s *stubService) Summary(_ context.Context, filter dataset.Filter, opts dataset.Options) (*dataset.Summary, error) {
	s.lastFilter, s.lastOpts = filter, opts
	if s.err != nil {
		return nil, s.err
	}
	return &dataset.Summary{KPIs: dataset.KPISet{Rows: len(s.records)}}, nil
}

func (s *stubService) ProductHistory(_ context.Context, filter dataset.Filter, opts dataset.Options, product string) ([]dataset.YearSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []dataset.YearSummary{{Year: 2023, YearLabel: "2023", Revenue: 1}}, nil
}

func (s *stubService) Filters(context.Context) (dataset.FilterOptions, error) {
	if s.err != nil {
		return dataset.FilterOptions{}, s.err
	}
	return dataset.FilterOptions{Years: []int{2022, 2023}}, nil
}

func (s *stubService) ResolveClient(_ context.Context, query string) (domain.Resolution, error) {
	if s.err != nil {
		return domain.Resolution{}, s.err
	}
	return domain.Resolution{Kind: domain.ResolutionUnique, Match: &domain.ClientRef{ID: query, Label: "Client"}}, nil
}

func (s *stubService) Append(_ context.Context, records []domain.SalesRecord) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, records...)
	return nil
}

func (s *stubService) Replace(_ context.Context, filename string, data []byte) (dataset.LoadStats, error) {
	if s.err != nil {
		return dataset.LoadStats{}, s.err
	}
	return dataset.LoadStats{Kept: 2}, nil
}

func (s *stubService) Invalidate(context.Context) { s.invalidated++ }

func (s *stubService) RecordExport(context.Context) { s.exports++ }

func newHandlerServer(t *testing.T, svc *stubService) *httptest.Server {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := transporthttp.NewDataHandler(svc, logger, apierrors.NewErrorHandler(logger, false), 1024*1024)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := nethttp.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestGetRecords(t *testing.T) {
	svc := &stubService{records: testutil.SampleRecords(), stats: dataset.LoadStats{Kept: 4}}
	srv := newHandlerServer(t, svc)

	code, body := getJSON(t, srv.URL+"/records")

	assert.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(4), body["count"])
}

func TestGetRecordsParsesFilters(t *testing.T) {
	svc := &stubService{}
	srv := newHandlerServer(t, svc)

	code, _ := getJSON(t, srv.URL+"/records?year=2022,2023&type=Champagne&channel=V001&client=V003&product=brut&price_is_unit=true")

	assert.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, []int{2022, 2023}, svc.lastFilter.Years)
	assert.Equal(t, []string{"Champagne"}, svc.lastFilter.ProductTypes)
	assert.Equal(t, []string{"V001"}, svc.lastFilter.Channels)
	assert.Equal(t, []string{"V003"}, svc.lastFilter.Clients)
	assert.Equal(t, "brut", svc.lastFilter.ProductQuery)
	assert.True(t, svc.lastOpts.PriceIsUnit)
}

func TestGetRecordsRejectsBadYear(t *testing.T) {
	srv := newHandlerServer(t, &stubService{})

	code, body := getJSON(t, srv.URL+"/records?year=abc")

	assert.Equal(t, nethttp.StatusBadRequest, code)
	assert.Equal(t, "INVALID_REQUEST", body["error_code"])
}

func TestGetRecordsDatasetMissing(t *testing.T) {
	svc := &stubService{err: &dataset.MissingFileError{Path: "/data/ventes.csv"}}
	srv := newHandlerServer(t, svc)

	code, body := getJSON(t, srv.URL+"/records")

	assert.Equal(t, nethttp.StatusNotFound, code)
	assert.Equal(t, "Dataset Not Found", body["title"])
}

func TestGetSummary(t *testing.T) {
	svc := &stubService{records: testutil.SampleRecords()}
	srv := newHandlerServer(t, svc)

	code, body := getJSON(t, srv.URL+"/summary")

	assert.Equal(t, nethttp.StatusOK, code)
	data := body["data"].(map[string]interface{})
	kpis := data["kpis"].(map[string]interface{})
	assert.Equal(t, float64(4), kpis["rows"])
}

func TestGetFilters(t *testing.T) {
	srv := newHandlerServer(t, &stubService{})

	code, body := getJSON(t, srv.URL+"/filters")

	assert.Equal(t, nethttp.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{float64(2022), float64(2023)}, data["years"])
}

func TestResolveClientRequiresQuery(t *testing.T) {
	srv := newHandlerServer(t, &stubService{})

	code, body := getJSON(t, srv.URL+"/clients/resolve")

	assert.Equal(t, nethttp.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
}

func TestResolveClient(t *testing.T) {
	srv := newHandlerServer(t, &stubService{})

	code, body := getJSON(t, srv.URL+"/clients/resolve?q=V001")

	assert.Equal(t, nethttp.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "unique", data["kind"])
}

func TestProductHistoryRequiresName(t *testing.T) {
	srv := newHandlerServer(t, &stubService{})

	code, _ := getJSON(t, srv.URL+"/products/history")
	assert.Equal(t, nethttp.StatusBadRequest, code)
}

func TestAppendRecords(t *testing.T) {
	svc := &stubService{}
	srv := newHandlerServer(t, svc)

	payload := `{"records":[{"year":2024,"product_type":"Champagne","product_name":"Brut","quantity":5,"amount":2.5,"channel_id":"V001"}]}`
	resp, err := nethttp.Post(srv.URL+"/records", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	require.Len(t, svc.appended, 1)
	assert.Equal(t, "Brut", svc.appended[0].ProductName)
}

func TestAppendRecordsRejectsEmptyPayload(t *testing.T) {
	srv := newHandlerServer(t, &stubService{})

	resp, err := nethttp.Post(srv.URL+"/records", "application/json", bytes.NewBufferString(`{"records":[]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestAppendRecordsRejectsMalformedJSON(t *testing.T) {
	srv := newHandlerServer(t, &stubService{})

	resp, err := nethttp.Post(srv.URL+"/records", "application/json", bytes.NewBufferString(`{not json`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestUpload(t *testing.T) {
	srv := newHandlerServer(t, &stubService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "nouveau.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(testutil.SampleCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := nethttp.Post(srv.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestUploadRequiresFileField(t *testing.T) {
	srv := newHandlerServer(t, &stubService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	resp, err := nethttp.Post(srv.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestInvalidateCache(t *testing.T) {
	svc := &stubService{}
	srv := newHandlerServer(t, svc)

	resp, err := nethttp.Post(srv.URL+"/cache/invalidate", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.invalidated)
}

func TestExportCSV(t *testing.T) {
	svc := &stubService{records: testutil.SampleRecords()}
	srv := newHandlerServer(t, svc)

	resp, err := nethttp.Get(srv.URL + "/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Equal(t, 1, svc.exports)
}

func TestExportXLSX(t *testing.T) {
	svc := &stubService{records: testutil.SampleRecords()}
	srv := newHandlerServer(t, svc)

	resp, err := nethttp.Get(srv.URL + "/export/xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Equal(t, 1, svc.exports)
}

func TestServiceErrorsBecomeProblems(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("backend exploded")}
	srv := newHandlerServer(t, svc)

	code, body := getJSON(t, srv.URL+"/summary")

	assert.Equal(t, nethttp.StatusInternalServerError, code)
	assert.NotContains(t, fmt.Sprint(body["detail"]), "exploded")
}
