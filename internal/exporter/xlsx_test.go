package exporter_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"chavostd/internal/dataset"
	"chavostd/internal/exporter"
	"chavostd/internal/shared/testutil"
)

func buildSummary(t *testing.T) *dataset.Summary {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	s := dataset.NewSummarizer(logger, dataset.SummarizerConfig{TopN: 10})
	return s.Summarize(context.Background(), testutil.SampleRecords(), dataset.LoadStats{Dropped: 1})
}

func TestXLSXWriteSheets(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	w := exporter.NewXLSXWriter(logger)

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, buildSummary(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t,
		[]string{"Summary", "By Year", "By Type", "By Channel", "Top Products", "By Country"},
		f.GetSheetList())
}

func TestXLSXWriteContent(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	w := exporter.NewXLSXWriter(logger)

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, buildSummary(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("By Year")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Year", "Revenue", "Quantity"}, rows[0])
	assert.Equal(t, "2022", rows[1][0])

	dropped, err := f.GetCellValue("Summary", "B7")
	require.NoError(t, err)
	assert.Equal(t, "1", dropped)
}

func TestXLSXOmitsCountrySheetWithoutData(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	w := exporter.NewXLSXWriter(logger)

	records := testutil.SampleRecords()
	for i := range records {
		records[i].Country = ""
	}
	s := dataset.NewSummarizer(logger, dataset.SummarizerConfig{})
	summary := s.Summarize(context.Background(), records, dataset.LoadStats{})

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.NotContains(t, f.GetSheetList(), "By Country")
}
