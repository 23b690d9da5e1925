// Package exporter serializes filtered sales data for download: CSV for the
// row-level export and an Excel workbook for the aggregate summary.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"chavostd/internal/store"
	"chavostd/pkg/contracts/domain"
)

// CSVWriter writes sales records in the dataset's delimited format.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	BOMPrefix bool // add a UTF-8 BOM so Excel detects the encoding
}

// Write streams records to w. The header grows the optional country and
// client-name columns only when some record carries them, so a re-ingest of
// the export sees the same schema variant as the source.
func (e *CSVWriter) Write(w io.Writer, records []domain.SalesRecord, opts WriteOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	hasCountry, hasClient := false, false
	for _, r := range records {
		if r.Country != "" {
			hasCountry = true
		}
		if r.ClientName != "" {
			hasClient = true
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(store.Header(hasCountry, hasClient)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(store.Row(r, hasCountry, hasClient)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to a CSV file, creating parent directories.
func (e *CSVWriter) WriteFile(path string, records []domain.SalesRecord, opts WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	e.logger.Info("writing CSV export",
		slog.String("path", path),
		slog.Int("record_count", len(records)))

	return e.Write(file, records, opts)
}
