// Package store owns the CSV file backing the sales dataset. It caches the
// parsed result keyed by the file's content hash so repeat loads are free
// until the file changes, and serializes whole-file rewrites for appends.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"chavostd/internal/dataset"
	"chavostd/pkg/contracts/domain"
)

// CSVStore loads and rewrites the sales dataset file.
//
// The CSV file is a single-writer resource: Append and Replace rewrite it
// whole while holding the store lock, but nothing guards against another
// process writing the same file.
type CSVStore struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	cached *cacheEntry
}

// cacheEntry is one memoized load, keyed by content hash and the options it
// was normalized with.
type cacheEntry struct {
	hash    string
	opts    dataset.Options
	records []domain.SalesRecord
	stats   dataset.LoadStats
	format  dataset.Format
}

// NewCSVStore creates a store for the dataset file at path.
func NewCSVStore(path string, logger *slog.Logger) *CSVStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVStore{
		path:   path,
		logger: logger.With(slog.String("component", "csv_store")),
	}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Load returns the normalized dataset, reusing the cached parse when the
// file content and options are unchanged.
func (s *CSVStore) Load(ctx context.Context, opts dataset.Options) ([]domain.SalesRecord, dataset.LoadStats, error) {
	data, err := s.readFile()
	if err != nil {
		return nil, dataset.LoadStats{}, err
	}
	hash := contentHash(data)

	s.mu.RLock()
	if c := s.cached; c != nil && c.hash == hash && c.opts == opts {
		records, stats := c.records, c.stats
		s.mu.RUnlock()
		s.logger.DebugContext(ctx, "dataset served from cache",
			slog.String("hash", hash[:12]),
			slog.Int("rows", len(records)))
		return records, stats, nil
	}
	s.mu.RUnlock()

	table, err := dataset.ParseTable(data)
	if err != nil {
		return nil, dataset.LoadStats{}, err
	}
	records, stats, err := dataset.Normalize(table, opts)
	if err != nil {
		return nil, stats, err
	}

	s.mu.Lock()
	s.cached = &cacheEntry{
		hash:    hash,
		opts:    opts,
		records: records,
		stats:   stats,
		format:  table.Format,
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", s.path),
		slog.String("format", stats.Format),
		slog.Int("rows", stats.Kept),
		slog.Int("dropped", stats.Dropped))

	return records, stats, nil
}

// Invalidate discards the cached parse. Called after every write.
func (s *CSVStore) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	s.logger.Debug("dataset cache invalidated")
}

// Append validates new records against the column contract and rewrites the
// whole file with them concatenated. No atomic rename, no deduplication;
// last writer wins, matching the dataset's single-writer assumption.
func (s *CSVStore) Append(ctx context.Context, records []domain.SalesRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to append")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFile()
	if err != nil {
		return err
	}
	table, err := dataset.ParseTable(data)
	if err != nil {
		return err
	}
	// The existing file must satisfy the schema before it is grown.
	existing, _, err := dataset.Normalize(table, dataset.Options{})
	if err != nil {
		return err
	}

	hasCountry, hasClient := optionalColumns(existing, records)
	rows := append(existing, records...)
	if err := writeCSV(s.path, rows, hasCountry, hasClient); err != nil {
		return fmt.Errorf("rewrite dataset: %w", err)
	}

	s.cached = nil
	s.logger.InfoContext(ctx, "records appended",
		slog.Int("appended", len(records)),
		slog.Int("total", len(rows)))
	return nil
}

// Replace installs the uploaded content as the new backing dataset. The
// content must pass the full parse+normalize pipeline before anything is
// written.
func (s *CSVStore) Replace(ctx context.Context, r io.Reader) (dataset.LoadStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return dataset.LoadStats{}, fmt.Errorf("read upload: %w", err)
	}

	table, err := dataset.ParseTable(data)
	if err != nil {
		return dataset.LoadStats{}, err
	}
	_, stats, err := dataset.Normalize(table, dataset.Options{})
	if err != nil {
		return stats, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return stats, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return stats, fmt.Errorf("write dataset: %w", err)
	}
	s.cached = nil

	s.logger.InfoContext(ctx, "dataset replaced",
		slog.String("path", s.path),
		slog.Int("rows", stats.Kept),
		slog.Int("dropped", stats.Dropped))
	return stats, nil
}

func (s *CSVStore) readFile() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &dataset.MissingFileError{Path: s.path, Err: err}
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return data, nil
}

// optionalColumns reports whether any row carries a country or client name,
// so the rewritten header only grows when the data needs it.
func optionalColumns(existing, appended []domain.SalesRecord) (hasCountry, hasClient bool) {
	for _, set := range [][]domain.SalesRecord{existing, appended} {
		for _, r := range set {
			if r.Country != "" {
				hasCountry = true
			}
			if r.ClientName != "" {
				hasClient = true
			}
		}
	}
	return hasCountry, hasClient
}

// writeCSV rewrites the dataset in the exporter's plain comma format.
func writeCSV(path string, records []domain.SalesRecord, hasCountry, hasClient bool) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Header(hasCountry, hasClient)); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write(Row(r, hasCountry, hasClient)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Header builds the CSV header for the dataset layout.
func Header(hasCountry, hasClient bool) []string {
	header := append([]string(nil), domain.RequiredColumns...)
	if hasCountry {
		header = append(header, domain.ColumnCountry)
	}
	if hasClient {
		header = append(header, domain.ColumnClientName)
	}
	return header
}

// Row serializes one record in the dataset layout.
func Row(r domain.SalesRecord, hasCountry, hasClient bool) []string {
	format := dataset.Format{}
	row := []string{
		fmt.Sprintf("%d", r.Year),
		r.ProductType,
		r.ProductName,
		format.FormatNumber(r.Quantity),
		format.FormatNumber(r.Amount),
		r.ChannelID,
	}
	if hasCountry {
		row = append(row, r.Country)
	}
	if hasClient {
		row = append(row, r.ClientName)
	}
	return row
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
