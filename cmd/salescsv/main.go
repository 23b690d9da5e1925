// salescsv is a one-shot companion to ventesd: it normalizes a sales file
// and either prints the aggregate summary or exports the cleaned data.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"chavostd/internal/config"
	"chavostd/internal/dataset"
	"chavostd/internal/exporter"
	"chavostd/internal/infrastructure"
	"chavostd/internal/store"
	"chavostd/pkg/contracts/domain"
)

func main() {
	mode := flag.String("mode", "summary", "summary | export | xlsx")
	in := flag.String("in", "", "input sales file (defaults to the configured dataset path)")
	out := flag.String("out", "", "output file for export/xlsx modes (defaults to the exports directory)")
	priceIsUnit := flag.Bool("price-is-unit", false, "treat the amount column as a unit price (revenue = quantity x amount)")
	topN := flag.Int("top", 10, "size of the top-products ranking")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{Level: "info", Output: "console"},
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if *in == "" {
		*in = cfg.Paths.DatasetPath()
	}

	ctx := context.Background()
	opts := dataset.Options{PriceIsUnit: *priceIsUnit}

	csvStore := store.NewCSVStore(*in, logger)
	records, stats, err := csvStore.Load(ctx, opts)
	if err != nil {
		logger.Error("failed to load dataset",
			slog.String("path", *in),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("dataset loaded",
		slog.String("path", *in),
		slog.String("format", stats.Format),
		slog.Int("rows", stats.Kept),
		slog.Int("dropped", stats.Dropped))

	switch *mode {
	case "summary":
		err = printSummary(ctx, logger, records, stats, *topN)
	case "export":
		err = exportCSV(logger, records, *out, cfg)
	case "xlsx":
		err = exportXLSX(ctx, logger, records, stats, *topN, *out, cfg)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		logger.Error("command failed", slog.String("mode", *mode), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// printSummary writes the aggregate summary to stdout as indented JSON.
func printSummary(ctx context.Context, logger *slog.Logger, records []domain.SalesRecord, stats dataset.LoadStats, topN int) error {
	summarizer := dataset.NewSummarizer(logger, dataset.SummarizerConfig{TopN: topN})
	summary := summarizer.Summarize(ctx, records, stats)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// exportCSV writes the normalized records back out in canonical form.
func exportCSV(logger *slog.Logger, records []domain.SalesRecord, out string, cfg *config.Config) error {
	if out == "" {
		out = cfg.Paths.ExportPath("ventes_normalized.csv")
	}
	writer := exporter.NewCSVWriter(logger)
	if err := writer.WriteFile(out, records, exporter.WriteOptions{BOMPrefix: true}); err != nil {
		return err
	}
	logger.Info("export written", slog.String("path", out), slog.Int("rows", len(records)))
	return nil
}

// exportXLSX writes the summary workbook.
func exportXLSX(ctx context.Context, logger *slog.Logger, records []domain.SalesRecord, stats dataset.LoadStats, topN int, out string, cfg *config.Config) error {
	if out == "" {
		out = cfg.Paths.ExportPath("ventes_summary.xlsx")
	}
	summarizer := dataset.NewSummarizer(logger, dataset.SummarizerConfig{TopN: topN})
	summary := summarizer.Summarize(ctx, records, stats)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	writer := exporter.NewXLSXWriter(logger)
	if err := writer.Write(f, summary); err != nil {
		return err
	}
	logger.Info("workbook written", slog.String("path", out))
	return nil
}
