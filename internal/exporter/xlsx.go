package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"chavostd/internal/dataset"
)

// XLSXWriter renders a summary as an Excel workbook, one sheet per aggregate.
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new Excel summary writer.
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// Write streams the summary workbook to w.
func (e *XLSXWriter) Write(w io.Writer, summary *dataset.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeKPIs(f, summary); err != nil {
		return err
	}
	if err := e.writeByYear(f, summary); err != nil {
		return err
	}
	if err := e.writeByType(f, summary); err != nil {
		return err
	}
	if err := e.writeByChannel(f, summary); err != nil {
		return err
	}
	if err := e.writeTopProducts(f, summary); err != nil {
		return err
	}
	if len(summary.ByCountry) > 0 {
		if err := e.writeByCountry(f, summary); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	e.logger.Debug("summary workbook generated",
		slog.Int("years", len(summary.ByYear)),
		slog.Int("types", len(summary.ByType)))

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (e *XLSXWriter) writeKPIs(f *excelize.File, summary *dataset.Summary) error {
	const sheet = "Summary"
	f.SetSheetName(f.GetSheetName(0), sheet)
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Rows", summary.KPIs.Rows},
		{"Distinct products", summary.KPIs.DistinctProducts},
		{"Total quantity", summary.KPIs.TotalQuantity},
		{"Total revenue", summary.KPIs.TotalRevenue},
		{"Duplicate rows", summary.Quality.Duplicates},
		{"Dropped rows", summary.Quality.DroppedRows},
	}
	return writeRows(f, sheet, rows)
}

func (e *XLSXWriter) writeByYear(f *excelize.File, summary *dataset.Summary) error {
	const sheet = "By Year"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"Year", "Revenue", "Quantity"}}
	for _, y := range summary.ByYear {
		rows = append(rows, []interface{}{y.YearLabel, y.Revenue, y.Quantity})
	}
	return writeRows(f, sheet, rows)
}

func (e *XLSXWriter) writeByType(f *excelize.File, summary *dataset.Summary) error {
	const sheet = "By Type"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"Product type", "Revenue", "Share"}}
	for _, t := range summary.ByType {
		rows = append(rows, []interface{}{t.ProductType, t.Revenue, t.Share})
	}
	return writeRows(f, sheet, rows)
}

func (e *XLSXWriter) writeByChannel(f *excelize.File, summary *dataset.Summary) error {
	const sheet = "By Channel"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"Channel", "Label", "Revenue"}}
	for _, c := range summary.ByChannel {
		rows = append(rows, []interface{}{c.ChannelID, c.Label, c.Revenue})
	}
	return writeRows(f, sheet, rows)
}

func (e *XLSXWriter) writeTopProducts(f *excelize.File, summary *dataset.Summary) error {
	const sheet = "Top Products"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"Product", "Revenue", "Quantity"}}
	for _, p := range summary.TopProducts {
		rows = append(rows, []interface{}{p.ProductName, p.Revenue, p.Quantity})
	}
	return writeRows(f, sheet, rows)
}

func (e *XLSXWriter) writeByCountry(f *excelize.File, summary *dataset.Summary) error {
	const sheet = "By Country"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"Country", "Revenue"}}
	for _, c := range summary.ByCountry {
		rows = append(rows, []interface{}{c.Country, c.Revenue})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
