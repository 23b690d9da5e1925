package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
)

// Table is a raw parsed sales file before normalization.
type Table struct {
	Header []string
	Rows   [][]string
	Format Format
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseTable reads a delimited sales file, trying each known format in order
// and accepting the first one whose header splits into at least two columns.
// When every attempt fails, a final unguarded parse is made and its failure
// surfaces as a ParseError.
func ParseTable(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	for _, format := range parseFormats {
		table, err := parseWith(data, format, true)
		if err != nil {
			slog.Debug("parse attempt failed",
				slog.String("format", format.Name),
				slog.String("error", err.Error()))
			continue
		}
		if len(table.Header) < 2 {
			slog.Debug("parse attempt rejected",
				slog.String("format", format.Name),
				slog.Int("columns", len(table.Header)))
			continue
		}
		slog.Debug("parse attempt accepted",
			slog.String("format", format.Name),
			slog.Int("columns", len(table.Header)),
			slog.Int("rows", len(table.Rows)))
		return table, nil
	}

	// Last resort: strict parse with the default format, propagating failure.
	table, err := parseWith(data, defaultFormat, false)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return table, nil
}

// parseWith parses the whole file with one format. In lenient mode ragged
// rows are tolerated, mirroring how the table is sniffed before the format
// is committed to.
func parseWith(data []byte, format Format, lenient bool) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = format.Separator
	r.TrimLeadingSpace = true
	if lenient {
		r.FieldsPerRecord = -1
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read delimited data: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file contains no rows")
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	return &Table{
		Header: header,
		Rows:   records[1:],
		Format: format,
	}, nil
}

// columnIndex maps normalized header names to their positions. The first
// occurrence wins when a name repeats.
func (t *Table) columnIndex() map[string]int {
	index := make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	return index
}

// cell returns the row's value at col, or "" when the row is too short.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
