package dataset

import (
	"log/slog"
	"strconv"

	"chavostd/pkg/contracts/domain"
)

// Options controls how rows are normalized.
type Options struct {
	// PriceIsUnit selects the revenue definition: when true revenue is
	// quantity x amount, otherwise the amount column is already a total.
	PriceIsUnit bool
}

// LoadStats describes what happened to the rows of a load.
type LoadStats struct {
	TotalRows int    `json:"total_rows"`
	Kept      int    `json:"kept"`
	Dropped   int    `json:"dropped"`
	Format    string `json:"format"`
}

// Normalize validates a parsed table against the required-column contract and
// coerces rows into typed SalesRecords. Rows whose year, quantity or amount
// fail numeric coercion are dropped; the drop count is reported in LoadStats.
func Normalize(table *Table, opts Options) ([]domain.SalesRecord, LoadStats, error) {
	stats := LoadStats{TotalRows: len(table.Rows), Format: table.Format.Name}

	index := table.columnIndex()
	var missing []string
	for _, name := range domain.RequiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, stats, &SchemaError{Missing: missing}
	}

	yearCol := index[domain.ColumnYear]
	typeCol := index[domain.ColumnProductType]
	nameCol := index[domain.ColumnProductName]
	qtyCol := index[domain.ColumnQuantity]
	amountCol := index[domain.ColumnAmount]
	channelCol := index[domain.ColumnChannelID]

	countryCol, hasCountry := index[domain.ColumnCountry]
	if !hasCountry {
		// Earlier exports of the dataset used the French column name.
		countryCol, hasCountry = index["pays"]
	}
	clientCol, hasClient := index[domain.ColumnClientName]

	records := make([]domain.SalesRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		year, yearErr := table.Format.ParseNumber(cell(row, yearCol))
		qty, qtyErr := table.Format.ParseNumber(cell(row, qtyCol))
		amount, amountErr := table.Format.ParseNumber(cell(row, amountCol))
		if yearErr != nil || qtyErr != nil || amountErr != nil {
			stats.Dropped++
			continue
		}

		rec := domain.SalesRecord{
			Year:        int(year),
			ProductType: cell(row, typeCol),
			ProductName: cell(row, nameCol),
			Quantity:    qty,
			Amount:      amount,
			ChannelID:   cell(row, channelCol),
		}
		if hasCountry {
			rec.Country = cell(row, countryCol)
		}
		if hasClient {
			rec.ClientName = cell(row, clientCol)
		}
		Derive(&rec, opts)
		records = append(records, rec)
	}

	stats.Kept = len(records)
	if stats.Dropped > 0 {
		slog.Warn("dropped rows with unparsable numeric fields",
			slog.Int("dropped", stats.Dropped),
			slog.Int("kept", stats.Kept))
	}

	return records, stats, nil
}

// Derive fills the computed fields of a record: the categorical year label,
// the revenue figure, and the display client label.
func Derive(rec *domain.SalesRecord, opts Options) {
	rec.YearLabel = yearLabel(rec.Year)
	if opts.PriceIsUnit {
		rec.Revenue = rec.Quantity * rec.Amount
	} else {
		rec.Revenue = rec.Amount
	}
	rec.ClientLabel = rec.Label()
}

// yearLabel renders the year as a categorical string so chart axes never show
// fractional ticks like 2023.5.
func yearLabel(year int) string {
	return strconv.Itoa(year)
}
