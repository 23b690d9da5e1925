package dataset

import (
	"context"
	"log/slog"
	"sort"

	"chavostd/pkg/contracts/domain"
)

// Summarizer computes the aggregates the dashboard charts draw. It is the
// single source of truth for revenue aggregation so the HTTP API, the XLSX
// export and the CLI all report identical figures.
type Summarizer struct {
	logger *slog.Logger
	topN   int
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	TopN int // number of products in the top-products ranking
}

// NewSummarizer creates a summarizer with the given configuration.
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopN <= 0 {
		config.TopN = 10
	}
	return &Summarizer{logger: logger, topN: config.TopN}
}

// KPISet is the headline figures of the filtered dataset.
type KPISet struct {
	Rows             int     `json:"rows"`
	DistinctProducts int     `json:"distinct_products"`
	TotalQuantity    float64 `json:"total_quantity"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// YearSummary aggregates revenue and quantity for one year.
type YearSummary struct {
	Year      int     `json:"year"`
	YearLabel string  `json:"year_label"`
	Revenue   float64 `json:"revenue"`
	Quantity  float64 `json:"quantity"`
}

// TypeSummary aggregates revenue for one product type.
type TypeSummary struct {
	ProductType string  `json:"product_type"`
	Revenue     float64 `json:"revenue"`
	Share       float64 `json:"share"` // fraction of total revenue, 0..1
}

// YearTypeSummary aggregates revenue per year and product type.
type YearTypeSummary struct {
	Year        int     `json:"year"`
	YearLabel   string  `json:"year_label"`
	ProductType string  `json:"product_type"`
	Revenue     float64 `json:"revenue"`
}

// ChannelSummary aggregates revenue for one sales channel.
type ChannelSummary struct {
	ChannelID string  `json:"channel_id"`
	Label     string  `json:"label"`
	Revenue   float64 `json:"revenue"`
}

// CountrySummary aggregates revenue for one country.
type CountrySummary struct {
	Country string  `json:"country"`
	Revenue float64 `json:"revenue"`
}

// ProductSummary aggregates revenue and quantity for one product.
type ProductSummary struct {
	ProductName string  `json:"product_name"`
	Revenue     float64 `json:"revenue"`
	Quantity    float64 `json:"quantity"`
}

// PriceStats describes the amount distribution within one product type.
type PriceStats struct {
	ProductType string  `json:"product_type"`
	Count       int     `json:"count"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
}

// QualityStats is a quick data-quality snapshot of the filtered rows.
type QualityStats struct {
	// Duplicates counts rows sharing the candidate key
	// (year, type, name, channel, quantity, amount) with at least one other row.
	Duplicates  int `json:"duplicates"`
	DroppedRows int `json:"dropped_rows"`
}

// Summary is the full aggregate view of a filtered dataset.
type Summary struct {
	KPIs        KPISet            `json:"kpis"`
	ByYear      []YearSummary     `json:"by_year"`
	ByType      []TypeSummary     `json:"by_type"`
	ByYearType  []YearTypeSummary `json:"by_year_type"`
	ByChannel   []ChannelSummary  `json:"by_channel"`
	ByCountry   []CountrySummary  `json:"by_country,omitempty"`
	TopProducts []ProductSummary  `json:"top_products"`
	PriceStats  []PriceStats      `json:"price_stats"`
	Quality     QualityStats      `json:"quality"`
}

// Summarize computes the full aggregate view of the given records.
// stats carries the load-time drop count into the quality snapshot.
func (s *Summarizer) Summarize(ctx context.Context, records []domain.SalesRecord, stats LoadStats) *Summary {
	s.logger.DebugContext(ctx, "summarizing sales records",
		slog.Int("record_count", len(records)))

	summary := &Summary{
		KPIs:        s.kpis(records),
		ByYear:      s.byYear(records),
		ByType:      s.byType(records),
		ByYearType:  s.byYearType(records),
		ByChannel:   s.byChannel(records),
		ByCountry:   s.byCountry(records),
		TopProducts: s.TopProducts(records, s.topN),
		PriceStats:  s.priceStats(records),
		Quality: QualityStats{
			Duplicates:  countDuplicates(records),
			DroppedRows: stats.Dropped,
		},
	}

	s.logger.DebugContext(ctx, "summary generated",
		slog.Int("years", len(summary.ByYear)),
		slog.Int("types", len(summary.ByType)),
		slog.Float64("total_revenue", summary.KPIs.TotalRevenue))

	return summary
}

func (s *Summarizer) kpis(records []domain.SalesRecord) KPISet {
	kpis := KPISet{Rows: len(records)}
	products := make(map[string]struct{})
	for _, r := range records {
		products[r.ProductName] = struct{}{}
		kpis.TotalQuantity += r.Quantity
		kpis.TotalRevenue += r.Revenue
	}
	kpis.DistinctProducts = len(products)
	return kpis
}

func (s *Summarizer) byYear(records []domain.SalesRecord) []YearSummary {
	byYear := make(map[int]*YearSummary)
	for _, r := range records {
		entry, ok := byYear[r.Year]
		if !ok {
			entry = &YearSummary{Year: r.Year, YearLabel: r.YearLabel}
			byYear[r.Year] = entry
		}
		entry.Revenue += r.Revenue
		entry.Quantity += r.Quantity
	}
	out := make([]YearSummary, 0, len(byYear))
	for _, entry := range byYear {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func (s *Summarizer) byType(records []domain.SalesRecord) []TypeSummary {
	byType := make(map[string]float64)
	var total float64
	for _, r := range records {
		byType[r.ProductType] += r.Revenue
		total += r.Revenue
	}
	out := make([]TypeSummary, 0, len(byType))
	for t, revenue := range byType {
		entry := TypeSummary{ProductType: t, Revenue: revenue}
		if total != 0 {
			entry.Share = revenue / total
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ProductType < out[j].ProductType
	})
	return out
}

func (s *Summarizer) byYearType(records []domain.SalesRecord) []YearTypeSummary {
	type key struct {
		year int
		typ  string
	}
	agg := make(map[key]float64)
	for _, r := range records {
		agg[key{r.Year, r.ProductType}] += r.Revenue
	}
	out := make([]YearTypeSummary, 0, len(agg))
	for k, revenue := range agg {
		out = append(out, YearTypeSummary{
			Year:        k.year,
			YearLabel:   yearLabel(k.year),
			ProductType: k.typ,
			Revenue:     revenue,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].ProductType < out[j].ProductType
	})
	return out
}

func (s *Summarizer) byChannel(records []domain.SalesRecord) []ChannelSummary {
	byChannel := make(map[string]*ChannelSummary)
	for _, r := range records {
		entry, ok := byChannel[r.ChannelID]
		if !ok {
			entry = &ChannelSummary{ChannelID: r.ChannelID, Label: r.ClientLabel}
			byChannel[r.ChannelID] = entry
		}
		entry.Revenue += r.Revenue
	}
	out := make([]ChannelSummary, 0, len(byChannel))
	for _, entry := range byChannel {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ChannelID < out[j].ChannelID
	})
	return out
}

func (s *Summarizer) byCountry(records []domain.SalesRecord) []CountrySummary {
	byCountry := make(map[string]float64)
	for _, r := range records {
		if r.Country == "" {
			continue
		}
		byCountry[r.Country] += r.Revenue
	}
	if len(byCountry) == 0 {
		return nil
	}
	out := make([]CountrySummary, 0, len(byCountry))
	for country, revenue := range byCountry {
		out = append(out, CountrySummary{Country: country, Revenue: revenue})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// TopProducts returns the n products with the highest revenue.
func (s *Summarizer) TopProducts(records []domain.SalesRecord, n int) []ProductSummary {
	byProduct := make(map[string]*ProductSummary)
	for _, r := range records {
		entry, ok := byProduct[r.ProductName]
		if !ok {
			entry = &ProductSummary{ProductName: r.ProductName}
			byProduct[r.ProductName] = entry
		}
		entry.Revenue += r.Revenue
		entry.Quantity += r.Quantity
	}
	out := make([]ProductSummary, 0, len(byProduct))
	for _, entry := range byProduct {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ProductName < out[j].ProductName
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ProductHistory returns the yearly revenue/quantity series of one product.
func (s *Summarizer) ProductHistory(records []domain.SalesRecord, productName string) []YearSummary {
	matching := make([]domain.SalesRecord, 0)
	for _, r := range records {
		if r.ProductName == productName {
			matching = append(matching, r)
		}
	}
	return s.byYear(matching)
}

func (s *Summarizer) priceStats(records []domain.SalesRecord) []PriceStats {
	byType := make(map[string][]float64)
	for _, r := range records {
		byType[r.ProductType] = append(byType[r.ProductType], r.Amount)
	}
	out := make([]PriceStats, 0, len(byType))
	for t, amounts := range byType {
		sort.Float64s(amounts)
		stats := PriceStats{
			ProductType: t,
			Count:       len(amounts),
			Min:         amounts[0],
			Max:         amounts[len(amounts)-1],
			Median:      median(amounts),
		}
		var sum float64
		for _, a := range amounts {
			sum += a
		}
		stats.Mean = sum / float64(len(amounts))
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductType < out[j].ProductType })
	return out
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func countDuplicates(records []domain.SalesRecord) int {
	type key struct {
		year    int
		typ     string
		name    string
		channel string
		qty     float64
		amount  float64
	}
	counts := make(map[key]int, len(records))
	for _, r := range records {
		counts[key{r.Year, r.ProductType, r.ProductName, r.ChannelID, r.Quantity, r.Amount}]++
	}
	duplicates := 0
	for _, c := range counts {
		if c > 1 {
			duplicates += c
		}
	}
	return duplicates
}
