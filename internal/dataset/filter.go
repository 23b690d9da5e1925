package dataset

import (
	"sort"
	"strings"

	"chavostd/pkg/contracts/domain"
)

// Filter selects a subset of the dataset, mirroring the dashboard sidebar.
// Empty selectors place no constraint.
type Filter struct {
	Years        []int    `json:"years,omitempty"`
	ProductTypes []string `json:"product_types,omitempty"`
	Channels     []string `json:"channels,omitempty"`
	Clients      []string `json:"clients,omitempty"`
	// ProductQuery is a case-insensitive substring filter on the product name.
	ProductQuery string `json:"product_query,omitempty"`
}

// Apply returns the records satisfying every constraint of the filter.
func (f Filter) Apply(records []domain.SalesRecord) []domain.SalesRecord {
	years := intSet(f.Years)
	types := stringSet(f.ProductTypes)
	channels := stringSet(f.Channels)
	clients := stringSet(f.Clients)
	query := strings.ToLower(strings.TrimSpace(f.ProductQuery))

	out := make([]domain.SalesRecord, 0, len(records))
	for _, r := range records {
		if years != nil {
			if _, ok := years[r.Year]; !ok {
				continue
			}
		}
		if types != nil {
			if _, ok := types[r.ProductType]; !ok {
				continue
			}
		}
		if channels != nil {
			if _, ok := channels[r.ChannelID]; !ok {
				continue
			}
		}
		if clients != nil {
			if _, ok := clients[r.ChannelID]; !ok {
				continue
			}
		}
		if query != "" && !strings.Contains(strings.ToLower(r.ProductName), query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterOptions lists the selectable values of the dataset, used to populate
// the sidebar controls.
type FilterOptions struct {
	Years        []int               `json:"years"`
	ProductTypes []string            `json:"product_types"`
	Channels     []string            `json:"channels"`
	Clients      []domain.ClientRef  `json:"clients"`
}

// AvailableFilters derives the selectable filter values from the dataset.
func AvailableFilters(records []domain.SalesRecord) FilterOptions {
	years := make(map[int]struct{})
	types := make(map[string]struct{})
	channels := make(map[string]struct{})
	clients := make(map[domain.ClientRef]struct{})
	for _, r := range records {
		years[r.Year] = struct{}{}
		types[r.ProductType] = struct{}{}
		channels[r.ChannelID] = struct{}{}
		clients[domain.ClientRef{ID: r.ChannelID, Label: r.ClientLabel}] = struct{}{}
	}

	opts := FilterOptions{
		Years:        make([]int, 0, len(years)),
		ProductTypes: make([]string, 0, len(types)),
		Channels:     make([]string, 0, len(channels)),
		Clients:      make([]domain.ClientRef, 0, len(clients)),
	}
	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	for t := range types {
		opts.ProductTypes = append(opts.ProductTypes, t)
	}
	for c := range channels {
		opts.Channels = append(opts.Channels, c)
	}
	for c := range clients {
		opts.Clients = append(opts.Clients, c)
	}

	sort.Ints(opts.Years)
	sort.Strings(opts.ProductTypes)
	sort.Strings(opts.Channels)
	sort.Slice(opts.Clients, func(i, j int) bool {
		if opts.Clients[i].ID != opts.Clients[j].ID {
			return opts.Clients[i].ID < opts.Clients[j].ID
		}
		return opts.Clients[i].Label < opts.Clients[j].Label
	})
	return opts
}

func intSet(values []int) map[int]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func stringSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
