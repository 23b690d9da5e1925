package dataset

import (
	"sort"
	"strings"

	"chavostd/pkg/contracts/domain"
)

// Resolve matches free-text input against the dataset's clients.
//
// Matching tiers, first non-empty one wins:
//  1. exact, case-sensitive match on the channel identifier
//  2. exact, case-insensitive match on the display label
//  3. case-insensitive substring match on identifier or label
//
// Distinct (id, label) pairs are deduplicated; a single pair is a unique
// match, several pairs are returned as candidates for disambiguation.
// Pure function of its inputs.
func Resolve(records []domain.SalesRecord, query string) domain.Resolution {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Resolution{Kind: domain.ResolutionNone}
	}
	lowered := strings.ToLower(query)

	exactID := collect(records, func(r domain.SalesRecord) bool {
		return r.ChannelID == query
	})
	if len(exactID) > 0 {
		return resolution(exactID)
	}

	exactLabel := collect(records, func(r domain.SalesRecord) bool {
		return strings.ToLower(r.ClientLabel) == lowered
	})
	if len(exactLabel) > 0 {
		return resolution(exactLabel)
	}

	partial := collect(records, func(r domain.SalesRecord) bool {
		return strings.Contains(strings.ToLower(r.ChannelID), lowered) ||
			strings.Contains(strings.ToLower(r.ClientLabel), lowered)
	})
	if len(partial) > 0 {
		return resolution(partial)
	}

	return domain.Resolution{Kind: domain.ResolutionNone}
}

// collect gathers the distinct (id, label) pairs of records satisfying match,
// sorted for deterministic output.
func collect(records []domain.SalesRecord, match func(domain.SalesRecord) bool) []domain.ClientRef {
	seen := make(map[domain.ClientRef]struct{})
	var refs []domain.ClientRef
	for _, r := range records {
		if !match(r) {
			continue
		}
		ref := domain.ClientRef{ID: r.ChannelID, Label: r.ClientLabel}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].ID != refs[j].ID {
			return refs[i].ID < refs[j].ID
		}
		return refs[i].Label < refs[j].Label
	})
	return refs
}

func resolution(refs []domain.ClientRef) domain.Resolution {
	if len(refs) == 1 {
		return domain.Resolution{Kind: domain.ResolutionUnique, Match: &refs[0]}
	}
	return domain.Resolution{Kind: domain.ResolutionAmbiguous, Candidates: refs}
}
