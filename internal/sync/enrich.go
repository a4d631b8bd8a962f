package sync

import (
	"sort"

	"pairhub/internal/records"
	"pairhub/pkg/domain"
)

// EnrichedRecord is a stored record plus its author's resolved display name.
// Derived, never persisted.
type EnrichedRecord struct {
	records.Record
	AuthorName string `json:"author_name"`
}

// enrich sorts rows into the table's canonical order and attaches author
// names. Authors absent from the map get the empty string.
func enrich(table records.Table, rows []records.Record, names map[domain.UserID]string) []EnrichedRecord {
	sorted := make([]records.Record, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return table.Less(sorted[i], sorted[j]) })

	out := make([]EnrichedRecord, len(sorted))
	for i, row := range sorted {
		out[i] = EnrichedRecord{Record: row, AuthorName: names[row.AuthorID]}
	}
	return out
}

// authorsOf returns the distinct author set of the rows.
func authorsOf(rows []records.Record) []domain.UserID {
	seen := make(map[domain.UserID]struct{}, len(rows))
	var out []domain.UserID
	for _, row := range rows {
		if _, ok := seen[row.AuthorID]; ok {
			continue
		}
		seen[row.AuthorID] = struct{}{}
		out = append(out, row.AuthorID)
	}
	return out
}
