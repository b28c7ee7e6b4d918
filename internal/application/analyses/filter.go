package analyses

import (
	"strings"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// Visible returns the records listed under tab whose device or analysis
// contains query, case-insensitively. An empty query matches every record of
// the tab. Order follows records.
func Visible(records []domain.Analysis, tab domain.Category, query string) []domain.Analysis {
	q := strings.ToLower(query)
	out := make([]domain.Analysis, 0, len(records))
	for _, r := range records {
		if r.Category != tab {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(r.Device), q) ||
			strings.Contains(strings.ToLower(r.Analysis), q) {
			out = append(out, r)
		}
	}
	return out
}

// CountByCategory counts records per known category. Records with an
// unknown category are not counted anywhere.
func CountByCategory(records []domain.Analysis) map[domain.Category]int {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		counts[c] = 0
	}
	for _, r := range records {
		if r.Category.Valid() {
			counts[r.Category]++
		}
	}
	return counts
}
