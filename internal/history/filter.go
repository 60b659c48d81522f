// Package history projects and streams a user's generation history.
package history

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"studio/internal/domain"
)

// Filter keeps entries whose prompt, generated text or type contains term,
// ignoring case. A blank term returns entries unchanged. Order is preserved.
func Filter(entries []domain.HistoryEntry, term string) []domain.HistoryEntry {
	if strings.TrimSpace(term) == "" {
		return entries
	}
	fold := cases.Fold()
	needle := fold.String(term)
	out := make([]domain.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if matches(fold, e, needle) {
			out = append(out, e)
		}
	}
	return out
}

func matches(fold cases.Caser, e domain.HistoryEntry, needle string) bool {
	fields := [...]string{e.Prompt, e.GeneratedText, string(e.Type)}
	for _, f := range fields {
		if strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}

// SortByDateDesc returns entries ordered newest first. Already ordered input is returned as is.
func SortByDateDesc(entries []domain.HistoryEntry) []domain.HistoryEntry {
	cmp := func(a, b domain.HistoryEntry) int { return b.Date.Compare(a.Date) }
	if slices.IsSortedFunc(entries, cmp) {
		return entries
	}
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, cmp)
	return sorted
}
