package history

import (
	"testing"
	"time"

	"studio/internal/domain"
)

func sampleEntries() []domain.HistoryEntry {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return []domain.HistoryEntry{
		{ID: "3", Prompt: "Blog outline about Go", GeneratedText: "1. Intro", Type: domain.EntryGeneration, Date: base.Add(3 * time.Hour)},
		{ID: "2", Prompt: "Quarterly report", GeneratedText: "- Revenue UP", Type: domain.EntrySummary, Date: base.Add(2 * time.Hour)},
		{ID: "1", Prompt: "Coffee maker", GeneratedText: "Brews smarter", Type: domain.EntryGeneration, Date: base.Add(time.Hour)},
	}
}

func ids(entries []domain.HistoryEntry) string {
	out := ""
	for _, e := range entries {
		out += e.ID
	}
	return out
}

func TestFilterBlankTermReturnsInput(t *testing.T) {
	entries := sampleEntries()
	for _, term := range []string{"", "   "} {
		got := Filter(entries, term)
		if ids(got) != "321" {
			t.Fatalf("Filter(%q) = %s, want 321", term, ids(got))
		}
	}
}

func TestFilterMatchesAnyField(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{term: "go", want: "3"},
		{term: "REVENUE", want: "2"},
		{term: "summary", want: "2"},
		{term: "generation", want: "31"},
		{term: "document", want: ""},
		{term: "content", want: ""},
		{term: "o", want: "321"},
		{term: "nothing-matches", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.term, func(t *testing.T) {
			if got := ids(Filter(sampleEntries(), tc.term)); got != tc.want {
				t.Fatalf("Filter(%q) = %q, want %q", tc.term, got, tc.want)
			}
		})
	}
}

func TestSortByDateDesc(t *testing.T) {
	entries := sampleEntries()
	reversed := []domain.HistoryEntry{entries[2], entries[0], entries[1]}
	got := SortByDateDesc(reversed)
	if ids(got) != "321" {
		t.Fatalf("SortByDateDesc = %s, want 321", ids(got))
	}
	if ids(reversed) != "132" {
		t.Fatal("SortByDateDesc must not reorder its input")
	}
}

func TestFilterIgnoresDisplayLabel(t *testing.T) {
	entries := []domain.HistoryEntry{{ID: "1", Prompt: "Write a haiku", GeneratedText: "text", Type: domain.EntryGeneration}}
	if label := domain.EntryGeneration.Label(); label != "Content Generation" {
		t.Fatalf("label = %q", label)
	}
	if got := Filter(entries, "content"); len(got) != 0 {
		t.Fatalf("label text must not match, got %+v", got)
	}
	if got := Filter(entries, "HAIKU"); len(got) != 1 {
		t.Fatalf("prompt should still match, got %+v", got)
	}
}
