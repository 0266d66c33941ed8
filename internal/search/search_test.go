package search

import (
	"slices"
	"testing"

	"github.com/nikbrunner/stash/internal/model"
)

var library = []model.Bookmark{
	{ID: "talk", Title: "Go Concurrency Patterns", URL: "https://youtube.com/watch?v=f6kdp27TYZs"},
	{ID: "tour", Title: "A Tour of Go", URL: "https://go.dev/tour"},
	{ID: "rust", Title: "The Rust Programming Language", URL: "https://doc.rust-lang.org/book"},
	{ID: "thread", Title: "", URL: "https://x.com/rob_pike/status/1"},
	{ID: "pipes", Title: "Pipelines", URL: "https://go.dev/blog/pipelines"},
}

func ids(results []SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Bookmark.ID
	}
	return out
}

func TestFuzzySearchBookmarks(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      []string // exact result set, any order; nil means none
		wantFirst string
	}{
		{name: "empty query", query: ""},
		{name: "no match", query: "zzqx"},
		{name: "case-insensitive", query: "rust programming", want: []string{"rust"}},
		{name: "subsequence", query: "gocp", want: []string{"talk"}, wantFirst: "talk"},
		{name: "exact word ranks first", query: "pipelines", wantFirst: "pipes"},
		{name: "untitled matches url", query: "robpike", want: []string{"thread"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FuzzySearchBookmarks(library, tt.query)

			if tt.want == nil && tt.wantFirst == "" && len(got) != 0 {
				t.Fatalf("expected no results, got %v", ids(got))
			}
			if tt.want != nil {
				gotIDs := ids(got)
				slices.Sort(gotIDs)
				want := slices.Clone(tt.want)
				slices.Sort(want)
				if !slices.Equal(gotIDs, want) {
					t.Errorf("results = %v, want %v", gotIDs, want)
				}
			}
			if tt.wantFirst != "" {
				if len(got) == 0 || got[0].Bookmark.ID != tt.wantFirst {
					t.Errorf("first = %v, want %s", ids(got), tt.wantFirst)
				}
			}
		})
	}
}

func TestFuzzySearchBookmarks_PointsIntoInput(t *testing.T) {
	results := FuzzySearchBookmarks(library, "tour")
	if len(results) == 0 {
		t.Fatal("expected a match")
	}
	if results[0].Bookmark != &library[1] {
		t.Error("expected result to point into the input slice")
	}
	if len(results[0].MatchedIndexes) != 4 {
		t.Errorf("expected 4 matched offsets, got %v", results[0].MatchedIndexes)
	}
}

func TestText(t *testing.T) {
	if got := Text(&library[0]); got != "Go Concurrency Patterns" {
		t.Errorf("Text = %q", got)
	}
	if got := Text(&library[3]); got != library[3].URL {
		t.Errorf("untitled Text = %q, want URL", got)
	}
}
