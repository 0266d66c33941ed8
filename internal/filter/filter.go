// Package filter turns the cached bookmark list into the visible list.
// Every function here is pure.
package filter

import (
	"slices"
	"sort"
	"strings"

	"github.com/nikbrunner/stash/internal/model"
)

// Selectors with special meaning.
const (
	All      = "all"
	Unsorted = "unsorted"
)

// SortKey orders the visible list.
type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortOldest  SortKey = "oldest"
	SortTitleAZ SortKey = "title-az"
	SortTitleZA SortKey = "title-za"
	SortSource  SortKey = "source"
	SortStatus  SortKey = "status"
)

// SortKeys lists sort keys in cycle order.
var SortKeys = []SortKey{SortNewest, SortOldest, SortTitleAZ, SortTitleZA, SortSource, SortStatus}

// Criteria is the full filter state.
type Criteria struct {
	Source string // source type or All
	Status string // status or All
	Search string
	Tag    string // tag, Unsorted, or All/empty
	Sort   SortKey
}

// DefaultCriteria shows everything, newest first.
func DefaultCriteria() Criteria {
	return Criteria{Source: All, Status: All, Tag: All, Sort: SortNewest}
}

// Apply filters and sorts bookmarks. The input slice is not modified.
func Apply(bookmarks []model.Bookmark, c Criteria) []model.Bookmark {
	query := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]model.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if !matchSource(b, c.Source) || !matchStatus(b, c.Status) {
			continue
		}
		if !matchSearch(b, query) || !matchTag(b, c.Tag) {
			continue
		}
		out = append(out, b)
	}

	Sort(out, c.Sort)
	return out
}

// Sort orders bookmarks in place by key. Ties keep their input order.
func Sort(bookmarks []model.Bookmark, key SortKey) {
	var less func(a, b model.Bookmark) bool
	switch key {
	case SortOldest:
		less = func(a, b model.Bookmark) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortTitleAZ:
		less = func(a, b model.Bookmark) bool { return a.Title < b.Title }
	case SortTitleZA:
		less = func(a, b model.Bookmark) bool { return a.Title > b.Title }
	case SortSource:
		less = func(a, b model.Bookmark) bool { return a.SourceType < b.SourceType }
	case SortStatus:
		less = func(a, b model.Bookmark) bool { return statusRank(a.Status) < statusRank(b.Status) }
	default:
		less = func(a, b model.Bookmark) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(bookmarks, func(i, j int) bool {
		return less(bookmarks[i], bookmarks[j])
	})
}

// statusRank puts unknown statuses last.
func statusRank(s model.Status) int {
	if r := s.Rank(); r >= 0 {
		return r
	}
	return len(model.Statuses)
}

func matchSource(b model.Bookmark, source string) bool {
	return source == "" || source == All || string(b.SourceType) == source
}

func matchStatus(b model.Bookmark, status string) bool {
	return status == "" || status == All || string(b.Status) == status
}

// matchSearch expects query already lowercased.
func matchSearch(b model.Bookmark, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(b.Title), query) ||
		strings.Contains(strings.ToLower(b.URL), query) ||
		strings.Contains(strings.ToLower(b.Notes), query) {
		return true
	}
	for _, t := range b.Tags {
		if strings.Contains(strings.ToLower(t), query) {
			return true
		}
	}
	return false
}

func matchTag(b model.Bookmark, tag string) bool {
	switch tag {
	case "", All:
		return true
	case Unsorted:
		return len(b.Tags) == 0
	default:
		return b.HasTag(tag)
	}
}

// SourceCounts counts bookmarks per source type among those passing the status
// filter. The All key holds the total of that pool.
func SourceCounts(bookmarks []model.Bookmark, status string) map[string]int {
	counts := make(map[string]int, len(model.SourceTypes)+1)
	for _, st := range model.SourceTypes {
		counts[string(st)] = 0
	}
	for _, b := range bookmarks {
		if !matchStatus(b, status) {
			continue
		}
		counts[string(b.SourceType)]++
		counts[All]++
	}
	return counts
}

// StatusCounts counts bookmarks per status across the whole list.
func StatusCounts(bookmarks []model.Bookmark) map[string]int {
	counts := make(map[string]int, len(model.Statuses)+1)
	for _, s := range model.Statuses {
		counts[string(s)] = 0
	}
	for _, b := range bookmarks {
		counts[string(b.Status)]++
	}
	counts[All] = len(bookmarks)
	return counts
}

// TagCount is a tag and how many bookmarks carry it.
type TagCount struct {
	Tag   string
	Count int
}

// TagCounts lists tags by descending count, then name. Unsorted is appended
// when any bookmark has no tags.
func TagCounts(bookmarks []model.Bookmark) []TagCount {
	byTag := make(map[string]int)
	unsorted := 0
	for _, b := range bookmarks {
		if len(b.Tags) == 0 {
			unsorted++
			continue
		}
		for _, t := range b.Tags {
			byTag[t]++
		}
	}

	out := make([]TagCount, 0, len(byTag)+1)
	for t, n := range byTag {
		out = append(out, TagCount{Tag: t, Count: n})
	}
	slices.SortFunc(out, func(a, b TagCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Tag, b.Tag)
	})

	if unsorted > 0 {
		out = append(out, TagCount{Tag: Unsorted, Count: unsorted})
	}
	return out
}

// NextSort returns the sort key after k, wrapping around.
func NextSort(k SortKey) SortKey {
	i := slices.Index(SortKeys, k)
	return SortKeys[(i+1)%len(SortKeys)]
}

// ParseSort returns the sort key named s, or SortNewest and false.
func ParseSort(s string) (SortKey, bool) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k, true
	}
	return SortNewest, false
}

// Label is the display name of a sort key.
func (k SortKey) Label() string {
	switch k {
	case SortNewest:
		return "Newest"
	case SortOldest:
		return "Oldest"
	case SortTitleAZ:
		return "Title A-Z"
	case SortTitleZA:
		return "Title Z-A"
	case SortSource:
		return "Source"
	case SortStatus:
		return "Status"
	default:
		return string(k)
	}
}
