package dashboard

import (
	"github.com/nikbrunner/stash/internal/filter"
	"github.com/nikbrunner/stash/internal/model"
)

// AreaCount is a tag area and the number of bookmarks associated with it.
type AreaCount struct {
	Area  model.TagArea
	Count int
}

// BulkView is the selection state as shown to the user.
type BulkView struct {
	Active   bool
	Selected []string
}

// ViewModel is everything a front end needs to draw one frame.
type ViewModel struct {
	Criteria filter.Criteria
	Area     string

	// Bookmarks is the filtered, sorted list. It is nil and Placeholder is
	// set while loading or after the last load failed.
	Bookmarks   []model.Bookmark
	Placeholder string
	Total       int

	SourceCounts map[string]int
	StatusCounts map[string]int
	TagCounts    []filter.TagCount
	Areas        []AreaCount

	Bulk    BulkView
	Notice  Notice
	Tagging bool
}

// View builds the view model from the current state.
func (d *Dashboard) View() ViewModel {
	d.mu.Lock()
	criteria := d.criteria
	area := d.area
	notice := d.notice
	d.mu.Unlock()

	all := d.cache.Bookmarks()
	vm := ViewModel{
		Criteria:     criteria,
		Area:         area,
		Total:        len(all),
		SourceCounts: filter.SourceCounts(all, criteria.Status),
		StatusCounts: filter.StatusCounts(all),
		TagCounts:    filter.TagCounts(all),
		Bulk: BulkView{
			Active:   d.bulk.Active(),
			Selected: d.bulk.IDs(),
		},
		Notice: notice,
	}
	if d.enricher != nil {
		vm.Tagging = d.enricher.Tagging()
	}

	for _, a := range d.areas.Areas() {
		vm.Areas = append(vm.Areas, AreaCount{Area: a, Count: len(d.areas.BookmarkIDs(a.ID))})
	}

	// A failed load hides the list even when an older one is still cached.
	if err := d.cache.LoadErr(); err != nil {
		vm.Placeholder = Classify(err).Message
		return vm
	}
	if !d.cache.Loaded() {
		vm.Placeholder = "Loading…"
		return vm
	}

	vm.Bookmarks = d.list(all, criteria, area)
	return vm
}

// List filters and sorts the cached bookmarks without touching the
// dashboard's own criteria. An empty area means every area.
func (d *Dashboard) List(c filter.Criteria, area string) []model.Bookmark {
	return d.list(d.cache.Bookmarks(), c, area)
}

func (d *Dashboard) list(all []model.Bookmark, c filter.Criteria, area string) []model.Bookmark {
	visible := filter.Apply(all, c)
	if area == "" {
		return visible
	}

	members := map[string]bool{}
	for _, id := range d.areas.BookmarkIDs(area) {
		members[id] = true
	}
	kept := visible[:0]
	for _, b := range visible {
		if members[b.ID] {
			kept = append(kept, b)
		}
	}
	return kept
}
