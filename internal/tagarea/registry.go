// Package tagarea keeps the in-memory tag area list and the bookmark ↔ area
// associations in step with the remote store.
package tagarea

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/remote"
)

var (
	ErrNameRequired  = errors.New("tag area name is required")
	ErrDuplicateName = errors.New("a tag area with this name already exists")
	ErrNotFound      = errors.New("tag area not found")
	ErrSameArea      = errors.New("cannot merge a tag area into itself")
)

// Direction moves an area within the ordered list.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// Store is the remote persistence the registry writes through.
type Store interface {
	ListTagAreas(ctx context.Context) ([]model.TagArea, error)
	InsertTagArea(ctx context.Context, na model.NewTagArea, sortOrder int) (model.TagArea, error)
	UpdateTagArea(ctx context.Context, id string, patch model.TagAreaPatch) error
	SetTagAreaOrder(ctx context.Context, id string, sortOrder int) error
	DeleteTagArea(ctx context.Context, id string) error
	ListBookmarkTags(ctx context.Context, areaID string) ([]model.BookmarkTag, error)
	UpsertBookmarkTags(ctx context.Context, links []model.BookmarkTag) error
	DeleteBookmarkTags(ctx context.Context, bookmarkID, areaID string) error
	DeleteAreaTags(ctx context.Context, areaID string) error
}

// Registry is the in-memory mirror of tag_areas and bookmark_tags.
type Registry struct {
	store Store
	log   logger.Logger

	mu     sync.RWMutex
	areas  []model.TagArea            // ordered by SortOrder
	byBook map[string][]string        // bookmark id -> area ids
	byArea map[string]map[string]bool // area id -> bookmark ids
}

// New creates an empty registry over store.
func New(store Store, log logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		store:  store,
		log:    log,
		byBook: map[string][]string{},
		byArea: map[string]map[string]bool{},
	}
}

// Load replaces the areas and associations with the store's contents.
// On failure the current state is kept.
func (r *Registry) Load(ctx context.Context) error {
	areas, err := r.store.ListTagAreas(ctx)
	if err != nil {
		return err
	}
	links, err := r.store.ListBookmarkTags(ctx, "")
	if err != nil {
		return err
	}

	sortAreas(areas)

	byBook := make(map[string][]string)
	byArea := make(map[string]map[string]bool)
	for _, l := range links {
		if byArea[l.TagAreaID] == nil {
			byArea[l.TagAreaID] = map[string]bool{}
		}
		if byArea[l.TagAreaID][l.BookmarkID] {
			continue
		}
		byArea[l.TagAreaID][l.BookmarkID] = true
		byBook[l.BookmarkID] = append(byBook[l.BookmarkID], l.TagAreaID)
	}

	r.mu.Lock()
	r.areas = areas
	r.byBook = byBook
	r.byArea = byArea
	r.mu.Unlock()

	r.log.Debug("tag areas loaded", logger.Int("areas", len(areas)), logger.Int("links", len(links)))
	return nil
}

// Areas returns a copy of the ordered area list.
func (r *Registry) Areas() []model.TagArea {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.areas)
}

// Len returns the number of areas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.areas)
}

// Get returns the area with id.
func (r *Registry) Get(id string) (model.TagArea, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.areas[i], true
	}
	return model.TagArea{}, false
}

// FindByName looks an area up by name, ignoring case.
func (r *Registry) FindByName(name string) (model.TagArea, bool) {
	name = strings.TrimSpace(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.areas {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return model.TagArea{}, false
}

// AreasFor returns the areas a bookmark is associated with, in area order.
func (r *Registry) AreasFor(bookmarkID string) []model.TagArea {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byBook[bookmarkID]
	var out []model.TagArea
	for _, a := range r.areas {
		if slices.Contains(ids, a.ID) {
			out = append(out, a)
		}
	}
	return out
}

// HasAreas reports whether a bookmark has any association.
func (r *Registry) HasAreas(bookmarkID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byBook[bookmarkID]) > 0
}

// BookmarkIDs returns the ids of bookmarks associated with an area.
func (r *Registry) BookmarkIDs(areaID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byArea[areaID]))
	for id := range r.byArea[areaID] {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Create adds a new area at the end of the list.
func (r *Registry) Create(ctx context.Context, na model.NewTagArea) (model.TagArea, error) {
	na.Name = strings.TrimSpace(na.Name)
	if na.Name == "" {
		return model.TagArea{}, ErrNameRequired
	}
	if _, ok := r.FindByName(na.Name); ok {
		return model.TagArea{}, ErrDuplicateName
	}

	r.mu.RLock()
	next := 0
	for _, a := range r.areas {
		next = max(next, a.SortOrder+1)
	}
	r.mu.RUnlock()

	area, err := r.store.InsertTagArea(ctx, na, next)
	if err != nil {
		if errors.Is(err, remote.ErrDuplicate) {
			return model.TagArea{}, ErrDuplicateName
		}
		return model.TagArea{}, fmt.Errorf("create tag area: %w", err)
	}

	r.mu.Lock()
	r.areas = append(r.areas, area)
	sortAreas(r.areas)
	r.mu.Unlock()

	return area, nil
}

// CreateFromSuggestion creates an area proposed by the tag suggestion engine.
func (r *Registry) CreateFromSuggestion(ctx context.Context, name, emoji, description string) (model.TagArea, error) {
	return r.Create(ctx, model.NewTagArea{Name: name, Emoji: emoji, Description: description})
}

// Update writes the non-nil fields of patch.
func (r *Registry) Update(ctx context.Context, id string, patch model.TagAreaPatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ErrNameRequired
		}
		if other, ok := r.FindByName(name); ok && other.ID != id {
			return ErrDuplicateName
		}
		patch.Name = &name
	}
	if _, ok := r.Get(id); !ok {
		return ErrNotFound
	}

	if err := r.store.UpdateTagArea(ctx, id, patch); err != nil {
		if errors.Is(err, remote.ErrDuplicate) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update tag area: %w", err)
	}

	r.mu.Lock()
	if i := r.indexOf(id); i >= 0 {
		a := &r.areas[i]
		if patch.Name != nil {
			a.Name = *patch.Name
		}
		if patch.Emoji != nil {
			a.Emoji = *patch.Emoji
		}
		if patch.Color != nil {
			a.Color = *patch.Color
		}
		if patch.Description != nil {
			a.Description = *patch.Description
		}
	}
	r.mu.Unlock()
	return nil
}

// Delete removes an area and its associations.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if _, ok := r.Get(id); !ok {
		return ErrNotFound
	}
	if err := r.store.DeleteTagArea(ctx, id); err != nil {
		return fmt.Errorf("delete tag area: %w", err)
	}

	r.mu.Lock()
	r.removeArea(id)
	r.mu.Unlock()
	return nil
}

// Reorder swaps the sort order of an area with its neighbour in direction.
// Moving past either end is a no-op.
func (r *Registry) Reorder(ctx context.Context, id string, dir Direction) error {
	r.mu.RLock()
	i := r.indexOf(id)
	j := i + int(dir)
	if i < 0 {
		r.mu.RUnlock()
		return ErrNotFound
	}
	if j < 0 || j >= len(r.areas) || (dir != Up && dir != Down) {
		r.mu.RUnlock()
		return nil
	}
	target, neighbour := r.areas[i], r.areas[j]
	r.mu.RUnlock()

	targetOrder, neighbourOrder := neighbour.SortOrder, target.SortOrder
	if targetOrder == neighbourOrder {
		// Equal orders would not move anything; step past the neighbour.
		targetOrder = neighbour.SortOrder + int(dir)
	}

	if err := r.store.SetTagAreaOrder(ctx, target.ID, targetOrder); err != nil {
		return r.resync(ctx, "reorder", err)
	}
	if err := r.store.SetTagAreaOrder(ctx, neighbour.ID, neighbourOrder); err != nil {
		return r.resync(ctx, "reorder", err)
	}

	r.mu.Lock()
	if k := r.indexOf(target.ID); k >= 0 {
		r.areas[k].SortOrder = targetOrder
	}
	if k := r.indexOf(neighbour.ID); k >= 0 {
		r.areas[k].SortOrder = neighbourOrder
	}
	// Swap positions first so a stable sort keeps the move on equal orders.
	if a, b := r.indexOf(target.ID), r.indexOf(neighbour.ID); a >= 0 && b >= 0 {
		r.areas[a], r.areas[b] = r.areas[b], r.areas[a]
	}
	sortAreas(r.areas)
	r.mu.Unlock()
	return nil
}

// Merge moves every association of source onto target, then deletes source.
// A bookmark already in target keeps exactly one association.
func (r *Registry) Merge(ctx context.Context, sourceID, targetID string) error {
	if sourceID == targetID {
		return ErrSameArea
	}
	if _, ok := r.Get(sourceID); !ok {
		return ErrNotFound
	}
	if _, ok := r.Get(targetID); !ok {
		return ErrNotFound
	}

	links, err := r.store.ListBookmarkTags(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("merge: list associations: %w", err)
	}

	moved := make([]model.BookmarkTag, len(links))
	for i, l := range links {
		moved[i] = model.BookmarkTag{BookmarkID: l.BookmarkID, TagAreaID: targetID}
	}
	if err := r.store.UpsertBookmarkTags(ctx, moved); err != nil {
		return r.resync(ctx, "merge", err)
	}
	if err := r.store.DeleteAreaTags(ctx, sourceID); err != nil {
		return r.resync(ctx, "merge", err)
	}
	if err := r.store.DeleteTagArea(ctx, sourceID); err != nil {
		return r.resync(ctx, "merge", err)
	}

	r.mu.Lock()
	for _, l := range links {
		r.link(l.BookmarkID, targetID)
	}
	r.removeArea(sourceID)
	r.mu.Unlock()

	r.log.Info("tag areas merged",
		logger.String("source", sourceID), logger.String("target", targetID), logger.Int("moved", len(links)))
	return nil
}

// Assign associates bookmarks with an area. Existing pairs are untouched.
func (r *Registry) Assign(ctx context.Context, areaID string, bookmarkIDs ...string) error {
	if _, ok := r.Get(areaID); !ok {
		return ErrNotFound
	}
	if len(bookmarkIDs) == 0 {
		return nil
	}

	links := make([]model.BookmarkTag, len(bookmarkIDs))
	for i, id := range bookmarkIDs {
		links[i] = model.BookmarkTag{BookmarkID: id, TagAreaID: areaID}
	}
	if err := r.store.UpsertBookmarkTags(ctx, links); err != nil {
		return fmt.Errorf("assign: %w", err)
	}

	r.mu.Lock()
	for _, id := range bookmarkIDs {
		r.link(id, areaID)
	}
	r.mu.Unlock()
	return nil
}

// Unassign removes the association between a bookmark and an area.
func (r *Registry) Unassign(ctx context.Context, areaID, bookmarkID string) error {
	if err := r.store.DeleteBookmarkTags(ctx, bookmarkID, areaID); err != nil {
		return fmt.Errorf("unassign: %w", err)
	}

	r.mu.Lock()
	delete(r.byArea[areaID], bookmarkID)
	r.byBook[bookmarkID] = slices.DeleteFunc(r.byBook[bookmarkID], func(id string) bool { return id == areaID })
	if len(r.byBook[bookmarkID]) == 0 {
		delete(r.byBook, bookmarkID)
	}
	r.mu.Unlock()
	return nil
}

// Forget drops the local associations of a deleted bookmark. The store
// removes its rows by cascade.
func (r *Registry) Forget(bookmarkIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range bookmarkIDs {
		for _, areaID := range r.byBook[id] {
			delete(r.byArea[areaID], id)
		}
		delete(r.byBook, id)
	}
}

func (r *Registry) resync(ctx context.Context, op string, writeErr error) error {
	r.log.Warn("tag area write failed, reloading", logger.String("op", op), logger.Error(writeErr))
	if err := r.Load(ctx); err != nil {
		r.log.Error("reload after failed write", logger.Error(err))
	}
	return fmt.Errorf("%s: %w", op, writeErr)
}

// link, removeArea and indexOf must be called with mu held.
func (r *Registry) link(bookmarkID, areaID string) {
	if r.byArea[areaID] == nil {
		r.byArea[areaID] = map[string]bool{}
	}
	if r.byArea[areaID][bookmarkID] {
		return
	}
	r.byArea[areaID][bookmarkID] = true
	r.byBook[bookmarkID] = append(r.byBook[bookmarkID], areaID)
}

func (r *Registry) removeArea(id string) {
	if i := r.indexOf(id); i >= 0 {
		r.areas = slices.Delete(r.areas, i, i+1)
	}
	for bookmarkID := range r.byArea[id] {
		r.byBook[bookmarkID] = slices.DeleteFunc(r.byBook[bookmarkID], func(a string) bool { return a == id })
		if len(r.byBook[bookmarkID]) == 0 {
			delete(r.byBook, bookmarkID)
		}
	}
	delete(r.byArea, id)
}

func (r *Registry) indexOf(id string) int {
	return slices.IndexFunc(r.areas, func(a model.TagArea) bool { return a.ID == id })
}

func sortAreas(areas []model.TagArea) {
	slices.SortStableFunc(areas, func(a, b model.TagArea) int {
		return a.SortOrder - b.SortOrder
	})
}
