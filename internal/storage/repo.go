// Package storage converts remote store rows into model types and owns the
// persisted local configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/remote"
)

var bookmarkTagConflict = []string{"bookmark_id", "tag_area_id"}

// Repo is a typed view over a remote.Client.
type Repo struct {
	client remote.Client
}

// NewRepo creates a repository backed by client.
func NewRepo(client remote.Client) *Repo {
	return &Repo{client: client}
}

// Client returns the underlying remote client.
func (r *Repo) Client() remote.Client {
	return r.client
}

// ListBookmarks returns all bookmarks, newest first.
func (r *Repo) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	rows, err := r.client.Select(ctx, remote.TableBookmarks, remote.Query{
		Order: []remote.Order{{Column: "created_at", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	return decodeBookmarks(rows)
}

// InsertBookmark validates and inserts one bookmark, returning the stored row.
func (r *Repo) InsertBookmark(ctx context.Context, nb model.NewBookmark) (model.Bookmark, error) {
	inserted, err := r.InsertBookmarks(ctx, []model.NewBookmark{nb})
	if err != nil {
		return model.Bookmark{}, err
	}
	if len(inserted) == 0 {
		return model.Bookmark{}, fmt.Errorf("insert bookmark: no row returned")
	}
	return inserted[0], nil
}

// InsertBookmarks validates and inserts bookmarks in one request.
func (r *Repo) InsertBookmarks(ctx context.Context, nbs []model.NewBookmark) ([]model.Bookmark, error) {
	rows := make([]remote.Row, 0, len(nbs))
	for _, nb := range nbs {
		normalized, err := nb.Normalize()
		if err != nil {
			return nil, err
		}
		rows = append(rows, newBookmarkRow(normalized))
	}
	if len(rows) == 0 {
		return nil, nil
	}

	inserted, err := r.client.Insert(ctx, remote.TableBookmarks, rows)
	if err != nil {
		return nil, err
	}
	return decodeBookmarks(inserted)
}

// UpdateBookmark writes the non-nil fields of patch.
func (r *Repo) UpdateBookmark(ctx context.Context, id string, patch model.BookmarkPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	return r.client.Update(ctx, remote.TableBookmarks, patchRow(patch), remote.Filter{remote.Eq("id", id)})
}

// UpdateStatus sets the status of every bookmark in ids with one request.
func (r *Repo) UpdateStatus(ctx context.Context, ids []string, status model.Status) error {
	if len(ids) == 0 {
		return nil
	}
	return r.client.Update(ctx, remote.TableBookmarks,
		remote.Row{"status": string(status)},
		remote.Filter{remote.In("id", ids)})
}

// DeleteBookmarks deletes every bookmark in ids with one request.
func (r *Repo) DeleteBookmarks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.client.Delete(ctx, remote.TableBookmarks, remote.Filter{remote.In("id", ids)})
}

// ListTagAreas returns all tag areas ordered by sort order.
func (r *Repo) ListTagAreas(ctx context.Context) ([]model.TagArea, error) {
	rows, err := r.client.Select(ctx, remote.TableTagAreas, remote.Query{
		Order: []remote.Order{{Column: "sort_order"}},
	})
	if err != nil {
		return nil, err
	}
	return remote.DecodeRows[model.TagArea](rows)
}

// InsertTagArea inserts a tag area at the given sort order.
func (r *Repo) InsertTagArea(ctx context.Context, na model.NewTagArea, sortOrder int) (model.TagArea, error) {
	rows, err := r.client.Insert(ctx, remote.TableTagAreas, []remote.Row{{
		"name":        na.Name,
		"emoji":       na.Emoji,
		"color":       na.Color,
		"description": na.Description,
		"sort_order":  sortOrder,
	}})
	if err != nil {
		return model.TagArea{}, err
	}
	areas, err := remote.DecodeRows[model.TagArea](rows)
	if err != nil {
		return model.TagArea{}, err
	}
	if len(areas) == 0 {
		return model.TagArea{}, fmt.Errorf("insert tag area: no row returned")
	}
	return areas[0], nil
}

// UpdateTagArea writes the non-nil fields of patch.
func (r *Repo) UpdateTagArea(ctx context.Context, id string, patch model.TagAreaPatch) error {
	row := remote.Row{}
	if patch.Name != nil {
		row["name"] = *patch.Name
	}
	if patch.Emoji != nil {
		row["emoji"] = *patch.Emoji
	}
	if patch.Color != nil {
		row["color"] = *patch.Color
	}
	if patch.Description != nil {
		row["description"] = *patch.Description
	}
	if len(row) == 0 {
		return nil
	}
	return r.client.Update(ctx, remote.TableTagAreas, row, remote.Filter{remote.Eq("id", id)})
}

// SetTagAreaOrder writes the sort order of one area.
func (r *Repo) SetTagAreaOrder(ctx context.Context, id string, sortOrder int) error {
	return r.client.Update(ctx, remote.TableTagAreas,
		remote.Row{"sort_order": sortOrder},
		remote.Filter{remote.Eq("id", id)})
}

// DeleteTagArea deletes an area. Its associations cascade.
func (r *Repo) DeleteTagArea(ctx context.Context, id string) error {
	return r.client.Delete(ctx, remote.TableTagAreas, remote.Filter{remote.Eq("id", id)})
}

// ListBookmarkTags returns associations, optionally limited to one area.
func (r *Repo) ListBookmarkTags(ctx context.Context, areaID string) ([]model.BookmarkTag, error) {
	var q remote.Query
	if areaID != "" {
		q.Filter = remote.Filter{remote.Eq("tag_area_id", areaID)}
	}
	rows, err := r.client.Select(ctx, remote.TableBookmarkTags, q)
	if err != nil {
		return nil, err
	}
	return remote.DecodeRows[model.BookmarkTag](rows)
}

// UpsertBookmarkTags adds associations; existing pairs are left alone.
func (r *Repo) UpsertBookmarkTags(ctx context.Context, links []model.BookmarkTag) error {
	if len(links) == 0 {
		return nil
	}
	rows := make([]remote.Row, len(links))
	for i, l := range links {
		rows[i] = remote.Row{"bookmark_id": l.BookmarkID, "tag_area_id": l.TagAreaID}
	}
	return r.client.Upsert(ctx, remote.TableBookmarkTags, rows, bookmarkTagConflict)
}

// DeleteBookmarkTags removes the association between a bookmark and an area.
func (r *Repo) DeleteBookmarkTags(ctx context.Context, bookmarkID, areaID string) error {
	return r.client.Delete(ctx, remote.TableBookmarkTags, remote.Filter{
		remote.Eq("bookmark_id", bookmarkID),
		remote.Eq("tag_area_id", areaID),
	})
}

// DeleteAreaTags removes every association of an area.
func (r *Repo) DeleteAreaTags(ctx context.Context, areaID string) error {
	return r.client.Delete(ctx, remote.TableBookmarkTags, remote.Filter{remote.Eq("tag_area_id", areaID)})
}

func decodeBookmarks(rows []remote.Row) ([]model.Bookmark, error) {
	bookmarks, err := remote.DecodeRows[model.Bookmark](rows)
	if err != nil {
		return nil, err
	}
	for i := range bookmarks {
		if bookmarks[i].Tags == nil {
			bookmarks[i].Tags = []string{}
		}
		if bookmarks[i].Status == "" {
			bookmarks[i].Status = model.StatusUnread
		}
	}
	return bookmarks, nil
}

func newBookmarkRow(nb model.NewBookmark) remote.Row {
	tags := nb.Tags
	if tags == nil {
		tags = []string{}
	}
	row := remote.Row{
		"url":         nb.URL,
		"title":       nb.Title,
		"source_type": string(nb.SourceType),
		"status":      string(nb.Status),
		"tags":        tags,
		"notes":       nb.Notes,
	}
	if !nb.CreatedAt.IsZero() {
		row["created_at"] = nb.CreatedAt.UTC()
	}
	return row
}

func patchRow(p model.BookmarkPatch) remote.Row {
	row := remote.Row{}
	if p.URL != nil {
		row["url"] = *p.URL
	}
	if p.Title != nil {
		row["title"] = *p.Title
	}
	if p.SourceType != nil {
		row["source_type"] = string(*p.SourceType)
	}
	if p.Status != nil {
		row["status"] = string(*p.Status)
	}
	if p.Tags != nil {
		row["tags"] = model.NormalizeTags(p.Tags)
	}
	if p.Notes != nil {
		row["notes"] = *p.Notes
	}
	if p.Image != nil {
		row["image"] = *p.Image
	}
	if p.Duration != nil {
		row["duration"] = *p.Duration
	}
	if p.Channel != nil {
		row["channel"] = *p.Channel
	}
	return row
}
