package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/model"
)

var errRemote = errors.New("remote down")

// fakeStore keeps rows in memory and can be told to fail writes or loads.
type fakeStore struct {
	rows       []model.Bookmark
	failWrites bool
	failLoad   bool
	loads      int
	nextID     int

	beforeWrite func() // called on entry to UpdateStatus and DeleteBookmarks
}

func (f *fakeStore) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	f.loads++
	if f.failLoad {
		return nil, errRemote
	}
	out := make([]model.Bookmark, len(f.rows))
	for i, b := range f.rows {
		out[i] = b.Clone()
	}
	return out, nil
}

func (f *fakeStore) InsertBookmark(ctx context.Context, nb model.NewBookmark) (model.Bookmark, error) {
	if f.failWrites {
		return model.Bookmark{}, errRemote
	}
	f.nextID++
	b := model.Bookmark{
		ID:         "new-" + string(rune('0'+f.nextID)),
		URL:        nb.URL,
		Title:      nb.Title,
		SourceType: nb.SourceType,
		Status:     nb.Status,
		Tags:       nb.Tags,
		CreatedAt:  time.Now(),
	}
	f.rows = append([]model.Bookmark{b}, f.rows...)
	return b, nil
}

func (f *fakeStore) UpdateBookmark(ctx context.Context, id string, patch model.BookmarkPatch) error {
	if f.failWrites {
		return errRemote
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i] = patch.Apply(f.rows[i])
		}
	}
	return nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, ids []string, status model.Status) error {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	if f.failWrites {
		return errRemote
	}
	for i := range f.rows {
		for _, id := range ids {
			if f.rows[i].ID == id {
				f.rows[i].Status = status
			}
		}
	}
	return nil
}

func (f *fakeStore) DeleteBookmarks(ctx context.Context, ids []string) error {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	if f.failWrites {
		return errRemote
	}
	kept := f.rows[:0]
	for _, b := range f.rows {
		drop := false
		for _, id := range ids {
			if b.ID == id {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, b)
		}
	}
	f.rows = kept
	return nil
}

func seededStore() *fakeStore {
	return &fakeStore{rows: []model.Bookmark{
		{ID: "1", URL: "https://a.example", Status: model.StatusUnread, SourceType: model.SourceBlog},
		{ID: "2", URL: "https://b.example", Status: model.StatusDone, SourceType: model.SourceYouTube},
	}}
}

func loadedCache(t *testing.T, store *fakeStore) *cache.Cache {
	t.Helper()
	c := cache.New(store, nil)
	assert.NilError(t, c.Load(context.Background()))
	return c
}

func TestLoad(t *testing.T) {
	c := loadedCache(t, seededStore())

	assert.Check(t, is.Len(c.Bookmarks(), 2))
	assert.Check(t, c.Loaded())
	assert.Check(t, c.LoadErr() == nil)
}

func TestLoad_FailureKeepsStaleList(t *testing.T) {
	store := seededStore()
	c := loadedCache(t, store)

	store.failLoad = true
	err := c.Load(context.Background())

	assert.Check(t, errors.Is(err, errRemote))
	assert.Check(t, errors.Is(c.LoadErr(), errRemote))
	assert.Check(t, is.Len(c.Bookmarks(), 2), "stale list should survive a failed load")
}

func TestCycleStatus_ThreeTimesIsIdentity(t *testing.T) {
	c := loadedCache(t, seededStore())
	ctx := context.Background()

	want := []model.Status{model.StatusReading, model.StatusDone, model.StatusUnread}
	for _, w := range want {
		got, err := c.CycleStatus(ctx, "1")
		assert.NilError(t, err)
		assert.Check(t, is.Equal(got, w))
	}

	b, _ := c.Get("1")
	assert.Check(t, is.Equal(b.Status, model.StatusUnread))
}

func TestSetStatus_LocalBeforeRemote(t *testing.T) {
	for _, fail := range []bool{false, true} {
		store := seededStore()
		c := loadedCache(t, store)
		store.failWrites = fail

		var seen model.Status
		store.beforeWrite = func() {
			b, _ := c.Get("1")
			seen = b.Status
		}

		_ = c.SetStatus(context.Background(), "1", model.StatusDone)
		assert.Check(t, is.Equal(seen, model.StatusDone), "failWrites=%v", fail)
	}
}

func TestSetStatus_FailureReloads(t *testing.T) {
	store := seededStore()
	c := loadedCache(t, store)
	store.failWrites = true
	loadsBefore := store.loads

	err := c.SetStatus(context.Background(), "1", model.StatusDone)

	assert.Check(t, errors.Is(err, errRemote))
	assert.Check(t, is.Equal(store.loads, loadsBefore+1), "expected a full reload")
	b, _ := c.Get("1")
	assert.Check(t, is.Equal(b.Status, model.StatusUnread), "reload should discard the optimistic status")
}

func TestDelete(t *testing.T) {
	store := seededStore()
	c := loadedCache(t, store)

	assert.NilError(t, c.Delete(context.Background(), "1"))

	_, ok := c.Get("1")
	assert.Check(t, !ok)
	assert.Check(t, is.Len(store.rows, 1))
}

func TestDelete_LocalBeforeRemote(t *testing.T) {
	for _, fail := range []bool{false, true} {
		store := seededStore()
		c := loadedCache(t, store)
		store.failWrites = fail

		present := true
		store.beforeWrite = func() {
			_, present = c.Get("1")
		}

		_ = c.Delete(context.Background(), "1")
		assert.Check(t, !present, "failWrites=%v", fail)
	}
}

func TestDelete_FailureRestoresViaReload(t *testing.T) {
	store := seededStore()
	c := loadedCache(t, store)
	store.failWrites = true

	err := c.Delete(context.Background(), "1")

	assert.Check(t, errors.Is(err, errRemote))
	_, ok := c.Get("1")
	assert.Check(t, ok, "bookmark should be back after reload")
}

func TestDelete_Unknown(t *testing.T) {
	c := loadedCache(t, seededStore())

	err := c.Delete(context.Background(), "nope")
	assert.Check(t, errors.Is(err, cache.ErrNotFound))
}

func TestUpdate(t *testing.T) {
	c := loadedCache(t, seededStore())
	title := "Hello"

	assert.NilError(t, c.Update(context.Background(), "2", model.BookmarkPatch{Title: &title}))

	b, _ := c.Get("2")
	assert.Check(t, is.Equal(b.Title, "Hello"))
}

func TestUpdate_BlankURLBlocked(t *testing.T) {
	store := seededStore()
	c := loadedCache(t, store)
	blank := "  "

	err := c.Update(context.Background(), "1", model.BookmarkPatch{URL: &blank})
	assert.Check(t, errors.Is(err, model.ErrURLRequired))
}

func TestAppendNote(t *testing.T) {
	c := loadedCache(t, seededStore())
	ctx := context.Background()

	assert.NilError(t, c.AppendNote(ctx, "1", "first"))
	assert.NilError(t, c.AppendNote(ctx, "1", "second"))

	b, _ := c.Get("1")
	assert.Check(t, is.Equal(b.Notes, "first\nsecond"))
}

func TestInsert(t *testing.T) {
	store := seededStore()
	c := loadedCache(t, store)

	b, err := c.Insert(context.Background(), model.NewBookmark{URL: " https://youtu.be/xyz ", Tags: []string{"A"}})
	assert.NilError(t, err)
	assert.Check(t, is.Equal(b.SourceType, model.SourceYouTube))
	assert.Check(t, is.DeepEqual(b.Tags, []string{"a"}))

	list := c.Bookmarks()
	assert.Check(t, is.Equal(list[0].ID, b.ID), "new bookmark should be first")
	assert.Check(t, c.HasURL("https://youtu.be/xyz"))
}

func TestInsert_ValidationBeforeNetwork(t *testing.T) {
	store := seededStore()
	store.failWrites = true
	c := loadedCache(t, store)

	_, err := c.Insert(context.Background(), model.NewBookmark{Title: "missing url"})
	assert.Check(t, errors.Is(err, model.ErrURLRequired))
}

func TestBookmarks_ReturnsCopies(t *testing.T) {
	c := loadedCache(t, seededStore())

	list := c.Bookmarks()
	list[0].Title = "mutated"

	b, _ := c.Get(list[0].ID)
	assert.Check(t, is.Equal(b.Title, ""))
}
