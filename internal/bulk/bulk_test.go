package bulk_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/stash/internal/bulk"
	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/remote"
	"github.com/nikbrunner/stash/internal/storage"
)

type failingStore struct{ calls int }

func (f *failingStore) UpdateStatus(ctx context.Context, ids []string, status model.Status) error {
	f.calls++
	return errors.New("remote down")
}

func (f *failingStore) DeleteBookmarks(ctx context.Context, ids []string) error {
	f.calls++
	return errors.New("remote down")
}

func TestToggle(t *testing.T) {
	c := bulk.New(&failingStore{}, nil, nil)

	c.Toggle("1")
	assert.Check(t, is.Equal(c.Count(), 0), "toggle while inactive is ignored")

	c.Enter()
	assert.Check(t, is.Equal(c.Mode(), bulk.Selecting))
	c.Toggle("1")
	c.Toggle("2")
	c.Toggle("1")
	assert.Check(t, !c.IsSelected("1"))
	assert.Check(t, c.IsSelected("2"))
	assert.Check(t, is.DeepEqual(c.IDs(), []string{"2"}))
}

func TestEscapeCancels(t *testing.T) {
	c := bulk.New(&failingStore{}, nil, nil)
	assert.Check(t, !c.Escape())

	c.Enter()
	c.Toggle("1")
	assert.Check(t, c.Escape())
	assert.Check(t, is.Equal(c.Mode(), bulk.Inactive))
	assert.Check(t, is.Equal(c.Count(), 0))
}

func TestSelectAll(t *testing.T) {
	c := bulk.New(&failingStore{}, nil, nil)
	c.SelectAll([]string{"b", "a", ""})
	assert.Check(t, c.Active())
	assert.Check(t, is.DeepEqual(c.IDs(), []string{"a", "b"}))
}

func TestApply_Validation(t *testing.T) {
	store := &failingStore{}
	c := bulk.New(store, nil, nil)
	ctx := context.Background()

	assert.Check(t, errors.Is(c.ApplyStatus(ctx, model.StatusDone), bulk.ErrNotSelecting))

	c.Enter()
	assert.Check(t, errors.Is(c.ApplyStatus(ctx, model.StatusDone), bulk.ErrEmptySelection))
	assert.Check(t, errors.Is(c.ApplyDelete(ctx, true), bulk.ErrEmptySelection))

	c.Toggle("1")
	assert.Check(t, errors.Is(c.ApplyDelete(ctx, false), bulk.ErrNotConfirmed))
	assert.Check(t, c.ApplyStatus(ctx, "archived") != nil)
	assert.Check(t, is.Equal(store.calls, 0))
}

func TestApplyStatus_FailureKeepsSelection(t *testing.T) {
	store := &failingStore{}
	reloads := 0
	c := bulk.New(store, func(ctx context.Context) error { reloads++; return nil }, nil)

	c.Enter()
	c.Toggle("1")
	c.Toggle("2")
	err := c.ApplyStatus(context.Background(), model.StatusDone)

	assert.Check(t, err != nil)
	assert.Check(t, is.Equal(store.calls, 1))
	assert.Check(t, c.Active())
	assert.Check(t, is.DeepEqual(c.IDs(), []string{"1", "2"}))
	assert.Check(t, is.Equal(reloads, 0))
}

func newCache(t *testing.T) (*storage.Repo, *cache.Cache) {
	t.Helper()
	client, err := remote.NewSQLiteClient(filepath.Join(t.TempDir(), "stash.db"))
	assert.NilError(t, err)
	t.Cleanup(func() { client.Close() })
	repo := storage.NewRepo(client)
	return repo, cache.New(repo, nil)
}

func TestApplyStatus_BatchesAndReloads(t *testing.T) {
	repo, bc := newCache(t)
	ctx := context.Background()
	var ids []string
	for _, u := range []string{"https://1.example", "https://2.example", "https://3.example"} {
		b, err := repo.InsertBookmark(ctx, model.NewBookmark{URL: u})
		assert.NilError(t, err)
		ids = append(ids, b.ID)
	}
	assert.NilError(t, bc.Load(ctx))

	c := bulk.New(repo, bc.Load, nil)
	c.Enter()
	c.Toggle(ids[0])
	c.Toggle(ids[1])
	assert.NilError(t, c.ApplyStatus(ctx, model.StatusDone))

	assert.Check(t, is.Equal(c.Mode(), bulk.Inactive))
	assert.Check(t, is.Equal(c.Count(), 0))
	for i, id := range ids {
		b, ok := bc.Get(id)
		assert.Assert(t, ok)
		want := model.StatusDone
		if i == 2 {
			want = model.StatusUnread
		}
		assert.Check(t, is.Equal(b.Status, want), "bookmark %d", i)
	}
}

func TestApplyDelete_RemovesSelected(t *testing.T) {
	repo, bc := newCache(t)
	ctx := context.Background()
	keep, err := repo.InsertBookmark(ctx, model.NewBookmark{URL: "https://keep.example"})
	assert.NilError(t, err)
	drop, err := repo.InsertBookmark(ctx, model.NewBookmark{URL: "https://drop.example"})
	assert.NilError(t, err)
	assert.NilError(t, bc.Load(ctx))

	c := bulk.New(repo, bc.Load, nil)
	c.SelectAll([]string{drop.ID})
	assert.NilError(t, c.ApplyDelete(ctx, true))

	assert.Check(t, is.Equal(bc.Len(), 1))
	_, ok := bc.Get(keep.ID)
	assert.Check(t, ok)
	assert.Check(t, !c.Active())
}
