package tui_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/dashboard"
	"github.com/nikbrunner/stash/internal/filter"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/remote"
	"github.com/nikbrunner/stash/internal/storage"
	"github.com/nikbrunner/stash/internal/tagarea"
	"github.com/nikbrunner/stash/internal/tui"
)

// fixture is an app over a temp-dir SQLite store.
type fixture struct {
	app    tui.App
	dash   *dashboard.Dashboard
	opened []string
	copied []string
}

// seed is listed newest first, so it is also the default visible order.
var seed = []model.NewBookmark{
	{URL: "https://youtube.com/watch?v=go", Title: "Go Concurrency Patterns", Tags: []string{"go"}},
	{URL: "https://blog.example/rust", Title: "Learning Rust"},
	{URL: "https://x.com/someone/status/1", Title: "A thread", Status: model.StatusDone},
}

func newFixture(t *testing.T, bookmarks ...model.NewBookmark) *fixture {
	t.Helper()
	client, err := remote.NewSQLiteClient(filepath.Join(t.TempDir(), "stash.db"))
	assert.NilError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	repo := storage.NewRepo(client)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, nb := range bookmarks {
		nb.CreatedAt = base.Add(-time.Duration(i) * time.Hour)
		_, err := repo.InsertBookmark(ctx, nb)
		assert.NilError(t, err)
	}

	d := dashboard.New(cache.New(repo, nil), tagarea.New(repo, nil), repo, nil, dashboard.Options{}, nil)
	assert.NilError(t, d.Reload(ctx))

	f := &fixture{dash: d}
	f.app = tui.NewApp(tui.AppParams{
		Dashboard: d,
		OpenURL: func(u string) error {
			f.opened = append(f.opened, u)
			return nil
		},
		Clipboard: func(s string) error {
			f.copied = append(f.copied, s)
			return nil
		},
	})
	return f
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends keys and drops the returned commands.
func (f *fixture) press(keys ...string) {
	for _, k := range keys {
		m, _ := f.app.Update(keyMsg(k))
		f.app = m.(tui.App)
	}
}

// run sends one key that starts a store operation, waits for the
// operation and feeds its result back.
func (f *fixture) run(t *testing.T, k string) {
	t.Helper()
	m, cmd := f.app.Update(keyMsg(k))
	f.app = m.(tui.App)
	assert.Assert(t, cmd != nil, "key %q started no operation", k)
	m, _ = f.app.Update(cmd())
	f.app = m.(tui.App)
}

func (f *fixture) selected(t *testing.T) model.Bookmark {
	t.Helper()
	b, ok := f.app.Selected()
	assert.Assert(t, ok, "no bookmark under cursor")
	return b
}

func TestApp_Navigation_JK(t *testing.T) {
	f := newFixture(t, seed...)

	if f.app.Cursor() != 0 {
		t.Errorf("expected initial cursor 0, got %d", f.app.Cursor())
	}

	f.press("j")
	if f.app.Cursor() != 1 {
		t.Errorf("after j, expected cursor 1, got %d", f.app.Cursor())
	}

	f.press("k")
	if f.app.Cursor() != 0 {
		t.Errorf("after k, expected cursor 0, got %d", f.app.Cursor())
	}

	// Press k at top should stay at 0 (no wrap)
	f.press("k")
	if f.app.Cursor() != 0 {
		t.Errorf("k at top should stay at 0, got %d", f.app.Cursor())
	}
}

func TestApp_Navigation_GAndGG(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("G")
	if f.app.Cursor() != 2 {
		t.Errorf("after G, expected cursor 2, got %d", f.app.Cursor())
	}

	// j at bottom stays at bottom
	f.press("j")
	if f.app.Cursor() != 2 {
		t.Errorf("j at bottom should stay at 2, got %d", f.app.Cursor())
	}

	// single g waits for the second
	f.press("g")
	if f.app.Cursor() != 2 {
		t.Errorf("single g should not move, got %d", f.app.Cursor())
	}
	f.press("g")
	if f.app.Cursor() != 0 {
		t.Errorf("after gg, expected cursor 0, got %d", f.app.Cursor())
	}
}

func TestApp_Navigation_EmptyList(t *testing.T) {
	f := newFixture(t)

	f.press("j", "G", "s", "d")
	assert.Check(t, is.Equal(f.app.Cursor(), 0))
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeNormal))
}

func TestApp_CycleStatus(t *testing.T) {
	f := newFixture(t, seed...)
	id := f.selected(t).ID

	f.run(t, "s")

	b, ok := f.dash.Cache().Get(id)
	assert.Assert(t, ok)
	assert.Check(t, is.Equal(b.Status, model.StatusReading))
}

func TestApp_OpenAndYank(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("j", "l", "Y")

	assert.Check(t, is.DeepEqual(f.opened, []string{"https://blog.example/rust"}))
	assert.Check(t, is.DeepEqual(f.copied, []string{"https://blog.example/rust"}))
	assert.Check(t, is.Contains(f.dash.Notice().Message, "Yanked"))
}

func TestApp_AddBookmark(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("a")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeAdd))

	f.press("https://substack.example.com/p/post", "tab", "Essays, go")
	f.run(t, "enter")

	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeNormal))
	assert.Check(t, is.Equal(f.dash.Cache().Len(), 4))
	assert.Check(t, f.dash.Cache().HasURL("https://substack.example.com/p/post"))

	var added model.Bookmark
	for _, b := range f.dash.Cache().Bookmarks() {
		if b.URL == "https://substack.example.com/p/post" {
			added = b
		}
	}
	assert.Check(t, is.DeepEqual(added.Tags, []string{"essays", "go"}))
	assert.Check(t, is.Equal(added.Status, model.StatusUnread))
}

func TestApp_AddBookmark_RequiresURL(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("a", "enter")

	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeAdd))
	assert.Check(t, is.Equal(f.dash.Notice().Kind, dashboard.NoticeValidation))
	assert.Check(t, is.Equal(f.dash.Cache().Len(), 3))
}

func TestApp_AddBookmark_RejectsDuplicate(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("a", "https://blog.example/rust", "enter")

	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeAdd))
	assert.Check(t, is.Contains(f.dash.Notice().Message, "Already saved"))
	assert.Check(t, is.Equal(f.dash.Cache().Len(), 3))
}

func TestApp_DeleteConfirm(t *testing.T) {
	f := newFixture(t, seed...)
	id := f.selected(t).ID

	f.press("d")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeConfirmDelete))
	f.run(t, "enter")

	_, ok := f.dash.Cache().Get(id)
	assert.Check(t, !ok, "bookmark should be deleted")
	assert.Check(t, is.Equal(f.dash.Cache().Len(), 2))
}

func TestApp_DeleteCancel(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("d", "esc")

	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeNormal))
	assert.Check(t, is.Equal(f.dash.Cache().Len(), 3))
}

func TestApp_BulkStatus(t *testing.T) {
	f := newFixture(t, seed...)
	first := f.selected(t).ID

	// v selects and advances the cursor
	f.press("v")
	second := f.selected(t).ID
	f.press("v")

	assert.Check(t, f.dash.Bulk().Active())
	assert.Check(t, is.Equal(f.dash.Bulk().Count(), 2))

	f.run(t, "3")

	for _, id := range []string{first, second} {
		b, ok := f.dash.Cache().Get(id)
		assert.Assert(t, ok)
		assert.Check(t, is.Equal(b.Status, model.StatusDone))
	}
	assert.Check(t, !f.dash.Bulk().Active())
	assert.Check(t, is.Equal(f.dash.Bulk().Count(), 0))
}

func TestApp_BulkOpenTogglesInstead(t *testing.T) {
	f := newFixture(t, seed...)
	first := f.selected(t).ID

	f.press("v")
	second := f.selected(t).ID
	f.press("l")

	assert.Check(t, is.Len(f.opened, 0))
	assert.Check(t, f.dash.Bulk().IsSelected(first))
	assert.Check(t, f.dash.Bulk().IsSelected(second))

	f.press("l")
	assert.Check(t, !f.dash.Bulk().IsSelected(second))
	assert.Check(t, is.Equal(f.dash.Bulk().Count(), 1))
}

func TestApp_BulkDelete(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("V")
	assert.Check(t, is.Equal(f.dash.Bulk().Count(), 3))

	f.press("d")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeConfirmBulkDelete))
	f.run(t, "y")

	assert.Check(t, is.Equal(f.dash.Cache().Len(), 0))
	assert.Check(t, !f.dash.Bulk().Active())
}

func TestApp_BulkEscapeKeepsData(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("v", "esc")

	assert.Check(t, !f.dash.Bulk().Active())
	assert.Check(t, is.Equal(f.dash.Cache().Len(), 3))
}

func TestApp_Search(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("/", "rust")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeSearch))
	assert.Check(t, is.Equal(f.dash.Criteria().Search, "rust"))
	assert.Check(t, is.Len(f.dash.View().Bookmarks, 1))

	// enter keeps the query, esc in normal mode clears it
	f.press("enter")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeNormal))
	assert.Check(t, is.Equal(f.dash.Criteria().Search, "rust"))

	f.press("esc")
	assert.Check(t, is.Equal(f.dash.Criteria().Search, ""))
	assert.Check(t, is.Len(f.dash.View().Bookmarks, 3))
}

func TestApp_FilterCycling(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("f")
	assert.Check(t, is.Equal(f.dash.Criteria().Source, string(model.SourceYouTube)))
	assert.Check(t, is.Len(f.dash.View().Bookmarks, 1))

	f.press("f")
	assert.Check(t, is.Equal(f.dash.Criteria().Source, string(model.SourceTwitter)))

	f.press("F")
	assert.Check(t, is.Equal(f.dash.Criteria().Status, string(model.StatusUnread)))
	assert.Check(t, is.Len(f.dash.View().Bookmarks, 0))

	f.press("o")
	assert.Check(t, is.Equal(f.dash.Criteria().Sort, filter.SortOldest))

	f.press("T")
	assert.Check(t, is.Equal(f.dash.Criteria().Tag, "go"))
}

func TestApp_NoteAndTags(t *testing.T) {
	f := newFixture(t, seed...)
	id := f.selected(t).ID

	f.press("n", "watch again")
	f.run(t, "enter")

	f.press("t")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeTags))
	f.press(", Talks")
	f.run(t, "enter")

	b, ok := f.dash.Cache().Get(id)
	assert.Assert(t, ok)
	assert.Check(t, is.Equal(b.Notes, "watch again"))
	assert.Check(t, is.DeepEqual(b.Tags, []string{"go", "talks"}))
}

func TestApp_Areas_CreateAssignFilter(t *testing.T) {
	f := newFixture(t, seed...)
	id := f.selected(t).ID

	f.press("A")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeAreas))

	f.press("n", "Programming")
	f.run(t, "enter")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeAreas))

	area, ok := f.dash.Areas().FindByName("Programming")
	assert.Assert(t, ok)

	f.run(t, "a")
	assert.Check(t, is.DeepEqual(f.dash.Areas().BookmarkIDs(area.ID), []string{id}))

	// l filters the list by the area and closes the panel
	f.press("l")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeNormal))
	assert.Check(t, is.Equal(f.dash.Area(), area.ID))
	assert.Check(t, is.Len(f.dash.View().Bookmarks, 1))

	f.press("esc")
	assert.Check(t, is.Equal(f.dash.Area(), ""))
}

func TestApp_Areas_EmptyNameBlocked(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("A", "n", "enter")

	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeAreaName))
	assert.Check(t, is.Equal(f.dash.Notice().Kind, dashboard.NoticeValidation))
	assert.Check(t, is.Equal(f.dash.Areas().Len(), 0))
}

func TestApp_Areas_Merge(t *testing.T) {
	f := newFixture(t, seed...)
	ctx := context.Background()
	reg := f.dash.Areas()

	src, err := reg.Create(ctx, model.NewTagArea{Name: "Golang"})
	assert.NilError(t, err)
	dst, err := reg.Create(ctx, model.NewTagArea{Name: "Go"})
	assert.NilError(t, err)
	id := f.selected(t).ID
	assert.NilError(t, reg.Assign(ctx, src.ID, id))

	// Golang was created first and sits at the top of the panel
	f.press("A", "m")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeMergeArea))
	f.run(t, "enter")

	_, ok := reg.Get(src.ID)
	assert.Check(t, !ok, "merged area should be gone")
	assert.Check(t, is.DeepEqual(reg.BookmarkIDs(dst.ID), []string{id}))
}

func TestApp_Help(t *testing.T) {
	f := newFixture(t, seed...)

	f.press("?")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeHelp))
	f.press("esc")
	assert.Check(t, is.Equal(f.app.Mode(), tui.ModeNormal))
}

func TestApp_Quit(t *testing.T) {
	f := newFixture(t, seed...)

	_, cmd := f.app.Update(keyMsg("q"))
	assert.Assert(t, cmd != nil)
	_, ok := cmd().(tea.QuitMsg)
	assert.Check(t, ok, "q should quit")
}
