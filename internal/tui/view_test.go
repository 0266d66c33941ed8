package tui_test

import (
	"context"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/dashboard"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/remote"
	"github.com/nikbrunner/stash/internal/storage"
	"github.com/nikbrunner/stash/internal/tagarea"
	"github.com/nikbrunner/stash/internal/tui"
	"github.com/nikbrunner/stash/internal/tui/layout"
)

// render returns the current frame without ANSI codes.
func (f *fixture) render(width, height int) string {
	return layout.Plain(f.app.WithDimensions(width, height).View())
}

func TestView_NormalMode(t *testing.T) {
	f := newFixture(t, seed...)

	out := f.render(140, 30)

	assert.Check(t, is.Contains(out, "stash"))
	assert.Check(t, is.Contains(out, "source:all"))
	assert.Check(t, is.Contains(out, "3/3"))
	assert.Check(t, is.Contains(out, "Go Concurrency Patterns"))
	assert.Check(t, is.Contains(out, "Learning Rust"))
	assert.Check(t, is.Contains(out, "sources"))
	assert.Check(t, is.Contains(out, "YouTube 1"))
	assert.Check(t, is.Contains(out, "#go 1"))
	assert.Check(t, is.Contains(out, "https://youtube.com/watch?v=go"))
	assert.Check(t, is.Contains(out, "Global"))
}

func TestView_ViewFitsTerminal(t *testing.T) {
	f := newFixture(t, seed...)

	for _, size := range [][2]int{{80, 24}, {120, 30}} {
		out := f.render(size[0], size[1])
		lines := strings.Split(out, "\n")
		assert.Check(t, len(lines) <= size[1], "%dx%d rendered %d lines", size[0], size[1], len(lines))
	}
}

func TestView_EmptyState(t *testing.T) {
	f := newFixture(t)

	out := f.render(100, 24)

	assert.Check(t, is.Contains(out, "(empty)"))
	assert.Check(t, is.Contains(out, "0/0"))
}

func TestView_NoMatches(t *testing.T) {
	f := newFixture(t, seed...)
	f.press("/", "nothing-matches-this")

	out := f.render(120, 24)

	assert.Check(t, is.Contains(out, "(no matches)"))
	assert.Check(t, is.Contains(out, "/nothing-matches-this"))
}

func TestView_Unreachable(t *testing.T) {
	repo := storage.NewRepo(remote.NewRESTClient("http://127.0.0.1:1", "key"))
	d := dashboard.New(cache.New(repo, nil), tagarea.New(repo, nil), repo, nil, dashboard.Options{}, nil)
	assert.Check(t, d.Reload(context.Background()) != nil)

	app := tui.NewApp(tui.AppParams{Dashboard: d}).WithDimensions(120, 24)
	out := layout.Plain(app.View())

	assert.Check(t, is.Contains(out, dashboard.Classify(d.Cache().LoadErr()).Message))
	assert.Check(t, !strings.Contains(out, "0/0"), "count is hidden while nothing is loaded")
}

func TestView_BulkIndicator(t *testing.T) {
	f := newFixture(t, seed...)
	f.press("v")

	out := f.render(120, 24)

	assert.Check(t, is.Contains(out, "[bulk:1]"))
	assert.Check(t, is.Contains(out, "3:done"))
}

func TestView_Notice(t *testing.T) {
	f := newFixture(t, seed...)
	f.dash.SetNotice(dashboard.Notice{Kind: dashboard.NoticeSetup, Message: "run stash setup"})

	out := f.render(120, 24)

	assert.Check(t, is.Contains(out, "⚠ run stash setup"))
}

func TestView_AddModal(t *testing.T) {
	f := newFixture(t, seed...)
	f.press("a")

	out := f.render(120, 30)

	assert.Check(t, is.Contains(out, "Add Bookmark"))
	assert.Check(t, is.Contains(out, "Tags (comma-separated):"))
}

func TestView_AreaPanel(t *testing.T) {
	f := newFixture(t, seed...)
	_, err := f.dash.Areas().Create(context.Background(), model.NewTagArea{Name: "Reading list", Emoji: "📚"})
	assert.NilError(t, err)
	f.press("A")

	out := f.render(120, 30)

	assert.Check(t, is.Contains(out, "Tag Areas"))
	assert.Check(t, is.Contains(out, "Reading list (0)"))
}

func TestView_AreaPanelEmpty(t *testing.T) {
	f := newFixture(t, seed...)
	f.press("A")

	out := f.render(120, 30)

	assert.Check(t, is.Contains(out, "No tag areas yet"))
}

func TestView_Help(t *testing.T) {
	f := newFixture(t, seed...)
	f.press("?")

	out := f.render(120, 40)

	assert.Check(t, is.Contains(out, "cycle status"))
	assert.Check(t, is.Contains(out, "[?/esc] close"))
}
