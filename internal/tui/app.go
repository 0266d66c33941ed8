package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/stash/internal/bulk"
	"github.com/nikbrunner/stash/internal/dashboard"
	"github.com/nikbrunner/stash/internal/filter"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/tagarea"
	"github.com/nikbrunner/stash/internal/tui/layout"
)

// refreshInterval is how often the view is redrawn so that results of
// background enrichment show up without a key press.
const refreshInterval = 2 * time.Second

// App is the main bubbletea model for the dashboard.
type App struct {
	dash         *dashboard.Dashboard
	keys         KeyMap
	styles       Styles
	layoutConfig layout.LayoutConfig

	mode   Mode
	cursor int // index into the visible list

	search textinput.Model
	form   FormState
	areas  AreaPanelState

	openURL  func(string) error
	copyText func(string) error

	// For gg command
	lastKeyWasG bool

	// Window dimensions
	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Dashboard    *dashboard.Dashboard
	Keys         *KeyMap              // optional, uses default if nil
	Styles       *Styles              // optional, uses default if nil
	LayoutConfig *layout.LayoutConfig // optional, uses default if nil
	OpenURL      func(string) error   // optional, opens the system browser if nil
	Clipboard    func(string) error   // optional, writes the system clipboard if nil
}

// NewApp creates a new App with the given parameters.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	layoutCfg := layout.DefaultConfig()
	if params.LayoutConfig != nil {
		layoutCfg = *params.LayoutConfig
	}

	open := params.OpenURL
	if open == nil {
		open = OpenURL
	}
	copyText := params.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	return App{
		dash:         params.Dashboard,
		keys:         keys,
		styles:       styles,
		layoutConfig: layoutCfg,
		search:       NewSearchInput(layoutCfg),
		form:         NewFormState(layoutCfg),
		areas:        NewAreaPanelState(layoutCfg),
		openURL:      open,
		copyText:     copyText,
		width:        80,
		height:       24,
	}
}

// WithDimensions returns a copy of the app sized to width x height.
func (a App) WithDimensions(width, height int) App {
	a.width = width
	a.height = height
	return a
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Mode returns the current input mode.
func (a App) Mode() Mode {
	return a.mode
}

// Selected returns the bookmark under the cursor.
func (a App) Selected() (model.Bookmark, bool) {
	return a.current(a.visible())
}

type reloadedMsg struct{ err error }

type opDoneMsg struct{ err error }

type tickMsg time.Time

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.reloadCmd(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a App) reloadCmd() tea.Cmd {
	d := a.dash
	return func() tea.Msg {
		return reloadedMsg{err: d.Reload(context.Background())}
	}
}

// run executes fn outside the update loop. The dashboard records failures
// as notices; the result only triggers a redraw.
func run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: fn(context.Background())}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tickMsg:
		return a, tick()

	case reloadedMsg:
		a.settle(msg.err)
		return a, nil

	case opDoneMsg:
		a.settle(msg.err)
		return a, nil

	case tea.KeyMsg:
		switch a.mode {
		case ModeSearch:
			return a.updateSearch(msg)
		case ModeAdd:
			return a.updateAdd(msg)
		case ModeNote, ModeTags:
			return a.updateEdit(msg)
		case ModeConfirmDelete, ModeConfirmBulkDelete:
			return a.updateConfirm(msg)
		case ModeAreas:
			return a.updateAreas(msg)
		case ModeAreaName:
			return a.updateAreaName(msg)
		case ModeMergeArea:
			return a.updateMerge(msg)
		case ModeHelp:
			return a.updateHelp(msg)
		default:
			return a.updateNormal(msg)
		}
	}

	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}

func (a *App) settle(err error) {
	if err != nil {
		a.dash.SetNotice(dashboard.Classify(err))
	}
	a.clampCursor()
}

func (a App) visible() []model.Bookmark {
	return a.dash.View().Bookmarks
}

func (a App) current(visible []model.Bookmark) (model.Bookmark, bool) {
	if a.cursor < 0 || a.cursor >= len(visible) {
		return model.Bookmark{}, false
	}
	return visible[a.cursor], true
}

func (a *App) clampCursor() {
	n := len(a.visible())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}

	// Reset g flag for any other key
	a.lastKeyWasG = false

	d := a.dash
	visible := a.visible()
	current, hasCurrent := a.current(visible)

	if d.Bulk().Active() {
		switch {
		case key.Matches(msg, a.keys.Open):
			if hasCurrent {
				d.Bulk().Toggle(current.ID)
			}
			return a, nil
		case key.Matches(msg, a.keys.MarkUnread):
			return a, run(func(ctx context.Context) error { return d.ApplyBulkStatus(ctx, model.StatusUnread) })
		case key.Matches(msg, a.keys.MarkReading):
			return a, run(func(ctx context.Context) error { return d.ApplyBulkStatus(ctx, model.StatusReading) })
		case key.Matches(msg, a.keys.MarkDone):
			return a, run(func(ctx context.Context) error { return d.ApplyBulkStatus(ctx, model.StatusDone) })
		case key.Matches(msg, a.keys.BulkDelete):
			if d.Bulk().Count() == 0 {
				d.SetNotice(dashboard.Classify(bulk.ErrEmptySelection))
				return a, nil
			}
			a.mode = ModeConfirmBulkDelete
			return a, nil
		}
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if len(visible) > 0 && a.cursor < len(visible)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(visible) > 0 {
			a.cursor = len(visible) - 1
		}

	case key.Matches(msg, a.keys.Open):
		if hasCurrent {
			if err := a.openURL(current.URL); err != nil {
				d.SetNotice(dashboard.Classify(err))
			}
		}

	case key.Matches(msg, a.keys.YankURL):
		if hasCurrent {
			if err := a.copyText(current.URL); err != nil {
				d.SetNotice(dashboard.Classify(err))
			} else {
				d.SetNotice(dashboard.Info("Yanked " + current.URL))
			}
		}

	case key.Matches(msg, a.keys.Status):
		if hasCurrent {
			id := current.ID
			return a, run(func(ctx context.Context) error {
				_, err := d.CycleStatus(ctx, id)
				return err
			})
		}

	case key.Matches(msg, a.keys.Add):
		a.form.Reset()
		a.form.FocusField(0)
		a.mode = ModeAdd
		return a, textinput.Blink

	case key.Matches(msg, a.keys.Note):
		if hasCurrent {
			a.form.Reset()
			a.form.TargetID = current.ID
			a.form.NoteInput.Focus()
			a.mode = ModeNote
			return a, textinput.Blink
		}

	case key.Matches(msg, a.keys.EditTags):
		if hasCurrent {
			a.form.Reset()
			a.form.TargetID = current.ID
			a.form.TagsInput.SetValue(strings.Join(current.Tags, ", "))
			a.form.TagsInput.CursorEnd()
			a.form.TagsInput.Focus()
			a.mode = ModeTags
			return a, textinput.Blink
		}

	case key.Matches(msg, a.keys.Delete):
		if hasCurrent {
			a.form.TargetID = current.ID
			a.mode = ModeConfirmDelete
		}

	case key.Matches(msg, a.keys.Select):
		if hasCurrent {
			if !d.Bulk().Active() {
				d.Bulk().Enter()
			}
			d.Bulk().Toggle(current.ID)
			if a.cursor < len(visible)-1 {
				a.cursor++
			}
		}

	case key.Matches(msg, a.keys.SelectAll):
		ids := make([]string, len(visible))
		for i, b := range visible {
			ids[i] = b.ID
		}
		d.Bulk().SelectAll(ids)

	case key.Matches(msg, a.keys.Search):
		a.search.SetValue(d.Criteria().Search)
		a.search.CursorEnd()
		a.search.Focus()
		a.mode = ModeSearch
		return a, textinput.Blink

	case key.Matches(msg, a.keys.Source):
		c := d.Criteria()
		c.Source = cycle(sourceOptions(), c.Source)
		a.setCriteria(c)

	case key.Matches(msg, a.keys.StatusF):
		c := d.Criteria()
		c.Status = cycle(statusOptions(), c.Status)
		a.setCriteria(c)

	case key.Matches(msg, a.keys.Tag):
		c := d.Criteria()
		c.Tag = cycle(tagOptions(d.View().TagCounts), c.Tag)
		a.setCriteria(c)

	case key.Matches(msg, a.keys.Sort):
		c := d.Criteria()
		c.Sort = filter.NextSort(c.Sort)
		a.setCriteria(c)

	case key.Matches(msg, a.keys.Areas):
		a.mode = ModeAreas
		a.clampAreaCursor()

	case key.Matches(msg, a.keys.Reload):
		d.SetNotice(dashboard.Info("Reloading..."))
		return a, a.reloadCmd()

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp

	case key.Matches(msg, a.keys.Escape):
		a.escape()
	}

	return a, nil
}

// escape unwinds one layer of state: bulk selection, then search, then
// the area filter, then the notice.
func (a *App) escape() {
	d := a.dash
	switch {
	case d.Bulk().Escape():
	case d.Criteria().Search != "":
		c := d.Criteria()
		c.Search = ""
		a.setCriteria(c)
	case d.Area() != "":
		d.SetArea("")
		a.cursor = 0
	default:
		d.ClearNotice()
	}
}

func (a *App) setCriteria(c filter.Criteria) {
	a.dash.SetCriteria(c)
	a.cursor = 0
}

func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Escape):
		c := a.dash.Criteria()
		c.Search = ""
		a.setCriteria(c)
		a.search.Reset()
		a.search.Blur()
		a.mode = ModeNormal
		return a, nil

	case msg.Type == tea.KeyEnter:
		a.search.Blur()
		a.mode = ModeNormal
		return a, nil
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	c := a.dash.Criteria()
	if c.Search != a.search.Value() {
		c.Search = a.search.Value()
		a.setCriteria(c)
	}
	return a, cmd
}

func (a App) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Escape):
		a.form.Reset()
		a.mode = ModeNormal
		return a, nil

	case key.Matches(msg, a.keys.NextField):
		a.form.FocusField(1 - a.form.Field)
		return a, textinput.Blink

	case msg.Type == tea.KeyEnter:
		nb := model.NewBookmark{
			URL:  strings.TrimSpace(a.form.URLInput.Value()),
			Tags: model.ParseTags(a.form.TagsInput.Value()),
		}
		if nb.URL == "" {
			a.dash.SetNotice(dashboard.Classify(model.ErrURLRequired))
			return a, nil
		}
		if a.dash.Cache().HasURL(nb.URL) {
			a.dash.SetNotice(dashboard.Notice{Kind: dashboard.NoticeValidation, Message: "Already saved: " + nb.URL})
			return a, nil
		}
		a.form.Reset()
		a.mode = ModeNormal
		d := a.dash
		return a, run(func(ctx context.Context) error {
			_, err := d.AddBookmark(ctx, nb)
			return err
		})
	}

	var cmd tea.Cmd
	if a.form.Field == 0 {
		a.form.URLInput, cmd = a.form.URLInput.Update(msg)
	} else {
		a.form.TagsInput, cmd = a.form.TagsInput.Update(msg)
	}
	return a, cmd
}

// updateEdit drives the note and tags modals.
func (a App) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Escape):
		a.form.Reset()
		a.mode = ModeNormal
		return a, nil

	case msg.Type == tea.KeyEnter:
		d := a.dash
		id := a.form.TargetID
		var cmd tea.Cmd
		if a.mode == ModeNote {
			text := a.form.NoteInput.Value()
			if strings.TrimSpace(text) != "" {
				cmd = run(func(ctx context.Context) error { return d.AppendNote(ctx, id, text) })
			}
		} else {
			tags := model.ParseTags(a.form.TagsInput.Value())
			cmd = run(func(ctx context.Context) error { return d.SetTags(ctx, id, tags) })
		}
		a.form.Reset()
		a.mode = ModeNormal
		return a, cmd
	}

	var cmd tea.Cmd
	if a.mode == ModeNote {
		a.form.NoteInput, cmd = a.form.NoteInput.Update(msg)
	} else {
		a.form.TagsInput, cmd = a.form.TagsInput.Update(msg)
	}
	return a, cmd
}

func (a App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := a.dash
	switch {
	case key.Matches(msg, a.keys.Confirm):
		mode := a.mode
		id := a.form.TargetID
		a.form.TargetID = ""
		a.mode = ModeNormal
		if mode == ModeConfirmBulkDelete {
			return a, run(func(ctx context.Context) error { return d.ApplyBulkDelete(ctx, true) })
		}
		return a, run(func(ctx context.Context) error { return d.Delete(ctx, id) })

	case key.Matches(msg, a.keys.Escape), msg.String() == "n":
		a.form.TargetID = ""
		a.mode = ModeNormal
	}
	return a, nil
}

func (a App) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help), key.Matches(msg, a.keys.Escape):
		a.mode = ModeNormal
	}
	return a, nil
}

func (a *App) clampAreaCursor() {
	n := a.dash.Areas().Len()
	if a.areas.Cursor >= n {
		a.areas.Cursor = n - 1
	}
	if a.areas.Cursor < 0 {
		a.areas.Cursor = 0
	}
}

func (a App) currentArea() (model.TagArea, bool) {
	areas := a.dash.Areas().Areas()
	if a.areas.Cursor < 0 || a.areas.Cursor >= len(areas) {
		return model.TagArea{}, false
	}
	return areas[a.areas.Cursor], true
}

func (a App) updateAreas(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := a.dash
	reg := d.Areas()
	area, hasArea := a.currentArea()

	switch {
	case key.Matches(msg, a.keys.Escape), key.Matches(msg, a.keys.Areas), key.Matches(msg, a.keys.Quit):
		a.mode = ModeNormal

	case key.Matches(msg, a.keys.Down):
		if a.areas.Cursor < reg.Len()-1 {
			a.areas.Cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.areas.Cursor > 0 {
			a.areas.Cursor--
		}

	case key.Matches(msg, a.keys.Open):
		if hasArea {
			if d.Area() == area.ID {
				d.SetArea("")
			} else {
				d.SetArea(area.ID)
			}
			a.cursor = 0
			a.mode = ModeNormal
		}

	case key.Matches(msg, a.keys.AreaNew):
		a.areas.ResetInput()
		a.areas.NameInput.Focus()
		a.mode = ModeAreaName
		return a, textinput.Blink

	case key.Matches(msg, a.keys.AreaRename):
		if hasArea {
			a.areas.ResetInput()
			a.areas.RenameID = area.ID
			a.areas.NameInput.SetValue(area.Name)
			a.areas.NameInput.CursorEnd()
			a.areas.NameInput.Focus()
			a.mode = ModeAreaName
			return a, textinput.Blink
		}

	case key.Matches(msg, a.keys.AreaMoveUp):
		if hasArea && a.areas.Cursor > 0 {
			a.areas.Cursor--
			return a, run(func(ctx context.Context) error { return reg.Reorder(ctx, area.ID, tagarea.Up) })
		}

	case key.Matches(msg, a.keys.AreaMoveDown):
		if hasArea && a.areas.Cursor < reg.Len()-1 {
			a.areas.Cursor++
			return a, run(func(ctx context.Context) error { return reg.Reorder(ctx, area.ID, tagarea.Down) })
		}

	case key.Matches(msg, a.keys.AreaMerge):
		if hasArea {
			if reg.Len() < 2 {
				d.SetNotice(dashboard.Notice{Kind: dashboard.NoticeValidation, Message: "No other area to merge into"})
				return a, nil
			}
			a.areas.MergeSource = area.ID
			a.areas.MergeCursor = 0
			a.mode = ModeMergeArea
		}

	case key.Matches(msg, a.keys.AreaDelete):
		if hasArea {
			if d.Area() == area.ID {
				d.SetArea("")
			}
			return a, run(func(ctx context.Context) error {
				if err := reg.Delete(ctx, area.ID); err != nil {
					return err
				}
				d.SetNotice(dashboard.Info("Deleted area " + area.Name))
				return nil
			})
		}

	case key.Matches(msg, a.keys.AreaAssign):
		if !hasArea {
			return a, nil
		}
		ids := d.Bulk().IDs()
		if len(ids) == 0 {
			if b, ok := a.current(a.visible()); ok {
				ids = []string{b.ID}
			}
		}
		if len(ids) == 0 {
			d.SetNotice(dashboard.Classify(bulk.ErrEmptySelection))
			return a, nil
		}
		return a, run(func(ctx context.Context) error {
			if err := reg.Assign(ctx, area.ID, ids...); err != nil {
				return err
			}
			d.SetNotice(dashboard.Info(fmt.Sprintf("Assigned %d bookmark(s) to %s", len(ids), area.Name)))
			return nil
		})

	case key.Matches(msg, a.keys.AreaUnassign):
		b, ok := a.current(a.visible())
		if hasArea && ok {
			return a, run(func(ctx context.Context) error { return reg.Unassign(ctx, area.ID, b.ID) })
		}
	}

	return a, nil
}

func (a App) updateAreaName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Escape):
		a.areas.ResetInput()
		a.mode = ModeAreas
		return a, nil

	case msg.Type == tea.KeyEnter:
		name := strings.TrimSpace(a.areas.NameInput.Value())
		if name == "" {
			a.dash.SetNotice(dashboard.Classify(tagarea.ErrNameRequired))
			return a, nil
		}
		reg := a.dash.Areas()
		renameID := a.areas.RenameID
		a.areas.ResetInput()
		a.mode = ModeAreas
		if renameID != "" {
			return a, run(func(ctx context.Context) error {
				return reg.Update(ctx, renameID, model.TagAreaPatch{Name: &name})
			})
		}
		return a, run(func(ctx context.Context) error {
			_, err := reg.Create(ctx, model.NewTagArea{Name: name})
			return err
		})
	}

	var cmd tea.Cmd
	a.areas.NameInput, cmd = a.areas.NameInput.Update(msg)
	return a, cmd
}

// mergeTargets lists every area except the one being merged away.
func (a App) mergeTargets() []model.TagArea {
	var out []model.TagArea
	for _, area := range a.dash.Areas().Areas() {
		if area.ID != a.areas.MergeSource {
			out = append(out, area)
		}
	}
	return out
}

func (a App) updateMerge(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	targets := a.mergeTargets()

	switch {
	case key.Matches(msg, a.keys.Escape):
		a.areas.MergeSource = ""
		a.mode = ModeAreas

	case key.Matches(msg, a.keys.Down):
		if a.areas.MergeCursor < len(targets)-1 {
			a.areas.MergeCursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.areas.MergeCursor > 0 {
			a.areas.MergeCursor--
		}

	case msg.Type == tea.KeyEnter:
		if a.areas.MergeCursor >= len(targets) {
			return a, nil
		}
		d := a.dash
		source := a.areas.MergeSource
		target := targets[a.areas.MergeCursor]
		a.areas.MergeSource = ""
		a.areas.Cursor = 0
		a.mode = ModeAreas
		if d.Area() == source {
			d.SetArea(target.ID)
		}
		return a, run(func(ctx context.Context) error {
			if err := d.Areas().Merge(ctx, source, target.ID); err != nil {
				return err
			}
			d.SetNotice(dashboard.Info("Merged into " + target.Name))
			return nil
		})
	}

	return a, nil
}

// cycle returns the option after current, wrapping around. Unknown values
// restart at the first option.
func cycle(options []string, current string) string {
	i := slices.Index(options, current)
	return options[(i+1)%len(options)]
}

func sourceOptions() []string {
	out := []string{filter.All}
	for _, st := range model.SourceTypes {
		out = append(out, string(st))
	}
	return out
}

func statusOptions() []string {
	out := []string{filter.All}
	for _, s := range model.Statuses {
		out = append(out, string(s))
	}
	return out
}

func tagOptions(counts []filter.TagCount) []string {
	out := []string{filter.All}
	for _, tc := range counts {
		out = append(out, tc.Tag)
	}
	return out
}
