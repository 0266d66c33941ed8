package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/stash/internal/dashboard"
	"github.com/nikbrunner/stash/internal/filter"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/tui/layout"
)

// renderView creates the complete dashboard view.
func (a App) renderView() string {
	vm := a.dash.View()

	switch a.mode {
	case ModeHelp:
		return a.renderHelpOverlay()
	case ModeNormal, ModeSearch:
	default:
		return a.renderModal(vm)
	}

	panes := layout.Panes(a.width, a.height, a.layoutConfig.Pane)

	columns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.renderSidebar(vm, panes),
		a.renderListPane(vm, panes),
		a.renderPreviewPane(vm, panes),
	)

	content := a.styles.App.Render(
		lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(vm), columns, a.renderHelpBar(vm)),
	)

	// Use Place to ensure exact terminal dimensions and prevent overflow
	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top, content)
}

// renderHeader renders the app name, the active filters and the list size.
func (a App) renderHeader(vm dashboard.ViewModel) string {
	c := vm.Criteria
	parts := []string{
		"source:" + c.Source,
		"status:" + c.Status,
		"tag:" + c.Tag,
		"sort:" + c.Sort.Label(),
	}
	if vm.Area != "" {
		if area, ok := a.dash.Areas().Get(vm.Area); ok {
			parts = append(parts, "area:"+area.Name)
		}
	}
	if vm.Placeholder == "" {
		parts = append(parts, fmt.Sprintf("%d/%d", len(vm.Bookmarks), vm.Total))
	}

	availableWidth := a.width - 4 - len("stash ")
	summary, _ := layout.TruncateText(strings.Join(parts, "  "), availableWidth, a.layoutConfig.Text)
	return a.styles.Title.Render("stash") + a.styles.Header.Render(summary)
}

// renderSidebar renders source, status, area and tag counts. The active
// choice of each group is marked.
func (a App) renderSidebar(vm dashboard.ViewModel, panes layout.PaneLayout) string {
	var content strings.Builder
	width, height := panes.Sidebar, panes.Height
	itemWidth := panes.Inner(width)
	lines := 0

	row := func(label string, count int, active bool) {
		if lines >= height {
			return
		}
		prefix := "  "
		if active {
			prefix = "› "
		}
		suffix := " " + strconv.Itoa(count)
		line, _ := layout.FitLabel(prefix, label, suffix, itemWidth, a.layoutConfig.Text)
		if active {
			content.WriteString(a.styles.Title.Render(line) + "\n")
		} else {
			content.WriteString(a.styles.Item.UnsetPaddingLeft().Render(line) + "\n")
		}
		lines++
	}
	section := func(title string) {
		if lines >= height {
			return
		}
		if lines > 0 {
			content.WriteString("\n")
			lines++
		}
		content.WriteString(a.styles.Date.Render(title) + "\n")
		lines++
	}

	section("sources")
	row("All", vm.SourceCounts[filter.All], vm.Criteria.Source == filter.All)
	for _, st := range model.SourceTypes {
		if n := vm.SourceCounts[string(st)]; n > 0 || vm.Criteria.Source == string(st) {
			row(st.Label(), n, vm.Criteria.Source == string(st))
		}
	}

	section("status")
	row("All", vm.StatusCounts[filter.All], vm.Criteria.Status == filter.All)
	for _, s := range model.Statuses {
		row(string(s), vm.StatusCounts[string(s)], vm.Criteria.Status == string(s))
	}

	if len(vm.Areas) > 0 {
		section("areas")
		for _, ac := range vm.Areas {
			row(ac.Area.Label(), ac.Count, vm.Area == ac.Area.ID)
		}
	}

	if len(vm.TagCounts) > 0 {
		section("tags")
		for _, tc := range vm.TagCounts {
			row("#"+tc.Tag, tc.Count, vm.Criteria.Tag == tc.Tag)
		}
	}

	return a.styles.Pane.
		Width(width).
		Height(height).
		MaxHeight(height + 2).
		Render(strings.TrimRight(content.String(), "\n"))
}

func (a App) renderListPane(vm dashboard.ViewModel, panes layout.PaneLayout) string {
	var content strings.Builder
	width, height := panes.List, panes.Height

	// Search input or indicator at top
	headerLines := 0
	if a.mode == ModeSearch {
		content.WriteString(a.search.View() + "\n")
		headerLines = 1
	} else if vm.Criteria.Search != "" {
		content.WriteString(a.styles.Tag.Render("/"+vm.Criteria.Search) + "\n")
		headerLines = 1
	}
	visibleHeight := panes.Rows(headerLines)
	itemWidth := panes.Inner(width)

	switch {
	case vm.Placeholder != "":
		content.WriteString(a.styles.Empty.Render(vm.Placeholder))
	case len(vm.Bookmarks) == 0 && vm.Total > 0:
		content.WriteString(a.styles.Empty.Render("(no matches)"))
	case len(vm.Bookmarks) == 0:
		content.WriteString(a.styles.Empty.Render("(empty)"))
	default:
		selected := map[string]bool{}
		for _, id := range vm.Bulk.Selected {
			selected[id] = true
		}

		offset := layout.Viewport(a.cursor, len(vm.Bookmarks), visibleHeight)
		for i, b := range vm.Bookmarks {
			if i < offset {
				continue
			}
			if i >= offset+visibleHeight {
				break
			}
			line := a.renderItem(b, i == a.cursor, selected[b.ID], vm.Criteria.Search, itemWidth)
			content.WriteString(line + "\n")
		}
	}

	style := a.styles.PaneActive
	if a.mode == ModeSearch {
		style = a.styles.Pane
	}
	return style.
		Width(width).
		Height(height).
		MaxHeight(height + 2).
		Render(strings.TrimRight(content.String(), "\n"))
}

func (a App) renderItem(b model.Bookmark, isCursor, isMarked bool, query string, maxWidth int) string {
	prefix := statusMarker(b.Status) + " "
	if isMarked {
		prefix = "▸ " + prefix
	}

	title := b.Title
	if title == "" {
		title = b.URL
	}
	line, _ := layout.FitLabel(prefix, title, "", maxWidth, a.layoutConfig.Text)

	// Highlight only when the row carries no background of its own
	if !isCursor && !isMarked {
		styled := a.highlight(line, query)
		return a.styles.Item.Render(layout.TruncateStyled(styled, maxWidth, a.layoutConfig.Text))
	}

	line = layout.PadRight(line, maxWidth)
	switch {
	case isCursor && isMarked:
		return a.styles.ItemMarkedCursor.Render(line)
	case isCursor:
		return a.styles.ItemSelected.Render(line)
	default:
		return a.styles.ItemMarked.Render(line)
	}
}

// highlight styles every case-insensitive occurrence of query in text.
func (a App) highlight(text, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return text
	}
	lower := strings.ToLower(text)
	q := strings.ToLower(query)
	if len(lower) != len(text) {
		// Case folding changed byte offsets; skip highlighting.
		return text
	}

	var out strings.Builder
	for {
		i := strings.Index(lower, q)
		if i < 0 {
			out.WriteString(text)
			return out.String()
		}
		out.WriteString(text[:i])
		out.WriteString(a.styles.Match.Render(text[i : i+len(q)]))
		text, lower = text[i+len(q):], lower[i+len(q):]
	}
}

func (a App) renderPreviewPane(vm dashboard.ViewModel, panes layout.PaneLayout) string {
	var content strings.Builder
	width, height := panes.Preview, panes.Height
	itemWidth := panes.Inner(width)

	if a.cursor >= 0 && a.cursor < len(vm.Bookmarks) {
		b := vm.Bookmarks[a.cursor]

		title := b.Title
		if title == "" {
			title = "(untitled)"
		}
		content.WriteString(a.styles.Title.Render(title) + "\n\n")

		url, _ := layout.TruncateText(b.URL, itemWidth, a.layoutConfig.Text)
		content.WriteString(a.styles.URL.Render(url) + "\n\n")

		statusStyle := a.styles.Statuses[b.Status]
		content.WriteString(b.SourceType.Label() + " · " + statusStyle.Render(string(b.Status)) + "\n")

		var media []string
		if b.Channel != "" {
			media = append(media, b.Channel)
		}
		if b.Duration != "" {
			media = append(media, b.Duration)
		}
		if len(media) > 0 {
			content.WriteString(a.styles.Date.Render(strings.Join(media, " · ")) + "\n")
		}
		content.WriteString("\n")

		if len(b.Tags) > 0 {
			tags := make([]string, len(b.Tags))
			for i, tag := range b.Tags {
				tags[i] = "#" + tag
			}
			content.WriteString(a.styles.Tag.Render(strings.Join(tags, " ")) + "\n")
		}
		if areas := a.dash.Areas().AreasFor(b.ID); len(areas) > 0 {
			labels := make([]string, len(areas))
			for i, area := range areas {
				labels[i] = area.Label()
			}
			content.WriteString(a.styles.Tag.Render(strings.Join(labels, ", ")) + "\n")
		}
		if len(b.Tags) == 0 && !a.dash.Areas().HasAreas(b.ID) {
			content.WriteString(a.styles.Empty.Render("unsorted") + "\n")
		}
		content.WriteString("\n")

		if !b.CreatedAt.IsZero() {
			content.WriteString(a.styles.Date.Render(
				fmt.Sprintf("Saved: %s (%s)", b.CreatedAt.Format("2006-01-02"), formatTimeAgo(b.CreatedAt)),
			) + "\n")
		}

		if b.Notes != "" {
			content.WriteString("\n" + lipgloss.NewStyle().Width(itemWidth).Render(b.Notes))
		}
	}

	return a.styles.Pane.
		Width(width).
		Height(height).
		MaxHeight(height + 2).
		Render(strings.TrimRight(content.String(), "\n"))
}

func (a App) renderHelpBar(vm dashboard.ViewModel) string {
	var lines []string

	// Line 1: Empty spacer OR notice (notice replaces the gap)
	if !vm.Notice.IsZero() {
		lines = append(lines, a.renderMessageLine(vm.Notice))
	} else {
		lines = append(lines, "")
	}

	// Line 2: Local (contextual) keyboard hints, prefixed by state toggles
	localHints := a.renderHints(a.getContextualHints())
	if toggles := a.renderStatusToggles(vm); toggles != "" {
		localHints = toggles + " " + localHints
	}
	if localHints != "" {
		lines = append(lines, a.styles.HintLabel.Render("Local  ")+localHints)
	}

	// Line 3: Global keyboard hints (only in normal mode)
	if a.mode == ModeNormal {
		globalHints := a.renderHintSlice(a.getGlobalHints())
		lines = append(lines, a.styles.HintLabel.Render("Global ")+globalHints)
	}

	return strings.Join(lines, "\n")
}

// renderStatusToggles renders [bulk:N] and [tagging] indicators.
func (a App) renderStatusToggles(vm dashboard.ViewModel) string {
	var parts []string
	if vm.Bulk.Active {
		parts = append(parts, fmt.Sprintf("[bulk:%d]", len(vm.Bulk.Selected)))
	}
	if vm.Tagging {
		parts = append(parts, "[tagging]")
	}
	return strings.Join(parts, " ")
}

// renderMessageLine renders the notice with a prefix icon based on its kind.
func (a App) renderMessageLine(n dashboard.Notice) string {
	var msgStyle lipgloss.Style
	var prefix string

	switch n.Kind {
	case dashboard.NoticeError:
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CC3333", Dark: "#FF6666"}).
			Bold(true)
		prefix = "✗ "
	case dashboard.NoticeConnectivity, dashboard.NoticeSetup, dashboard.NoticeValidation:
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CC8800", Dark: "#FFAA00"}).
			Bold(true)
		prefix = "⚠ "
	default: // NoticeInfo
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}).
			Bold(true)
		prefix = "✓ "
	}

	return msgStyle.Render(prefix + n.Message)
}

// renderModal renders the modal for the current mode centered above the help bar.
func (a App) renderModal(vm dashboard.ViewModel) string {
	var title, content strings.Builder
	size := layout.ModalDefault

	switch a.mode {
	case ModeAdd:
		title.WriteString("Add Bookmark\n\n")
		content.WriteString("URL:\n")
		content.WriteString(a.form.URLInput.View())
		content.WriteString("\n\n")
		content.WriteString("Tags (comma-separated):\n")
		content.WriteString(a.form.TagsInput.View())

	case ModeNote:
		title.WriteString("Append Note\n\n")
		content.WriteString(a.targetTitle() + "\n\n")
		content.WriteString(a.form.NoteInput.View())

	case ModeTags:
		title.WriteString("Edit Tags\n\n")
		content.WriteString(a.targetTitle() + "\n\n")
		content.WriteString("Tags (comma-separated):\n")
		content.WriteString(a.form.TagsInput.View())

	case ModeConfirmDelete:
		title.WriteString("Delete Bookmark?\n\n")
		content.WriteString(a.targetTitle() + "\n\n")
		content.WriteString(a.styles.Help.Render("This action cannot be undone.") + "\n")
		content.WriteString(a.renderHintsInline([]Hint{{"Enter", "confirm"}, {"Esc", "cancel"}}))

	case ModeConfirmBulkDelete:
		title.WriteString("Delete " + strconv.Itoa(len(vm.Bulk.Selected)) + " bookmarks?\n\n")
		content.WriteString(a.styles.Help.Render("This action cannot be undone.") + "\n")
		content.WriteString(a.renderHintsInline([]Hint{{"Enter", "confirm"}, {"Esc", "cancel"}}))

	case ModeAreaName:
		if a.areas.RenameID != "" {
			title.WriteString("Rename Area\n\n")
		} else {
			title.WriteString("New Area\n\n")
		}
		content.WriteString(a.areas.NameInput.View())

	case ModeAreas:
		size = layout.ModalLarge
		title.WriteString("Tag Areas\n\n")
		a.renderAreaList(&content, vm)

	case ModeMergeArea:
		size = layout.ModalLarge
		source, _ := a.dash.Areas().Get(a.areas.MergeSource)
		title.WriteString("Merge " + source.Name + " into\n\n")
		a.renderMergeTargets(&content)
	}

	modalWidth := layout.ModalWidth(a.width, size, a.layoutConfig.Modal)
	modalContent := a.styles.Title.Render(title.String()) + content.String()

	// Place modal in center, then add help bar at bottom
	modal := lipgloss.Place(
		a.width,
		a.height-3, // Leave room for help bar
		lipgloss.Center,
		lipgloss.Center,
		a.styles.Modal.Width(modalWidth).Render(modalContent),
	)

	return lipgloss.JoinVertical(lipgloss.Left, modal, a.renderHelpBar(vm))
}

// targetTitle is the title of the bookmark a modal acts on.
func (a App) targetTitle() string {
	b, ok := a.dash.Cache().Get(a.form.TargetID)
	if !ok {
		return ""
	}
	if b.Title == "" {
		return b.URL
	}
	return b.Title
}

func (a App) renderAreaList(content *strings.Builder, vm dashboard.ViewModel) {
	if len(vm.Areas) == 0 {
		content.WriteString(a.styles.Empty.Render("No tag areas yet. Press n to create one."))
		return
	}

	rows := layout.ModalListRows(a.height, a.layoutConfig.Modal)
	start, end := layout.ListWindow(a.areas.Cursor, len(vm.Areas), rows)
	for i := start; i < end; i++ {
		ac := vm.Areas[i]
		label := fmt.Sprintf("%s (%d)", ac.Area.Label(), ac.Count)
		if vm.Area == ac.Area.ID {
			label += " *"
		}
		if i == a.areas.Cursor {
			content.WriteString(a.styles.ItemSelected.Render("▸ " + label))
		} else {
			content.WriteString("  " + label)
		}
		content.WriteString("\n")
	}
	if ac := a.areas.Cursor; ac >= 0 && ac < len(vm.Areas) && vm.Areas[ac].Area.Description != "" {
		content.WriteString("\n" + a.styles.Help.UnsetPadding().Render(vm.Areas[ac].Area.Description))
	}
}

func (a App) renderMergeTargets(content *strings.Builder) {
	targets := a.mergeTargets()
	rows := layout.ModalListRows(a.height, a.layoutConfig.Modal)
	start, end := layout.ListWindow(a.areas.MergeCursor, len(targets), rows)
	for i := start; i < end; i++ {
		if i == a.areas.MergeCursor {
			content.WriteString(a.styles.ItemSelected.Render("▸ " + targets[i].Label()))
		} else {
			content.WriteString("  " + targets[i].Label())
		}
		content.WriteString("\n")
	}
}

func (a App) renderHelpOverlay() string {
	// Brutalist style: no border, just raw columns
	modalStyle := lipgloss.NewStyle().
		Padding(1, 2)

	// Left column: Navigation + Filters
	var left strings.Builder
	left.WriteString(a.styles.Title.Render("nav") + "\n")
	left.WriteString("j/k  move\n")
	left.WriteString("gg   top\n")
	left.WriteString("G    bottom\n")
	left.WriteString("l    open url\n")
	left.WriteString("Y    yank url\n")
	left.WriteString("\n")
	left.WriteString(a.styles.Title.Render("filter") + "\n")
	left.WriteString("/    search\n")
	left.WriteString("f    source\n")
	left.WriteString("F    status\n")
	left.WriteString("T    tag\n")
	left.WriteString("o    sort\n")
	left.WriteString("Esc  clear\n")
	left.WriteString("\n")
	left.WriteString(a.styles.Title.Render("areas (A)") + "\n")
	left.WriteString("n/e  new/rename\n")
	left.WriteString("J/K  reorder\n")
	left.WriteString("m    merge\n")
	left.WriteString("a/u  assign/unassign\n")

	// Right column: Edit + Selection
	var right strings.Builder
	right.WriteString(a.styles.Title.Render("edit") + "\n")
	right.WriteString("a    add bookmark\n")
	right.WriteString("s    cycle status\n")
	right.WriteString("n    append note\n")
	right.WriteString("t    tags\n")
	right.WriteString("d    delete\n")
	right.WriteString("R    reload\n")
	right.WriteString("\n")
	right.WriteString(a.styles.Title.Render("select") + "\n")
	right.WriteString("v    select item\n")
	right.WriteString("V    select all\n")
	right.WriteString("1/2/3 unread/reading/done\n")
	right.WriteString("d    delete selected\n")
	right.WriteString("Esc  clear select\n")
	right.WriteString("\n")
	right.WriteString(a.styles.Help.Render("[?/esc] close  [q] quit"))

	// Join columns
	leftCol := lipgloss.NewStyle().Width(a.layoutConfig.Modal.HelpLeftColumnWidth).Render(left.String())
	rightCol := lipgloss.NewStyle().Width(a.layoutConfig.Modal.HelpRightColumnWidth).Render(right.String())
	cols := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, "  ", rightCol)

	// Top-left aligned, brutalist style
	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Left,
		lipgloss.Top,
		modalStyle.Render(cols),
	)
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)
	if d < time.Minute {
		return "just now"
	} else if d < time.Hour {
		m := int(d.Minutes())
		if m == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", m)
	} else if d < 24*time.Hour {
		h := int(d.Hours())
		if h == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", h)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1d ago"
	}
	return fmt.Sprintf("%dd ago", days)
}
