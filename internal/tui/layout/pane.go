package layout

// PaneLayout is the dashboard geometry for one terminal size:
// filter sidebar | bookmark list | preview, all Height rows tall.
type PaneLayout struct {
	Sidebar int
	List    int
	Preview int
	Height  int

	padding int
}

// Panes splits the terminal. The sidebar takes SidebarPercent of the usable
// width; list and preview share the rest, the list getting the odd column.
// Every dimension is clamped to its configured minimum.
func Panes(terminalWidth, terminalHeight int, cfg PaneConfig) PaneLayout {
	usable := max(0, terminalWidth-cfg.WidthOffset)
	sidebar := max(cfg.MinSidebarWidth, usable*cfg.SidebarPercent/100)

	rest := usable - sidebar
	preview := rest / 2
	list := rest - preview

	return PaneLayout{
		Sidebar: sidebar,
		List:    max(cfg.MinListWidth, list),
		Preview: max(cfg.MinListWidth, preview),
		Height:  max(cfg.MinHeight, terminalHeight-cfg.HeightReduction),
		padding: cfg.ContentPadding,
	}
}

// Inner is the text width inside a pane of the given outer width.
func (l PaneLayout) Inner(paneWidth int) int {
	return max(1, paneWidth-l.padding)
}

// Rows is how many list rows fit below headerLines of pane header.
func (l PaneLayout) Rows(headerLines int) int {
	return max(1, l.Height-headerLines)
}

// Viewport returns the first visible row of a scrolled list, keeping cursor
// near the middle of rows visible rows.
func Viewport(cursor, total, rows int) int {
	if total <= rows {
		return 0
	}
	return max(0, min(cursor-rows/2, total-rows))
}
