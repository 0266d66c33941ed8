package layout

// ModalSize picks one of the configured modal widths.
type ModalSize int

const (
	ModalDefault ModalSize = iota // forms and confirmations
	ModalLarge                    // tag area list and merge targets
)

// modalChrome is the rows a list modal spends outside its list: title (2),
// border (2), padding (2) and the help bar below it (3).
const modalChrome = 9

// ModalWidth is a share of the terminal width clamped to the configured
// bounds, always leaving a two cell margin on each side.
func ModalWidth(terminalWidth int, size ModalSize, cfg ModalConfig) int {
	percent := cfg.DefaultWidthPercent
	if size == ModalLarge {
		percent = cfg.LargeWidthPercent
	}
	width := max(cfg.MinWidth, min(terminalWidth*percent/100, cfg.MaxWidth))
	return max(1, min(width, terminalWidth-4))
}

// ModalListRows is how many list rows a modal shows: AreasMaxVisible, or
// fewer when the terminal is short.
func ModalListRows(terminalHeight int, cfg ModalConfig) int {
	return max(1, min(cfg.AreasMaxVisible, terminalHeight-modalChrome))
}

// ListWindow returns the bounds [start, end) of the rows to draw from a list
// of total entries so that cursor stays visible. Once the cursor passes the
// first screen it sits on the last drawn row.
func ListWindow(cursor, total, rows int) (start, end int) {
	if rows <= 0 {
		return 0, 0
	}
	if total <= rows {
		return 0, total
	}
	start = max(0, min(cursor-rows+1, total-rows))
	return start, start + rows
}
