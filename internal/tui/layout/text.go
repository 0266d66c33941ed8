package layout

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const reset = "\x1b[0m"

// Width is the number of terminal cells s occupies. Escape codes take none,
// wide runes such as tag area emoji take two.
func Width(s string) int {
	return ansi.StringWidth(s)
}

// Plain drops escape codes.
func Plain(s string) string {
	return ansi.Strip(s)
}

// TruncateText fits text into maxWidth cells, ending in the configured
// ellipsis when cut. It reports whether anything was cut.
func TruncateText(text string, maxWidth int, cfg TextConfig) (string, bool) {
	if maxWidth <= 0 {
		return "", true
	}
	if Width(text) <= maxWidth {
		return text, false
	}
	if Width(cfg.Ellipsis) >= maxWidth {
		return ansi.Truncate(cfg.Ellipsis, maxWidth, ""), true
	}
	return ansi.Truncate(text, maxWidth, cfg.Ellipsis), true
}

// FitLabel fits prefix+text+suffix into maxWidth cells, cutting only text so
// markers and counts stay visible:
//
//	FitLabel("> ", "Development", " 12", 12, cfg) // "> Deve... 12"
//
// When prefix and suffix alone do not fit, the whole line is cut instead.
func FitLabel(prefix, text, suffix string, maxWidth int, cfg TextConfig) (string, bool) {
	if maxWidth <= 0 {
		return "", true
	}
	line := prefix + text + suffix
	if Width(line) <= maxWidth {
		return line, false
	}

	room := maxWidth - Width(prefix) - Width(suffix)
	if room <= Width(cfg.Ellipsis) {
		return TruncateText(line, maxWidth, cfg)
	}
	return prefix + ansi.Truncate(text, room, cfg.Ellipsis) + suffix, true
}

// TruncateStyled fits already styled text into maxWidth cells. A cut line
// ends with a reset so its colours do not bleed into the pane border.
func TruncateStyled(styled string, maxWidth int, cfg TextConfig) string {
	if maxWidth <= 0 {
		return ""
	}
	if Width(styled) <= maxWidth {
		return styled
	}
	out, _ := TruncateText(styled, maxWidth, cfg)
	return out + reset
}

// PadRight pads s with spaces to width cells so highlighted rows fill the pane.
func PadRight(s string, width int) string {
	if n := Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
