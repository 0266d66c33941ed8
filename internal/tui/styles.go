package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/stash/internal/model"
)

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	App              lipgloss.Style
	Pane             lipgloss.Style
	PaneActive       lipgloss.Style
	Modal            lipgloss.Style
	Title            lipgloss.Style
	Item             lipgloss.Style
	ItemSelected     lipgloss.Style
	ItemMarked       lipgloss.Style // bulk-selected, cursor elsewhere
	ItemMarkedCursor lipgloss.Style
	Match            lipgloss.Style // search match inside a title
	URL              lipgloss.Style
	Tag              lipgloss.Style
	Date             lipgloss.Style
	Help             lipgloss.Style
	Empty            lipgloss.Style
	Header           lipgloss.Style // filter summary above the panes
	HintKey          lipgloss.Style // Key portion of hints (e.g., "Enter", "j/k")
	HintDesc         lipgloss.Style // Description portion of hints (e.g., "confirm", "move")
	HintLabel        lipgloss.Style // "Local"/"Global" row labels
	Statuses         map[model.Status]lipgloss.Style
}

// DefaultStyles returns the default style configuration.
// Industrial design: grayscale with single desaturated teal accent.
func DefaultStyles() Styles {
	// Industrial color palette
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"} // main text
	subtle := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"}  // secondary text
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}  // desaturated teal
	border := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#505050"}  // inactive borders
	marked := lipgloss.AdaptiveColor{Light: "#C8D8D8", Dark: "#2F4444"}  // bulk selection

	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Pane: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(border).
			Padding(0, 1),

		PaneActive: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Padding(0, 1),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Item: lipgloss.NewStyle().
			Foreground(primary).
			PaddingLeft(1),

		ItemSelected: lipgloss.NewStyle().
			PaddingLeft(1).
			Background(accent).
			Foreground(lipgloss.Color("#1A1A1A")),

		ItemMarked: lipgloss.NewStyle().
			PaddingLeft(1).
			Background(marked).
			Foreground(primary),

		ItemMarkedCursor: lipgloss.NewStyle().
			PaddingLeft(1).
			Bold(true).
			Background(accent).
			Foreground(lipgloss.Color("#1A1A1A")),

		Match: lipgloss.NewStyle().
			Bold(true).
			Underline(true),

		URL: lipgloss.NewStyle().
			Foreground(subtle),

		Tag: lipgloss.NewStyle().
			Foreground(subtle),

		Date: lipgloss.NewStyle().
			Foreground(subtle),

		Help: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(1, 0),

		Empty: lipgloss.NewStyle().
			Foreground(subtle),

		Header: lipgloss.NewStyle().
			Foreground(subtle).
			PaddingLeft(1),

		HintKey: lipgloss.NewStyle().
			Foreground(subtle),

		HintDesc: lipgloss.NewStyle().
			Foreground(subtle),

		HintLabel: lipgloss.NewStyle().
			Foreground(accent),

		Statuses: map[model.Status]lipgloss.Style{
			model.StatusUnread:  lipgloss.NewStyle().Foreground(accent),
			model.StatusReading: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#CC8800", Dark: "#FFAA00"}),
			model.StatusDone:    lipgloss.NewStyle().Foreground(subtle),
		},
	}
}

// statusMarker is the one-character status column of a list row.
func statusMarker(s model.Status) string {
	switch s {
	case model.StatusReading:
		return "◐"
	case model.StatusDone:
		return "●"
	default:
		return "○"
	}
}
