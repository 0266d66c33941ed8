package tui

import "strings"

// Hint represents a single keybind hint for display.
type Hint struct {
	Key  string // Display key (e.g., "j/k", "Enter")
	Desc string // Short description (e.g., "move", "open")
}

// renderHint renders a single hint as "key:desc" with styling.
func (a App) renderHint(h Hint) string {
	return a.styles.HintKey.Render(h.Key) + ":" + a.styles.HintDesc.Render(h.Desc)
}

// renderHints renders hints in horizontal format for bottom bar: "j/k:move s:status l:open"
func (a App) renderHints(hints HintSet) string {
	return a.renderHintSlice(hints.All())
}

// renderHintSlice renders a slice of hints in horizontal format.
func (a App) renderHintSlice(hints []Hint) string {
	if len(hints) == 0 {
		return ""
	}

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = a.renderHint(h)
	}
	return strings.Join(parts, " ")
}

// renderHintsInline renders hints in inline format for modals: "Enter confirm  Esc cancel"
func (a App) renderHintsInline(hints []Hint) string {
	if len(hints) == 0 {
		return ""
	}

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = a.styles.HintKey.Render(h.Key) + " " + a.styles.HintDesc.Render(h.Desc)
	}
	return strings.Join(parts, "  ")
}

// HintSet is an ordered collection of hints by group.
type HintSet struct {
	Nav    []Hint // Navigation hints (j/k, gg, etc.)
	Edit   []Hint // Edit hints (a, n, t, d, etc.)
	Action []Hint // Action hints (Enter, Tab, etc.)
	System []Hint // System hints (?, q, Esc)
}

// All returns all hints flattened in display order: Nav + Action + Edit + System.
func (h HintSet) All() []Hint {
	result := make([]Hint, 0, len(h.Nav)+len(h.Action)+len(h.Edit)+len(h.System))
	result = append(result, h.Nav...)
	result = append(result, h.Action...)
	result = append(result, h.Edit...)
	result = append(result, h.System...)
	return result
}

// getContextualHints returns the appropriate hints for the current mode.
func (a App) getContextualHints() HintSet {
	switch a.mode {
	case ModeSearch:
		return HintSet{
			Action: []Hint{{"Enter", "keep"}},
			System: []Hint{{"Esc", "clear"}},
		}
	case ModeAdd:
		return HintSet{
			Nav:    []Hint{{"Tab", "field"}},
			Action: []Hint{{"Enter", "save"}},
			System: []Hint{{"Esc", "cancel"}},
		}
	case ModeNote, ModeTags, ModeAreaName:
		return HintSet{
			Action: []Hint{{"Enter", "save"}},
			System: []Hint{{"Esc", "cancel"}},
		}
	case ModeConfirmDelete, ModeConfirmBulkDelete:
		return HintSet{
			Action: []Hint{{"Enter/y", "delete"}},
			System: []Hint{{"Esc/n", "cancel"}},
		}
	case ModeAreas:
		return HintSet{
			Nav:    []Hint{{"j/k", "move"}, {"J/K", "reorder"}},
			Action: []Hint{{"l", "filter"}, {"a", "assign"}, {"u", "unassign"}},
			Edit:   []Hint{{"n", "new"}, {"e", "rename"}, {"m", "merge"}, {"d", "delete"}},
			System: []Hint{{"Esc", "close"}},
		}
	case ModeMergeArea:
		return HintSet{
			Nav:    []Hint{{"j/k", "move"}},
			Action: []Hint{{"Enter", "merge"}},
			System: []Hint{{"Esc", "back"}},
		}
	case ModeHelp:
		return HintSet{System: []Hint{{"?/Esc", "close"}, {"q", "quit"}}}
	}

	if a.dash.Bulk().Active() {
		return HintSet{
			Nav:    []Hint{{"j/k", "move"}},
			Action: []Hint{{"v/l", "toggle"}, {"V", "all"}},
			Edit:   []Hint{{"1", "unread"}, {"2", "reading"}, {"3", "done"}, {"d", "delete"}, {"A", "assign"}},
			System: []Hint{{"Esc", "done"}},
		}
	}
	return HintSet{
		Nav:    []Hint{{"j/k", "move"}},
		Action: []Hint{{"l", "open"}, {"s", "status"}, {"Y", "yank"}},
		Edit:   []Hint{{"a", "add"}, {"n", "note"}, {"t", "tags"}, {"d", "delete"}, {"v", "select"}},
	}
}

// getGlobalHints returns the always-available hints shown in normal mode.
func (a App) getGlobalHints() []Hint {
	return []Hint{
		{"/", "search"},
		{"f", "source"},
		{"F", "status"},
		{"T", "tag"},
		{"o", "sort"},
		{"A", "areas"},
		{"R", "reload"},
		{"?", "help"},
		{"q", "quit"},
	}
}
