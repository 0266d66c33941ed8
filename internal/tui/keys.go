package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Open     key.Binding
	YankURL  key.Binding
	Status   key.Binding
	Add      key.Binding
	Note     key.Binding
	EditTags key.Binding
	Delete   key.Binding
	Search   key.Binding
	Source   key.Binding
	StatusF  key.Binding
	Tag      key.Binding
	Sort     key.Binding
	Areas    key.Binding
	Reload   key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
	Confirm  key.Binding

	// Bulk selection
	Select       key.Binding
	SelectAll    key.Binding
	MarkUnread   key.Binding
	MarkReading  key.Binding
	MarkDone     key.Binding
	BulkDelete   key.Binding

	// Forms and the tag area panel
	NextField    key.Binding
	AreaNew      key.Binding
	AreaRename   key.Binding
	AreaMoveUp   key.Binding
	AreaMoveDown key.Binding
	AreaMerge    key.Binding
	AreaDelete   key.Binding
	AreaAssign   key.Binding
	AreaUnassign key.Binding
}

// DefaultKeyMap returns the default vim-style key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("gg", "go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "go to bottom"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "l"),
			key.WithHelp("l/enter", "open url"),
		),
		YankURL: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "yank URL"),
		),
		Status: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add bookmark"),
		),
		Note: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "append note"),
		),
		EditTags: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "edit tags"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Source: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle source"),
		),
		StatusF: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "cycle status filter"),
		),
		Tag: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "cycle tag filter"),
		),
		Sort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "cycle sort"),
		),
		Areas: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "tag areas"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R", "ctrl+r"),
			key.WithHelp("R", "reload"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("enter/y", "confirm"),
		),
		Select: key.NewBinding(
			key.WithKeys("v", " "),
			key.WithHelp("v", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("V"),
			key.WithHelp("V", "select all"),
		),
		MarkUnread: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "mark unread"),
		),
		MarkReading: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "mark reading"),
		),
		MarkDone: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "mark done"),
		),
		BulkDelete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete selected"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		AreaNew: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new area"),
		),
		AreaRename: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename"),
		),
		AreaMoveUp: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "move up"),
		),
		AreaMoveDown: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "move down"),
		),
		AreaMerge: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "merge into"),
		),
		AreaDelete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete area"),
		),
		AreaAssign: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "assign"),
		),
		AreaUnassign: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unassign"),
		),
	}
}
