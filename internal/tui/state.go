package tui

import (
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/nikbrunner/stash/internal/tui/layout"
)

// Mode is what the keyboard currently drives.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeAdd
	ModeNote
	ModeTags
	ModeConfirmDelete
	ModeConfirmBulkDelete
	ModeAreas
	ModeAreaName
	ModeMergeArea
	ModeHelp
)

// FormState holds the inputs of the add, note and tags modals.
type FormState struct {
	URLInput  textinput.Model
	TagsInput textinput.Model
	NoteInput textinput.Model
	Field     int    // focused input of the add form: 0 = URL, 1 = tags
	TargetID  string // bookmark being edited
}

// NewFormState creates a new FormState with initialized inputs.
func NewFormState(cfg layout.LayoutConfig) FormState {
	urlInput := textinput.New()
	urlInput.Placeholder = "https://..."
	urlInput.CharLimit = cfg.Input.URLCharLimit
	urlInput.Width = cfg.Input.StandardWidth

	tagsInput := textinput.New()
	tagsInput.Placeholder = "tag1, tag2, tag3"
	tagsInput.CharLimit = cfg.Input.TagsCharLimit
	tagsInput.Width = cfg.Input.StandardWidth

	noteInput := textinput.New()
	noteInput.Placeholder = "Note"
	noteInput.CharLimit = cfg.Input.NoteCharLimit
	noteInput.Width = cfg.Input.StandardWidth

	return FormState{
		URLInput:  urlInput,
		TagsInput: tagsInput,
		NoteInput: noteInput,
	}
}

// Reset clears all inputs for a new modal session.
func (f *FormState) Reset() {
	f.URLInput.Reset()
	f.TagsInput.Reset()
	f.NoteInput.Reset()
	f.URLInput.Blur()
	f.TagsInput.Blur()
	f.NoteInput.Blur()
	f.Field = 0
	f.TargetID = ""
}

// FocusField moves focus between the URL and tags inputs of the add form.
func (f *FormState) FocusField(field int) {
	f.Field = field
	if field == 0 {
		f.TagsInput.Blur()
		f.URLInput.Focus()
		return
	}
	f.URLInput.Blur()
	f.TagsInput.Focus()
}

// AreaPanelState holds state for the tag area panel.
type AreaPanelState struct {
	Cursor      int
	NameInput   textinput.Model
	RenameID    string // area being renamed, empty when creating
	MergeSource string // area being merged away
	MergeCursor int    // index into the merge target list
}

// NewAreaPanelState creates a new AreaPanelState with an initialized input.
func NewAreaPanelState(cfg layout.LayoutConfig) AreaPanelState {
	input := textinput.New()
	input.Placeholder = "Area name"
	input.CharLimit = cfg.Input.NameCharLimit
	input.Width = cfg.Input.StandardWidth
	return AreaPanelState{NameInput: input}
}

// ResetInput clears the name input.
func (s *AreaPanelState) ResetInput() {
	s.NameInput.Reset()
	s.NameInput.Blur()
	s.RenameID = ""
}

// NewSearchInput creates the inline search input.
func NewSearchInput(cfg layout.LayoutConfig) textinput.Model {
	input := textinput.New()
	input.Placeholder = "Search..."
	input.Prompt = "/"
	input.CharLimit = cfg.Input.SearchCharLimit
	input.Width = cfg.Input.SearchWidth
	return input
}
