package layout

// LayoutConfig holds all layout-related configuration values.
type LayoutConfig struct {
	Pane  PaneConfig
	Modal ModalConfig
	Input InputConfig
	Text  TextConfig
}

// PaneConfig holds pane dimension configuration.
type PaneConfig struct {
	// HeightReduction is subtracted from terminal height for pane content.
	// Accounts for: app padding (1) + header (1) + pane borders (2) + help bar (3) = 7
	HeightReduction int

	// MinHeight is the minimum pane height.
	MinHeight int

	// WidthOffset is subtracted from the terminal width before it is split.
	// Accounts for app padding and the borders of all three panes.
	WidthOffset int

	// SidebarPercent is the share of the usable width given to the filter sidebar.
	SidebarPercent int

	// MinSidebarWidth is the minimum width of the filter sidebar.
	MinSidebarWidth int

	// MinListWidth is the minimum width of the bookmark list and the preview.
	MinListWidth int

	// ContentPadding is subtracted from pane width for item rendering.
	// Accounts for pane border/padding on each side.
	ContentPadding int
}

// ModalConfig holds modal dialog configuration.
type ModalConfig struct {
	// DefaultWidthPercent is the standard modal width as percentage of terminal width.
	DefaultWidthPercent int

	// LargeWidthPercent is used for the tag area panel.
	LargeWidthPercent int

	// MinWidth is the minimum modal width in characters.
	MinWidth int

	// MaxWidth is the maximum modal width in characters.
	MaxWidth int

	// AreasMaxVisible: max tag areas shown in the area panel.
	AreasMaxVisible int

	// HelpLeftColumnWidth: width for help overlay left column.
	HelpLeftColumnWidth int

	// HelpRightColumnWidth: width for help overlay right column.
	HelpRightColumnWidth int
}

// InputConfig holds text input configuration.
type InputConfig struct {
	// Character limits
	URLCharLimit    int
	TagsCharLimit   int
	NoteCharLimit   int
	NameCharLimit   int
	SearchCharLimit int

	// Display widths
	StandardWidth int // Used for URL, tags, note and area name
	SearchWidth   int // Used for the inline search input (narrower)
}

// TextConfig holds text truncation configuration.
type TextConfig struct {
	// Ellipsis is the string used to indicate truncation.
	Ellipsis string
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() LayoutConfig {
	return LayoutConfig{
		Pane: PaneConfig{
			HeightReduction: 7, // app padding (1) + header (1) + pane borders (2) + help bar (3)
			MinHeight:       5,
			WidthOffset:     10,
			SidebarPercent:  22,
			MinSidebarWidth: 18,
			MinListWidth:    24,
			ContentPadding:  4,
		},
		Modal: ModalConfig{
			DefaultWidthPercent:  40,
			LargeWidthPercent:    55,
			MinWidth:             50,
			MaxWidth:             80,
			AreasMaxVisible:      10,
			HelpLeftColumnWidth:  22,
			HelpRightColumnWidth: 28,
		},
		Input: InputConfig{
			URLCharLimit:    500,
			TagsCharLimit:   200,
			NoteCharLimit:   500,
			NameCharLimit:   60,
			SearchCharLimit: 100,
			StandardWidth:   40,
			SearchWidth:     30,
		},
		Text: TextConfig{
			Ellipsis: "...",
		},
	}
}
