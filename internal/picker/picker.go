// Package picker is the quick-search chooser behind `stash search`: an
// editable query over all bookmarks, narrowed live with fuzzy matching.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/search"
	"github.com/nikbrunner/stash/internal/tui/layout"
)

var (
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Underline(true)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
)

// Picker lets the user refine a query and choose one bookmark.
type Picker struct {
	all     []model.Bookmark
	input   textinput.Model
	results []search.SearchResult
	cursor  int

	chosen    *model.Bookmark
	cancelled bool

	width  int
	height int
	text   layout.TextConfig
}

// New starts a picker over bookmarks with query already typed.
func New(bookmarks []model.Bookmark, query string) Picker {
	in := textinput.New()
	in.Prompt = "Search: "
	in.CharLimit = layout.DefaultConfig().Input.SearchCharLimit
	in.SetValue(query)
	in.CursorEnd()
	in.Focus()

	p := Picker{
		all:    bookmarks,
		input:  in,
		width:  80,
		height: 24,
		text:   layout.DefaultConfig().Text,
	}
	p.refresh()
	return p
}

// refresh re-runs the search. An empty query lists everything in cache order.
func (p *Picker) refresh() {
	query := strings.TrimSpace(p.input.Value())
	if query == "" {
		p.results = make([]search.SearchResult, len(p.all))
		for i := range p.all {
			p.results[i] = search.SearchResult{Bookmark: &p.all[i]}
		}
	} else {
		p.results = search.FuzzySearchBookmarks(p.all, query)
	}
	p.cursor = max(0, min(p.cursor, len(p.results)-1))
}

func (p Picker) Init() tea.Cmd {
	return textinput.Blink
}

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			p.cancelled = true
			return p, tea.Quit
		case "enter":
			if len(p.results) == 0 {
				return p, nil
			}
			p.chosen = p.results[p.cursor].Bookmark
			return p, tea.Quit
		case "down", "ctrl+n", "ctrl+j":
			if p.cursor < len(p.results)-1 {
				p.cursor++
			}
			return p, nil
		case "up", "ctrl+p", "ctrl+k":
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil
		}
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != before {
		p.cursor = 0
		p.refresh()
	}
	return p, cmd
}

// rows is how many results fit; each takes two lines below a two line header
// and above a two line footer.
func (p Picker) rows() int {
	return max(1, (p.height-4)/2)
}

func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(p.input.View())
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %d/%d", len(p.results), len(p.all))))
	b.WriteString("\n\n")

	if len(p.results) == 0 {
		b.WriteString(metaStyle.Render("  No matches") + "\n")
	}

	width := max(10, p.width-3)
	start, end := layout.ListWindow(p.cursor, len(p.results), p.rows())
	for i := start; i < end; i++ {
		r := p.results[i]
		marker, style := "  ", normalStyle
		if i == p.cursor {
			marker, style = "> ", selectedStyle
		}

		title := layout.TruncateStyled(highlight(search.Text(r.Bookmark), r.MatchedIndexes, style), width, p.text)
		meta, _ := layout.TruncateText(describe(r.Bookmark), width, p.text)
		b.WriteString(marker + title + "\n")
		b.WriteString("   " + metaStyle.Render(meta) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(metaStyle.Render("type to refine  ↑/↓ move  enter open  esc cancel"))
	return b.String()
}

// describe is the second line of a result: source, status, tags and URL.
func describe(b *model.Bookmark) string {
	parts := []string{b.SourceType.Label(), string(b.Status)}
	if len(b.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(b.Tags, " #"))
	}
	if b.Title != "" {
		parts = append(parts, b.URL)
	}
	return strings.Join(parts, " · ")
}

// SelectedBookmark is the chosen bookmark, or nil when the picker was
// cancelled.
func (p Picker) SelectedBookmark() *model.Bookmark {
	if p.cancelled {
		return nil
	}
	return p.chosen
}

func (p Picker) Cancelled() bool {
	return p.cancelled
}

// highlight renders text with the matched byte offsets emphasised.
func highlight(text string, matched []int, base lipgloss.Style) string {
	if len(matched) == 0 {
		return base.Render(text)
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var b strings.Builder
	for i, r := range text {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}
