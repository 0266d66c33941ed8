// Package exporter writes bookmarks as Markdown or Netscape HTML.
package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/stash/internal/model"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "md", "markdown" and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want md or html)", s)
	}
}

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/stash-export-YYYY-MM-DD.<ext>
func DefaultExportPath(format Format) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("stash-export-%s.%s", time.Now().Format("2006-01-02"), format)
	return filepath.Join(home, "Downloads", filename), nil
}

// Write renders bookmarks in format to w.
func Write(w io.Writer, format Format, bookmarks []model.Bookmark, areas AreaLookup) error {
	var out string
	switch format {
	case FormatHTML:
		out = ExportHTML(bookmarks)
	case FormatMarkdown:
		md, err := ExportMarkdown(bookmarks, areas)
		if err != nil {
			return err
		}
		out = md
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	_, err := io.WriteString(w, out)
	return err
}

// group is the bookmarks of one source type.
type group struct {
	Source    model.SourceType
	Bookmarks []model.Bookmark
}

// groupBySource keeps input order inside each group. Groups follow
// model.SourceTypes; unknown source types come last.
func groupBySource(bookmarks []model.Bookmark) []group {
	bySource := map[model.SourceType][]model.Bookmark{}
	var unknown []model.SourceType
	for _, b := range bookmarks {
		if _, seen := bySource[b.SourceType]; !seen && !b.SourceType.Valid() {
			unknown = append(unknown, b.SourceType)
		}
		bySource[b.SourceType] = append(bySource[b.SourceType], b)
	}

	var out []group
	for _, st := range append(append([]model.SourceType{}, model.SourceTypes...), unknown...) {
		if len(bySource[st]) > 0 {
			out = append(out, group{Source: st, Bookmarks: bySource[st]})
		}
	}
	return out
}
