package exporter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nikbrunner/stash/internal/model"
)

// AreaLookup returns the tag area names of a bookmark.
type AreaLookup func(bookmarkID string) []string

// Frontmatter is the YAML block written above each Markdown entry.
type Frontmatter struct {
	Title    string   `yaml:"title"`
	URL      string   `yaml:"url"`
	Source   string   `yaml:"source"`
	Status   string   `yaml:"status"`
	Created  string   `yaml:"created"`
	Channel  string   `yaml:"channel,omitempty"`
	Duration string   `yaml:"duration,omitempty"`
	Tags     []string `yaml:"tags,flow"`
	Areas    []string `yaml:"areas,flow,omitempty"`
}

// ExportMarkdown renders bookmarks grouped by source type. Each entry starts
// with a frontmatter block followed by a link and the notes. areas may be nil.
func ExportMarkdown(bookmarks []model.Bookmark, areas AreaLookup) (string, error) {
	var b strings.Builder
	b.WriteString("# Bookmarks\n")

	for _, g := range groupBySource(bookmarks) {
		fmt.Fprintf(&b, "\n## %s\n", g.Source.Label())
		for _, bm := range g.Bookmarks {
			fm, err := buildFrontmatter(bm, areas)
			if err != nil {
				return "", fmt.Errorf("frontmatter for %s: %w", bm.URL, err)
			}

			title := bm.Title
			if title == "" {
				title = bm.URL
			}
			b.WriteString("\n")
			b.WriteString(fm)
			fmt.Fprintf(&b, "\n### [%s](%s)\n", escapeLinkText(title), bm.URL)
			if notes := strings.TrimSpace(bm.Notes); notes != "" {
				b.WriteString("\n")
				b.WriteString(notes)
				b.WriteString("\n")
			}
		}
	}
	return b.String(), nil
}

func buildFrontmatter(bm model.Bookmark, areas AreaLookup) (string, error) {
	fm := Frontmatter{
		Title:    bm.Title,
		URL:      bm.URL,
		Source:   string(bm.SourceType),
		Status:   string(bm.Status),
		Created:  bm.CreatedAt.UTC().Format("2006-01-02"),
		Channel:  bm.Channel,
		Duration: bm.Duration,
		Tags:     bm.Tags,
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}
	if areas != nil {
		fm.Areas = areas(bm.ID)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	buf.WriteString("---\n")
	return buf.String(), nil
}

func escapeLinkText(s string) string {
	r := strings.NewReplacer("[", `\[`, "]", `\]`)
	return r.Replace(s)
}
