package exporter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/stash/internal/model"
)

func sample() []model.Bookmark {
	return []model.Bookmark{
		{
			ID:         "2",
			URL:        "https://blog.example/a?x=1&y=2",
			Title:      "A & B",
			SourceType: model.SourceBlog,
			Status:     model.StatusDone,
			Tags:       []string{},
			Notes:      "good read",
			CreatedAt:  time.Unix(1700000100, 0),
		},
		{
			ID:         "1",
			URL:        "https://youtube.com/watch?v=abc",
			Title:      "Talk",
			SourceType: model.SourceYouTube,
			Status:     model.StatusUnread,
			Tags:       []string{"go", "talks"},
			Duration:   "12:34",
			Channel:    "GopherCon",
			CreatedAt:  time.Unix(1700000000, 0),
		},
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Check(t, Write(&buf, Format("pdf"), sample(), nil) != nil)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{"html", FormatHTML, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrite_DispatchesByFormat(t *testing.T) {
	var html, md bytes.Buffer
	assert.NilError(t, Write(&html, FormatHTML, sample(), nil))
	assert.NilError(t, Write(&md, FormatMarkdown, sample(), nil))

	assert.Check(t, is.Contains(html.String(), "<!DOCTYPE NETSCAPE-Bookmark-file-1>"))
	assert.Check(t, strings.HasPrefix(md.String(), "# Bookmarks\n"))
}
