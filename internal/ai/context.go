package ai

import (
	"fmt"
	"strings"

	"github.com/nikbrunner/stash/internal/model"
)

const maxNotes = 300

// BuildAreaContext lists the tag areas in display order, one per line, with
// their descriptions.
func BuildAreaContext(areas []model.TagArea) string {
	if len(areas) == 0 {
		return "Available tag areas: (none)\n"
	}

	var sb strings.Builder
	sb.WriteString("Available tag areas:\n")
	for _, a := range areas {
		sb.WriteString("- ")
		sb.WriteString(a.Name)
		if a.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(a.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// describeBookmark renders the fields of a bookmark the model should see.
func describeBookmark(b model.Bookmark) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- URL: %s\n", b.URL)
	if b.Title != "" {
		fmt.Fprintf(&sb, "- Title: %s\n", b.Title)
	}
	fmt.Fprintf(&sb, "- Source: %s\n", b.SourceType.Label())
	if b.Channel != "" {
		fmt.Fprintf(&sb, "- Channel: %s\n", b.Channel)
	}
	if len(b.Tags) > 0 {
		fmt.Fprintf(&sb, "- Current tags: %s\n", strings.Join(b.Tags, ", "))
	}
	if b.Notes != "" {
		fmt.Fprintf(&sb, "- Notes: %s\n", truncate(b.Notes, maxNotes))
	}
	return sb.String()
}

func buildTagPrompt(b model.Bookmark, areas []model.TagArea) string {
	return fmt.Sprintf(`Assign this bookmark to the tag areas it belongs to.

Bookmark:
%s
%s
Instructions:
- Return the exact names of every existing area that fits in matchedAreas
- Return an empty array if none fit
- Only if nothing fits well, propose one new area in suggestNewName with a single emoji and a one-line description
- Otherwise leave suggestNewName, suggestNewEmoji and suggestNewDescription empty`,
		describeBookmark(b), BuildAreaContext(areas))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
