package exporter

import (
	"fmt"
	"html"
	"strings"

	"github.com/nikbrunner/stash/internal/model"
)

// ExportHTML renders bookmarks as a Netscape bookmark file with one folder
// per source type.
func ExportHTML(bookmarks []model.Bookmark) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	for _, g := range groupBySource(bookmarks) {
		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(g.Source.Label()))
		b.WriteString("    <DL><p>\n")
		for _, bm := range g.Bookmarks {
			writeAnchor(&b, bm, "        ")
		}
		b.WriteString("    </DL><p>\n")
	}

	b.WriteString("</DL><p>\n")
	return b.String()
}

func writeAnchor(b *strings.Builder, bm model.Bookmark, prefix string) {
	title := bm.Title
	if title == "" {
		title = bm.URL
	}
	fmt.Fprintf(b, "%s<DT><A HREF=\"%s\" ADD_DATE=\"%d\"", prefix, html.EscapeString(bm.URL), bm.CreatedAt.Unix())
	if len(bm.Tags) > 0 {
		fmt.Fprintf(b, " TAGS=\"%s\"", html.EscapeString(strings.Join(bm.Tags, ",")))
	}
	fmt.Fprintf(b, ">%s</A>\n", html.EscapeString(title))
	if bm.Notes != "" {
		fmt.Fprintf(b, "%s<DD>%s\n", prefix, html.EscapeString(bm.Notes))
	}
}
