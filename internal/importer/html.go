// Package importer reads Netscape bookmark files exported by browsers.
package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nikbrunner/stash/internal/model"
)

// ParseHTMLBookmarks parses Netscape bookmark HTML. Every folder on the path to
// a bookmark becomes a tag, as do the entries of its TAGS attribute. A <DD>
// directly after a bookmark becomes its notes.
func ParseHTMLBookmarks(r io.Reader) ([]model.NewBookmark, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var bookmarks []model.NewBookmark

	var folderStack []string // folder names, outermost first
	var pendingFolder string // folder waiting to be pushed on next DL
	last := -1               // index of the bookmark a <DD> belongs to

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				pendingFolder = getTextContent(n)
				last = -1
				return

			case "a":
				href := strings.TrimSpace(getAttr(n, "href"))
				if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
					last = -1
					return
				}

				var tags []string
				tags = append(tags, folderStack...)
				if t := getAttr(n, "tags"); t != "" {
					tags = append(tags, strings.Split(t, ",")...)
				}

				nb := model.NewBookmark{
					URL:   href,
					Title: getTextContent(n),
					Tags:  model.NormalizeTags(tags),
				}
				if addDate := getAttr(n, "add_date"); addDate != "" {
					if ts, err := strconv.ParseInt(addDate, 10, 64); err == nil && ts > 0 {
						nb.CreatedAt = time.Unix(ts, 0).UTC()
					}
				}
				bookmarks = append(bookmarks, nb)
				last = len(bookmarks) - 1
				return

			case "dd":
				if last >= 0 {
					bookmarks[last].Notes = ownText(n)
					last = -1
				}
				// A <DD> may wrap the following siblings when the markup is
				// unclosed, so keep descending.

			case "dl":
				pushed := false
				if pendingFolder != "" {
					folderStack = append(folderStack, pendingFolder)
					pendingFolder = ""
					pushed = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushed {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return bookmarks, nil
}

// Dedupe drops bookmarks whose URL already exists or appears earlier in the
// list. It returns the remaining bookmarks and the number skipped.
func Dedupe(bookmarks []model.NewBookmark, exists func(url string) bool) ([]model.NewBookmark, int) {
	seen := map[string]bool{}
	out := make([]model.NewBookmark, 0, len(bookmarks))
	skipped := 0
	for _, b := range bookmarks {
		u := strings.TrimSpace(b.URL)
		if seen[u] || (exists != nil && exists(u)) {
			skipped++
			continue
		}
		seen[u] = true
		out = append(out, b)
	}
	return out, skipped
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// ownText returns the text of n up to its first element child.
func ownText(n *html.Node) string {
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			break
		}
		text.WriteString(c.Data)
	}
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
