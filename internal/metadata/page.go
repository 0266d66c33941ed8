package metadata

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// pageInfo is what a single HTML page tells us.
type pageInfo struct {
	Result
	isoDuration string // raw itemprop=duration value
}

// parsePage extracts OpenGraph / Twitter card metadata, the <title> fallback
// and the schema.org duration from an HTML document.
func parsePage(body []byte, pageURL string) pageInfo {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return pageInfo{}
	}

	meta := map[string]string{}
	var docTitle string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "meta":
				key := strings.ToLower(getAttr(n, "property"))
				if key == "" {
					key = strings.ToLower(getAttr(n, "name"))
				}
				if key == "" {
					key = "itemprop:" + strings.ToLower(getAttr(n, "itemprop"))
				}
				content := strings.TrimSpace(getAttr(n, "content"))
				if _, seen := meta[key]; !seen && content != "" {
					meta[key] = content
				}
			case "link":
				if strings.ToLower(getAttr(n, "itemprop")) == "name" {
					if _, seen := meta["itemprop:author"]; !seen {
						meta["itemprop:author"] = strings.TrimSpace(getAttr(n, "content"))
					}
				}
			case "title":
				if docTitle == "" {
					docTitle = getTextContent(n)
				}
				return
			case "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	info := pageInfo{isoDuration: meta["itemprop:duration"]}
	info.Title = firstNonEmpty(meta["og:title"], meta["twitter:title"], docTitle)
	info.Image = resolveURL(pageURL, firstNonEmpty(meta["og:image"], meta["twitter:image"], meta["twitter:image:src"]))
	info.Channel = firstNonEmpty(meta["itemprop:author"], meta["author"], meta["og:site_name"])
	return info
}

// tweetText returns the text of the first paragraph of an oEmbed tweet.
func tweetText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var text string
	var find func(*html.Node)
	find = func(n *html.Node) {
		if text != "" {
			return
		}
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == "p" {
			text = getTextContent(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	return strings.Join(strings.Fields(text), " ")
}

func resolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
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
