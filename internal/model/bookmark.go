package model

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// ErrURLRequired is returned when a bookmark is created without a URL.
var ErrURLRequired = errors.New("url is required")

// SourceType is the platform a bookmarked URL originates from.
type SourceType string

const (
	SourceYouTube  SourceType = "youtube"
	SourceTwitter  SourceType = "twitter"
	SourceLinkedIn SourceType = "linkedin"
	SourceSubstack SourceType = "substack"
	SourceBlog     SourceType = "blog"
	SourceBook     SourceType = "book"
)

// SourceTypes lists every source type in display order.
var SourceTypes = []SourceType{
	SourceYouTube,
	SourceTwitter,
	SourceLinkedIn,
	SourceSubstack,
	SourceBlog,
	SourceBook,
}

// Valid reports whether s is a known source type.
func (s SourceType) Valid() bool {
	for _, st := range SourceTypes {
		if st == s {
			return true
		}
	}
	return false
}

// Label returns a human readable name for the source type.
func (s SourceType) Label() string {
	switch s {
	case SourceYouTube:
		return "YouTube"
	case SourceTwitter:
		return "Twitter"
	case SourceLinkedIn:
		return "LinkedIn"
	case SourceSubstack:
		return "Substack"
	case SourceBlog:
		return "Blog"
	case SourceBook:
		return "Book"
	default:
		return string(s)
	}
}

// Bookmark represents a saved link to external content.
type Bookmark struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	SourceType SourceType `json:"source_type"`
	Status     Status     `json:"status"`
	Tags       []string   `json:"tags"`
	Notes      string     `json:"notes"`
	Image      string     `json:"image"`
	Duration   string     `json:"duration"`
	Channel    string     `json:"channel"`
	CreatedAt  time.Time  `json:"created_at"`
}

// HasTag reports whether the bookmark carries the given tag.
func (b Bookmark) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the Tags slice.
func (b Bookmark) Clone() Bookmark {
	c := b
	c.Tags = append([]string{}, b.Tags...)
	return c
}

// NewBookmark holds the user supplied fields for creating a Bookmark.
// ID and CreatedAt are assigned by the remote store.
type NewBookmark struct {
	URL        string
	Title      string
	SourceType SourceType // detected from URL when empty
	Status     Status     // defaults to unread
	Tags       []string
	Notes      string
	CreatedAt  time.Time // zero = assigned by the store
}

// Normalize validates the input and fills defaults.
func (n NewBookmark) Normalize() (NewBookmark, error) {
	n.URL = strings.TrimSpace(n.URL)
	if n.URL == "" {
		return n, ErrURLRequired
	}
	n.Title = strings.TrimSpace(n.Title)
	if !n.SourceType.Valid() {
		n.SourceType = DetectSourceType(n.URL)
	}
	if !n.Status.Valid() {
		n.Status = StatusUnread
	}
	n.Tags = NormalizeTags(n.Tags)
	return n, nil
}

// BookmarkPatch describes a partial update. Nil fields are left untouched.
type BookmarkPatch struct {
	URL        *string
	Title      *string
	SourceType *SourceType
	Status     *Status
	Tags       []string // nil = untouched, empty = clear
	Notes      *string
	Image      *string
	Duration   *string
	Channel    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p BookmarkPatch) IsEmpty() bool {
	return p.URL == nil && p.Title == nil && p.SourceType == nil && p.Status == nil &&
		p.Tags == nil && p.Notes == nil && p.Image == nil && p.Duration == nil && p.Channel == nil
}

// Apply returns b with the patch applied.
func (p BookmarkPatch) Apply(b Bookmark) Bookmark {
	b = b.Clone()
	if p.URL != nil {
		b.URL = *p.URL
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.SourceType != nil {
		b.SourceType = *p.SourceType
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Tags != nil {
		b.Tags = NormalizeTags(p.Tags)
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	if p.Image != nil {
		b.Image = *p.Image
	}
	if p.Duration != nil {
		b.Duration = *p.Duration
	}
	if p.Channel != nil {
		b.Channel = *p.Channel
	}
	return b
}

// DetectSourceType guesses the source type from the URL host.
func DetectSourceType(rawURL string) SourceType {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return SourceBlog
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch {
	case host == "youtube.com" || host == "youtu.be" || strings.HasSuffix(host, ".youtube.com"):
		return SourceYouTube
	case host == "twitter.com" || host == "x.com" || host == "mobile.twitter.com":
		return SourceTwitter
	case host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com"):
		return SourceLinkedIn
	case host == "substack.com" || strings.HasSuffix(host, ".substack.com"):
		return SourceSubstack
	case host == "goodreads.com" || host == "openlibrary.org" || host == "books.google.com":
		return SourceBook
	case strings.HasPrefix(host, "amazon.") && strings.Contains(parsed.Path, "/dp/"):
		return SourceBook
	default:
		return SourceBlog
	}
}

// NormalizeTag lowercases and trims a single tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags lowercases tags, drops empties and duplicates, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result
}

// ParseTags splits comma separated user input into normalized tags.
func ParseTags(input string) []string {
	if strings.TrimSpace(input) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(input, ","))
}
