// Package metadata looks up best-effort title, image, duration and channel
// information for bookmarked URLs.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/model"
)

const (
	defaultYouTubeOEmbed = "https://www.youtube.com/oembed"
	defaultTwitterOEmbed = "https://publish.twitter.com/oembed"
	userAgent            = "Mozilla/5.0 (compatible; stash/1.0; +https://github.com/nikbrunner/stash)"

	// maxBody bounds how much of a page is read for scraping.
	maxBody = 2 << 20
)

// Result holds whatever could be found. Empty fields mean "unknown".
type Result struct {
	Title    string `json:"title,omitempty"`
	Image    string `json:"image,omitempty"`
	Duration string `json:"duration,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

// IsEmpty reports whether nothing was found.
func (r Result) IsEmpty() bool {
	return r == Result{}
}

// fill copies fields of other into r where r is empty.
func (r *Result) fill(other Result) {
	if r.Title == "" {
		r.Title = other.Title
	}
	if r.Image == "" {
		r.Image = other.Image
	}
	if r.Duration == "" {
		r.Duration = other.Duration
	}
	if r.Channel == "" {
		r.Channel = other.Channel
	}
}

// Fetcher queries oEmbed endpoints and scrapes pages.
type Fetcher struct {
	httpClient    *http.Client
	youtubeOEmbed string
	twitterOEmbed string
	cache         Cache
	cacheTTL      time.Duration
	log           logger.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = hc }
}

// WithEndpoints overrides the oEmbed endpoints.
func WithEndpoints(youtube, twitter string) Option {
	return func(f *Fetcher) {
		if youtube != "" {
			f.youtubeOEmbed = youtube
		}
		if twitter != "" {
			f.twitterOEmbed = twitter
		}
	}
}

// WithCache stores results for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		youtubeOEmbed: defaultYouTubeOEmbed,
		twitterOEmbed: defaultTwitterOEmbed,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns what can be found about rawURL. It never fails; lookups that
// error are logged and contribute nothing.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, source model.SourceType) Result {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Result{}
	}
	if !source.Valid() {
		source = model.DetectSourceType(rawURL)
	}

	cacheKey := string(source) + "|" + rawURL
	if f.cache != nil {
		cached, ok, err := f.cache.Get(ctx, cacheKey)
		if err != nil {
			f.log.Debug("metadata cache get failed", logger.Error(err))
		} else if ok {
			return cached
		}
	}

	var res Result
	switch source {
	case model.SourceYouTube:
		res = f.fetchYouTube(ctx, rawURL)
	case model.SourceTwitter:
		res = f.fetchTwitter(ctx, rawURL)
	}
	if res.Title == "" || res.Image == "" {
		page, err := f.scrape(ctx, rawURL)
		if err != nil {
			f.log.Debug("page scrape failed", logger.String("url", rawURL), logger.Error(err))
		}
		res.fill(page.Result)
	}

	if f.cache != nil && !res.IsEmpty() {
		if err := f.cache.Set(ctx, cacheKey, res, f.cacheTTL); err != nil {
			f.log.Debug("metadata cache set failed", logger.Error(err))
		}
	}
	return res
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	HTML         string `json:"html"`
}

func (f *Fetcher) fetchYouTube(ctx context.Context, rawURL string) Result {
	var res Result

	oe, err := f.oembed(ctx, f.youtubeOEmbed, rawURL)
	if err != nil {
		f.log.Debug("youtube oembed failed", logger.String("url", rawURL), logger.Error(err))
	} else {
		res.Title = oe.Title
		res.Channel = oe.AuthorName
		res.Image = oe.ThumbnailURL
	}

	// Duration only appears on the watch page.
	page, err := f.scrape(ctx, rawURL)
	if err != nil {
		f.log.Debug("youtube page failed", logger.String("url", rawURL), logger.Error(err))
		return res
	}
	if page.isoDuration != "" {
		if d, ok := FormatISODuration(page.isoDuration); ok {
			res.Duration = d
		}
	}
	res.fill(page.Result)
	return res
}

func (f *Fetcher) fetchTwitter(ctx context.Context, rawURL string) Result {
	oe, err := f.oembed(ctx, f.twitterOEmbed, rawURL)
	if err != nil {
		f.log.Debug("twitter oembed failed", logger.String("url", rawURL), logger.Error(err))
		return Result{}
	}

	title := oe.Title
	if title == "" {
		title = tweetText(oe.HTML)
	}
	return Result{Title: truncate(title, 140), Channel: oe.AuthorName}
}

func (f *Fetcher) oembed(ctx context.Context, endpoint, rawURL string) (*oembedResponse, error) {
	params := url.Values{}
	params.Set("url", rawURL)
	params.Set("format", "json")

	body, err := f.get(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var oe oembedResponse
	if err := json.Unmarshal(body, &oe); err != nil {
		return nil, fmt.Errorf("unmarshal oembed: %w", err)
	}
	return &oe, nil
}

func (f *Fetcher) scrape(ctx context.Context, rawURL string) (pageInfo, error) {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return pageInfo{}, err
	}
	return parsePage(body, rawURL), nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", target, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
