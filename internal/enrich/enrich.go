// Package enrich runs the background sweeps that fill in missing metadata
// and assign tag areas to untagged bookmarks.
package enrich

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nikbrunner/stash/internal/ai"
	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/metadata"
	"github.com/nikbrunner/stash/internal/model"
)

// Reasons an auto-tag sweep did not run.
const (
	SkipNotConfigured = "tag suggestion engine not configured"
	SkipNoAreas       = "no tag areas"
	SkipInProgress    = "sweep already in progress"
)

// ErrInProgress is returned by Retag when another tagging run is active.
var ErrInProgress = errors.New(SkipInProgress)

var errGone = errors.New("bookmark deleted during sweep")

// MetadataFetcher looks up metadata. It never fails.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string, source model.SourceType) metadata.Result
}

// TagSuggester proposes tag areas for bookmarks.
type TagSuggester interface {
	IsConfigured() bool
	SuggestTags(ctx context.Context, b model.Bookmark, areas []model.TagArea) (ai.Suggestion, error)
	RetagAll(ctx context.Context, bookmarks []model.Bookmark, areas []model.TagArea, onProgress ai.ProgressFunc) error
}

// BookmarkCache is the part of the bookmark cache the sweeps use.
type BookmarkCache interface {
	Bookmarks() []model.Bookmark
	Get(id string) (model.Bookmark, bool)
	Update(ctx context.Context, id string, patch model.BookmarkPatch) error
	Load(ctx context.Context) error
}

// AreaRegistry is the part of the tag area registry the sweeps use.
type AreaRegistry interface {
	Areas() []model.TagArea
	HasAreas(bookmarkID string) bool
	Assign(ctx context.Context, areaID string, bookmarkIDs ...string) error
	Load(ctx context.Context) error
}

// Options tunes the sweeps.
type Options struct {
	RecencyWindow time.Duration // only bookmarks newer than this are auto-tagged
	Delay         time.Duration // pause between tag suggestion calls

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultOptions returns a 7 day window and a 400ms delay.
func DefaultOptions() Options {
	return Options{
		RecencyWindow: 7 * 24 * time.Hour,
		Delay:         400 * time.Millisecond,
	}
}

// Report summarises one sweep.
type Report struct {
	Candidates  int
	Updated     int // metadata sweep: bookmarks that received fields
	Tagged      int // auto-tag sweep: bookmarks that received areas
	Failed      int
	Skipped     string // non-empty when the sweep did not run
	Suggestions []ai.NewArea
}

// Coordinator owns the sweeps.
type Coordinator struct {
	fetcher   MetadataFetcher
	suggester TagSuggester
	cache     BookmarkCache
	areas     AreaRegistry
	opts      Options
	log       logger.Logger

	tagging atomic.Bool
}

// New creates a Coordinator. fetcher or suggester may be nil to disable a sweep.
func New(cache BookmarkCache, areas AreaRegistry, fetcher MetadataFetcher, suggester TagSuggester, opts Options, log logger.Logger) *Coordinator {
	defaults := DefaultOptions()
	if opts.RecencyWindow <= 0 {
		opts.RecencyWindow = defaults.RecencyWindow
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		fetcher:   fetcher,
		suggester: suggester,
		cache:     cache,
		areas:     areas,
		opts:      opts,
		log:       log,
	}
}

// Tagging reports whether an auto-tag sweep or retag is running.
func (c *Coordinator) Tagging() bool {
	return c.tagging.Load()
}

// AfterReload runs the metadata sweep, then the auto-tag sweep.
func (c *Coordinator) AfterReload(ctx context.Context) (meta, tags Report) {
	meta = c.MetadataSweep(ctx)
	tags = c.AutoTagSweep(ctx)
	return meta, tags
}

// NeedsMetadata reports whether a bookmark is missing title, image or, for
// YouTube, duration.
func NeedsMetadata(b model.Bookmark) bool {
	return b.Title == "" || b.Image == "" ||
		(b.SourceType == model.SourceYouTube && b.Duration == "")
}

// MetadataSweep fetches metadata for every bookmark that needs it, one at a
// time. Only fields still empty in the cache once the fetch returns are
// written, so edits made meanwhile win.
func (c *Coordinator) MetadataSweep(ctx context.Context) Report {
	var r Report
	if c.fetcher == nil {
		r.Skipped = "metadata fetcher not configured"
		return r
	}

	for _, b := range c.cache.Bookmarks() {
		if !NeedsMetadata(b) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		r.Candidates++

		res := c.fetcher.Fetch(ctx, b.URL, b.SourceType)
		if mergePatch(b, res).IsEmpty() {
			r.Failed++
			c.log.Debug("no metadata found", logger.String("url", b.URL))
			continue
		}

		current, ok := c.cache.Get(b.ID)
		if !ok {
			continue
		}
		patch := mergePatch(current, res)
		if patch.IsEmpty() {
			continue
		}

		if err := c.cache.Update(ctx, b.ID, patch); err != nil {
			r.Failed++
			c.log.Warn("metadata update failed", logger.String("id", b.ID), logger.Error(err))
			continue
		}
		r.Updated++
	}

	if r.Candidates > 0 {
		c.log.Info("metadata sweep finished",
			logger.Int("candidates", r.Candidates),
			logger.Int("updated", r.Updated),
			logger.Int("failed", r.Failed))
	}
	return r
}

// mergePatch keeps only fields that were found and are absent on b.
func mergePatch(b model.Bookmark, res metadata.Result) model.BookmarkPatch {
	var p model.BookmarkPatch
	if b.Title == "" && res.Title != "" {
		p.Title = &res.Title
	}
	if b.Image == "" && res.Image != "" {
		p.Image = &res.Image
	}
	if b.Duration == "" && res.Duration != "" {
		p.Duration = &res.Duration
	}
	if b.Channel == "" && res.Channel != "" {
		p.Channel = &res.Channel
	}
	return p
}

// AutoTagCandidates returns bookmarks without tags or areas created within
// the recency window.
func (c *Coordinator) AutoTagCandidates() []model.Bookmark {
	cutoff := c.opts.Now().Add(-c.opts.RecencyWindow)
	var out []model.Bookmark
	for _, b := range c.cache.Bookmarks() {
		if len(b.Tags) > 0 || c.areas.HasAreas(b.ID) {
			continue
		}
		if b.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// AutoTagSweep asks the tag suggestion engine about each candidate in turn.
// It does nothing when the engine is unconfigured, no areas exist, or a
// sweep is already running.
func (c *Coordinator) AutoTagSweep(ctx context.Context) Report {
	var r Report
	if c.suggester == nil || !c.suggester.IsConfigured() {
		r.Skipped = SkipNotConfigured
		return r
	}
	areas := c.areas.Areas()
	if len(areas) == 0 {
		r.Skipped = SkipNoAreas
		return r
	}
	if !c.tagging.CompareAndSwap(false, true) {
		r.Skipped = SkipInProgress
		return r
	}
	defer c.tagging.Store(false)

	candidates := c.AutoTagCandidates()
	r.Candidates = len(candidates)

	for i, b := range candidates {
		if i > 0 {
			if err := c.opts.Sleep(ctx, c.opts.Delay); err != nil {
				break
			}
		}

		s, err := c.suggester.SuggestTags(ctx, b, areas)
		if err != nil {
			r.Failed++
			c.log.Warn("tag suggestion failed", logger.String("id", b.ID), logger.Error(err))
			continue
		}
		if s.SuggestNew != nil {
			r.Suggestions = append(r.Suggestions, *s.SuggestNew)
		}
		if !s.HasMatches() {
			continue
		}

		if err := c.apply(ctx, b.ID, s); err != nil {
			r.Failed++
			c.log.Warn("tag assignment failed", logger.String("id", b.ID), logger.Error(err))
			continue
		}
		r.Tagged++
	}

	c.log.Info("auto-tag sweep finished",
		logger.Int("candidates", r.Candidates),
		logger.Int("tagged", r.Tagged),
		logger.Int("failed", r.Failed))

	if r.Tagged > 0 {
		c.reload(ctx)
	}
	return r
}

// Retag runs the tag suggestion engine over every cached bookmark and applies
// the matches. onProgress may be nil.
func (c *Coordinator) Retag(ctx context.Context, onProgress ai.ProgressFunc) (Report, error) {
	var r Report
	if c.suggester == nil || !c.suggester.IsConfigured() {
		return r, ai.ErrNoAPIKey
	}
	areas := c.areas.Areas()
	if len(areas) == 0 {
		r.Skipped = SkipNoAreas
		return r, nil
	}
	if !c.tagging.CompareAndSwap(false, true) {
		return r, ErrInProgress
	}
	defer c.tagging.Store(false)

	bookmarks := c.cache.Bookmarks()
	r.Candidates = len(bookmarks)

	err := c.suggester.RetagAll(ctx, bookmarks, areas, func(done, total int, b model.Bookmark, s ai.Suggestion, err error) {
		switch {
		case err != nil:
			r.Failed++
		case s.HasMatches():
			if applyErr := c.apply(ctx, b.ID, s); applyErr != nil {
				r.Failed++
				c.log.Warn("tag assignment failed", logger.String("id", b.ID), logger.Error(applyErr))
			} else {
				r.Tagged++
			}
		}
		if err == nil && s.SuggestNew != nil {
			r.Suggestions = append(r.Suggestions, *s.SuggestNew)
		}
		if onProgress != nil {
			onProgress(done, total, b, s, err)
		}
	})

	if r.Tagged > 0 {
		c.reload(ctx)
	}
	return r, err
}

// apply assigns the matched areas and adds their names to the free-text tags
// the bookmark has now, which may differ from when the engine was asked.
func (c *Coordinator) apply(ctx context.Context, id string, s ai.Suggestion) error {
	b, ok := c.cache.Get(id)
	if !ok {
		return errGone
	}

	tags := append([]string{}, b.Tags...)
	for _, a := range s.Matched {
		if err := c.areas.Assign(ctx, a.ID, b.ID); err != nil {
			return err
		}
		tags = append(tags, strings.ToLower(a.Name))
	}

	tags = model.NormalizeTags(tags)
	if len(tags) == len(b.Tags) {
		return nil
	}
	return c.cache.Update(ctx, b.ID, model.BookmarkPatch{Tags: tags})
}

func (c *Coordinator) reload(ctx context.Context) {
	if err := c.cache.Load(ctx); err != nil {
		c.log.Warn("reload after tagging failed", logger.Error(err))
	}
	if err := c.areas.Load(ctx); err != nil {
		c.log.Warn("tag area reload after tagging failed", logger.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
