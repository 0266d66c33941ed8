// Package dashboard ties the cache, tag areas, bulk selection and enrichment
// together into the state every front end renders.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikbrunner/stash/internal/bulk"
	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/enrich"
	"github.com/nikbrunner/stash/internal/filter"
	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/tagarea"
)

// Options tunes a Dashboard.
type Options struct {
	// InlineEnrichment runs the sweeps inside Reload instead of a goroutine.
	InlineEnrichment bool
}

// Dashboard is the application state.
type Dashboard struct {
	cache    *cache.Cache
	areas    *tagarea.Registry
	bulk     *bulk.Coordinator
	enricher *enrich.Coordinator
	opts     Options
	log      logger.Logger

	mu       sync.Mutex
	criteria filter.Criteria
	area     string // tag area id, empty = all
	notice   Notice
	meta     enrich.Report
	tags     enrich.Report

	sweeps sync.WaitGroup
}

// New builds a Dashboard. The bulk coordinator writes through store and
// reloads the dashboard on success. enricher may be nil.
func New(c *cache.Cache, areas *tagarea.Registry, store bulk.Store, enricher *enrich.Coordinator, opts Options, log logger.Logger) *Dashboard {
	if log == nil {
		log = logger.Nop()
	}
	d := &Dashboard{
		cache:    c,
		areas:    areas,
		enricher: enricher,
		opts:     opts,
		log:      log,
		criteria: filter.DefaultCriteria(),
	}
	d.bulk = bulk.New(store, d.reloadData, log)
	return d
}

func (d *Dashboard) Cache() *cache.Cache { return d.cache }
func (d *Dashboard) Areas() *tagarea.Registry { return d.areas }
func (d *Dashboard) Bulk() *bulk.Coordinator { return d.bulk }
func (d *Dashboard) Enricher() *enrich.Coordinator { return d.enricher }

// Reload loads bookmarks and tag areas, then starts enrichment.
func (d *Dashboard) Reload(ctx context.Context) error {
	if err := d.reloadData(ctx); err != nil {
		d.SetNotice(Classify(err))
		return err
	}
	d.mu.Lock()
	if k := d.notice.Kind; k == NoticeConnectivity || k == NoticeSetup {
		d.notice = Notice{}
	}
	d.mu.Unlock()
	d.enrich(ctx)
	return nil
}

// Wait blocks until background enrichment started by Reload has finished.
func (d *Dashboard) Wait() {
	d.sweeps.Wait()
}

func (d *Dashboard) reloadData(ctx context.Context) error {
	if err := d.cache.Load(ctx); err != nil {
		return err
	}
	if err := d.areas.Load(ctx); err != nil {
		return fmt.Errorf("load tag areas: %w", err)
	}
	return nil
}

func (d *Dashboard) enrich(ctx context.Context) {
	if d.enricher == nil {
		return
	}
	if d.opts.InlineEnrichment {
		d.runSweeps(ctx)
		return
	}

	d.sweeps.Add(1)
	go func() {
		defer d.sweeps.Done()
		d.runSweeps(context.Background())
	}()
}

func (d *Dashboard) runSweeps(ctx context.Context) {
	meta, tags := d.enricher.AfterReload(ctx)

	d.mu.Lock()
	d.meta, d.tags = meta, tags
	if tags.Tagged > 0 && d.notice.IsZero() {
		d.notice = Info(fmt.Sprintf("Auto-tagged %d bookmark(s)", tags.Tagged))
	}
	d.mu.Unlock()
}

// LastReports returns the reports of the most recent sweeps.
func (d *Dashboard) LastReports() (meta, tags enrich.Report) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.meta, d.tags
}

func (d *Dashboard) Criteria() filter.Criteria {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.criteria
}

// SetCriteria replaces the filter state.
func (d *Dashboard) SetCriteria(c filter.Criteria) {
	if c.Source == "" {
		c.Source = filter.All
	}
	if c.Status == "" {
		c.Status = filter.All
	}
	if c.Tag == "" {
		c.Tag = filter.All
	}
	if _, ok := filter.ParseSort(string(c.Sort)); !ok {
		c.Sort = filter.SortNewest
	}

	d.mu.Lock()
	d.criteria = c
	d.mu.Unlock()
}

// SetArea restricts the list to one tag area. An empty id clears it.
func (d *Dashboard) SetArea(id string) {
	d.mu.Lock()
	d.area = id
	d.mu.Unlock()
}

// Area is the tag area filter, empty when unset.
func (d *Dashboard) Area() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.area
}

func (d *Dashboard) Notice() Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notice
}

func (d *Dashboard) SetNotice(n Notice) {
	d.mu.Lock()
	d.notice = n
	d.mu.Unlock()
	if n.Kind >= NoticeConnectivity {
		d.log.Warn("notice", logger.String("kind", n.Kind.String()), logger.String("message", n.Message))
	}
}

func (d *Dashboard) ClearNotice() {
	d.SetNotice(Notice{})
}

// fail records err as the current notice and returns it.
func (d *Dashboard) fail(err error) error {
	if err != nil {
		d.SetNotice(Classify(err))
	}
	return err
}

// AddBookmark stores a new bookmark and fetches its metadata in the
// background like a reload would.
func (d *Dashboard) AddBookmark(ctx context.Context, nb model.NewBookmark) (model.Bookmark, error) {
	b, err := d.cache.Insert(ctx, nb)
	if err != nil {
		return model.Bookmark{}, d.fail(err)
	}
	d.SetNotice(Info("Saved " + b.URL))
	d.enrich(ctx)
	return b, nil
}

// CycleStatus advances the status of one bookmark.
func (d *Dashboard) CycleStatus(ctx context.Context, id string) (model.Status, error) {
	s, err := d.cache.CycleStatus(ctx, id)
	return s, d.fail(err)
}

// SetStatus sets the status of one bookmark.
func (d *Dashboard) SetStatus(ctx context.Context, id string, status model.Status) error {
	return d.fail(d.cache.SetStatus(ctx, id, status))
}

// Delete removes one bookmark.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	if err := d.cache.Delete(ctx, id); err != nil {
		return d.fail(err)
	}
	d.areas.Forget(id)
	return nil
}

// AppendNote adds a line to the notes of one bookmark.
func (d *Dashboard) AppendNote(ctx context.Context, id, text string) error {
	return d.fail(d.cache.AppendNote(ctx, id, text))
}

// SetTags replaces the free-text tags of one bookmark.
func (d *Dashboard) SetTags(ctx context.Context, id string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return d.fail(d.cache.Update(ctx, id, model.BookmarkPatch{Tags: tags}))
}

// ApplyBulkStatus applies status to the bulk selection.
func (d *Dashboard) ApplyBulkStatus(ctx context.Context, status model.Status) error {
	n := d.bulk.Count()
	if err := d.bulk.ApplyStatus(ctx, status); err != nil {
		return d.fail(err)
	}
	d.SetNotice(Info(fmt.Sprintf("Marked %d bookmark(s) %s", n, status)))
	return nil
}

// ApplyBulkDelete deletes the bulk selection.
func (d *Dashboard) ApplyBulkDelete(ctx context.Context, confirmed bool) error {
	n := d.bulk.Count()
	if err := d.bulk.ApplyDelete(ctx, confirmed); err != nil {
		return d.fail(err)
	}
	d.SetNotice(Info(fmt.Sprintf("Deleted %d bookmark(s)", n)))
	return nil
}

// AreaNames returns the names of the tag areas bookmarkID belongs to.
func (d *Dashboard) AreaNames(bookmarkID string) []string {
	var names []string
	for _, a := range d.areas.AreasFor(bookmarkID) {
		names = append(names, a.Name)
	}
	return names
}
