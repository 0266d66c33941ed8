package enrich_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/stash/internal/ai"
	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/enrich"
	"github.com/nikbrunner/stash/internal/metadata"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/remote"
	"github.com/nikbrunner/stash/internal/storage"
	"github.com/nikbrunner/stash/internal/tagarea"
)

type fakeFetcher struct {
	results map[string]metadata.Result
	calls   []string
	during  func(url string) // runs while the fetch is "in flight"
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, source model.SourceType) metadata.Result {
	f.calls = append(f.calls, url)
	if f.during != nil {
		f.during(url)
	}
	return f.results[url]
}

type fakeSuggester struct {
	configured bool
	answers    map[string][]string // url -> area names
	suggestNew map[string]ai.NewArea
	fail       map[string]bool
	areas      []model.TagArea

	mu     sync.Mutex
	calls  []string
	block  chan struct{}
	during func(b model.Bookmark)
}

func (f *fakeSuggester) IsConfigured() bool { return f.configured }

func (f *fakeSuggester) SuggestTags(ctx context.Context, b model.Bookmark, areas []model.TagArea) (ai.Suggestion, error) {
	f.mu.Lock()
	f.calls = append(f.calls, b.URL)
	f.mu.Unlock()
	if f.during != nil {
		f.during(b)
	}
	if f.block != nil {
		<-f.block
	}
	if f.fail[b.URL] {
		return ai.Suggestion{}, errors.New("boom")
	}

	var s ai.Suggestion
	for _, name := range f.answers[b.URL] {
		for _, a := range areas {
			if a.Name == name {
				s.Matched = append(s.Matched, a)
			}
		}
	}
	if na, ok := f.suggestNew[b.URL]; ok {
		s.SuggestNew = &na
	}
	return s, nil
}

func (f *fakeSuggester) RetagAll(ctx context.Context, bookmarks []model.Bookmark, areas []model.TagArea, onProgress ai.ProgressFunc) error {
	for i, b := range bookmarks {
		s, err := f.SuggestTags(ctx, b, areas)
		onProgress(i+1, len(bookmarks), b, s, err)
	}
	return nil
}

type fixture struct {
	repo  *storage.Repo
	cache *cache.Cache
	reg   *tagarea.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	c, err := remote.NewSQLiteClient(filepath.Join(t.TempDir(), "stash.db"))
	assert.NilError(t, err)
	t.Cleanup(func() { c.Close() })

	repo := storage.NewRepo(c)
	return fixture{repo: repo, cache: cache.New(repo, nil), reg: tagarea.New(repo, nil)}
}

func (f fixture) add(t *testing.T, nb model.NewBookmark) model.Bookmark {
	t.Helper()
	b, err := f.repo.InsertBookmark(context.Background(), nb)
	assert.NilError(t, err)
	return b
}

func (f fixture) load(t *testing.T) {
	t.Helper()
	assert.NilError(t, f.cache.Load(context.Background()))
	assert.NilError(t, f.reg.Load(context.Background()))
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestNeedsMetadata(t *testing.T) {
	tests := []struct {
		name string
		b    model.Bookmark
		want bool
	}{
		{"complete blog", model.Bookmark{Title: "t", Image: "i", SourceType: model.SourceBlog}, false},
		{"missing title", model.Bookmark{Image: "i", SourceType: model.SourceBlog}, true},
		{"missing image", model.Bookmark{Title: "t", SourceType: model.SourceBlog}, true},
		{"youtube without duration", model.Bookmark{Title: "t", Image: "i", SourceType: model.SourceYouTube}, true},
		{"youtube complete", model.Bookmark{Title: "t", Image: "i", Duration: "4:05", SourceType: model.SourceYouTube}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Check(t, is.Equal(enrich.NeedsMetadata(tt.b), tt.want))
		})
	}
}

func TestMetadataSweep_FillsOnlyMissingFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kept := f.add(t, model.NewBookmark{URL: "https://a.example", Title: "My Title"})
	empty := f.add(t, model.NewBookmark{URL: "https://b.example"})
	f.load(t)

	fetcher := &fakeFetcher{results: map[string]metadata.Result{
		"https://a.example": {Title: "Fetched Title", Image: "https://a.example/og.png"},
	}}
	c := enrich.New(f.cache, f.reg, fetcher, nil, enrich.Options{Sleep: noSleep}, nil)

	r := c.MetadataSweep(ctx)
	assert.Check(t, is.Equal(r.Candidates, 2))
	assert.Check(t, is.Equal(r.Updated, 1))
	assert.Check(t, is.Equal(r.Failed, 1))

	got, ok := f.cache.Get(kept.ID)
	assert.Assert(t, ok)
	assert.Check(t, is.Equal(got.Title, "My Title"))
	assert.Check(t, is.Equal(got.Image, "https://a.example/og.png"))

	// persisted, not just cached
	rows, err := f.repo.ListBookmarks(ctx)
	assert.NilError(t, err)
	for _, b := range rows {
		if b.ID == kept.ID {
			assert.Check(t, is.Equal(b.Image, "https://a.example/og.png"))
		}
		if b.ID == empty.ID {
			assert.Check(t, is.Equal(b.Image, ""))
		}
	}
}

func TestMetadataSweep_SkipsCompleteBookmarks(t *testing.T) {
	f := newFixture(t)
	b := f.add(t, model.NewBookmark{URL: "https://a.example", Title: "T"})
	assert.NilError(t, f.repo.UpdateBookmark(context.Background(), b.ID, model.BookmarkPatch{Image: ptr("i.png")}))
	f.load(t)

	fetcher := &fakeFetcher{}
	c := enrich.New(f.cache, f.reg, fetcher, nil, enrich.Options{}, nil)

	r := c.MetadataSweep(context.Background())
	assert.Check(t, is.Equal(r.Candidates, 0))
	assert.Check(t, is.Len(fetcher.calls, 0))
}

func TestAutoTagSweep_Preconditions(t *testing.T) {
	f := newFixture(t)
	f.add(t, model.NewBookmark{URL: "https://a.example"})
	f.load(t)

	unconfigured := &fakeSuggester{}
	c := enrich.New(f.cache, f.reg, nil, unconfigured, enrich.Options{Sleep: noSleep}, nil)
	assert.Check(t, is.Equal(c.AutoTagSweep(context.Background()).Skipped, enrich.SkipNotConfigured))

	configured := &fakeSuggester{configured: true}
	c = enrich.New(f.cache, f.reg, nil, configured, enrich.Options{Sleep: noSleep}, nil)
	assert.Check(t, is.Equal(c.AutoTagSweep(context.Background()).Skipped, enrich.SkipNoAreas))
	assert.Check(t, is.Len(configured.calls, 0))
}

func TestAutoTagSweep_TagsRecentUntaggedBookmarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reg.Create(ctx, model.NewTagArea{Name: "Go"})
	assert.NilError(t, err)
	_, err = f.reg.Create(ctx, model.NewTagArea{Name: "Cooking"})
	assert.NilError(t, err)

	untagged := f.add(t, model.NewBookmark{URL: "https://go.dev"})
	f.add(t, model.NewBookmark{URL: "https://tagged.example", Tags: []string{"mine"}})
	noMatch := f.add(t, model.NewBookmark{URL: "https://wood.example"})
	f.load(t)

	s := &fakeSuggester{
		configured: true,
		answers:    map[string][]string{"https://go.dev": {"Go"}},
		suggestNew: map[string]ai.NewArea{"https://wood.example": {Name: "Woodworking"}},
	}
	c := enrich.New(f.cache, f.reg, nil, s, enrich.Options{Sleep: noSleep}, nil)

	r := c.AutoTagSweep(ctx)
	assert.Check(t, is.Equal(r.Skipped, ""))
	assert.Check(t, is.Equal(r.Candidates, 2))
	assert.Check(t, is.Equal(r.Tagged, 1))
	assert.Check(t, is.Len(r.Suggestions, 1))
	assert.Check(t, !s.calledWith("https://tagged.example"))

	assert.Check(t, is.DeepEqual(names(f.reg.AreasFor(untagged.ID)), []string{"Go"}))
	assert.Check(t, !f.reg.HasAreas(noMatch.ID))

	got, ok := f.cache.Get(untagged.ID)
	assert.Assert(t, ok)
	assert.Check(t, is.DeepEqual(got.Tags, []string{"go"}))
	assert.Check(t, !c.Tagging())
}

func TestSweeps_KeepEditsMadeDuringCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reg.Create(ctx, model.NewTagArea{Name: "Go"})
	assert.NilError(t, err)
	b := f.add(t, model.NewBookmark{URL: "https://go.dev"})
	f.load(t)

	fetcher := &fakeFetcher{
		results: map[string]metadata.Result{
			"https://go.dev": {Title: "Fetched Title", Image: "https://go.dev/og.png"},
		},
		during: func(string) {
			assert.NilError(t, f.cache.Update(ctx, b.ID, model.BookmarkPatch{Title: ptr("User Title")}))
		},
	}
	s := &fakeSuggester{
		configured: true,
		answers:    map[string][]string{"https://go.dev": {"Go"}},
		during: func(model.Bookmark) {
			assert.NilError(t, f.cache.Update(ctx, b.ID, model.BookmarkPatch{Tags: []string{"mine"}}))
		},
	}
	c := enrich.New(f.cache, f.reg, fetcher, s, enrich.Options{Sleep: noSleep}, nil)

	meta, tags := c.AfterReload(ctx)
	assert.Check(t, is.Equal(meta.Updated, 1))
	assert.Check(t, is.Equal(tags.Tagged, 1))

	got, ok := f.cache.Get(b.ID)
	assert.Assert(t, ok)
	assert.Check(t, is.Equal(got.Title, "User Title"))
	assert.Check(t, is.Equal(got.Image, "https://go.dev/og.png"))
	assert.Check(t, is.DeepEqual(got.Tags, []string{"mine", "go"}))
}

func TestAutoTagSweep_BookmarkDeletedDuringCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reg.Create(ctx, model.NewTagArea{Name: "Go"})
	assert.NilError(t, err)
	b := f.add(t, model.NewBookmark{URL: "https://go.dev"})
	f.load(t)

	s := &fakeSuggester{
		configured: true,
		answers:    map[string][]string{"https://go.dev": {"Go"}},
		during: func(model.Bookmark) {
			assert.NilError(t, f.cache.Delete(ctx, b.ID))
		},
	}
	c := enrich.New(f.cache, f.reg, nil, s, enrich.Options{Sleep: noSleep}, nil)

	r := c.AutoTagSweep(ctx)
	assert.Check(t, is.Equal(r.Tagged, 0))
	assert.Check(t, is.Equal(r.Failed, 1))
	assert.Check(t, !f.reg.HasAreas(b.ID))
}

func TestAutoTagSweep_SkipsOldBookmarksAndAssignedOnes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	area, err := f.reg.Create(ctx, model.NewTagArea{Name: "Go"})
	assert.NilError(t, err)
	assigned := f.add(t, model.NewBookmark{URL: "https://assigned.example"})
	f.add(t, model.NewBookmark{URL: "https://free.example"})
	assert.NilError(t, f.reg.Assign(ctx, area.ID, assigned.ID))
	f.load(t)

	s := &fakeSuggester{configured: true}
	c := enrich.New(f.cache, f.reg, nil, s, enrich.Options{Sleep: noSleep}, nil)
	assert.Check(t, is.Len(c.AutoTagCandidates(), 1))

	later := func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	c = enrich.New(f.cache, f.reg, nil, s, enrich.Options{Now: later, Sleep: noSleep}, nil)
	r := c.AutoTagSweep(ctx)
	assert.Check(t, is.Equal(r.Candidates, 0))
	assert.Check(t, is.Len(s.calls, 0))
}

func TestAutoTagSweep_FailureDoesNotStopSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reg.Create(ctx, model.NewTagArea{Name: "Go"})
	assert.NilError(t, err)
	f.add(t, model.NewBookmark{URL: "https://one.example"})
	f.add(t, model.NewBookmark{URL: "https://two.example"})
	f.load(t)

	var sleeps int
	s := &fakeSuggester{
		configured: true,
		fail:       map[string]bool{"https://two.example": true},
		answers:    map[string][]string{"https://one.example": {"Go"}},
	}
	c := enrich.New(f.cache, f.reg, nil, s, enrich.Options{
		Sleep: func(ctx context.Context, d time.Duration) error {
			sleeps++
			assert.Check(t, is.Equal(d, 400*time.Millisecond))
			return nil
		},
		Delay: 400 * time.Millisecond,
	}, nil)

	r := c.AutoTagSweep(ctx)
	assert.Check(t, is.Equal(r.Failed, 1))
	assert.Check(t, is.Equal(r.Tagged, 1))
	assert.Check(t, is.Len(s.calls, 2))
	assert.Check(t, is.Equal(sleeps, 1))
}

func TestAutoTagSweep_SingleFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reg.Create(ctx, model.NewTagArea{Name: "Go"})
	assert.NilError(t, err)
	f.add(t, model.NewBookmark{URL: "https://one.example"})
	f.load(t)

	s := &fakeSuggester{configured: true, block: make(chan struct{})}
	c := enrich.New(f.cache, f.reg, nil, s, enrich.Options{Sleep: noSleep}, nil)

	done := make(chan enrich.Report)
	go func() { done <- c.AutoTagSweep(ctx) }()

	for !s.calledWith("https://one.example") {
		time.Sleep(time.Millisecond)
	}
	assert.Check(t, c.Tagging())
	assert.Check(t, is.Equal(c.AutoTagSweep(ctx).Skipped, enrich.SkipInProgress))

	_, err = c.Retag(ctx, nil)
	assert.Check(t, errors.Is(err, enrich.ErrInProgress))

	close(s.block)
	r := <-done
	assert.Check(t, is.Equal(r.Candidates, 1))
	assert.Check(t, !c.Tagging())
}

func TestRetag_AppliesMatchesToEveryBookmark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reg.Create(ctx, model.NewTagArea{Name: "Go"})
	assert.NilError(t, err)
	old := f.add(t, model.NewBookmark{URL: "https://go.dev", Tags: []string{"lang"}})
	f.load(t)

	s := &fakeSuggester{configured: true, answers: map[string][]string{"https://go.dev": {"Go"}}}
	c := enrich.New(f.cache, f.reg, nil, s, enrich.Options{Sleep: noSleep}, nil)

	var progress []int
	r, err := c.Retag(ctx, func(done, total int, b model.Bookmark, s ai.Suggestion, err error) {
		progress = append(progress, done)
	})
	assert.NilError(t, err)
	assert.Check(t, is.Equal(r.Tagged, 1))
	assert.Check(t, is.DeepEqual(progress, []int{1}))

	got, _ := f.cache.Get(old.ID)
	assert.Check(t, is.DeepEqual(got.Tags, []string{"lang", "go"}))
	assert.Check(t, f.reg.HasAreas(old.ID))
}

func TestRetag_NotConfigured(t *testing.T) {
	f := newFixture(t)
	c := enrich.New(f.cache, f.reg, nil, &fakeSuggester{}, enrich.Options{}, nil)
	_, err := c.Retag(context.Background(), nil)
	assert.Check(t, errors.Is(err, ai.ErrNoAPIKey))
}

func (f *fakeSuggester) calledWith(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

func names(areas []model.TagArea) []string {
	out := make([]string, len(areas))
	for i, a := range areas {
		out[i] = a.Name
	}
	return out
}

func ptr[T any](v T) *T { return &v }
