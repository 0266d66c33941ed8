package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/stash/internal/ai"
	"github.com/nikbrunner/stash/internal/model"
)

var areas = []model.TagArea{
	{ID: "a1", Name: "Go", Description: "Go programming"},
	{ID: "a2", Name: "Machine Learning"},
	{ID: "a3", Name: "Cooking"},
}

// reply wraps a structured answer the way the Messages API does.
func reply(t *testing.T, resp ai.TagResponse) string {
	t.Helper()
	inner, err := json.Marshal(resp)
	assert.NilError(t, err)
	outer, err := json.Marshal(map[string]any{
		"content":     []map[string]string{{"type": "text", "text": string(inner)}},
		"stop_reason": "end_turn",
	})
	assert.NilError(t, err)
	return string(outer)
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, body string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		handler(w, string(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIsConfigured(t *testing.T) {
	assert.Check(t, !ai.NewClient("").IsConfigured())
	assert.Check(t, !ai.NewClient("   ").IsConfigured())
	assert.Check(t, ai.NewClient("k").IsConfigured())
}

func TestSuggestTags_NotConfigured(t *testing.T) {
	_, err := ai.NewClient("").SuggestTags(context.Background(), model.Bookmark{}, areas)
	assert.Check(t, errors.Is(err, ai.ErrNoAPIKey))
}

func TestSuggestTags_ResolvesNames(t *testing.T) {
	var prompt string
	srv := newServer(t, func(w http.ResponseWriter, body string) {
		prompt = body
		_, _ = io.WriteString(w, reply(t, ai.TagResponse{
			MatchedAreas: []string{"go", "Unknown", "GO", " machine learning "},
		}))
	})
	c := ai.NewClient("test-key", ai.WithAPIURL(srv.URL))

	s, err := c.SuggestTags(context.Background(), model.Bookmark{
		URL:        "https://go.dev/blog",
		Title:      "Go Blog",
		SourceType: model.SourceBlog,
	}, areas)

	assert.NilError(t, err)
	assert.Check(t, is.Len(s.Matched, 2))
	assert.Check(t, is.Equal(s.Matched[0].ID, "a1"))
	assert.Check(t, is.Equal(s.Matched[1].ID, "a2"))
	assert.Check(t, s.SuggestNew == nil)
	assert.Check(t, strings.Contains(prompt, "Go Blog"))
	assert.Check(t, strings.Contains(prompt, "Go programming"))
}

func TestSuggestTags_SuggestNew(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, body string) {
		_, _ = io.WriteString(w, reply(t, ai.TagResponse{
			MatchedAreas:          []string{},
			SuggestNewName:        "Woodworking",
			SuggestNewEmoji:       "🪵",
			SuggestNewDescription: "Building things from wood",
		}))
	})
	c := ai.NewClient("test-key", ai.WithAPIURL(srv.URL))

	s, err := c.SuggestTags(context.Background(), model.Bookmark{URL: "https://wood.example"}, areas)

	assert.NilError(t, err)
	assert.Check(t, !s.HasMatches())
	assert.Assert(t, s.SuggestNew != nil)
	assert.Check(t, is.Equal(s.SuggestNew.Name, "Woodworking"))
	assert.Check(t, is.Equal(s.SuggestNew.Emoji, "🪵"))
}

func TestSuggestTags_SuggestExistingCountsAsMatch(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, body string) {
		_, _ = io.WriteString(w, reply(t, ai.TagResponse{SuggestNewName: "cooking"}))
	})
	c := ai.NewClient("test-key", ai.WithAPIURL(srv.URL))

	s, err := c.SuggestTags(context.Background(), model.Bookmark{URL: "https://food.example"}, areas)

	assert.NilError(t, err)
	assert.Check(t, s.SuggestNew == nil)
	assert.Check(t, is.Len(s.Matched, 1))
	assert.Check(t, is.Equal(s.Matched[0].ID, "a3"))
}

func TestSuggestTags_APIError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, body string) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	})
	c := ai.NewClient("test-key", ai.WithAPIURL(srv.URL))

	_, err := c.SuggestTags(context.Background(), model.Bookmark{URL: "https://x.example"}, areas)
	assert.Check(t, errors.Is(err, ai.ErrAPIRequest), "got %v", err)
}

func TestSuggestTags_InvalidResponse(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, body string) {
		_, _ = io.WriteString(w, `{"content":[]}`)
	})
	c := ai.NewClient("test-key", ai.WithAPIURL(srv.URL))

	_, err := c.SuggestTags(context.Background(), model.Bookmark{URL: "https://x.example"}, areas)
	assert.Check(t, errors.Is(err, ai.ErrInvalidResponse))
}

func TestRetagAll_ReportsEachItem(t *testing.T) {
	var calls int32
	srv := newServer(t, func(w http.ResponseWriter, body string) {
		if atomic.AddInt32(&calls, 1) == 2 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, reply(t, ai.TagResponse{MatchedAreas: []string{"Go"}}))
	})
	c := ai.NewClient("test-key", ai.WithAPIURL(srv.URL), ai.WithDelay(0))

	bookmarks := []model.Bookmark{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	var done []int
	var failed []string
	err := c.RetagAll(context.Background(), bookmarks, areas, func(n, total int, b model.Bookmark, s ai.Suggestion, err error) {
		assert.Check(t, is.Equal(total, 3))
		done = append(done, n)
		if err != nil {
			failed = append(failed, b.ID)
		}
	})

	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(done, []int{1, 2, 3}))
	assert.Check(t, is.DeepEqual(failed, []string{"2"}))
}

func TestBuildAreaContext(t *testing.T) {
	got := ai.BuildAreaContext(areas)
	assert.Check(t, is.Equal(got, "Available tag areas:\n- Go: Go programming\n- Machine Learning\n- Cooking\n"))
	assert.Check(t, is.Contains(ai.BuildAreaContext(nil), "(none)"))
}
