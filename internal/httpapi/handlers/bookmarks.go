package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/filter"
	"github.com/nikbrunner/stash/internal/httpapi/deps"
	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/model"
)

type bookmarkList struct {
	Bookmarks []model.Bookmark `json:"bookmarks"`
	Count     int              `json:"count"`
	Total     int              `json:"total"`
}

type bookmarkDetail struct {
	model.Bookmark
	Areas []model.TagArea `json:"areas"`
}

type createBookmarkRequest struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	SourceType string   `json:"source_type"`
	Status     string   `json:"status"`
	Tags       []string `json:"tags"`
	Notes      string   `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	ID     string       `json:"id"`
	Status model.Status `json:"status"`
}

type noteRequest struct {
	Text string `json:"text"`
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

// criteriaFrom reads filter criteria from the query string. Missing values
// select everything.
func criteriaFrom(r *http.Request) (filter.Criteria, error) {
	q := r.URL.Query()
	c := filter.DefaultCriteria()

	if v := q.Get("source"); v != "" && v != filter.All {
		if !model.SourceType(v).Valid() {
			return c, invalid("unknown source %q", v)
		}
		c.Source = v
	}
	if v := q.Get("status"); v != "" && v != filter.All {
		if !model.Status(v).Valid() {
			return c, invalid("unknown status %q", v)
		}
		c.Status = v
	}
	if v := q.Get("tag"); v != "" {
		c.Tag = strings.ToLower(v)
	}
	if v := q.Get("sort"); v != "" {
		key, ok := filter.ParseSort(v)
		if !ok {
			return c, invalid("unknown sort %q", v)
		}
		c.Sort = key
	}
	c.Search = q.Get("q")
	return c, nil
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		criteria, err := criteriaFrom(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		bc := dash.Cache()
		if err := bc.LoadErr(); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if !bc.Loaded() {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "bookmarks are still loading", Kind: "connectivity"})
			return
		}

		list := dash.List(criteria, r.URL.Query().Get("area"))
		if list == nil {
			list = []model.Bookmark{}
		}
		writeJSON(w, http.StatusOK, bookmarkList{Bookmarks: list, Count: len(list), Total: bc.Len()})
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		b, ok := dash.Cache().Get(id)
		if !ok {
			writeError(w, d.Logger, cache.ErrNotFound)
			return
		}
		areas := dash.Areas().AreasFor(id)
		if areas == nil {
			areas = []model.TagArea{}
		}
		writeJSON(w, http.StatusOK, bookmarkDetail{Bookmark: b, Areas: areas})
	}
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBookmarkRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		nb := model.NewBookmark{
			URL:        req.URL,
			Title:      req.Title,
			SourceType: model.SourceType(req.SourceType),
			Status:     model.Status(req.Status),
			Tags:       req.Tags,
			Notes:      req.Notes,
		}
		if req.Status != "" && !nb.Status.Valid() {
			writeError(w, d.Logger, invalid("unknown status %q", req.Status))
			return
		}
		if url := strings.TrimSpace(req.URL); url != "" && dash.Cache().HasURL(url) {
			writeError(w, d.Logger, errDuplicateURL)
			return
		}

		b, err := dash.AddBookmark(r.Context(), nb)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("bookmark added",
			logger.String("id", b.ID),
			logger.String("source", string(b.SourceType)))
		writeJSON(w, http.StatusCreated, b)
	}
}

// UpdateStatus sets the status named in the body, or cycles it when the
// body is empty.
func UpdateStatus(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req statusRequest
		if err := decode(r, &req, true); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		if req.Status == "" {
			next, err := dash.CycleStatus(r.Context(), id)
			if err != nil {
				writeError(w, d.Logger, err)
				return
			}
			writeJSON(w, http.StatusOK, statusResponse{ID: id, Status: next})
			return
		}

		status := model.Status(req.Status)
		if !status.Valid() {
			writeError(w, d.Logger, invalid("unknown status %q", req.Status))
			return
		}
		if err := dash.SetStatus(r.Context(), id, status); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{ID: id, Status: status})
	}
}

func AppendNote(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req noteRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, d.Logger, invalid("note text is required"))
			return
		}
		if err := dash.AppendNote(r.Context(), id, req.Text); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeBookmark(w, d, id)
	}
}

func SetTags(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req tagsRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := dash.SetTags(r.Context(), id, req.Tags); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeBookmark(w, d, id)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := dash.Delete(r.Context(), id); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("bookmark deleted", logger.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeBookmark responds with the cached copy of id after a write.
func writeBookmark(w http.ResponseWriter, d deps.Deps, id string) {
	b, ok := d.Dashboard.Cache().Get(id)
	if !ok {
		writeError(w, d.Logger, cache.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
