package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/filter"
	"github.com/nikbrunner/stash/internal/httpapi/deps"
	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/tagarea"
)

type areaResponse struct {
	model.TagArea
	Count int `json:"count"`
}

type createAreaRequest struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

type updateAreaRequest struct {
	Name        *string `json:"name"`
	Emoji       *string `json:"emoji"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

type moveRequest struct {
	Direction string `json:"direction"`
}

type mergeRequest struct {
	Into string `json:"into"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func areaList(reg *tagarea.Registry) []areaResponse {
	areas := reg.Areas()
	out := make([]areaResponse, len(areas))
	for i, a := range areas {
		out[i] = areaResponse{TagArea: a, Count: len(reg.BookmarkIDs(a.ID))}
	}
	return out
}

func ListAreas(d deps.Deps) http.HandlerFunc {
	reg := d.Dashboard.Areas()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, areaList(reg))
	}
}

func CreateArea(d deps.Deps) http.HandlerFunc {
	reg := d.Dashboard.Areas()
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAreaRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		area, err := reg.Create(r.Context(), model.NewTagArea{
			Name:        req.Name,
			Emoji:       req.Emoji,
			Color:       req.Color,
			Description: req.Description,
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("tag area created", logger.String("id", area.ID), logger.String("name", area.Name))
		writeJSON(w, http.StatusCreated, areaResponse{TagArea: area})
	}
}

func UpdateArea(d deps.Deps) http.HandlerFunc {
	reg := d.Dashboard.Areas()
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req updateAreaRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		patch := model.TagAreaPatch{
			Name:        req.Name,
			Emoji:       req.Emoji,
			Color:       req.Color,
			Description: req.Description,
		}
		if err := reg.Update(r.Context(), id, patch); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		area, ok := reg.Get(id)
		if !ok {
			writeError(w, d.Logger, tagarea.ErrNotFound)
			return
		}
		writeJSON(w, http.StatusOK, areaResponse{TagArea: area, Count: len(reg.BookmarkIDs(id))})
	}
}

func DeleteArea(d deps.Deps) http.HandlerFunc {
	reg := d.Dashboard.Areas()
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := reg.Delete(r.Context(), id); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if d.Dashboard.Area() == id {
			d.Dashboard.SetArea("")
		}
		d.Logger.Info("tag area deleted", logger.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// MoveArea moves an area one step up or down and returns the new order.
func MoveArea(d deps.Deps) http.HandlerFunc {
	reg := d.Dashboard.Areas()
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req moveRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		var dir tagarea.Direction
		switch req.Direction {
		case "up":
			dir = tagarea.Up
		case "down":
			dir = tagarea.Down
		default:
			writeError(w, d.Logger, invalid("direction must be up or down, got %q", req.Direction))
			return
		}

		if err := reg.Reorder(r.Context(), id, dir); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, areaList(reg))
	}
}

func MergeArea(d deps.Deps) http.HandlerFunc {
	reg := d.Dashboard.Areas()
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req mergeRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := reg.Merge(r.Context(), id, req.Into); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if d.Dashboard.Area() == id {
			d.Dashboard.SetArea(req.Into)
		}
		target, _ := reg.Get(req.Into)
		writeJSON(w, http.StatusOK, areaResponse{TagArea: target, Count: len(reg.BookmarkIDs(req.Into))})
	}
}

func AreaBookmarks(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := dash.Areas().Get(id); !ok {
			writeError(w, d.Logger, tagarea.ErrNotFound)
			return
		}
		list := dash.List(filter.DefaultCriteria(), id)
		if list == nil {
			list = []model.Bookmark{}
		}
		writeJSON(w, http.StatusOK, bookmarkList{Bookmarks: list, Count: len(list), Total: dash.Cache().Len()})
	}
}

func AssignArea(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req idsRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if len(req.IDs) == 0 {
			writeError(w, d.Logger, invalid("ids is required"))
			return
		}
		for _, bid := range req.IDs {
			if _, ok := dash.Cache().Get(bid); !ok {
				writeError(w, d.Logger, cache.ErrNotFound)
				return
			}
		}
		if err := dash.Areas().Assign(r.Context(), id, req.IDs...); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func UnassignArea(d deps.Deps) http.HandlerFunc {
	reg := d.Dashboard.Areas()
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := reg.Get(id); !ok {
			writeError(w, d.Logger, tagarea.ErrNotFound)
			return
		}
		if err := reg.Unassign(r.Context(), id, chi.URLParam(r, "bookmarkID")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
