package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/nikbrunner/stash/internal/dashboard"
	"github.com/nikbrunner/stash/internal/httpapi/deps"
	"github.com/nikbrunner/stash/internal/model"
)

type bulkStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

type bulkDeleteRequest struct {
	IDs     []string `json:"ids"`
	Confirm bool     `json:"confirm"`
}

type bulkResponse struct {
	Count int `json:"count"`
}

// bulkMu serializes requests that share the dashboard's selection.
var bulkMu sync.Mutex

// applyBulk replaces the selection with ids and runs apply on it. The
// selection is cleared whatever the outcome.
func applyBulk(ctx context.Context, dash *dashboard.Dashboard, ids []string, apply func(context.Context) error) (int, error) {
	bulkMu.Lock()
	defer bulkMu.Unlock()

	sel := dash.Bulk()
	sel.Cancel()
	sel.SelectAll(ids)
	n := sel.Count()
	defer sel.Cancel()

	if err := apply(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func BulkStatus(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkStatusRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		status := model.Status(req.Status)
		if !status.Valid() {
			writeError(w, d.Logger, invalid("unknown status %q", req.Status))
			return
		}

		n, err := applyBulk(r.Context(), dash, req.IDs, func(ctx context.Context) error {
			return dash.ApplyBulkStatus(ctx, status)
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, bulkResponse{Count: n})
	}
}

func BulkDelete(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkDeleteRequest
		if err := decode(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		n, err := applyBulk(r.Context(), dash, req.IDs, func(ctx context.Context) error {
			return dash.ApplyBulkDelete(ctx, req.Confirm)
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, bulkResponse{Count: n})
	}
}
