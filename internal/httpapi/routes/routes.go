package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikbrunner/stash/internal/httpapi/deps"
	"github.com/nikbrunner/stash/internal/httpapi/handlers"
)

func init() {
	Register(registerSystem)
	Register(registerBookmarks, middleware.NoCache)
	Register(registerBulk, middleware.NoCache)
	Register(registerAreas, middleware.NoCache)
}

func registerSystem(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Post("/api/reload", handlers.Reload(d))
	r.Get("/api/summary", handlers.Summary(d))
	r.Get("/api/enrichment", handlers.Enrichment(d))
	r.Get("/api/export", handlers.Export(d))
}

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.CreateBookmark(d))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.GetBookmark(d))
			r.Delete("/", handlers.DeleteBookmark(d))
			r.Post("/status", handlers.UpdateStatus(d))
			r.Post("/notes", handlers.AppendNote(d))
			r.Put("/tags", handlers.SetTags(d))
		})
	})
}

func registerBulk(r chi.Router, d deps.Deps) {
	r.Post("/api/bulk/status", handlers.BulkStatus(d))
	r.Post("/api/bulk/delete", handlers.BulkDelete(d))
}

func registerAreas(r chi.Router, d deps.Deps) {
	r.Route("/api/areas", func(r chi.Router) {
		r.Get("/", handlers.ListAreas(d))
		r.Post("/", handlers.CreateArea(d))
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", handlers.UpdateArea(d))
			r.Delete("/", handlers.DeleteArea(d))
			r.Post("/move", handlers.MoveArea(d))
			r.Post("/merge", handlers.MergeArea(d))
			r.Get("/bookmarks", handlers.AreaBookmarks(d))
			r.Post("/bookmarks", handlers.AssignArea(d))
			r.Delete("/bookmarks/{bookmarkID}", handlers.UnassignArea(d))
		})
	})
}
