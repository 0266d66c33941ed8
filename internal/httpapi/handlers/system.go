package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/nikbrunner/stash/internal/ai"
	"github.com/nikbrunner/stash/internal/enrich"
	"github.com/nikbrunner/stash/internal/exporter"
	"github.com/nikbrunner/stash/internal/filter"
	"github.com/nikbrunner/stash/internal/httpapi/deps"
	"github.com/nikbrunner/stash/internal/logger"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	Loaded        bool    `json:"loaded"`
	Bookmarks     int     `json:"bookmarks"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	GoVersion     string  `json:"go_version"`
}

type reloadResponse struct {
	Bookmarks int `json:"bookmarks"`
	Areas     int `json:"areas"`
}

type noticeResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type summaryResponse struct {
	Total        int             `json:"total"`
	SourceCounts map[string]int  `json:"sources"`
	StatusCounts map[string]int  `json:"statuses"`
	TagCounts    []tagCount      `json:"tags"`
	Areas        []areaResponse  `json:"areas"`
	Notice       *noticeResponse `json:"notice,omitempty"`
	Tagging      bool            `json:"tagging"`
}

type tagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type reportResponse struct {
	Candidates  int          `json:"candidates"`
	Updated     int          `json:"updated"`
	Tagged      int          `json:"tagged"`
	Failed      int          `json:"failed"`
	Skipped     string       `json:"skipped,omitempty"`
	Suggestions []ai.NewArea `json:"suggestions,omitempty"`
}

type enrichmentResponse struct {
	Metadata reportResponse `json:"metadata"`
	Tags     reportResponse `json:"tags"`
	Tagging  bool           `json:"tagging"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		bc := d.Dashboard.Cache()
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Loaded:        bc.Loaded(),
			Bookmarks:     bc.Len(),
			UptimeSeconds: d.Now().Sub(start).Seconds(),
			Version:       d.Version,
			GoVersion:     runtime.Version(),
		})
	}
}

// Reload re-reads bookmarks and tag areas from the store and starts
// enrichment.
func Reload(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		if err := dash.Reload(r.Context()); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("reload triggered via endpoint", logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, reloadResponse{
			Bookmarks: dash.Cache().Len(),
			Areas:     dash.Areas().Len(),
		})
	}
}

// Summary returns the counts the sidebar of the dashboard shows.
func Summary(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		all := dash.Cache().Bookmarks()
		status := r.URL.Query().Get("status")
		if status == "" {
			status = filter.All
		}

		resp := summaryResponse{
			Total:        len(all),
			SourceCounts: filter.SourceCounts(all, status),
			StatusCounts: filter.StatusCounts(all),
			TagCounts:    []tagCount{},
			Areas:        areaList(dash.Areas()),
		}
		for _, tc := range filter.TagCounts(all) {
			resp.TagCounts = append(resp.TagCounts, tagCount{Tag: tc.Tag, Count: tc.Count})
		}
		if n := dash.Notice(); !n.IsZero() {
			resp.Notice = &noticeResponse{Kind: n.Kind.String(), Message: n.Message}
		}
		if e := dash.Enricher(); e != nil {
			resp.Tagging = e.Tagging()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func toReport(r enrich.Report) reportResponse {
	return reportResponse{
		Candidates:  r.Candidates,
		Updated:     r.Updated,
		Tagged:      r.Tagged,
		Failed:      r.Failed,
		Skipped:     r.Skipped,
		Suggestions: r.Suggestions,
	}
}

// Enrichment reports the outcome of the last metadata and auto-tag sweeps.
func Enrichment(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		meta, tags := dash.LastReports()
		resp := enrichmentResponse{Metadata: toReport(meta), Tags: toReport(tags)}
		if e := dash.Enricher(); e != nil {
			resp.Tagging = e.Tagging()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Export streams every bookmark as Markdown or Netscape HTML.
func Export(d deps.Deps) http.HandlerFunc {
	dash := d.Dashboard
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("format")
		if name == "" {
			name = string(exporter.FormatMarkdown)
		}
		format, err := exporter.ParseFormat(name)
		if err != nil {
			writeError(w, d.Logger, invalid("%v", err))
			return
		}

		bookmarks := filter.Apply(dash.Cache().Bookmarks(), filter.Criteria{Sort: filter.SortNewest})

		contentType := "text/markdown; charset=utf-8"
		if format == exporter.FormatHTML {
			contentType = "text/html; charset=utf-8"
		}
		filename := fmt.Sprintf("stash-export-%s.%s", d.Now().Format(time.DateOnly), format)
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		if err := exporter.Write(w, format, bookmarks, dash.AreaNames); err != nil {
			d.Logger.Warn("export failed", logger.Error(err))
		}
	}
}
