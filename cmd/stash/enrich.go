package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/stash/internal/ai"
	"github.com/nikbrunner/stash/internal/enrich"
	"github.com/nikbrunner/stash/internal/model"
)

func newEnrichCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Fetch missing metadata and auto-tag recent bookmarks",
		Long: `Run the sweeps the dashboard runs after every reload, in the foreground:
fill in missing titles, images and durations, then suggest tag areas for
recent untagged bookmarks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openLogger(false); err != nil {
				return err
			}
			d, err := a.openDashboard(cmd.Context(), dashOptions{enrich: true, inline: true})
			if err != nil {
				return setupHint(err)
			}
			if err := d.Reload(cmd.Context()); err != nil {
				return fmt.Errorf("load bookmarks: %w", err)
			}

			meta, tags := d.LastReports()
			out := cmd.OutOrStdout()
			printReport(out, "Metadata", meta, fmt.Sprintf("%d updated", meta.Updated))
			printReport(out, "Auto-tag", tags, fmt.Sprintf("%d tagged", tags.Tagged))
			printSuggestions(out, tags.Suggestions)
			return nil
		},
	}
}

func newRetagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retag",
		Short: "Ask the tag suggestion engine about every bookmark",
		Long: `Suggest tag areas for all bookmarks, not only recent untagged ones,
and assign the matches. Requires ANTHROPIC_API_KEY and at least one tag area.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openLogger(false); err != nil {
				return err
			}
			ctx := cmd.Context()
			d, err := a.openDashboard(ctx, dashOptions{})
			if err != nil {
				return setupHint(err)
			}
			if err := d.Reload(ctx); err != nil {
				return fmt.Errorf("load bookmarks: %w", err)
			}

			enricher := enrich.New(d.Cache(), d.Areas(), nil, a.newSuggester(), enrich.Options{}, a.log)

			out := cmd.OutOrStdout()
			report, err := enricher.Retag(ctx, func(done, total int, b model.Bookmark, s ai.Suggestion, err error) {
				fmt.Fprintf(out, "[%d/%d] %s", done, total, truncate(displayTitle(b), 50))
				switch {
				case err != nil:
					fmt.Fprintf(out, "  failed: %v\n", err)
				case s.HasMatches():
					names := make([]string, len(s.Matched))
					for i, area := range s.Matched {
						names[i] = area.Label()
					}
					fmt.Fprintf(out, "  → %s\n", strings.Join(names, ", "))
				default:
					fmt.Fprintln(out, "  no match")
				}
			})
			if errors.Is(err, ai.ErrNoAPIKey) {
				return fmt.Errorf("%w: export it to use retag", err)
			}
			if err != nil {
				return fmt.Errorf("retag: %w", err)
			}

			printReport(out, "Retag", report, fmt.Sprintf("%d tagged", report.Tagged))
			printSuggestions(out, report.Suggestions)
			return nil
		},
	}
}

func printReport(out io.Writer, name string, r enrich.Report, result string) {
	if r.Skipped != "" {
		fmt.Fprintf(out, "%s: skipped (%s)\n", name, r.Skipped)
		return
	}
	fmt.Fprintf(out, "%s: %d candidates, %s, %d failed\n", name, r.Candidates, result, r.Failed)
}

func printSuggestions(out io.Writer, suggestions []ai.NewArea) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintln(out, "Suggested new tag areas:")
	for _, s := range suggestions {
		label := s.Name
		if s.Emoji != "" {
			label = s.Emoji + " " + s.Name
		}
		if s.Description != "" {
			label += " - " + s.Description
		}
		fmt.Fprintf(out, "  %s\n", label)
	}
}

func displayTitle(b model.Bookmark) string {
	if b.Title != "" {
		return b.Title
	}
	return b.URL
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
