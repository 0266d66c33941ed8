package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/picker"
	"github.com/nikbrunner/stash/internal/search"
	"github.com/nikbrunner/stash/internal/tui"
)

func newSearchCmd(a *app) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search bookmarks and open the chosen one",
		Long: `Search bookmark titles. A single match opens directly, several
matches open a picker.

Examples:
  stash search go concurrency
  stash search rust --print      # print the URL instead of opening it`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openLogger(false); err != nil {
				return err
			}
			d, err := a.openDashboard(cmd.Context(), dashOptions{})
			if err != nil {
				return setupHint(err)
			}
			if err := d.Cache().Load(cmd.Context()); err != nil {
				return fmt.Errorf("load bookmarks: %w", err)
			}

			query := strings.Join(args, " ")
			bookmarks := d.Cache().Bookmarks()
			results := search.FuzzySearchBookmarks(bookmarks, query)
			out := cmd.OutOrStdout()

			if len(results) == 0 {
				fmt.Fprintf(out, "No bookmarks found for '%s'\n", query)
				return nil
			}

			var selected *model.Bookmark
			if len(results) == 1 {
				selected = results[0].Bookmark
			} else {
				p := picker.New(bookmarks, query)
				final, err := tea.NewProgram(p).Run()
				if err != nil {
					return fmt.Errorf("run picker: %w", err)
				}
				fp := final.(picker.Picker)
				if fp.Cancelled() {
					return nil
				}
				selected = fp.SelectedBookmark()
			}
			if selected == nil {
				return nil
			}

			if printOnly {
				fmt.Fprintln(out, selected.URL)
				return nil
			}
			fmt.Fprintf(out, "Opening: %s\n", search.Text(selected))
			return tui.OpenURL(selected.URL)
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the URL instead of opening it")
	return cmd
}
