package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/stash/internal/linkcheck"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
		del         bool
		yes         bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Find bookmarks whose links are dead",
		Long: `Request every bookmarked URL and report the ones that answer 404 or 410,
or do not answer at all. Domains listed under privateDomains in the config
are never reported dead.

With --delete the dead bookmarks are removed after confirmation.`,
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

			if timeout <= 0 {
				timeout = time.Duration(a.cfg.HTTPTimeout)
			}
			checker := linkcheck.New(linkcheck.Options{
				Concurrency: concurrency,
				Timeout:     timeout,
				Private:     a.cfg.PrivateDomains,
			}, a.log)

			progress := cmd.ErrOrStderr()
			results := checker.Check(ctx, d.Cache().Bookmarks(), func(done, total int, _ linkcheck.Result) {
				fmt.Fprintf(progress, "\rChecked %d/%d", done, total)
			})
			if len(results) > 0 {
				fmt.Fprintln(progress)
			}

			out := cmd.OutOrStdout()
			printCheck(out, results)

			dead := linkcheck.DeadIDs(results)
			if !del || len(dead) == 0 {
				return nil
			}
			if !yes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete %d dead bookmarks?", len(dead))) {
				fmt.Fprintln(out, "Nothing deleted.")
				return nil
			}

			d.Bulk().Cancel()
			d.Bulk().SelectAll(dead)
			if err := d.ApplyBulkDelete(ctx, true); err != nil {
				d.Bulk().Cancel()
				return fmt.Errorf("delete dead bookmarks: %w", err)
			}
			fmt.Fprintf(out, "Deleted %d dead bookmarks\n", len(dead))
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 8, "parallel requests")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout (default from config)")
	cmd.Flags().BoolVar(&del, "delete", false, "delete dead bookmarks")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the delete confirmation")
	return cmd
}

func printCheck(out io.Writer, results []linkcheck.Result) {
	var dead, unreachable []linkcheck.Result
	for _, r := range results {
		switch r.Status {
		case linkcheck.Dead:
			dead = append(dead, r)
		case linkcheck.Unreachable:
			unreachable = append(unreachable, r)
		}
	}

	fmt.Fprintf(out, "%d checked, %d healthy, %d dead, %d unreachable\n",
		len(results), len(results)-len(dead)-len(unreachable), len(dead), len(unreachable))

	if len(dead) > 0 {
		fmt.Fprintln(out, "\nDead:")
		for _, r := range dead {
			fmt.Fprintf(out, "  [%d] %s  %s\n", r.StatusCode, truncate(displayTitle(r.Bookmark), 50), r.Bookmark.URL)
		}
	}
	if len(unreachable) > 0 {
		fmt.Fprintln(out, "\nUnreachable:")
		for _, r := range unreachable {
			fmt.Fprintf(out, "  (%s) %s  %s\n", r.Reason, truncate(displayTitle(r.Bookmark), 50), r.Bookmark.URL)
		}
	}
}

// confirm asks a yes/no question on in. Anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(sc.Text())) {
	case "y", "yes":
		return true
	}
	return false
}
