package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/stash/internal/exporter"
	"github.com/nikbrunner/stash/internal/filter"
	"github.com/nikbrunner/stash/internal/importer"
	"github.com/nikbrunner/stash/internal/logger"
)

func newImportCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.html>",
		Short: "Import bookmarks from a browser export",
		Long: `Read a Netscape bookmark file as written by every major browser.
URLs that are already stored, or repeated in the file, are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openLogger(false); err != nil {
				return err
			}
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			parsed, err := importer.ParseHTMLBookmarks(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			d, err := a.openDashboard(ctx, dashOptions{})
			if err != nil {
				return setupHint(err)
			}
			if err := d.Cache().Load(ctx); err != nil {
				return fmt.Errorf("load bookmarks: %w", err)
			}

			fresh, skipped := importer.Dedupe(parsed, d.Cache().HasURL)
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "Would import %d bookmarks (%d duplicates skipped)\n", len(fresh), skipped)
				return nil
			}

			if len(fresh) > 0 {
				if _, err := a.repo.InsertBookmarks(ctx, fresh); err != nil {
					return fmt.Errorf("store bookmarks: %w", err)
				}
			}
			a.log.Info("import finished",
				logger.String("file", args[0]),
				logger.Int("added", len(fresh)),
				logger.Int("skipped", skipped))

			fmt.Fprintf(out, "Imported %d bookmarks", len(fresh))
			if skipped > 0 {
				fmt.Fprintf(out, " (%d duplicates skipped)", skipped)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count what would be imported without writing")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export bookmarks to Markdown or HTML",
		Long: `Write every bookmark grouped by source type. Markdown entries carry a
YAML frontmatter block, HTML is a Netscape bookmark file any browser imports.

The default path is ~/Downloads/stash-export-<date>.<ext>. Use - for stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := exporter.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if err := a.openLogger(false); err != nil {
				return err
			}

			d, err := a.openDashboard(cmd.Context(), dashOptions{})
			if err != nil {
				return setupHint(err)
			}
			if err := d.Reload(cmd.Context()); err != nil {
				return fmt.Errorf("load bookmarks: %w", err)
			}
			bookmarks := filter.Apply(d.Cache().Bookmarks(), filter.DefaultCriteria())

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if path == "-" {
				return exporter.Write(cmd.OutOrStdout(), format, bookmarks, d.AreaNames)
			}
			if path == "" {
				if path, err = exporter.DefaultExportPath(format); err != nil {
					return fmt.Errorf("get default export path: %w", err)
				}
			}

			if err := writeFile(path, func(w io.Writer) error {
				return exporter.Write(w, format, bookmarks, d.AreaNames)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d bookmarks to %s\n", len(bookmarks), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "md", "export format: md or html")
	return cmd
}

// writeFile creates path and its directory and hands the file to write.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
