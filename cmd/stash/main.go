package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/stash/internal/storage"
	"github.com/nikbrunner/stash/internal/tui"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "stash",
		Short: "Read-later bookmark dashboard",
		Long: `stash keeps links to videos, threads, articles and books in one list,
filters them by source, status and tag, and tracks what you have read.

Run without arguments to open the dashboard.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), a)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/stash/config.json)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newSearchCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newSetupCmd(a),
		newEnrichCmd(a),
		newRetagCmd(a),
		newCheckCmd(a),
	)
	return root
}

// runTUI runs the full interactive dashboard.
func runTUI(ctx context.Context, a *app) error {
	if err := a.openLogger(true); err != nil {
		return err
	}

	if errors.Is(a.cfg.Validate(), storage.ErrSetupRequired) {
		if err := promptSetup(a, os.Stdin, os.Stdout); err != nil {
			return setupHint(err)
		}
	}

	d, err := a.openDashboard(ctx, dashOptions{enrich: true})
	if err != nil {
		return setupHint(err)
	}

	// The first load happens inside the program so a failure shows as a
	// notice instead of aborting.
	app := tui.NewApp(tui.AppParams{Dashboard: d})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
