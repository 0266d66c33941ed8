package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/stash/internal/httpapi"
	"github.com/nikbrunner/stash/internal/httpapi/deps"
	"github.com/nikbrunner/stash/internal/logger"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard as a local JSON API",
		Long: `Start an HTTP server exposing bookmarks, filters, tag areas and exports.

Only Host headers matching the listen address are accepted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.openLogger(false); err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			d, err := a.openDashboard(ctx, dashOptions{enrich: true})
			if err != nil {
				return setupHint(err)
			}
			if err := d.Reload(ctx); err != nil {
				// Keep serving; requests report the failure and /api/reload retries.
				a.log.Warn("initial load failed", logger.Error(err))
			}

			srv := httpapi.New(httpapi.Options{
				Addr:           addr,
				RequestTimeout: time.Duration(a.cfg.HTTPTimeout) * 2,
			}, deps.Deps{
				Dashboard:    d,
				Logger:       a.log,
				StartTime:    time.Now(),
				Version:      version,
				AllowedHosts: allowedHosts(addr),
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8484)")
	return cmd
}

// allowedHosts lists the Host headers a loopback listener answers to. Other
// listeners accept any host.
func allowedHosts(addr string) []string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil
	}
	ip := net.ParseIP(host)
	if host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return nil
	}
	return []string{
		net.JoinHostPort("localhost", port),
		net.JoinHostPort("127.0.0.1", port),
		net.JoinHostPort("::1", port),
	}
}
