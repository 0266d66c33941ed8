package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/stash/internal/remote"
	"github.com/nikbrunner/stash/internal/storage"
)

func newSetupCmd(a *app) *cobra.Command {
	var (
		remoteURL string
		remoteKey string
		printSQL  bool
		useSQLite bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure the bookmark store",
		Long: `Store the remote project URL and API key, or switch to a local SQLite file.

Examples:
  stash setup                                  # prompt for URL and key
  stash setup --url https://x.supabase.co --key <key>
  stash setup --sqlite                         # keep bookmarks on this machine
  stash setup --print-sql                      # print the table definitions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if printSQL {
				fmt.Fprint(out, remote.SetupSQL)
				return nil
			}

			if useSQLite {
				a.cfg.Backend = storage.BackendSQLite
				if err := storage.SaveConfig(a.configPath, a.cfg); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				fmt.Fprintf(out, "Using the local SQLite store. Config saved to %s\n", a.configPath)
				return nil
			}

			if remoteURL == "" || remoteKey == "" {
				return promptSetup(a, cmd.InOrStdin(), out)
			}
			return saveSetup(a, out, remoteURL, remoteKey)
		},
	}

	cmd.Flags().StringVar(&remoteURL, "url", "", "remote project URL")
	cmd.Flags().StringVar(&remoteKey, "key", "", "remote API key")
	cmd.Flags().BoolVar(&printSQL, "print-sql", false, "print the SQL that creates the tables and exit")
	cmd.Flags().BoolVar(&useSQLite, "sqlite", false, "use a local SQLite file instead of a remote store")
	cmd.MarkFlagsMutuallyExclusive("print-sql", "sqlite")

	return cmd
}

// promptSetup asks for the remote URL and key on in.
func promptSetup(a *app, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	ask := func(label, current string) (string, error) {
		if current != "" {
			fmt.Fprintf(out, "%s [%s]: ", label, current)
		} else {
			fmt.Fprintf(out, "%s: ", label)
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", storage.ErrSetupRequired
		}
		if v := strings.TrimSpace(sc.Text()); v != "" {
			return v, nil
		}
		return current, nil
	}

	fmt.Fprintln(out, "No bookmark store configured.")
	remoteURL, err := ask("Project URL", a.cfg.RemoteURL)
	if err != nil {
		return err
	}
	remoteKey, err := ask("API key", "")
	if err != nil {
		return err
	}
	return saveSetup(a, out, remoteURL, remoteKey)
}

func saveSetup(a *app, out io.Writer, remoteURL, remoteKey string) error {
	cfg, err := storage.SaveSetup(a.configPath, a.credentialPath, remoteURL, remoteKey)
	if err != nil {
		if errors.Is(err, storage.ErrSetupRequired) {
			return fmt.Errorf("both a URL and a key are required: %w", err)
		}
		return fmt.Errorf("save setup: %w", err)
	}
	a.cfg.Backend = cfg.Backend
	a.cfg.RemoteURL = cfg.RemoteURL
	a.cfg.RemoteKey = cfg.RemoteKey

	fmt.Fprintf(out, "Saved. If the tables do not exist yet, run `stash setup --print-sql` and apply the output.\n")
	return nil
}
