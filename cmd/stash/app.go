package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikbrunner/stash/internal/ai"
	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/dashboard"
	"github.com/nikbrunner/stash/internal/enrich"
	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/metadata"
	"github.com/nikbrunner/stash/internal/remote"
	"github.com/nikbrunner/stash/internal/storage"
	"github.com/nikbrunner/stash/internal/tagarea"
)

// app holds what every command shares: configuration, logger and, once
// opened, the store and the dashboard.
type app struct {
	configPath     string
	credentialPath string
	logLevel       string

	cfg *storage.Config
	log logger.Logger

	repo   *storage.Repo
	dash   *dashboard.Dashboard
	sqlite *remote.SQLiteClient
	redis  *redis.Client
}

// dashOptions selects what openDashboard wires in.
type dashOptions struct {
	enrich bool // attach the metadata fetcher and tag suggestion engine
	inline bool // run enrichment inside Reload
}

// loadConfig resolves paths and reads the configuration. It does not
// require the store to be set up.
func (a *app) loadConfig() error {
	if a.configPath == "" {
		p, err := storage.DefaultConfigFilePath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		a.configPath = p
	}
	if a.credentialPath == "" {
		p, err := storage.DefaultCredentialFilePath()
		if err != nil {
			return fmt.Errorf("get credential path: %w", err)
		}
		a.credentialPath = p
	}

	cfg, err := storage.Load(a.configPath, a.credentialPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	return nil
}

// openLogger writes to stderr, or to the log file when toFile is set so a
// full-screen program keeps the terminal to itself.
func (a *app) openLogger(toFile bool) error {
	var path string
	if toFile {
		path = a.cfg.LogFile
		if path == "" {
			p, err := storage.DefaultLogFilePath()
			if err != nil {
				return err
			}
			path = p
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	log, err := logger.New(a.cfg.LogLevel, a.cfg.PrettyLog && !toFile, path)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log
	return nil
}

// openStore connects the configured backend.
func (a *app) openStore() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	var client remote.Client
	switch a.cfg.Backend {
	case storage.BackendSQLite:
		path := a.cfg.SQLitePath
		if path == "" {
			p, err := storage.DefaultSQLitePath()
			if err != nil {
				return err
			}
			path = p
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		sc, err := remote.NewSQLiteClient(path)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		a.sqlite = sc
		client = sc
	default:
		client = remote.NewRESTClient(a.cfg.RemoteURL, a.cfg.RemoteKey,
			remote.WithTimeout(time.Duration(a.cfg.HTTPTimeout)))
	}

	a.log.Debug("store opened", logger.String("backend", a.cfg.Backend))
	a.repo = storage.NewRepo(client)
	return nil
}

// openDashboard opens the store and builds the dashboard on top of it.
// Nothing is loaded yet.
func (a *app) openDashboard(ctx context.Context, opts dashOptions) (*dashboard.Dashboard, error) {
	if err := a.openStore(); err != nil {
		return nil, err
	}

	bc := cache.New(a.repo, a.log)
	reg := tagarea.New(a.repo, a.log)

	var enricher *enrich.Coordinator
	if opts.enrich {
		enricher = enrich.New(bc, reg, a.newFetcher(ctx), a.newSuggester(), enrich.Options{
			RecencyWindow: time.Duration(a.cfg.AutoTagWindow),
			Delay:         time.Duration(a.cfg.AutoTagDelay),
		}, a.log)
	}

	a.dash = dashboard.New(bc, reg, a.repo, enricher, dashboard.Options{InlineEnrichment: opts.inline}, a.log)
	return a.dash, nil
}

// newFetcher builds the metadata fetcher. Results are cached in Redis when
// it is configured and reachable, in memory otherwise.
func (a *app) newFetcher(ctx context.Context) *metadata.Fetcher {
	var c metadata.Cache = metadata.NewMemoryCache()
	if a.cfg.RedisAddr != "" {
		client, err := metadata.Connect(ctx, metadata.RedisOptions{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		}, a.log)
		if err == nil {
			a.redis = client
			c = metadata.NewRedisCache(client)
		}
	}

	return metadata.NewFetcher(
		metadata.WithHTTPClient(&http.Client{Timeout: time.Duration(a.cfg.HTTPTimeout)}),
		metadata.WithCache(c, time.Duration(a.cfg.MetadataTTL)),
		metadata.WithLogger(a.log),
	)
}

func (a *app) newSuggester() *ai.Client {
	return ai.NewClient(a.cfg.AnthropicAPIKey, ai.WithDelay(time.Duration(a.cfg.AutoTagDelay)))
}

// close releases whatever was opened.
func (a *app) close() {
	if a.dash != nil {
		a.dash.Wait()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.sqlite != nil {
		_ = a.sqlite.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// setupHint turns ErrSetupRequired into instructions.
func setupHint(err error) error {
	if errors.Is(err, storage.ErrSetupRequired) {
		return fmt.Errorf("%w\n\nConfigure a remote store with:\n  stash setup --url <project-url> --key <api-key>\nor keep bookmarks locally with:\n  stash setup --sqlite", err)
	}
	return err
}
