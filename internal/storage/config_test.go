package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nikbrunner/stash/internal/storage"
)

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stash", "config.json")

	cfg, err := storage.LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Backend != storage.BackendREST {
		t.Errorf("backend = %q, want rest", cfg.Backend)
	}
	if time.Duration(cfg.AutoTagWindow) != 7*24*time.Hour {
		t.Errorf("window = %v, want 168h", time.Duration(cfg.AutoTagWindow))
	}
	if time.Duration(cfg.AutoTagDelay) != 400*time.Millisecond {
		t.Errorf("delay = %v, want 400ms", time.Duration(cfg.AutoTagDelay))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be created: %v", err)
	}
}

func TestLoadConfig_FillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"remoteUrl":"https://db.example","autoTagDelay":"1s"}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := storage.LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RemoteURL != "https://db.example" {
		t.Errorf("url = %q", cfg.RemoteURL)
	}
	if time.Duration(cfg.AutoTagDelay) != time.Second {
		t.Errorf("delay = %v, want 1s", time.Duration(cfg.AutoTagDelay))
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if len(cfg.PrivateDomains) == 0 {
		t.Error("private domains should default when absent")
	}
}

func TestLoadConfig_KeepsEmptyPrivateDomains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"privateDomains":[]}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := storage.LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.PrivateDomains == nil || len(cfg.PrivateDomains) != 0 {
		t.Errorf("private domains = %v, want explicit empty list", cfg.PrivateDomains)
	}
}

func TestLoad_RecoversCredentialFromFallback(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	credPath := filepath.Join(dir, "credential")

	if _, err := storage.SaveSetup(cfgPath, credPath, "https://db.example", "key-1"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	// Primary loses the credential.
	cfg, _ := storage.LoadConfig(cfgPath)
	cfg.RemoteKey = ""
	if err := storage.SaveConfig(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := storage.Load(cfgPath, credPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.RemoteKey != "key-1" {
		t.Errorf("key = %q, want recovered key-1", loaded.RemoteKey)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestValidate_SetupRequired(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr error
	}{
		{"rest without url", storage.Config{Backend: storage.BackendREST, RemoteKey: "k"}, storage.ErrSetupRequired},
		{"rest without key", storage.Config{Backend: storage.BackendREST, RemoteURL: "https://x"}, storage.ErrSetupRequired},
		{"rest complete", storage.Config{Backend: storage.BackendREST, RemoteURL: "https://x", RemoteKey: "k"}, nil},
		{"sqlite", storage.Config{Backend: storage.BackendSQLite}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("STASH_BACKEND", "sqlite")
	t.Setenv("STASH_AUTOTAG_WINDOW", "48h")
	t.Setenv("STASH_AUTOTAG_DELAY", "not-a-duration")
	t.Setenv("STASH_REDIS_DB", "3")

	cfg := storage.DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Backend != storage.BackendSQLite {
		t.Errorf("backend = %q, want sqlite", cfg.Backend)
	}
	if time.Duration(cfg.AutoTagWindow) != 48*time.Hour {
		t.Errorf("window = %v, want 48h", time.Duration(cfg.AutoTagWindow))
	}
	if time.Duration(cfg.AutoTagDelay) != 400*time.Millisecond {
		t.Errorf("invalid delay should keep default, got %v", time.Duration(cfg.AutoTagDelay))
	}
	if cfg.RedisDB != 3 {
		t.Errorf("redis db = %d, want 3", cfg.RedisDB)
	}
}
