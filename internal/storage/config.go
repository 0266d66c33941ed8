package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Backends.
const (
	BackendREST   = "rest"
	BackendSQLite = "sqlite"
)

// ErrSetupRequired is returned when the remote store URL or credential is missing.
var ErrSetupRequired = errors.New("remote store not configured: run `stash setup`")

// Duration is a time.Duration that reads and writes as "400ms" style text in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Plain numbers are nanoseconds.
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*d = Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config holds application configuration.
type Config struct {
	Backend    string `json:"backend"`
	RemoteURL  string `json:"remoteUrl"`
	RemoteKey  string `json:"remoteKey"`
	SQLitePath string `json:"sqlitePath"`

	LogLevel  string `json:"logLevel"`
	PrettyLog bool   `json:"prettyLog"`
	LogFile   string `json:"logFile"`

	AutoTagWindow Duration `json:"autoTagWindow"`
	AutoTagDelay  Duration `json:"autoTagDelay"`
	HTTPTimeout   Duration `json:"httpTimeout"`

	// Metadata cache; empty RedisAddr keeps it in memory.
	RedisAddr     string   `json:"redisAddr"`
	RedisPassword string   `json:"redisPassword"`
	RedisDB       int      `json:"redisDB"`
	MetadataTTL   Duration `json:"metadataTTL"`

	ListenAddr string `json:"listenAddr"`

	// PrivateDomains answer 404 to logged-out requests; link checks never
	// report them dead.
	PrivateDomains []string `json:"privateDomains"`

	// AnthropicAPIKey is read from the environment only.
	AnthropicAPIKey string `json:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendREST,
		LogLevel:       "info",
		AutoTagWindow:  Duration(7 * 24 * time.Hour),
		AutoTagDelay:   Duration(400 * time.Millisecond),
		HTTPTimeout:    Duration(15 * time.Second),
		MetadataTTL:    Duration(24 * time.Hour),
		ListenAddr:     "127.0.0.1:8484",
		PrivateDomains: []string{"github.com", "gitlab.com", "x.com", "instagram.com"},
	}
}

// LoadConfig reads config from the JSON file.
// Creates the file with defaults if it doesn't exist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			config := DefaultConfig()
			// Non-fatal: return defaults even if save fails
			_ = SaveConfig(path, &config)
			return &config, nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if config.Backend == "" {
		config.Backend = defaults.Backend
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.AutoTagWindow <= 0 {
		config.AutoTagWindow = defaults.AutoTagWindow
	}
	if config.AutoTagDelay < 0 {
		config.AutoTagDelay = defaults.AutoTagDelay
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = defaults.HTTPTimeout
	}
	if config.MetadataTTL <= 0 {
		config.MetadataTTL = defaults.MetadataTTL
	}
	if config.ListenAddr == "" {
		config.ListenAddr = defaults.ListenAddr
	}
	if config.PrivateDomains == nil {
		config.PrivateDomains = defaults.PrivateDomains
	}

	return &config, nil
}

// SaveConfig writes config to the JSON file.
// Creates the directory if it doesn't exist.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	// The file may hold the credential.
	return os.WriteFile(path, data, 0600)
}

// Load reads the config file, recovers a lost credential from the fallback
// file and applies STASH_* environment overrides.
func Load(configPath, credentialPath string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if cfg.RemoteKey == "" && credentialPath != "" {
		key, err := ReadCredential(credentialPath)
		if err != nil {
			return nil, err
		}
		cfg.RemoteKey = key
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from STASH_* environment variables.
func (c *Config) ApplyEnv() {
	c.Backend = getenv("STASH_BACKEND", c.Backend)
	c.RemoteURL = getenv("STASH_REMOTE_URL", c.RemoteURL)
	c.RemoteKey = getenv("STASH_REMOTE_KEY", c.RemoteKey)
	c.SQLitePath = getenv("STASH_SQLITE_PATH", c.SQLitePath)

	c.LogLevel = getenv("STASH_LOG_LEVEL", c.LogLevel)
	c.PrettyLog = mustBool("STASH_PRETTY_LOG", c.PrettyLog)
	c.LogFile = getenv("STASH_LOG_FILE", c.LogFile)

	c.AutoTagWindow = Duration(mustDuration("STASH_AUTOTAG_WINDOW", time.Duration(c.AutoTagWindow)))
	c.AutoTagDelay = Duration(mustDuration("STASH_AUTOTAG_DELAY", time.Duration(c.AutoTagDelay)))
	c.HTTPTimeout = Duration(mustDuration("STASH_HTTP_TIMEOUT", time.Duration(c.HTTPTimeout)))

	c.RedisAddr = getenv("STASH_REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getenv("STASH_REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getenvInt("STASH_REDIS_DB", c.RedisDB)
	c.MetadataTTL = Duration(mustDuration("STASH_METADATA_TTL", time.Duration(c.MetadataTTL)))

	c.ListenAddr = getenv("STASH_LISTEN_ADDR", c.ListenAddr)
	c.AnthropicAPIKey = getenv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
}

// Validate reports ErrSetupRequired when the chosen backend is not usable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendREST:
		if strings.TrimSpace(c.RemoteURL) == "" || strings.TrimSpace(c.RemoteKey) == "" {
			return ErrSetupRequired
		}
	case BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// SaveSetup stores the remote URL and credential in the config file and
// writes the credential to the fallback file as well.
func SaveSetup(configPath, credentialPath, remoteURL, remoteKey string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg.Backend = BackendREST
	cfg.RemoteURL = strings.TrimSpace(remoteURL)
	cfg.RemoteKey = strings.TrimSpace(remoteKey)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := SaveConfig(configPath, cfg); err != nil {
		return nil, err
	}
	if err := WriteCredential(credentialPath, cfg.RemoteKey); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadCredential reads the fallback credential file.
// A missing file yields an empty credential.
func ReadCredential(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteCredential writes the fallback credential file.
func WriteCredential(path, key string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(key+"\n"), 0600)
}

// DefaultConfigFilePath returns the default config path: ~/.config/stash/config.json
func DefaultConfigFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "stash", "config.json"), nil
}

// DefaultCredentialFilePath returns the fallback credential path: ~/.local/share/stash/credential
func DefaultCredentialFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "stash", "credential"), nil
}

// DefaultSQLitePath returns the default SQLite database path: ~/.local/share/stash/stash.db
func DefaultSQLitePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "stash", "stash.db"), nil
}

// DefaultLogFilePath returns the TUI log path: ~/.local/state/stash/stash.log
func DefaultLogFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "state", "stash", "stash.log"), nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
