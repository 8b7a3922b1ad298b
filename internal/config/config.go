// Package config loads and validates the pathdex daemon configuration.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. YAML config file (explicit path, or ~/.config/pathdex/config.yaml)
//  3. Environment variables (PATHDEX_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete pathdex daemon configuration.
type Config struct {
	// Roots are the directory trees to index.
	Roots []string `yaml:"roots"`

	// DataDir is where the daemon keeps its socket, lock file, and token
	// files. Default: ~/.pathdex
	DataDir string `yaml:"data_dir"`

	Watch  WatchConfig  `yaml:"watch"`
	Scan   ScanConfig   `yaml:"scan"`
	Query  QueryConfig  `yaml:"query"`
	Tokens TokensConfig `yaml:"tokens"`
	Log    LogConfig    `yaml:"log"`
}

// WatchConfig configures the filesystem watcher.
type WatchConfig struct {
	// Debounce is the window for coalescing rapid events on the same path.
	Debounce string `yaml:"debounce"`
	// PollInterval is the interval for the polling fallback watcher.
	PollInterval string `yaml:"poll_interval"`
	// EventBuffer is the size of the event channel buffer.
	EventBuffer int `yaml:"event_buffer"`
}

// ScanConfig configures the initial full scan.
type ScanConfig struct {
	// Workers is the number of roots scanned concurrently.
	Workers int `yaml:"workers"`
	// BatchSize is the number of mutations applied per index batch.
	BatchSize int `yaml:"batch_size"`
}

// QueryConfig configures query execution limits.
type QueryConfig struct {
	// MaxCount caps the page size a single query may request.
	MaxCount int `yaml:"max_count"`
	// Timeout bounds the search cost of a single query.
	Timeout string `yaml:"timeout"`
}

// TokensConfig configures per-user secret tokens.
type TokensConfig struct {
	// Users lists local users whose tokens are generated eagerly at
	// startup. Other users get tokens lazily on first request.
	Users []string `yaml:"users"`
}

// LogConfig configures daemon logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Roots:   []string{},
		DataDir: DefaultDataDir(),
		Watch: WatchConfig{
			Debounce:     "500ms",
			PollInterval: "5s",
			EventBuffer:  1000,
		},
		Scan: ScanConfig{
			Workers:   runtime.NumCPU(),
			BatchSize: 512,
		},
		Query: QueryConfig{
			MaxCount: 10000,
			Timeout:  "10s",
		},
		Tokens: TokensConfig{
			Users: nil,
		},
		Log: LogConfig{
			Level:     "info",
			File:      "",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// DefaultDataDir returns the default daemon data directory (~/.pathdex).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".pathdex")
	}
	return filepath.Join(home, ".pathdex")
}

// DefaultConfigPath returns the default configuration file path, following
// the XDG Base Directory convention.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pathdex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "pathdex", "config.yaml")
	}
	return filepath.Join(home, ".config", "pathdex", "config.yaml")
}

// Load loads configuration from the given file path. An empty path falls
// back to DefaultConfigPath; a missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := cfg.loadYAML(path); err != nil {
		if explicit || !os.IsNotExist(underlying(err)) {
			return nil, err
		}
		// No default config file is fine, defaults apply.
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if len(other.Roots) > 0 {
		c.Roots = other.Roots
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.PollInterval != "" {
		c.Watch.PollInterval = other.Watch.PollInterval
	}
	if other.Watch.EventBuffer != 0 {
		c.Watch.EventBuffer = other.Watch.EventBuffer
	}

	if other.Scan.Workers != 0 {
		c.Scan.Workers = other.Scan.Workers
	}
	if other.Scan.BatchSize != 0 {
		c.Scan.BatchSize = other.Scan.BatchSize
	}

	if other.Query.MaxCount != 0 {
		c.Query.MaxCount = other.Query.MaxCount
	}
	if other.Query.Timeout != "" {
		c.Query.Timeout = other.Query.Timeout
	}

	if len(other.Tokens.Users) > 0 {
		c.Tokens.Users = other.Tokens.Users
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}
	if other.Log.MaxSizeMB != 0 {
		c.Log.MaxSizeMB = other.Log.MaxSizeMB
	}
	if other.Log.MaxFiles != 0 {
		c.Log.MaxFiles = other.Log.MaxFiles
	}
}

// applyEnvOverrides applies PATHDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PATHDEX_ROOTS"); v != "" {
		c.Roots = filepath.SplitList(v)
	}
	if v := os.Getenv("PATHDEX_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PATHDEX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PATHDEX_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("PATHDEX_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("PATHDEX_QUERY_TIMEOUT"); v != "" {
		c.Query.Timeout = v
	}
	if v := os.Getenv("PATHDEX_QUERY_MAX_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Query.MaxCount = n
		}
	}
	if v := os.Getenv("PATHDEX_SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scan.Workers = n
		}
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	for _, root := range c.Roots {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("root must be an absolute path, got %s", root)
		}
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("watch.debounce is not a valid duration: %s", c.Watch.Debounce)
	}
	if _, err := time.ParseDuration(c.Watch.PollInterval); err != nil {
		return fmt.Errorf("watch.poll_interval is not a valid duration: %s", c.Watch.PollInterval)
	}
	if c.Watch.EventBuffer < 0 {
		return fmt.Errorf("watch.event_buffer must be non-negative, got %d", c.Watch.EventBuffer)
	}

	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Scan.BatchSize <= 0 {
		return fmt.Errorf("scan.batch_size must be positive, got %d", c.Scan.BatchSize)
	}

	if c.Query.MaxCount <= 0 {
		return fmt.Errorf("query.max_count must be positive, got %d", c.Query.MaxCount)
	}
	if _, err := time.ParseDuration(c.Query.Timeout); err != nil {
		return fmt.Errorf("query.timeout is not a valid duration: %s", c.Query.Timeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	return nil
}

// DebounceWindow returns the parsed debounce duration.
// Validate must have accepted the config first.
func (c *Config) DebounceWindow() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// PollInterval returns the parsed polling fallback interval.
func (c *Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.Watch.PollInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// QueryTimeout returns the parsed per-query timeout.
func (c *Config) QueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Query.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// SocketPath returns the daemon's Unix socket path under the data dir.
func (c *Config) SocketPath() string {
	return filepath.Join(c.DataDir, "pathdexd.sock")
}

// LockPath returns the daemon's instance lock file path under the data dir.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "pathdexd.lock")
}

// TokenDir returns the directory holding per-user token files.
func (c *Config) TokenDir() string {
	return filepath.Join(c.DataDir, "tokens")
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// underlying unwraps fmt.Errorf-wrapped errors down to the first cause
// without one, so os.IsNotExist can inspect it.
func underlying(err error) error {
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		next := u.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
}
