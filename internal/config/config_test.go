package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultsAreValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500*time.Millisecond, cfg.DebounceWindow())
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout())
	assert.Equal(t, 10000, cfg.Query.MaxCount)
}

func TestLoad_MergesYAMLOverDefaults(t *testing.T) {
	// Given: a config file overriding a subset of fields
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
roots:
  - /srv/data
  - /home
data_dir: ` + dir + `
watch:
  debounce: 250ms
query:
  max_count: 500
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	// When: the config is loaded
	cfg, err := Load(path)
	require.NoError(t, err)

	// Then: overridden fields come from the file, the rest from defaults
	assert.Equal(t, []string{"/srv/data", "/home"}, cfg.Roots)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceWindow())
	assert.Equal(t, 500, cfg.Query.MaxCount)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.PollInterval()) // default preserved
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: "+dir+"\nlog:\n  level: info\n"), 0o644))

	t.Setenv("PATHDEX_LOG_LEVEL", "error")
	t.Setenv("PATHDEX_QUERY_MAX_COUNT", "77")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 77, cfg.Query.MaxCount)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative root", func(c *Config) { c.Roots = []string{"relative/path"} }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "fast" }},
		{"zero workers", func(c *Config) { c.Scan.Workers = 0 }},
		{"negative max count", func(c *Config) { c.Query.MaxCount = -1 }},
		{"bad query timeout", func(c *Config) { c.Query.Timeout = "soon" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDerivedPaths_LiveUnderDataDir(t *testing.T) {
	cfg := NewConfig()
	cfg.DataDir = "/var/lib/pathdex"

	assert.Equal(t, "/var/lib/pathdex/pathdexd.sock", cfg.SocketPath())
	assert.Equal(t, "/var/lib/pathdex/pathdexd.lock", cfg.LockPath())
	assert.Equal(t, "/var/lib/pathdex/tokens", cfg.TokenDir())
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "config.yaml")

	cfg := NewConfig()
	cfg.Roots = []string{"/srv"}
	cfg.DataDir = dir
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Roots, loaded.Roots)
	assert.Equal(t, cfg.Query.MaxCount, loaded.Query.MaxCount)
}
