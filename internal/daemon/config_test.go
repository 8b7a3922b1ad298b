package daemon

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.SocketPath, ".pathdex")
	assert.Contains(t, cfg.LockPath, ".pathdex")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty socket path", func(c *Config) { c.SocketPath = "" }},
		{"empty lock path", func(c *Config) { c.LockPath = "" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"zero grace period", func(c *Config) { c.ShutdownGracePeriod = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_EnsureDir(t *testing.T) {
	// Given: socket and lock paths under a directory that does not exist
	base := t.TempDir()
	cfg := Config{
		SocketPath:          filepath.Join(base, "run", "pathdexd.sock"),
		LockPath:            filepath.Join(base, "run", "pathdexd.lock"),
		Timeout:             time.Second,
		ShutdownGracePeriod: time.Second,
	}

	// When: directories are ensured
	require.NoError(t, cfg.EnsureDir())

	// Then: the directory exists
	assert.DirExists(t, filepath.Join(base, "run"))
}
