package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCmd_WritesConfig(t *testing.T) {
	// Given: a root directory and a target config path
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "config.yaml")

	// When: init runs with an explicit config path
	out, err := execute(t, "--config", target, "init", root)
	require.NoError(t, err)

	// Then: the file exists and records the root
	assert.Contains(t, out, target)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), root)
}

func TestInitCmd_RefusesToOverwrite(t *testing.T) {
	// Given: an existing config file
	target := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(target, []byte("roots: []\n"), 0o644))

	// When: init runs without --force
	_, err := execute(t, "--config", target, "init")

	// Then: it refuses
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(target, []byte("stale\n"), 0o644))

	_, err := execute(t, "--config", target, "init", "--force")
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestInitCmd_RejectsRelativeRoot(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")

	_, err := execute(t, "--config", target, "init", "relative/path")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute")
}

func TestInitCmd_RejectsMissingRoot(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")

	_, err := execute(t, "--config", target, "init", "/does/not/exist/pathdex")

	assert.Error(t, err)
}
