package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: a logging config pointing at a temp file
	dir := t.TempDir()
	logPath := filepath.Join(dir, "pathdexd.log")
	cfg := Config{
		Level:         "info",
		FilePath:      logPath,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	}

	// When: a logger is set up and used
	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	logger.Info("indexing started", slog.Int("roots", 3))
	cleanup()

	// Then: the log file contains a parseable JSON record
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	line := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "indexing started", record["msg"])
	assert.Equal(t, float64(3), record["roots"])
}

func TestSetup_LevelFiltersDebug(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "pathdexd.log")
	cfg := Config{Level: "warn", FilePath: logPath, MaxSizeMB: 1, MaxFiles: 1}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Warn("visible")
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromString(tt.input), tt.input)
	}
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	// Given: a writer with a tiny rotation threshold
	dir := t.TempDir()
	logPath := filepath.Join(dir, "pathdexd.log")
	w, err := NewRotatingWriter(logPath, 1, 2)
	require.NoError(t, err)
	defer w.Close()
	w.maxSize = 64 // shrink for the test

	// When: enough data is written to exceed the threshold
	payload := []byte(strings.Repeat("x", 48) + "\n")
	for i := 0; i < 4; i++ {
		_, err := w.Write(payload)
		require.NoError(t, err)
	}

	// Then: a rotated file exists alongside the current one
	_, err = os.Stat(logPath)
	require.NoError(t, err)
	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err)
}
