package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktimer/internal/config"
)

func TestLoggerWritesToConfiguredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worktimer.log")
	cfg := config.LoggingConfig{Level: "info", Format: "json", File: path}

	out, closeLog := openLogFile(cfg)
	logger := setupLogger(cfg, out)
	logger.Info().Str("component", "tracker").Msg("started")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"started"`)
	assert.Contains(t, string(data), `"component":"tracker"`)
}

func TestOpenLogFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worktimer.log")
	require.NoError(t, os.WriteFile(path, []byte("earlier\n"), 0644))
	cfg := config.LoggingConfig{Level: "info", Format: "text", File: path}

	out, closeLog := openLogFile(cfg)
	_, err := out.Write([]byte("later\n"))
	require.NoError(t, err)
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "earlier\nlater\n", string(data))
}

func TestOpenLogFileWithoutPathUsesStderr(t *testing.T) {
	out, closeLog := openLogFile(config.LoggingConfig{})
	defer closeLog()
	assert.Equal(t, os.Stderr, out)
}
