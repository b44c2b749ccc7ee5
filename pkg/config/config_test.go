package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ">>> ", cfg.Prompt)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iridium.toml")
	contents := "prompt = \"iridium> \"\nlog_level = \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "iridium> ", cfg.Prompt)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset fields keep their defaults.
	assert.Equal(t, "", cfg.HistoryFile)
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iridium.toml")
	require.NoError(t, os.WriteFile(path, []byte("prompt = ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
