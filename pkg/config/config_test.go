package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(filepath.Join(dir, "config.toml")))

	assert.Equal(t, dir, GetConfigDir())
	assert.Equal(t, "http://localhost:8787", GetString("api.base_url"))
	assert.Equal(t, 20, GetInt("comments.page_size"))
	assert.Equal(t, 1500*time.Millisecond, GetDuration("playback.grace"))
	assert.Equal(t, filepath.Join(dir, "prefs.json"), GetString("prefs.file"))
}

func TestSetStringPersists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(filepath.Join(dir, "config.toml")))
	require.NoError(t, SetString("api.base_url", "http://example.test"))

	require.NoError(t, Init(filepath.Join(dir, "config.toml")))
	assert.Equal(t, "http://example.test", GetString("api.base_url"))
}
