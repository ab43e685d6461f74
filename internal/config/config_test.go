package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFrom_DefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfigFrom(t.TempDir())
	require.NoError(t, err)

	assert.False(t, cfg.IsConfigured())
	assert.Equal(t, 24*time.Hour, cfg.Cache.Duration)
	assert.Equal(t, 500, cfg.Fetch.PageSize)
	assert.Equal(t, 4, cfg.Fetch.Concurrency)
	assert.Equal(t, "library", cfg.UI.DefaultSort)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFrom_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  url: http://aura.local:8888
cache:
  duration: 2h
fetch:
  page_size: 100
connections:
  media_server:
    type: plex
    url: http://plex.local:32400
    token: abc
    libraries: [Movies, TV Shows]
  arr:
    - type: radarr
      url: http://radarr.local:7878
      api_key: key
      library: Movies
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("AURA_FETCH_CONCURRENCY", "2")

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)

	assert.True(t, cfg.IsConfigured())
	assert.Equal(t, "http://aura.local:8888", cfg.Server.URL)
	assert.Equal(t, 2*time.Hour, cfg.Cache.Duration)
	assert.Equal(t, 100, cfg.Fetch.PageSize)
	assert.Equal(t, 2, cfg.Fetch.Concurrency)
	assert.Equal(t, MediaServerPlex, cfg.Connections.MediaServer.Type)
	assert.Equal(t, []string{"Movies", "TV Shows"}, cfg.Connections.MediaServer.Libraries)
	require.Len(t, cfg.Connections.Arr, 1)
	assert.Equal(t, ArrRadarr, cfg.Connections.Arr[0].Type)
	assert.NoError(t, cfg.Validate())
}

func TestSaveConfigTo_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Server.URL = "https://aura.example.com"
	assert.True(t, cfg.EnsureClientID())
	assert.False(t, cfg.EnsureClientID())
	cfg.Connections.Arr = []ArrConfig{{Type: ArrSonarr, URL: "http://sonarr:8989", APIKey: "k", Library: "TV Shows"}}

	require.NoError(t, SaveConfigTo(dir, cfg))

	loaded, err := LoadConfigFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.URL, loaded.Server.URL)
	assert.Equal(t, cfg.Server.ClientID, loaded.Server.ClientID)
	require.Len(t, loaded.Connections.Arr, 1)
	assert.Equal(t, "TV Shows", loaded.Connections.Arr[0].Library)
}

func TestPersistClientID_KeepsOnlyFileValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("fetch:\n  page_size: 100\n"), 0644))
	t.Setenv("AURA_SERVER_TOKEN", "s3cret-from-env")
	t.Setenv("AURA_SERVER_URL", "http://env-only:8888")

	require.NoError(t, PersistClientID(dir, "client-1"))

	raw, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cret-from-env")
	assert.NotContains(t, string(raw), "env-only")
	assert.NotContains(t, string(raw), "cache")

	info, err := os.Stat(configFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "client-1", cfg.Server.ClientID)
	assert.Equal(t, 100, cfg.Fetch.PageSize)
}

func TestPersistClientID_CreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "aura")

	require.NoError(t, PersistClientID(dir, "client-2"))

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "client-2", cfg.Server.ClientID)
}

func TestConfig_CacheDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Dir = "/tmp/aura"
	assert.Equal(t, "/tmp/aura", cfg.CacheDir())
	cfg.Cache.Enabled = false
	assert.Equal(t, "", cfg.CacheDir())
}

func TestConfig_ValidateReportsEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.URL = "ftp://nope"
	cfg.Fetch.PageSize = 0
	cfg.UI.DefaultSort = "rating"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.url")
	assert.Contains(t, err.Error(), "fetch.page_size")
	assert.Contains(t, err.Error(), "ui.default_sort")
}
