package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, DefaultCubeURL, config.Cube.URL)
	assert.Equal(t, 8, config.Cube.Seats)
	assert.Equal(t, 15, config.Images.MaxEntries)
	assert.NotEmpty(t, config.DB.Path)
	assert.NoError(t, config.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadPartialFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9999

[cube]
file = "/tmp/list.csv"
watch_file = true
`), 0o644))

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "/tmp/list.csv", config.Cube.File)
	assert.True(t, config.Cube.WatchFile)

	// Unset keys keep their defaults.
	assert.Equal(t, 8, config.Cube.Seats)
	assert.Equal(t, DefaultConfig().DB.Path, config.DB.Path)
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	config := DefaultConfig()
	config.Server.Port = 1234
	require.NoError(t, config.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"no cube source", func(c *Config) { c.Cube.URL = ""; c.Cube.File = "" }},
		{"watch without file", func(c *Config) { c.Cube.WatchFile = true }},
		{"zero seats", func(c *Config) { c.Cube.Seats = 0 }},
		{"negative cache", func(c *Config) { c.Images.MaxEntries = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}
