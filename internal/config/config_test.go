package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "config.json",
			content: `{
				"repository": {"path": "/src/project"},
				"linker": {"workers": 4, "on_failure": "collect"},
				"cache": {"enabled": true, "size": 128, "path": "/tmp/szz"},
				"log_level": "debug"
			}`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
repository:
  path: /src/project
linker:
  workers: 4
  on_failure: collect
cache:
  enabled: true
  size: 128
  path: /tmp/szz
log_level: debug
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, "/src/project", cfg.Repository.Path)
			assert.Equal(t, 4, cfg.Linker.Workers)
			assert.Equal(t, "collect", cfg.Linker.OnFailure)
			assert.Equal(t, 128, cfg.Cache.Size)
			assert.Equal(t, "/tmp/szz", cfg.Cache.Path)
			assert.Equal(t, "debug", cfg.LogLevel)

			// Unset fields keep their defaults.
			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, "development", cfg.Environment)
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero workers", `{"linker": {"workers": 0}}`},
		{"unknown policy", `{"linker": {"on_failure": "retry"}}`},
		{"empty cache", `{"cache": {"enabled": true, "size": 0}}`},
		{"bad port", `{"server": {"port": 70000}}`},
		{"bad level", `{"log_level": "verbose"}`},
		{"malformed", `{"linker":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.json", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("SZZ_ENV", "test")
	assert.Equal(t, "config/config.test.json", Path())

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.MkdirAll("config", 0755))
	require.NoError(t, os.WriteFile("config/config.test.json", []byte(`{"linker": {"workers": 2}}`), 0644))

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Linker.Workers)
}
