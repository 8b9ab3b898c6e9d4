package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msafara/internal/search"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msafara", DefaultConfigFileName)
	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(filepath.Dir(path), DefaultDBName), cfg.DBPath)
	assert.Equal(t, "q", cfg.Keys.Quit)

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreateReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	body := `
log_level = "debug"

[tools]
emboss_bin_dir = "/opt/emboss"
mafft_bin_dir = "/opt/mafft"

[search]
palette = ["#010203"]
current_search = "#040506"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/emboss", cfg.Tools.EmbossBinDir)
	assert.Equal(t, "/opt/mafft", cfg.Tools.MafftBinDir)
	palette, err := cfg.Palette()
	require.NoError(t, err)
	assert.Equal(t, search.Color{R: 1, G: 2, B: 3}, palette[0])
	cur, err := cfg.CurrentSearchColor()
	require.NoError(t, err)
	assert.Equal(t, search.Color{R: 4, G: 5, B: 6}, cur)
	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)
	assert.Equal(t, "j", cfg.Keys.Down)
	assert.Equal(t, filepath.Join(filepath.Dir(path), DefaultDBName), cfg.DBPath)
}

func TestLoadOrCreateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"palette", "[search]\npalette = [\"#12\"]\n"},
		{"current colour", "[search]\ncurrent_search = \"red\"\n"},
		{"log level", "log_level = \"loud\"\n"},
		{"syntax", "db_path = \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultConfigFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := LoadOrCreate(path)
			assert.Error(t, err)
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", ResolveConfigPath())

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "msafara", DefaultConfigFileName), ResolveConfigPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/someone")
	assert.Equal(t, filepath.Join("/home/someone", ".config", "msafara", DefaultConfigFileName), ResolveConfigPath())
}
