package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 500, cfg.Gate.Window)
	assert.Len(t, cfg.Gate.Rules, 3)
	assert.Equal(t, "xml", cfg.Partition.XMLRoot)
	assert.Equal(t, "text", cfg.Partition.TextRoot)
	assert.Equal(t, 200, cfg.Partition.ReadmeMinLength)
	assert.Equal(t, "bigcode/the-stack", cfg.Hub.Repo)
	assert.Equal(t, 297, cfg.Hub.Total)
	assert.Equal(t, 30*time.Minute, cfg.Hub.Timeout)
	assert.Equal(t, "dita", cfg.Dita.Binary)
	assert.Equal(t, uint64(2048), cfg.Dita.MinBytes)
	assert.Equal(t, []string{"markdown", "html5"}, cfg.Dita.Formats)
	assert.Equal(t, 8, cfg.Dita.Workers)
	assert.Contains(t, cfg.Simplify.UnwrapElements, "div")
	assert.True(t, cfg.Simplify.Verify)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".xmlstack.yaml")
	data := `
workers: 16
catalog: catalog.db
gate:
  window: 1024
  rules:
    - ["<!DOCTYPE", "DocBook"]
dita:
  min_size: 4KB
  formats: [markdown]
hub:
  timeout: 5m
simplify:
  unwrap_elements: [div, font]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, "catalog.db", cfg.Catalog)
	assert.Equal(t, 1024, cfg.Gate.Window)
	assert.Equal(t, [][]string{{"<!DOCTYPE", "DocBook"}}, cfg.Gate.Rules)
	assert.Equal(t, uint64(4000), cfg.Dita.MinBytes)
	assert.Equal(t, []string{"markdown"}, cfg.Dita.Formats)
	assert.Equal(t, 5*time.Minute, cfg.Hub.Timeout)
	assert.Equal(t, []string{"div", "font"}, cfg.Simplify.UnwrapElements)
	assert.Contains(t, cfg.Simplify.KeepAttributes, "href")
}

func TestLoad_TokenFromEnv(t *testing.T) {
	t.Setenv("HF_TOKEN", "hf_secret")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "hf_secret", cfg.Hub.Token)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{"zero workers", "workers", 0, "Workers"},
		{"bad endpoint", "hub.endpoint", "not a url", "Endpoint"},
		{"bad min size", "dita.min_size", "lots", "dita.min_size"},
		{"no formats", "dita.formats", []string{}, "Formats"},
		{"empty gate rule", "gate.rules", [][]string{{}}, "Rules"},
		{"zero window", "gate.window", 0, "Window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
