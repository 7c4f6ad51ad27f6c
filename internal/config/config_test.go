package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

// isolate runs the test in an empty directory with no user config or env overrides
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	t.Setenv("OLLAMA_HOST", "")
	return dir
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("format", "f", "terminal", "")
	fs.String("model", "gemma2", "")
	fs.String("ollama-host", "http://localhost:11434", "")
	fs.Duration("refine-timeout", 0, "")
	fs.Bool("no-refine", false, "")
	fs.Float64("fail-threshold", 0, "")
	fs.String("layout", "circular", "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
format = "json"
layout = "force"
fail-threshold = 7.5

[ollama]
model = "llama3"
timeout = "30s"
`), 0644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "force", cfg.Layout)
	assert.Equal(t, 7.5, cfg.FailThreshold)
	assert.Equal(t, "llama3", cfg.Ollama.Model)
	assert.Equal(t, 30*time.Second, cfg.Ollama.Timeout)
	assert.True(t, cfg.Ollama.Enabled)
	assert.Equal(t, "report.html", cfg.ReportFile)
}

func TestLoadLocalFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(LocalFile, []byte(`format = "yaml"`), 0644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.OutputFormat)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.toml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("THREAT_MODELER_FORMAT", "sarif")
	t.Setenv("THREAT_MODELER_OLLAMA_MODEL", "mistral")
	t.Setenv("THREAT_MODELER_LOG_LEVEL", "debug")
	t.Setenv("OLLAMA_HOST", "127.0.0.1:11500")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "sarif", cfg.OutputFormat)
	assert.Equal(t, "mistral", cfg.Ollama.Model)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://127.0.0.1:11500", cfg.Ollama.Host)
}

func TestLoadFlagsTakePrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "c.toml")
	require.NoError(t, os.WriteFile(path, []byte(`format = "json"`), 0644))
	t.Setenv("THREAT_MODELER_OLLAMA_MODEL", "mistral")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--format", "html", "--model", "phi3", "--no-refine", "--refine-timeout", "5s"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "html", cfg.OutputFormat)
	assert.Equal(t, "phi3", cfg.Ollama.Model)
	assert.Equal(t, 5*time.Second, cfg.Ollama.Timeout)
	assert.False(t, cfg.Ollama.Enabled)
}

func TestLoadUnchangedFlagsKeepFileValues(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "c.toml")
	require.NoError(t, os.WriteFile(path, []byte(`layout = "hierarchical"`), 0644))

	fs := testFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "hierarchical", cfg.Layout)
	assert.True(t, cfg.Ollama.Enabled)
}

func TestLoadInvalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
format = "pdf"
fail-threshold = 11
`), 0644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OutputFormat: must be one of")
	assert.Contains(t, err.Error(), "FailThreshold: must not exceed 10")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*models.Config) {}},
		{
			name:    "bad layout",
			mutate:  func(c *models.Config) { c.Layout = "spiral" },
			wantErr: "Layout: must be one of",
		},
		{
			name:    "bad host",
			mutate:  func(c *models.Config) { c.Ollama.Host = "not a url" },
			wantErr: "Ollama.Host: must be a valid URL",
		},
		{
			name:    "model required when enabled",
			mutate:  func(c *models.Config) { c.Ollama.Model = "" },
			wantErr: "Ollama.Model: field is required",
		},
		{
			name: "model optional when disabled",
			mutate: func(c *models.Config) {
				c.Ollama.Enabled = false
				c.Ollama.Model = ""
			},
		},
		{
			name:    "negative threshold",
			mutate:  func(c *models.Config) { c.FailThreshold = -1 },
			wantErr: "FailThreshold: must be at least 0",
		},
		{
			name:    "missing diagram",
			mutate:  func(c *models.Config) { c.DiagramFile = "" },
			wantErr: "DiagramFile: field is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Error(t, Validate(nil))
}

func TestWriteDefault(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `format = "terminal"`)
	assert.Contains(t, string(data), "[ollama]")

	// Round trip through Load
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConfig(), cfg)

	err = WriteDefault(path)
	assert.True(t, errors.Is(err, ErrConfigExists))
}
