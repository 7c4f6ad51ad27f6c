package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/threat-modeler/internal/cache"
	"github.com/ethanolivertroy/threat-modeler/internal/logging"
	"github.com/ethanolivertroy/threat-modeler/internal/metrics"
	"github.com/ethanolivertroy/threat-modeler/internal/models"
	"github.com/ethanolivertroy/threat-modeler/internal/nlp"
	"github.com/ethanolivertroy/threat-modeler/internal/scanner"
)

const loginSentence = "The client calls the API endpoint /login which queries the database."

type emptyParser struct{}

func (emptyParser) Parse(text string) (*nlp.Document, error) {
	return &nlp.Document{Text: text}, nil
}

func testPipeline(t *testing.T, mutate func(*models.Config)) (*pipeline, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := models.DefaultConfig()
	cfg.Ollama.Enabled = false
	cfg.DiagramFile = filepath.Join(dir, "artifacts", "diagrams", "diagram.svg")
	cfg.ReportFile = filepath.Join(dir, "report.html")
	cfg.OutputFormat = "json"
	if mutate != nil {
		mutate(cfg)
	}

	reg := metrics.NewRegistry()
	s, err := scanner.New(cfg, scanner.WithParser(emptyParser{}), scanner.WithMetrics(reg))
	require.NoError(t, err)

	var stdout bytes.Buffer
	return &pipeline{
		scanner: s,
		config:  cfg,
		metrics: reg,
		logger:  logging.Discard(),
		stdout:  &stdout,
		stderr:  &bytes.Buffer{},
	}, &stdout, dir
}

func TestPipelineWritesArtifacts(t *testing.T) {
	p, stdout, dir := testPipeline(t, func(c *models.Config) {
		c.MetricsFile = filepath.Join(t.TempDir(), "metrics", "threat_modeler.prom")
	})

	result, err := p.run(context.Background(), loginSentence)
	require.NoError(t, err)

	assert.Equal(t, p.config.DiagramFile, result.DiagramPath)
	assert.FileExists(t, result.DiagramPath)

	html, err := os.ReadFile(filepath.Join(dir, "report.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "AI Threat Model Report")
	assert.Contains(t, string(html), "data:image/svg&#43;xml;base64,")

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Contains(t, out["components"], "database")
	assert.Contains(t, out["components"], "api endpoint /login")
	assert.Contains(t, out["flows"], map[string]any{"src": "client", "dst": "api endpoint /login"})

	prom, err := os.ReadFile(p.config.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "threat_modeler_components_extracted_total")
}

func TestPipelineOutputFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "threats.sarif")
	p, stdout, _ := testPipeline(t, func(c *models.Config) {
		c.OutputFormat = "sarif"
		c.OutputFile = outPath
		c.ReportFile = ""
	})

	_, err := p.run(context.Background(), loginSentence)
	require.NoError(t, err)

	assert.Empty(t, stdout.String())
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "2.1.0"`)
}

func TestPipelineTerminalOutput(t *testing.T) {
	p, stdout, _ := testPipeline(t, func(c *models.Config) {
		c.OutputFormat = "terminal"
	})

	_, err := p.run(context.Background(), loginSentence)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "STRIDE THREAT MODEL")
	assert.NotContains(t, stdout.String(), "\x1b[")
}

func TestPipelineReportFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	p, _, _ := testPipeline(t, func(c *models.Config) {
		c.ReportFile = filepath.Join(blocker, "report.html")
	})

	_, err := p.run(context.Background(), loginSentence)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write report")
}

func TestPipelineDiagramFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	p, _, _ := testPipeline(t, func(c *models.Config) {
		c.DiagramFile = filepath.Join(blocker, "diagram.svg")
	})

	_, err := p.run(context.Background(), loginSentence)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write diagram")
}

func TestPipelineEmptyDescription(t *testing.T) {
	p, _, _ := testPipeline(t, nil)

	_, err := p.run(context.Background(), "  ")
	assert.ErrorIs(t, err, scanner.ErrEmptyDescription)
}

func newInputCmd(stdin string) *cobra.Command {
	c := &cobra.Command{}
	c.SetIn(strings.NewReader(stdin))
	return c
}

func TestReadDescription(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "design.txt")
	require.NoError(t, os.WriteFile(file, []byte(loginSentence), 0644))
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0644))

	t.Cleanup(func() { flagText = "" })

	flagText = "inline text"
	got, err := readDescription(newInputCmd("stdin text"), []string{file})
	require.NoError(t, err)
	assert.Equal(t, "inline text", got, "--text wins over every other source")

	flagText = ""
	got, err = readDescription(newInputCmd("stdin text"), []string{file})
	require.NoError(t, err)
	assert.Equal(t, loginSentence, got)

	got, err = readDescription(newInputCmd("stdin text"), nil)
	require.NoError(t, err)
	assert.Equal(t, "stdin text", got)

	got, err = readDescription(newInputCmd("dash means stdin"), []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "dash means stdin", got)

	_, err = readDescription(newInputCmd("   "), nil)
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = readDescription(newInputCmd(""), []string{empty})
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = readDescription(newInputCmd(""), []string{filepath.Join(dir, "missing.txt")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read description file")
}

func TestWatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "design.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, logging.Discard(), func() error {
			runs.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Keep writing until the watcher has picked up a change
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("v2"), 0644)
		return runs.Load() >= 2
	}, 5*time.Second, 250*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchFileMissingDirectory(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "nope", "design.txt"), logging.Discard(), func() error { return nil })
	assert.Error(t, err)
}

func TestRootCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{
		"--no-refine",
		"--text", loginSentence,
		"--format", "json",
		"--report", filepath.Join(dir, "out", "report.html"),
		"--diagram", filepath.Join(dir, "out", "diagram.svg"),
		"--layout", "hierarchical",
		"--fail-threshold", "1",
	})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	assert.ErrorIs(t, err, ErrThresholdExceeded)

	assert.FileExists(t, filepath.Join(dir, "out", "report.html"))
	assert.FileExists(t, filepath.Join(dir, "out", "diagram.svg"))
	assert.Contains(t, stderr.String(), "Report written to")

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Contains(t, out["components"], "client")
	assert.Contains(t, out["components"], "database")
	assert.NotContains(t, out, "refinement")
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	var stdout bytes.Buffer
	initCmd.SetOut(&stdout)
	t.Cleanup(func() { initCmd.SetOut(nil) })

	require.NoError(t, initCmd.RunE(initCmd, []string{path}))
	assert.FileExists(t, path)
	assert.Contains(t, stdout.String(), "Config written to")

	assert.Error(t, initCmd.RunE(initCmd, []string{path}))
}

func TestRulesCommand(t *testing.T) {
	var stdout bytes.Buffer
	rulesCmd.SetOut(&stdout)
	t.Cleanup(func() { rulesCmd.SetOut(nil) })

	rulesCmd.Run(rulesCmd, nil)

	out := stdout.String()
	assert.Contains(t, out, "Component keywords: api, endpoint")
	assert.Contains(t, out, "postman collection")
	assert.Contains(t, out, "tampering, information_disclosure, repudiation")
	assert.Contains(t, out, "Information Disclosure")
}

func TestCacheClearCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c, err := cache.New(scanner.CacheName, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set("key", []byte(`{"content":"refined"}`)))
	_, ok := c.Get("key")
	require.True(t, ok)

	var stdout bytes.Buffer
	cacheClearCmd.SetOut(&stdout)
	t.Cleanup(func() { cacheClearCmd.SetOut(nil) })

	require.NoError(t, cacheClearCmd.RunE(cacheClearCmd, nil))

	_, ok = c.Get("key")
	assert.False(t, ok)
	assert.Contains(t, stdout.String(), "Cache cleared: "+c.Dir)
}
