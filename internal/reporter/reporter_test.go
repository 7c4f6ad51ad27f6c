package reporter

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

func sampleResult() *models.Result {
	tm := models.NewThreatModel()
	tm.Components["client"] = models.Assignment{
		Stride: []models.Category{models.Spoofing},
		Scores: map[models.Category]float64{models.Spoofing: 7},
	}
	tm.Components["database"] = models.Assignment{
		Stride: []models.Category{models.Tampering, models.InformationDisclosure},
		Scores: map[models.Category]float64{models.Tampering: 8, models.InformationDisclosure: 9.5},
	}
	tm.Flows = append(tm.Flows, models.FlowAssignment{
		Src: "client",
		Dst: "database",
		Assignment: models.Assignment{
			Stride: []models.Category{models.Tampering},
			Scores: map[models.Category]float64{models.Tampering: 6},
		},
	})

	return &models.Result{
		ID:          "4f5c2a3e-0000-4000-8000-000000000001",
		Description: "The client sends data to the database.",
		Components:  []string{"client", "database"},
		Flows:       []models.Flow{{Src: "client", Dst: "database"}},
		ThreatModel: tm,
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestGet(t *testing.T) {
	assert.IsType(t, &JSONReporter{}, Get("json"))
	assert.IsType(t, &YAMLReporter{}, Get("yaml"))
	assert.IsType(t, &SARIFReporter{}, Get("sarif"))
	assert.IsType(t, &HTMLReporter{}, Get("html"))
	assert.IsType(t, &TerminalReporter{}, Get("terminal"))
	assert.IsType(t, &TerminalReporter{}, Get("unknown"))
	assert.Equal(t, []string{"terminal", "json", "yaml", "sarif", "html"}, Formats())
}

func TestJSONReporter(t *testing.T) {
	out, err := (&JSONReporter{}).Report(sampleResult())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))

	summary := got["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["total_components"])
	assert.Equal(t, float64(1), summary["total_flows"])
	assert.Equal(t, 9.5, summary["highest_score"])
	assert.Equal(t, "CRITICAL", summary["highest_severity"])
	assert.Equal(t, false, summary["refined"])
	assert.Equal(t, float64(2), summary["categories"].(map[string]any)["tampering"])

	tm := got["threat_model"].(map[string]any)
	flows := tm["flows"].([]any)
	require.Len(t, flows, 1)
	flow := flows[0].(map[string]any)
	assert.Equal(t, "client", flow["src"])
	assert.Equal(t, []any{"tampering"}, flow["stride"])
	assert.NotContains(t, got, "refinement")
}

func TestJSONReporterEmptyResult(t *testing.T) {
	out, err := (&JSONReporter{}).Report(&models.Result{})
	require.NoError(t, err)

	assert.Contains(t, string(out), `"components": []`)
	assert.Contains(t, string(out), `"flows": []`)
	assert.Contains(t, string(out), `"highest_severity": "NONE"`)
}

func TestYAMLReporter(t *testing.T) {
	res := sampleResult()
	res.Refinement = &models.Refinement{Model: "gemma2", Content: "refined"}

	out, err := (&YAMLReporter{}).Report(res)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, res.ID, got["id"])
	assert.Equal(t, []any{"client", "database"}, got["components"])

	tm := got["threat_model"].(map[string]any)
	flow := tm["flows"].([]any)[0].(map[string]any)
	assert.Equal(t, "database", flow["dst"])
	assert.Equal(t, []any{"tampering"}, flow["stride"])

	ref := got["refinement"].(map[string]any)
	assert.Equal(t, "refined", ref["content"])
}

func TestSARIFReporter(t *testing.T) {
	out, err := (&SARIFReporter{}).Report(sampleResult())
	require.NoError(t, err)

	var report sarifReport
	require.NoError(t, json.Unmarshal(out, &report))

	assert.Equal(t, "2.1.0", report.Version)
	require.Len(t, report.Runs, 1)
	run := report.Runs[0]

	rules := run.Tool.Driver.Rules
	require.Len(t, rules, 6)
	assert.Equal(t, "STRIDE-SPOOFING", rules[0].ID)
	assert.Equal(t, "STRIDE-ELEVATION_OF_PRIVILEGE", rules[5].ID)
	assert.Equal(t, "InformationDisclosure", rules[3].Name)

	// client: 1, database: 2, flow: 1
	require.Len(t, run.Results, 4)

	first := run.Results[0]
	assert.Equal(t, "STRIDE-SPOOFING", first.RuleID)
	assert.Equal(t, 0, first.RuleIndex)
	assert.Equal(t, "error", first.Level)
	assert.Equal(t, "7.0", first.Properties.SecuritySeverity)
	assert.Equal(t, "component/client", first.Locations[0].LogicalLocations[0].FullyQualifiedName)

	last := run.Results[3]
	assert.Equal(t, "STRIDE-TAMPERING", last.RuleID)
	assert.Equal(t, 1, last.RuleIndex)
	assert.Equal(t, "warning", last.Level)
	assert.Equal(t, "flow", last.Locations[0].LogicalLocations[0].Kind)
	assert.Equal(t, "flow/client/database:tampering", last.PartialFingerprints["threatHash"])
}

func TestSARIFReporterNoThreats(t *testing.T) {
	out, err := (&SARIFReporter{}).Report(&models.Result{ThreatModel: models.NewThreatModel()})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"results": []`)
}

func TestTerminalReporter(t *testing.T) {
	res := sampleResult()
	res.DiagramPath = "artifacts/diagrams/diagram.svg"
	res.Refinement = &models.Refinement{Model: "gemma2", Content: "1. **Database**: tampering", Cached: true}

	var buf bytes.Buffer
	out, err := NewTerminalReporter(&buf).Report(res)
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "STRIDE THREAT MODEL")
	assert.Contains(t, s, "Components (2)")
	assert.Contains(t, s, "database")
	assert.Contains(t, s, "Tampering, Information Disclosure")
	assert.Contains(t, s, "Data Flows (1)")
	assert.Contains(t, s, "client -> database")
	assert.Contains(t, s, "Highest severity: CRITICAL (9.5)")
	assert.Contains(t, s, "AI-Refined Threat Model (gemma2) [cached]")
	assert.Contains(t, s, "Database")
	assert.Contains(t, s, "Diagram: artifacts/diagrams/diagram.svg")
	assert.NotContains(t, s, "\x1b[", "no ANSI escapes when not writing to a terminal")
}

func TestTerminalReporterNoComponents(t *testing.T) {
	out, err := NewTerminalReporter(&bytes.Buffer{}).Report(&models.Result{ThreatModel: models.NewThreatModel()})
	require.NoError(t, err)

	assert.Contains(t, string(out), "No components found in the description.")
	assert.Contains(t, string(out), "Highest severity: NONE (0.0)")
}

func TestHTMLReporter(t *testing.T) {
	dir := t.TempDir()
	diagramPath := filepath.Join(dir, "diagram.svg")
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	require.NoError(t, os.WriteFile(diagramPath, svg, 0644))

	res := sampleResult()
	res.Description = "The <client> sends data & files."
	res.DiagramPath = diagramPath
	res.Refinement = &models.Refinement{
		Model:      "gemma2",
		Content:    `{"threats":["tampering"]}`,
		Structured: map[string]any{"threats": []any{"tampering"}},
	}

	out, err := (&HTMLReporter{}).Report(res)
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "<title>AI Threat Model Report</title>")
	assert.Contains(t, s, "<h2>System Description</h2>")
	assert.Contains(t, s, "The &lt;client&gt; sends data &amp; files.")
	assert.Contains(t, s, "<li>database</li>")
	assert.Contains(t, s, "<li>client → database</li>")
	assert.Contains(t, s, "<th>Component</th><th>STRIDE Categories</th><th>Risk Scores</th>")
	assert.Contains(t, s, "<td>tampering, information_disclosure</td><td>tampering: 8, information_disclosure: 9.5</td>")
	assert.Contains(t, s, "<th>Data Flow</th>")
	// html/template entity-encodes '+' inside attributes
	assert.Contains(t, html.UnescapeString(s), `src="data:image/svg+xml;base64,`+base64.StdEncoding.EncodeToString(svg)+`"`)
	assert.Contains(t, s, "AI-Refined Threat Model (Ollama: gemma2)")
	assert.Contains(t, s, "&#34;threats&#34;: [")
	assert.NotContains(t, s, "ZgotmplZ")
}

func TestHTMLReporterOptionalSections(t *testing.T) {
	out, err := (&HTMLReporter{}).Report(&models.Result{Description: "nothing here"})
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "<p>nothing here</p>")
	assert.NotContains(t, s, "System Diagram")
	assert.NotContains(t, s, "AI-Refined")
	assert.NotContains(t, s, "<th>Data Flow</th>")
}

func TestHTMLReporterMissingDiagram(t *testing.T) {
	res := sampleResult()
	res.DiagramPath = filepath.Join(t.TempDir(), "missing.svg")

	_, err := (&HTMLReporter{}).Report(res)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to read diagram"))
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.html")

	got, err := WriteReport(path, []byte("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestWriteReportFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := WriteReport(filepath.Join(blocker, "report.html"), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write report")
}
