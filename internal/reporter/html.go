package reporter

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

// HTMLReporter outputs a self-contained HTML report. The diagram at
// Result.DiagramPath, when set, is embedded as a data URI.
type HTMLReporter struct{}

type htmlRow struct {
	Name     string
	Stride   string
	Scores   string
	Severity string
}

type htmlData struct {
	Title       string
	ID          string
	GeneratedAt string
	Description string
	Components  []string
	Flows       []string
	Rows        []htmlRow
	FlowRows    []htmlRow
	DiagramPath string
	DiagramURI  template.URL
	Refinement  string
	RefineModel string
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body {
    font-family: Arial, sans-serif;
    padding: 40px;
}
h1, h2 {
    color: #333;
}
pre {
    background: #f5f5f5;
    padding: 10px;
    border-radius: 5px;
    overflow-x: auto;
}
table {
    border-collapse: collapse;
    width: 100%;
    margin-top: 20px;
}
th, td {
    padding: 8px;
    border: 1px solid #ccc;
    text-align: left;
}
.meta {
    color: #777;
    font-size: 0.9em;
}
</style>
</head>
<body>

<h1>{{.Title}}</h1>
<p class="meta">Run {{.ID}} &middot; {{.GeneratedAt}}</p>

<h2>System Description</h2>
<p>{{.Description}}</p>

<h2>Components</h2>
<ul>
{{- range .Components}}
<li>{{.}}</li>
{{- end}}
</ul>

<h2>Data Flows</h2>
<ul>
{{- range .Flows}}
<li>{{.}}</li>
{{- end}}
</ul>

<h2>STRIDE Threat Analysis</h2>
<table>
<tr><th>Component</th><th>STRIDE Categories</th><th>Risk Scores</th><th>Severity</th></tr>
{{- range .Rows}}
<tr><td>{{.Name}}</td><td>{{.Stride}}</td><td>{{.Scores}}</td><td>{{.Severity}}</td></tr>
{{- end}}
</table>
{{- if .FlowRows}}

<table>
<tr><th>Data Flow</th><th>STRIDE Categories</th><th>Risk Scores</th><th>Severity</th></tr>
{{- range .FlowRows}}
<tr><td>{{.Name}}</td><td>{{.Stride}}</td><td>{{.Scores}}</td><td>{{.Severity}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- if .DiagramURI}}

<h2>System Diagram</h2>
<img src="{{.DiagramURI}}" alt="System diagram" style="max-width: 100%;">
<p class="meta">{{.DiagramPath}}</p>
{{- end}}
{{- if .Refinement}}

<h2>AI-Refined Threat Model (Ollama{{if .RefineModel}}: {{.RefineModel}}{{end}})</h2>
<pre>{{.Refinement}}</pre>
{{- end}}

</body>
</html>
`))

// Report generates the HTML report for the given result
func (r *HTMLReporter) Report(result *models.Result) ([]byte, error) {
	data := htmlData{
		Title:       "AI Threat Model Report",
		ID:          result.ID,
		Description: result.Description,
		Components:  result.Components,
		DiagramPath: result.DiagramPath,
	}
	if !result.GeneratedAt.IsZero() {
		data.GeneratedAt = result.GeneratedAt.Format("2006-01-02 15:04:05 MST")
	}

	for _, f := range result.Flows {
		data.Flows = append(data.Flows, f.Src+" → "+f.Dst)
	}

	if tm := result.ThreatModel; tm != nil {
		for _, name := range tm.ComponentNames() {
			data.Rows = append(data.Rows, newHTMLRow(name, tm.Components[name]))
		}
		for _, f := range tm.Flows {
			data.FlowRows = append(data.FlowRows, newHTMLRow(f.Src+" → "+f.Dst, f.Assignment))
		}
	}

	if result.DiagramPath != "" {
		img, err := os.ReadFile(result.DiagramPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read diagram: %w", err)
		}
		data.DiagramURI = template.URL(dataURI(result.DiagramPath, img))
	}

	if ref := result.Refinement; ref != nil {
		data.RefineModel = ref.Model
		data.Refinement = ref.Content
		if ref.Structured != nil {
			// Pretty-print decoded JSON
			if pretty, err := json.MarshalIndent(ref.Structured, "", "  "); err == nil {
				data.Refinement = string(pretty)
			}
		}
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render html report: %w", err)
	}

	return buf.Bytes(), nil
}

func newHTMLRow(name string, a models.Assignment) htmlRow {
	stride := make([]string, 0, len(a.Stride))
	scores := make([]string, 0, len(a.Stride))
	for _, c := range a.Stride {
		stride = append(stride, string(c))
		scores = append(scores, fmt.Sprintf("%s: %s", c, strconv.FormatFloat(a.Scores[c], 'f', -1, 64)))
	}

	return htmlRow{
		Name:     name,
		Stride:   strings.Join(stride, ", "),
		Scores:   strings.Join(scores, ", "),
		Severity: models.SeverityFor(a.MaxScore()).String(),
	}
}

func dataURI(path string, img []byte) string {
	mime := "image/svg+xml"
	switch {
	case strings.HasSuffix(path, ".png"):
		mime = "image/png"
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img)
}
