package diagram

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

const (
	nodeFill    = "lightblue"
	nodeStroke  = "#4682b4"
	edgeStroke  = "#555555"
	fontSize    = 12.0
	charWidth   = 7.2
	nodeHeight  = 34.0
	nodePadding = 12.0
)

// Options controls layout and canvas size
type Options struct {
	Layout     string
	Width      float64
	Height     float64
	Iterations int
	Seed       int64
}

func (o Options) layoutConfig() *LayoutConfig {
	return &LayoutConfig{
		Width:      o.Width,
		Height:     o.Height,
		Iterations: o.Iterations,
		Seed:       o.Seed,
	}
}

// Render lays out nodes and edges and writes the SVG to path, creating parent
// directories. It returns the written path.
func Render(nodes []string, edges []models.Flow, path string, opts Options) (string, error) {
	data, err := SVG(nodes, edges, opts)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create diagram directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write diagram: %w", err)
	}

	return path, nil
}

// SVG returns the diagram as an SVG document
func SVG(nodes []string, edges []models.Flow, opts Options) ([]byte, error) {
	cfg := opts.layoutConfig()
	layout, err := NewLayout(opts.Layout, cfg)
	if err != nil {
		return nil, err
	}

	g := NewGraph(nodes, edges)
	positions := layout.ComputeLayout(g)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
	buf.WriteString(`<defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">`)
	fmt.Fprintf(&buf, `<path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/></marker></defs>`+"\n", edgeStroke)
	buf.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")

	// Edges first so nodes are drawn over them
	for _, e := range g.Edges {
		src, dst := positions[e.Src], positions[e.Dst]
		if e.Src == e.Dst {
			writeLoop(&buf, src, e.Src)
			continue
		}

		start := boxExit(src, dst, e.Src)
		end := boxExit(dst, src, e.Dst)
		fmt.Fprintf(&buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1.5" marker-end="url(#arrow)"/>`+"\n",
			start.X, start.Y, end.X, end.Y, edgeStroke)
	}

	for _, node := range g.Nodes {
		pos := positions[node]
		w := boxWidth(node)
		fmt.Fprintf(&buf, `<g class="node"><rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" fill="%s" stroke="%s"/>`,
			pos.X-w/2, pos.Y-nodeHeight/2, w, nodeHeight, nodeFill, nodeStroke)
		fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-family="Arial, sans-serif" font-size="%.0f" text-anchor="middle" dominant-baseline="central">%s</text></g>`+"\n",
			pos.X, pos.Y, fontSize, escape(node))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func boxWidth(label string) float64 {
	return float64(utf8.RuneCountInString(label))*charWidth + 2*nodePadding
}

// boxExit returns where the segment from center toward other leaves the
// node's box
func boxExit(center, other Position, label string) Position {
	dx := other.X - center.X
	dy := other.Y - center.Y
	if dx == 0 && dy == 0 {
		return center
	}

	hw := boxWidth(label) / 2
	hh := nodeHeight / 2
	t := math.Inf(1)
	if dx != 0 {
		t = math.Min(t, hw/math.Abs(dx))
	}
	if dy != 0 {
		t = math.Min(t, hh/math.Abs(dy))
	}
	if t > 1 {
		// Overlapping boxes
		return center
	}

	return Position{X: center.X + dx*t, Y: center.Y + dy*t}
}

func writeLoop(buf *bytes.Buffer, pos Position, label string) {
	top := pos.Y - nodeHeight/2
	x1 := pos.X - boxWidth(label)/4
	x2 := pos.X + boxWidth(label)/4
	fmt.Fprintf(buf, `<path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="%s" stroke-width="1.5" marker-end="url(#arrow)"/>`+"\n",
		x1, top, x1, top-40, x2, top-40, x2, top, edgeStroke)
}

func escape(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails when the writer does
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
