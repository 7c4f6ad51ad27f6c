// Package diagram lays out components and flows and renders them as SVG.
package diagram

import (
	"fmt"
	"math"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

// Layout names
const (
	LayoutCircular     = "circular"
	LayoutHierarchical = "hierarchical"
	LayoutForce        = "force"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       int64   // Seed for layouts with random starting positions
}

// Layout assigns a position to every node of a graph
type Layout interface {
	ComputeLayout(g *Graph) map[string]Position
}

// NewLayout returns the layout registered under name
func NewLayout(name string, config *LayoutConfig) (Layout, error) {
	switch name {
	case "", LayoutCircular:
		return NewCircularLayout(config), nil
	case LayoutHierarchical:
		return NewHierarchicalLayout(config), nil
	case LayoutForce:
		return NewForceDirectedLayout(config), nil
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
}

// Graph is a directed graph of component names. Edges whose endpoints are not
// nodes are ignored.
type Graph struct {
	Nodes []string
	Edges []models.Flow

	outgoing map[string][]string
	incoming map[string][]string
}

// NewGraph builds a graph, dropping duplicate nodes
func NewGraph(nodes []string, edges []models.Flow) *Graph {
	g := &Graph{
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if !known[n] {
			known[n] = true
			g.Nodes = append(g.Nodes, n)
		}
	}

	for _, e := range edges {
		if !known[e.Src] || !known[e.Dst] {
			continue
		}
		g.Edges = append(g.Edges, e)
		g.outgoing[e.Src] = append(g.outgoing[e.Src], e.Dst)
		g.incoming[e.Dst] = append(g.incoming[e.Dst], e.Src)
	}

	return g
}

// Outgoing returns the destinations of edges leaving node
func (g *Graph) Outgoing(node string) []string {
	return g.outgoing[node]
}

// Incoming returns the sources of edges entering node
func (g *Graph) Incoming(node string) []string {
	return g.incoming[node]
}

// normalizePositions scales positions to fit within bounds
func normalizePositions(positions map[string]Position, width, height, padding float64) map[string]Position {
	if len(positions) == 0 {
		return positions
	}

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64

	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding

	normalized := make(map[string]Position, len(positions))
	for node, pos := range positions {
		x := width / 2
		if rangeX >= 0.01 {
			x = padding + ((pos.X-minX)/rangeX)*targetWidth
		}
		y := height / 2
		if rangeY >= 0.01 {
			y = padding + ((pos.Y-minY)/rangeY)*targetHeight
		}
		normalized[node] = Position{X: x, Y: y}
	}

	return normalized
}

func withDefaults(config *LayoutConfig) *LayoutConfig {
	if config == nil {
		config = &LayoutConfig{}
	}
	if config.Width == 0 {
		config.Width = 1200
	}
	if config.Height == 0 {
		config.Height = 800
	}
	if config.Padding == 0 {
		config.Padding = 100
	}
	return config
}
