package diagram

// HierarchicalLayout arranges nodes in levels following flow direction
type HierarchicalLayout struct {
	config *LayoutConfig
}

// NewHierarchicalLayout creates a new hierarchical layout
func NewHierarchicalLayout(config *LayoutConfig) *HierarchicalLayout {
	return &HierarchicalLayout{config: withDefaults(config)}
}

// ComputeLayout puts nodes without incoming flows on the top level and their
// successors on the levels below, breadth first
func (hl *HierarchicalLayout) ComputeLayout(g *Graph) map[string]Position {
	positions := make(map[string]Position, len(g.Nodes))

	if len(g.Nodes) == 0 {
		return positions
	}

	var roots []string
	for _, node := range g.Nodes {
		if len(g.Incoming(node)) == 0 {
			roots = append(roots, node)
		}
	}
	if len(roots) == 0 {
		// Every node is on a cycle
		roots = []string{g.Nodes[0]}
	}

	var levels [][]string
	visited := make(map[string]bool)
	for _, r := range roots {
		visited[r] = true
	}
	current := roots

	for len(current) > 0 {
		levels = append(levels, current)
		var next []string

		for _, node := range current {
			for _, dst := range g.Outgoing(node) {
				if !visited[dst] {
					visited[dst] = true
					next = append(next, dst)
				}
			}
		}

		current = next
	}

	// Nodes only reachable through a cycle that excludes the roots
	for _, node := range g.Nodes {
		if !visited[node] {
			levels[len(levels)-1] = append(levels[len(levels)-1], node)
		}
	}

	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	levelWidth := hl.config.Width - 2*hl.config.Padding

	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)

		for nodeIdx, node := range level {
			positions[node] = Position{
				X: hl.config.Padding + spacing*float64(nodeIdx+1),
				Y: y,
			}
		}
	}

	return positions
}
