package diagram

import "math"

// CircularLayout arranges nodes in a circle
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	return &CircularLayout{config: withDefaults(config)}
}

// ComputeLayout places nodes clockwise from the top in the order given
func (cl *CircularLayout) ComputeLayout(g *Graph) map[string]Position {
	positions := make(map[string]Position, len(g.Nodes))

	if len(g.Nodes) == 0 {
		return positions
	}

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2

	if len(g.Nodes) == 1 {
		positions[g.Nodes[0]] = Position{X: centerX, Y: centerY}
		return positions
	}

	radius := math.Min(centerX, centerY) - cl.config.Padding
	angleStep := 2 * math.Pi / float64(len(g.Nodes))

	for i, node := range g.Nodes {
		angle := float64(i)*angleStep - math.Pi/2
		positions[node] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}

	return positions
}
