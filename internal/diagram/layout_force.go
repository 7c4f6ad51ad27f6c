package diagram

import (
	"math"
	"math/rand"
)

// ForceDirectedLayout implements force-directed graph layout. Starting
// positions come from config.Seed, so a given graph always lays out the same.
type ForceDirectedLayout struct {
	config *LayoutConfig
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(config *LayoutConfig) *ForceDirectedLayout {
	config = withDefaults(config)
	if config.Iterations == 0 {
		config.Iterations = 100
	}
	return &ForceDirectedLayout{config: config}
}

// ComputeLayout computes positions using a Fruchterman-Reingold simulation
func (fdl *ForceDirectedLayout) ComputeLayout(g *Graph) map[string]Position {
	cfg := fdl.config
	nodes := g.Nodes

	if len(nodes) == 0 {
		return make(map[string]Position)
	}

	if len(nodes) == 1 {
		return map[string]Position{
			nodes[0]: {X: cfg.Width / 2, Y: cfg.Height / 2},
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	positions := make(map[string]Position, len(nodes))
	for _, node := range nodes {
		positions[node] = Position{
			X: rng.Float64()*(cfg.Width-2*cfg.Padding) + cfg.Padding,
			Y: rng.Float64()*(cfg.Height-2*cfg.Padding) + cfg.Padding,
		}
	}

	// Undirected adjacency; a flow pulls both ends together
	neighbours := make(map[string]map[string]bool, len(nodes))
	for _, node := range nodes {
		neighbours[node] = make(map[string]bool)
	}
	for _, e := range g.Edges {
		if e.Src != e.Dst {
			neighbours[e.Src][e.Dst] = true
			neighbours[e.Dst][e.Src] = true
		}
	}

	k := math.Sqrt((cfg.Width * cfg.Height) / float64(len(nodes))) // Optimal distance
	temperature := cfg.Width / 10.0

	for iter := 0; iter < cfg.Iterations; iter++ {
		forces := make(map[string]Position, len(nodes))

		// Repulsion between all nodes
		for i, a := range nodes {
			for j := i + 1; j < len(nodes); j++ {
				b := nodes[j]
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Max(math.Sqrt(dx*dx+dy*dy), 0.01)

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force

				forces[a] = Position{X: forces[a].X + fx, Y: forces[a].Y + fy}
				forces[b] = Position{X: forces[b].X - fx, Y: forces[b].Y - fy}
			}
		}

		// Attraction between connected nodes. Iterating nodes in order keeps
		// floating point sums identical between runs.
		for _, a := range nodes {
			for _, b := range nodes {
				if !neighbours[a][b] {
					continue
				}
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}

				force := (dist * dist) / k
				forces[a] = Position{
					X: forces[a].X - (dx/dist)*force,
					Y: forces[a].Y - (dy/dist)*force,
				}
			}
		}

		cool := 1.0 - float64(iter)/float64(cfg.Iterations)
		for _, node := range nodes {
			fx, fy := forces[node].X, forces[node].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force == 0 {
				continue
			}

			step := math.Min(force, temperature) * cool
			positions[node] = Position{
				X: positions[node].X + (fx/force)*step,
				Y: positions[node].Y + (fy/force)*step,
			}
		}

		temperature *= 0.95
	}

	return normalizePositions(positions, cfg.Width, cfg.Height, cfg.Padding)
}
