// Package metrics exposes pipeline counters and timings for the threat
// modeler. A run writes them once to a node-exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "threat_modeler"

// Registry holds all metrics for one process
type Registry struct {
	// Extraction Metrics
	ComponentsExtracted *prometheus.CounterVec
	FlowsExtracted      *prometheus.CounterVec

	// Classification Metrics
	ThreatsAssigned *prometheus.CounterVec

	// Pipeline Metrics
	StageDuration *prometheus.HistogramVec
	Refinements   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initExtractionMetrics()
	r.initClassificationMetrics()
	r.initPipelineMetrics()

	return r
}

// Gatherer returns the underlying Prometheus registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func (r *Registry) initExtractionMetrics() {
	r.ComponentsExtracted = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_extracted_total",
			Help:      "Components produced by each extraction rule, before deduplication",
		},
		[]string{"rule"},
	)

	r.FlowsExtracted = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_extracted_total",
			Help:      "Distinct flows by the mechanism that first found them",
		},
		[]string{"mechanism"},
	)
}

func (r *Registry) initClassificationMetrics() {
	r.ThreatsAssigned = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threats_assigned_total",
			Help:      "STRIDE categories assigned, by category and target kind",
		},
		[]string{"category", "target"},
	)
}

func (r *Registry) initPipelineMetrics() {
	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"stage"},
	)

	r.Refinements = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refinements_total",
			Help:      "Refinement attempts by outcome",
		},
		[]string{"outcome"},
	)
}
