package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Refinement outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeCached   = "cached"
	OutcomeFailure  = "failure"
	OutcomeDisabled = "disabled"
)

// Stage names
const (
	StageComponents = "components"
	StageFlows      = "flows"
	StageThreats    = "threats"
	StageRefine     = "refine"
	StageDiagram    = "diagram"
	StageReport     = "report"
)

// RecordComponents records how many components a rule produced
func (r *Registry) RecordComponents(rule string, n int) {
	if r == nil {
		return
	}
	r.ComponentsExtracted.WithLabelValues(rule).Add(float64(n))
}

// RecordFlow records a distinct flow found by the given mechanism
func (r *Registry) RecordFlow(mechanism string) {
	if r == nil {
		return
	}
	r.FlowsExtracted.WithLabelValues(mechanism).Inc()
}

// RecordThreat records one assigned STRIDE category; target is "component" or "flow"
func (r *Registry) RecordThreat(category, target string) {
	if r == nil {
		return
	}
	r.ThreatsAssigned.WithLabelValues(category, target).Inc()
}

// RecordStage records how long a pipeline stage took
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	if r == nil {
		return
	}
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRefinement records the outcome of a refinement attempt
func (r *Registry) RecordRefinement(outcome string) {
	if r == nil {
		return
	}
	r.Refinements.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node-exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}

	if err := prometheus.WriteToTextfile(path, r.Gatherer()); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
