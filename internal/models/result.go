package models

import "time"

// Refinement is the optional language-model restatement of a threat model
type Refinement struct {
	Model      string `json:"model" yaml:"model"`
	Content    string `json:"content" yaml:"content"`
	Structured any    `json:"structured,omitempty" yaml:"structured,omitempty"`
	Cached     bool   `json:"cached,omitempty" yaml:"cached,omitempty"`
}

// Result is the output of one run of the pipeline
type Result struct {
	ID          string       `json:"id" yaml:"id"`
	Description string       `json:"description" yaml:"description"`
	Components  []string     `json:"components" yaml:"components"`
	Flows       []Flow       `json:"flows" yaml:"flows"`
	ThreatModel *ThreatModel `json:"threat_model" yaml:"threat_model"`
	Refinement  *Refinement  `json:"refinement,omitempty" yaml:"refinement,omitempty"`
	DiagramPath string       `json:"diagram_path,omitempty" yaml:"diagram_path,omitempty"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
}

// HighestSeverity returns the maximum score in the result's threat model
func (r *Result) HighestSeverity() float64 {
	if r.ThreatModel == nil {
		return 0
	}
	return r.ThreatModel.MaxScore()
}
