package reporter

import (
	"encoding/json"
	"time"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

// JSONReporter outputs results in JSON format
type JSONReporter struct{}

// jsonOutput represents the JSON output structure
type jsonOutput struct {
	ID          string              `json:"id" yaml:"id"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	Description string              `json:"description" yaml:"description"`
	Summary     jsonSummary         `json:"summary" yaml:"summary"`
	Components  []string            `json:"components" yaml:"components"`
	Flows       []models.Flow       `json:"flows" yaml:"flows"`
	ThreatModel *models.ThreatModel `json:"threat_model" yaml:"threat_model"`
	Refinement  *models.Refinement  `json:"refinement,omitempty" yaml:"refinement,omitempty"`
	DiagramPath string              `json:"diagram_path,omitempty" yaml:"diagram_path,omitempty"`
}

type jsonSummary struct {
	TotalComponents int                     `json:"total_components" yaml:"total_components"`
	TotalFlows      int                     `json:"total_flows" yaml:"total_flows"`
	HighestScore    float64                 `json:"highest_score" yaml:"highest_score"`
	HighestSeverity string                  `json:"highest_severity" yaml:"highest_severity"`
	Categories      map[models.Category]int `json:"categories" yaml:"categories"`
	Refined         bool                    `json:"refined" yaml:"refined"`
}

func buildOutput(result *models.Result) jsonOutput {
	tm := result.ThreatModel
	if tm == nil {
		tm = models.NewThreatModel()
	}

	components := result.Components
	if components == nil {
		components = []string{}
	}
	flows := result.Flows
	if flows == nil {
		flows = []models.Flow{}
	}

	highest := result.HighestSeverity()
	return jsonOutput{
		ID:          result.ID,
		GeneratedAt: result.GeneratedAt,
		Description: result.Description,
		Summary: jsonSummary{
			TotalComponents: len(components),
			TotalFlows:      len(flows),
			HighestScore:    highest,
			HighestSeverity: models.SeverityFor(highest).String(),
			Categories:      tm.CategoryCounts(),
			Refined:         result.Refinement != nil,
		},
		Components:  components,
		Flows:       flows,
		ThreatModel: tm,
		Refinement:  result.Refinement,
		DiagramPath: result.DiagramPath,
	}
}

// Report generates JSON output for the given result
func (r *JSONReporter) Report(result *models.Result) ([]byte, error) {
	return json.MarshalIndent(buildOutput(result), "", "  ")
}
