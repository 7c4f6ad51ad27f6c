package threats

import "github.com/ethanolivertroy/threat-modeler/internal/models"

// GenerateThreats builds the threat model for a set of components and flows.
// Flow assignments keep the order of flows.
func GenerateThreats(components []string, flows []models.Flow) *models.ThreatModel {
	model := models.NewThreatModel()

	for _, c := range components {
		stride := ClassifyComponent(c)
		model.Components[c] = models.Assignment{
			Stride: stride,
			Scores: Score(stride, Context{Exposed: IsExposed(c)}),
		}
	}

	for _, f := range flows {
		stride := ClassifyFlow(f.Src, f.Dst)
		model.Flows = append(model.Flows, models.FlowAssignment{
			Src: f.Src,
			Dst: f.Dst,
			Assignment: models.Assignment{
				Stride: stride,
				Scores: Score(stride, Context{}),
			},
		})
	}

	return model
}
