package reporter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

// YAMLReporter outputs results in YAML format, with the same shape as JSON
type YAMLReporter struct{}

// Report generates YAML output for the given result
func (r *YAMLReporter) Report(result *models.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(buildOutput(result)); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}

	return buf.Bytes(), nil
}
