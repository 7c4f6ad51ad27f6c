package reporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

// Tool identification, overridable at build time with -ldflags -X
var (
	ToolName    = "threat-modeler"
	ToolVersion = "0.3.0"
)

// Reporter is the interface for output formatters
type Reporter interface {
	// Report generates output for the given result
	Report(result *models.Result) ([]byte, error)
}

// Formats lists the accepted output formats
func Formats() []string {
	return []string{"terminal", "json", "yaml", "sarif", "html"}
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "yaml":
		return &YAMLReporter{}
	case "sarif":
		return &SARIFReporter{}
	case "html":
		return &HTMLReporter{}
	default:
		return NewTerminalReporter(os.Stdout)
	}
}

// WriteReport writes data to path, creating parent directories, and returns the path
func WriteReport(path string, data []byte) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to write report: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
