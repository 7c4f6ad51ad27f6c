package models

import "time"

// Config holds configuration for the threat modeler
type Config struct {
	// Output settings
	OutputFormat string `mapstructure:"format" toml:"format" validate:"oneof=terminal json yaml sarif html"`
	OutputFile   string `mapstructure:"output" toml:"output"` // Optional output file path
	ReportFile   string `mapstructure:"report" toml:"report"` // HTML report path, empty disables
	DiagramFile  string `mapstructure:"diagram" toml:"diagram" validate:"required"`
	Layout       string `mapstructure:"layout" toml:"layout" validate:"oneof=circular hierarchical force"`

	// Behavior settings
	FailThreshold float64 `mapstructure:"fail-threshold" toml:"fail-threshold" validate:"min=0,max=10"` // Exit 1 if any score >= threshold (0 disables)

	// Refinement settings
	Ollama OllamaConfig `mapstructure:"ollama" toml:"ollama"`

	// Cache settings
	CacheTTL time.Duration `mapstructure:"cache-ttl" toml:"cache-ttl"`
	NoCache  bool          `mapstructure:"no-cache" toml:"no-cache"`

	// Observability
	LogLevel    string `mapstructure:"log-level" toml:"log-level" validate:"oneof=debug info warn warning error"`
	LogFile     string `mapstructure:"log-file" toml:"log-file"`
	MetricsFile string `mapstructure:"metrics-file" toml:"metrics-file"`
}

// OllamaConfig holds settings for the local language-model refinement call
type OllamaConfig struct {
	Enabled bool          `mapstructure:"enabled" toml:"enabled"`
	Host    string        `mapstructure:"host" toml:"host" validate:"omitempty,url"`
	Model   string        `mapstructure:"model" toml:"model" validate:"required_if=Enabled true"`
	Timeout time.Duration `mapstructure:"timeout" toml:"timeout" validate:"min=0"` // 0 means no timeout
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OutputFormat:  "terminal",
		ReportFile:    "report.html",
		DiagramFile:   "artifacts/diagrams/diagram.svg",
		Layout:        "circular",
		FailThreshold: 0,
		Ollama: OllamaConfig{
			Enabled: true,
			Host:    "http://localhost:11434",
			Model:   "gemma2",
			Timeout: 0,
		},
		CacheTTL: 24 * time.Hour,
		NoCache:  false,
		LogLevel: "info",
	}
}
