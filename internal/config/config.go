// Package config loads settings from defaults, a TOML file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

const (
	// EnvPrefix prefixes every environment override, e.g. THREAT_MODELER_LOG_LEVEL
	EnvPrefix = "THREAT_MODELER"

	// LocalFile is looked up in the working directory
	LocalFile = ".threat-modeler.toml"
)

// ErrConfigExists is returned by WriteDefault when the target already exists
var ErrConfigExists = errors.New("config file already exists")

// flagKeys maps command-line flag names to configuration keys
var flagKeys = map[string]string{
	"format":         "format",
	"output":         "output",
	"report":         "report",
	"diagram":        "diagram",
	"layout":         "layout",
	"fail-threshold": "fail-threshold",
	"model":          "ollama.model",
	"ollama-host":    "ollama.host",
	"refine-timeout": "ollama.timeout",
	"no-cache":       "no-cache",
	"log-level":      "log-level",
	"log-file":       "log-file",
	"metrics-file":   "metrics-file",
}

var validate = validator.New()

// Load resolves the configuration. path names an explicit config file and
// may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*models.Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	setDefaults(v, models.DefaultConfig())

	// Precedence: --config > ./.threat-modeler.toml > user config dir
	if path != "" {
		v.SetConfigFile(path)
	} else if found := findConfigFile(); found != "" {
		v.SetConfigFile(found)
	}
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("ollama.host", EnvPrefix+"_OLLAMA_HOST", "OLLAMA_HOST")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &models.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if flags != nil {
		if noRefine, err := flags.GetBool("no-refine"); err == nil && noRefine {
			cfg.Ollama.Enabled = false
		}
	}

	// OLLAMA_HOST is commonly set without a scheme
	if h := cfg.Ollama.Host; h != "" && !strings.Contains(h, "://") {
		cfg.Ollama.Host = "http://" + h
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cfg against its struct tags and reports every invalid field
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	errs := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		errs = append(errs, formatFieldError(e))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}

func formatFieldError(e validator.FieldError) error {
	field := strings.TrimPrefix(e.Namespace(), "Config.")

	switch e.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s: field is required", field)
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s], got %q", field, e.Param(), e.Value())
	case "min":
		return fmt.Errorf("%s: must be at least %s", field, e.Param())
	case "max":
		return fmt.Errorf("%s: must not exceed %s", field, e.Param())
	case "url":
		return fmt.Errorf("%s: must be a valid URL, got %q", field, e.Value())
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}

// WriteDefault writes the default configuration as TOML to path, refusing to
// overwrite an existing file
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(models.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// UserConfigPath returns the per-user config file location
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "threat-modeler", "config.toml"), nil
}

func findConfigFile() string {
	if _, err := os.Stat(LocalFile); err == nil {
		return LocalFile
	}
	if p, err := UserConfigPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func setDefaults(v *viper.Viper, d *models.Config) {
	v.SetDefault("format", d.OutputFormat)
	v.SetDefault("output", d.OutputFile)
	v.SetDefault("report", d.ReportFile)
	v.SetDefault("diagram", d.DiagramFile)
	v.SetDefault("layout", d.Layout)
	v.SetDefault("fail-threshold", d.FailThreshold)
	v.SetDefault("ollama.enabled", d.Ollama.Enabled)
	v.SetDefault("ollama.host", d.Ollama.Host)
	v.SetDefault("ollama.model", d.Ollama.Model)
	v.SetDefault("ollama.timeout", d.Ollama.Timeout)
	v.SetDefault("cache-ttl", d.CacheTTL)
	v.SetDefault("no-cache", d.NoCache)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("metrics-file", d.MetricsFile)
}
