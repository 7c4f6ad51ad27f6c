package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ethanolivertroy/threat-modeler/internal/config"
	"github.com/ethanolivertroy/threat-modeler/internal/logging"
	"github.com/ethanolivertroy/threat-modeler/internal/metrics"
	"github.com/ethanolivertroy/threat-modeler/internal/models"
	"github.com/ethanolivertroy/threat-modeler/internal/reporter"
	"github.com/ethanolivertroy/threat-modeler/internal/scanner"
)

// ErrThresholdExceeded is returned when a score reaches --fail-threshold
var ErrThresholdExceeded = errors.New("threat score at or above fail threshold")

var (
	flagText          string
	flagOutput        string
	flagFormat        string
	flagReport        string
	flagDiagram       string
	flagLayout        string
	flagNoRefine      bool
	flagModel         string
	flagOllamaHost    string
	flagRefineTimeout time.Duration
	flagNoCache       bool
	flagThreshold     float64
	flagMetricsFile   string
	flagLogLevel      string
	flagLogFile       string
	flagConfig        string
	flagWatch         bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "threat-modeler [file]",
	Short: "Generate a STRIDE threat model from a system description",
	Long: `threat-modeler reads a free-text description of a system architecture,
extracts its components and the data flows between them, and assigns STRIDE
threat categories (Spoofing, Tampering, Repudiation, Information Disclosure,
Denial of Service, Elevation of Privilege) with 0-10 risk scores.

It writes a diagram of the system and a self-contained HTML report, and can
ask a local Ollama model to refine the threat model.

The description is read from a file argument, --text, or stdin. When stdin is
a terminal you are prompted for it.

Examples:
  # Model a description from a file
  threat-modeler architecture.txt

  # Model inline text without the language model
  threat-modeler --no-refine -t "The client calls the API endpoint /login which queries the database."

  # Output SARIF for code scanning
  threat-modeler design.md --format sarif --output threats.sarif

  # Fail a CI job when any threat scores 9 or higher
  threat-modeler design.md --fail-threshold 9

  # Re-run whenever the description changes
  threat-modeler design.md --watch`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runModel,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrThresholdExceeded) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

func init() {
	d := models.DefaultConfig()

	rootCmd.Flags().StringVarP(&flagText, "text", "t", "", "System description text (instead of a file or stdin)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", d.OutputFormat, "Output format: "+strings.Join(reporter.Formats(), ", "))
	rootCmd.Flags().StringVar(&flagReport, "report", d.ReportFile, "HTML report path (empty disables)")
	rootCmd.Flags().StringVar(&flagDiagram, "diagram", d.DiagramFile, "Diagram output path (SVG)")
	rootCmd.Flags().StringVar(&flagLayout, "layout", d.Layout, "Diagram layout: circular, hierarchical, force")
	rootCmd.Flags().BoolVar(&flagNoRefine, "no-refine", false, "Skip the Ollama refinement step")
	rootCmd.Flags().StringVar(&flagModel, "model", d.Ollama.Model, "Ollama model used for refinement")
	rootCmd.Flags().StringVar(&flagOllamaHost, "ollama-host", d.Ollama.Host, "Ollama server URL")
	rootCmd.Flags().DurationVar(&flagRefineTimeout, "refine-timeout", d.Ollama.Timeout, "Refinement timeout (0 for none)")
	rootCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Disable refinement caching")
	rootCmd.Flags().Float64Var(&flagThreshold, "fail-threshold", d.FailThreshold, "Exit 1 if any score >= threshold (0 disables)")
	rootCmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", d.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Also write JSON logs to this rotated file")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Config file (default: ./"+config.LocalFile+" or the user config dir)")
	rootCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Re-run whenever the description file changes")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runModel(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	defer logger.Close()

	reg := metrics.NewRegistry()

	// Create scanner
	s, err := scanner.New(cfg, scanner.WithLogger(logger.Logger), scanner.WithMetrics(reg))
	if err != nil {
		return fmt.Errorf("failed to initialize scanner: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &pipeline{
		scanner: s,
		config:  cfg,
		metrics: reg,
		logger:  logger.Logger,
		stdout:  cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
	}

	if flagWatch {
		if len(args) == 0 {
			return errors.New("--watch requires a description file argument")
		}
		return watchFile(ctx, args[0], logger.Logger, func() error {
			description, err := readFile(args[0])
			if err != nil {
				return err
			}
			_, err = p.run(ctx, description)
			return err
		})
	}

	description, err := readDescription(cmd, args)
	if err != nil {
		return err
	}

	result, err := p.run(ctx, description)
	if err != nil {
		return err
	}

	// Exit with error code if a score reaches the threshold
	if cfg.FailThreshold > 0 && result.HighestSeverity() >= cfg.FailThreshold {
		return fmt.Errorf("%w: highest score %.1f >= %.1f", ErrThresholdExceeded, result.HighestSeverity(), cfg.FailThreshold)
	}

	return nil
}
