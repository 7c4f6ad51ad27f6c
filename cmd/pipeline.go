package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ethanolivertroy/threat-modeler/internal/diagram"
	"github.com/ethanolivertroy/threat-modeler/internal/metrics"
	"github.com/ethanolivertroy/threat-modeler/internal/models"
	"github.com/ethanolivertroy/threat-modeler/internal/reporter"
	"github.com/ethanolivertroy/threat-modeler/internal/scanner"
)

// pipeline runs one description through the scanner and writes every artifact
type pipeline struct {
	scanner *scanner.Scanner
	config  *models.Config
	metrics *metrics.Registry
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

func (p *pipeline) run(ctx context.Context, description string) (*models.Result, error) {
	// Run scan
	result, err := p.scanner.Scan(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	// Render diagram
	start := time.Now()
	path, err := diagram.Render(result.Components, result.Flows, p.config.DiagramFile, diagram.Options{Layout: p.config.Layout})
	if err != nil {
		return nil, fmt.Errorf("failed to write diagram: %w", err)
	}
	result.DiagramPath = path
	p.metrics.RecordStage(metrics.StageDiagram, time.Since(start))
	p.logger.Debug("diagram written", "path", path, "layout", p.config.Layout)

	// Write HTML report
	if p.config.ReportFile != "" {
		start = time.Now()
		html, err := (&reporter.HTMLReporter{}).Report(result)
		if err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
		written, err := reporter.WriteReport(p.config.ReportFile, html)
		if err != nil {
			return nil, err
		}
		p.metrics.RecordStage(metrics.StageReport, time.Since(start))
		fmt.Fprintf(p.stderr, "Report written to %s\n", written)
	}

	// Generate output
	rep := reporter.Get(p.config.OutputFormat)
	if _, ok := rep.(*reporter.TerminalReporter); ok {
		// Colour only when writing to a terminal
		out := p.stdout
		if p.config.OutputFile != "" {
			out = io.Discard
		}
		rep = reporter.NewTerminalReporter(out)
	}
	output, err := rep.Report(result)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	// Write output
	if p.config.OutputFile != "" {
		if _, err := reporter.WriteReport(p.config.OutputFile, output); err != nil {
			return nil, err
		}
		fmt.Fprintf(p.stderr, "Output written to %s\n", p.config.OutputFile)
	} else {
		if _, err := p.stdout.Write(output); err != nil {
			return nil, fmt.Errorf("failed to write output: %w", err)
		}
	}

	if p.config.MetricsFile != "" {
		if err := p.metrics.WriteTextfile(p.config.MetricsFile); err != nil {
			// Metrics are best effort
			p.logger.Warn("failed to write metrics", "path", p.config.MetricsFile, "error", err)
		}
	}

	return result, nil
}
