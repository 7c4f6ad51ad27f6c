package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ethanolivertroy/threat-modeler/internal/cache"
	"github.com/ethanolivertroy/threat-modeler/internal/clients"
	"github.com/ethanolivertroy/threat-modeler/internal/logging"
	"github.com/ethanolivertroy/threat-modeler/internal/metrics"
	"github.com/ethanolivertroy/threat-modeler/internal/models"
	"github.com/ethanolivertroy/threat-modeler/internal/nlp"
	"github.com/ethanolivertroy/threat-modeler/internal/parsers"
	"github.com/ethanolivertroy/threat-modeler/internal/threats"
)

// CacheName is the directory under the user cache dir holding refinements
const CacheName = "threat-modeler"

// ErrEmptyDescription is returned when the description has no content
var ErrEmptyDescription = errors.New("system description is empty")

// Refiner restates a threat model with a language model
type Refiner interface {
	Refine(ctx context.Context, tm *models.ThreatModel) (*models.Refinement, error)
}

// Scanner orchestrates the threat modeling pipeline
type Scanner struct {
	config     *models.Config
	parser     nlp.Parser
	components *parsers.ComponentExtractor
	flows      *parsers.FlowExtractor
	refiner    Refiner
	metrics    *metrics.Registry
	logger     *slog.Logger
	now        func() time.Time

	refinerSet bool
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithMetrics sets the metrics registry
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithParser replaces the default prose parser
func WithParser(p nlp.Parser) Option {
	return func(s *Scanner) { s.parser = p }
}

// WithRefiner replaces the Ollama client. A nil refiner disables refinement.
func WithRefiner(r Refiner) Option {
	return func(s *Scanner) {
		s.refiner = r
		s.refinerSet = true
	}
}

// WithClock sets the time source for GeneratedAt
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New creates a new Scanner with the given configuration
func New(config *models.Config, opts ...Option) (*Scanner, error) {
	if config == nil {
		config = models.DefaultConfig()
	}

	s := &Scanner{
		config: config,
		parser: nlp.NewProseParser(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}

	if !s.refinerSet && config.Ollama.Enabled {
		var c *cache.Cache
		if !config.NoCache {
			var err error
			c, err = cache.New(CacheName, config.CacheTTL)
			if err != nil {
				// Non-fatal: continue without cache
				s.logger.Debug("cache unavailable", "error", err)
				c = nil
			}
		}

		client, err := clients.NewOllamaClient(config.Ollama.Host, config.Ollama.Model, config.Ollama.Timeout, c, s.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize refinement: %w", err)
		}
		s.logger.Debug("refinement enabled", "model", client.Model(), "cache", c != nil)
		s.refiner = client
	}

	s.components = parsers.NewComponentExtractor(s.parser, s.logger, s.metrics)
	s.flows = parsers.NewFlowExtractor(s.parser, s.logger, s.metrics)

	return s, nil
}

// Scan runs the full pipeline over a description. Refinement failure is
// logged and leaves Result.Refinement nil.
func (s *Scanner) Scan(ctx context.Context, description string) (*models.Result, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}

	result := &models.Result{
		ID:          uuid.NewString(),
		Description: description,
		GeneratedAt: s.now().UTC(),
	}
	log := s.logger.With("run", result.ID)

	// Step 1: Parse once for both extractors
	doc := parsers.Parse(s.parser, description, log)

	// Step 2: Extract components
	start := time.Now()
	result.Components = s.components.ExtractFrom(description, doc)
	s.metrics.RecordStage(metrics.StageComponents, time.Since(start))
	log.Debug("components extracted", "count", len(result.Components), "duration", time.Since(start))

	// Step 3: Extract flows between them
	start = time.Now()
	result.Flows = s.flows.ExtractFrom(description, doc, result.Components)
	s.metrics.RecordStage(metrics.StageFlows, time.Since(start))
	log.Debug("flows extracted", "count", len(result.Flows), "duration", time.Since(start))

	// Step 4: Assign STRIDE categories and scores
	start = time.Now()
	result.ThreatModel = threats.GenerateThreats(result.Components, result.Flows)
	s.metrics.RecordStage(metrics.StageThreats, time.Since(start))
	s.recordThreats(result.ThreatModel)
	log.Debug("threats assigned", "max_score", result.ThreatModel.MaxScore(), "duration", time.Since(start))

	// Step 5: Optional refinement
	result.Refinement = s.refine(ctx, log, result.ThreatModel)

	return result, nil
}

func (s *Scanner) refine(ctx context.Context, log *slog.Logger, tm *models.ThreatModel) *models.Refinement {
	if s.refiner == nil {
		s.metrics.RecordRefinement(metrics.OutcomeDisabled)
		return nil
	}

	start := time.Now()
	ref, err := s.refiner.Refine(ctx, tm)
	s.metrics.RecordStage(metrics.StageRefine, time.Since(start))

	if err != nil {
		s.metrics.RecordRefinement(metrics.OutcomeFailure)
		log.Warn("refinement failed, continuing without it", "error", err)
		return nil
	}
	if ref == nil {
		s.metrics.RecordRefinement(metrics.OutcomeFailure)
		return nil
	}

	if ref.Cached {
		s.metrics.RecordRefinement(metrics.OutcomeCached)
	} else {
		s.metrics.RecordRefinement(metrics.OutcomeSuccess)
	}
	log.Debug("threat model refined", "model", ref.Model, "cached", ref.Cached, "duration", time.Since(start))

	return ref
}

func (s *Scanner) recordThreats(tm *models.ThreatModel) {
	for _, a := range tm.Components {
		for _, c := range a.Stride {
			s.metrics.RecordThreat(string(c), "component")
		}
	}
	for _, f := range tm.Flows {
		for _, c := range f.Stride {
			s.metrics.RecordThreat(string(c), "flow")
		}
	}
}
