package parsers

import (
	"log/slog"
	"sort"

	"github.com/ethanolivertroy/threat-modeler/internal/logging"
	"github.com/ethanolivertroy/threat-modeler/internal/metrics"
	"github.com/ethanolivertroy/threat-modeler/internal/nlp"
)

// ComponentExtractor derives the component set of a description
type ComponentExtractor struct {
	parser  nlp.Parser
	rules   []Rule
	logger  *slog.Logger
	metrics *metrics.Registry
}

// NewComponentExtractor creates an extractor running AllRules. parser may be
// nil, in which case only the text rules apply.
func NewComponentExtractor(parser nlp.Parser, logger *slog.Logger, m *metrics.Registry) *ComponentExtractor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ComponentExtractor{
		parser:  parser,
		rules:   AllRules(),
		logger:  logger,
		metrics: m,
	}
}

// Extract parses text and returns its sorted, deduplicated components
func (e *ComponentExtractor) Extract(text string) []string {
	return e.ExtractFrom(text, Parse(e.parser, text, e.logger))
}

// ExtractFrom is Extract over an already parsed document
func (e *ComponentExtractor) ExtractFrom(text string, doc *nlp.Document) []string {
	seen := make(map[string]bool)

	for _, rule := range e.rules {
		found := rule.Apply(text, doc)
		e.metrics.RecordComponents(rule.Name(), len(found))
		e.logger.Debug("component rule applied", "rule", rule.Name(), "count", len(found))

		for _, c := range found {
			if c = Normalize(c); c != "" {
				seen[c] = true
			}
		}
	}

	components := make([]string, 0, len(seen))
	for c := range seen {
		components = append(components, c)
	}
	sort.Strings(components)

	return components
}

// Parse runs parser over text. A nil parser or a parse failure yields a nil
// document, which the extractors treat as "no syntax available".
func Parse(parser nlp.Parser, text string, logger *slog.Logger) *nlp.Document {
	if parser == nil {
		return nil
	}
	doc, err := parser.Parse(text)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to parse description", "error", err)
		}
		return nil
	}
	return doc
}
