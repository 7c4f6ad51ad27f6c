package parsers

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/ethanolivertroy/threat-modeler/internal/logging"
	"github.com/ethanolivertroy/threat-modeler/internal/metrics"
	"github.com/ethanolivertroy/threat-modeler/internal/models"
	"github.com/ethanolivertroy/threat-modeler/internal/nlp"
)

// Flow discovery mechanisms
const (
	MechanismDependency = "dependency"
	MechanismRegex      = "regex"
)

var (
	flowPattern     = regexp.MustCompile(`(\w[\w\s\-]*)\s+(calls|sends|posts|forwards)\s+(\w[\w\s\-]*)`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// FlowExtractor derives directed flows between known components
type FlowExtractor struct {
	parser  nlp.Parser
	logger  *slog.Logger
	metrics *metrics.Registry
}

// NewFlowExtractor creates a flow extractor. parser may be nil, in which
// case only the regex fallback applies.
func NewFlowExtractor(parser nlp.Parser, logger *slog.Logger, m *metrics.Registry) *FlowExtractor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &FlowExtractor{
		parser:  parser,
		logger:  logger,
		metrics: m,
	}
}

// Extract parses text and returns the flows between components
func (e *FlowExtractor) Extract(text string, components []string) []models.Flow {
	return e.ExtractFrom(text, Parse(e.parser, text, e.logger), components)
}

// ExtractFrom returns the flows found in an already parsed document. Every
// endpoint is an element of components. Flows are distinct and ordered by
// first discovery.
func (e *FlowExtractor) ExtractFrom(text string, doc *nlp.Document, components []string) []models.Flow {
	ix := NewIndex(components)
	acc := &flowSet{seen: make(map[models.Flow]bool), flows: make([]models.Flow, 0)}

	if ix.Len() == 0 {
		return acc.flows
	}

	if doc == nil || len(doc.Sentences) == 0 {
		for _, s := range sentencePattern.FindAllString(text, -1) {
			e.regexFlows(s, ix, acc)
		}
		return acc.flows
	}

	for _, s := range doc.Sentences {
		e.dependencyFlows(s, ix, acc)
		e.regexFlows(s.Text, ix, acc)
	}

	return acc.flows
}

type flowSet struct {
	seen  map[models.Flow]bool
	flows []models.Flow
}

func (s *flowSet) add(f models.Flow) bool {
	if s.seen[f] {
		return false
	}
	s.seen[f] = true
	s.flows = append(s.flows, f)
	return true
}

func (e *FlowExtractor) emit(acc *flowSet, src, dst, mechanism string) {
	f := models.Flow{Src: src, Dst: dst}
	if acc.add(f) {
		e.metrics.RecordFlow(mechanism)
		e.logger.Debug("flow found", "flow", f.String(), "mechanism", mechanism)
	}
}

// dependencyFlows pairs the first resolvable subject of each verb with its
// last resolvable object
func (e *FlowExtractor) dependencyFlows(s nlp.Sentence, ix *Index, acc *flowSet) {
	for _, v := range s.Verbs() {
		var src, dst string

		for _, child := range s.Children(v) {
			switch s.Tokens[child].Dep {
			case nlp.DepSubj, nlp.DepSubjPass:
				if src != "" {
					continue
				}
				if name, ok := resolveToken(s, child, ix); ok {
					src = name
				}
			case nlp.DepObj, nlp.DepPObj, nlp.DepAttr:
				if name, ok := resolveToken(s, child, ix); ok {
					dst = name
				}
			}
		}

		if src != "" && dst != "" {
			e.emit(acc, src, dst, MechanismDependency)
		}
	}
}

// resolveToken resolves a token through its noun chunk, then its own text.
// Relative pronouns stand in for their antecedent.
func resolveToken(s nlp.Sentence, i int, ix *Index) (string, bool) {
	if ref := s.Tokens[i].Ref; ref >= 0 {
		i = ref
	}
	if c, ok := s.ChunkAt(i); ok {
		if name, ok := ix.Resolve(c.Text); ok {
			return name, true
		}
	}
	return ix.Resolve(s.Tokens[i].Text)
}

func (e *FlowExtractor) regexFlows(sentence string, ix *Index, acc *flowSet) {
	for _, m := range flowPattern.FindAllStringSubmatch(strings.ToLower(sentence), -1) {
		src, ok := ix.Resolve(m[1])
		if !ok {
			continue
		}
		dst, ok := ix.Resolve(m[3])
		if !ok {
			continue
		}
		e.emit(acc, src, dst, MechanismRegex)
	}
}
