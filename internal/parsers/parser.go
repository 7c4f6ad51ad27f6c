// Package parsers turns a system description into components and the data
// flows between them.
package parsers

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ethanolivertroy/threat-modeler/internal/nlp"
)

// Rule is the interface for component extraction rules
type Rule interface {
	// Name identifies the rule in logs and metrics
	Name() string

	// Apply returns candidate component names; doc is nil when parsing failed
	Apply(text string, doc *nlp.Document) []string
}

// AllRules returns all available rules
func AllRules() []Rule {
	return []Rule{
		&NounChunkRule{},
		&KeywordRule{},
		&EndpointRule{},
	}
}

// NounChunkRule keeps every noun chunk longer than two characters that is
// not purely numeric
type NounChunkRule struct{}

// Name returns "noun_chunk"
func (r *NounChunkRule) Name() string {
	return "noun_chunk"
}

// Apply returns the normalized noun chunks of doc
func (r *NounChunkRule) Apply(text string, doc *nlp.Document) []string {
	if doc == nil {
		return nil
	}

	var found []string
	for _, chunk := range doc.NounChunks() {
		c := Normalize(chunk)
		if utf8.RuneCountInString(c) > 2 && !isDigits(c) {
			found = append(found, c)
		}
	}
	return found
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var keywords = []string{
	"api", "endpoint", "frontend", "backend", "ui",
	"llm", "database", "db", "github", "repo", "client",
	"server", "model", "postman",
}

// Keywords returns a copy of the keyword vocabulary
func Keywords() []string {
	out := make([]string, len(keywords))
	copy(out, keywords)
	return out
}

// KeywordRule adds each vocabulary term that occurs anywhere in the text
type KeywordRule struct{}

// Name returns "keyword"
func (r *KeywordRule) Name() string {
	return "keyword"
}

// Apply matches the vocabulary as case-insensitive substrings
func (r *KeywordRule) Apply(text string, _ *nlp.Document) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// EndpointPrefix is prepended to every path found by EndpointRule
const EndpointPrefix = "api endpoint "

var endpointPattern = regexp.MustCompile(`/[a-zA-Z0-9_\-]+`)

// EndpointRule adds a component for every path-like token such as /login
type EndpointRule struct{}

// Name returns "endpoint"
func (r *EndpointRule) Name() string {
	return "endpoint"
}

// Apply returns "api endpoint <path>" for each path match
func (r *EndpointRule) Apply(text string, _ *nlp.Document) []string {
	var found []string
	for _, path := range endpointPattern.FindAllString(text, -1) {
		found = append(found, EndpointPrefix+path)
	}
	return found
}
