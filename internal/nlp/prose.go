package nlp

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// ProseParser tokenizes and tags text with prose and labels the result with
// the rule-based dependency labeller. The tagger model is built on first use
// and shared by every later Parse call.
type ProseParser struct {
	once  sync.Once
	model *prose.Model
	err   error
}

// NewProseParser creates a new prose-backed parser
func NewProseParser() *ProseParser {
	return &ProseParser{}
}

// Parse segments text into sentences and analyzes each one
func (p *ProseParser) Parse(text string) (*Document, error) {
	doc := &Document{Text: text}
	if strings.TrimSpace(text) == "" {
		return doc, nil
	}

	segmented, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to segment text: %w", err)
	}

	for _, s := range segmented.Sentences() {
		sentence, err := p.parseSentence(s.Text)
		if err != nil {
			return nil, err
		}
		if len(sentence.Tokens) > 0 {
			doc.Sentences = append(doc.Sentences, sentence)
		}
	}

	return doc, nil
}

// taggingModel returns the shared tagger model
func (p *ProseParser) taggingModel() (*prose.Model, error) {
	p.once.Do(func() {
		doc, err := prose.NewDocument("",
			prose.WithSegmentation(false),
			prose.WithExtraction(false),
		)
		if err != nil {
			p.err = fmt.Errorf("failed to load tagger model: %w", err)
			return
		}
		p.model = doc.Model
	})
	return p.model, p.err
}

func (p *ProseParser) parseSentence(text string) (Sentence, error) {
	model, err := p.taggingModel()
	if err != nil {
		return Sentence{}, err
	}

	tagged, err := prose.NewDocument(text,
		prose.UsingModel(model),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return Sentence{}, fmt.Errorf("failed to tag sentence: %w", err)
	}

	raw := tagged.Tokens()
	tokens := make([]Token, 0, len(raw))
	for _, t := range raw {
		tokens = append(tokens, Token{Text: t.Text, Tag: t.Tag})
	}

	return Analyze(text, tokens), nil
}
