// Package clients talks to the local language model that restates a threat
// model.
package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"golang.org/x/mod/semver"

	"github.com/ethanolivertroy/threat-modeler/internal/cache"
	"github.com/ethanolivertroy/threat-modeler/internal/logging"
	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

// minOllamaVersion is the oldest server the chat request was written against
const minOllamaVersion = "v0.12.0"

// ErrEmptyResponse is returned when the model replies with no content
var ErrEmptyResponse = errors.New("ollama returned an empty response")

// OllamaClient refines threat models through the Ollama chat API
type OllamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewOllamaClient creates a new Ollama client. An empty host falls back to
// OLLAMA_HOST and then the library default, and an empty model to the
// configured default. timeout bounds each Refine call through its context;
// 0 means no timeout. c may be nil.
func NewOllamaClient(host, model string, timeout time.Duration, c *cache.Cache, logger *slog.Logger) (*OllamaClient, error) {
	var client *api.Client
	if host == "" {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	} else {
		base, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ollama host %q: %w", host, err)
		}
		client = api.NewClient(base, http.DefaultClient)
	}

	if model == "" {
		model = models.DefaultConfig().Ollama.Model
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &OllamaClient{
		client:  client,
		model:   model,
		timeout: timeout,
		cache:   c,
		logger:  logger,
	}, nil
}

// Model returns the model name requests are sent to
func (c *OllamaClient) Model() string {
	return c.model
}

// cachedRefinement is the on-disk form of a cached reply
type cachedRefinement struct {
	Content string `json:"content"`
}

// Refine asks the model to restate tm. Every failure is returned; callers
// decide whether it is fatal.
func (c *OllamaClient) Refine(ctx context.Context, tm *models.ThreatModel) (*models.Refinement, error) {
	data, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize threat model: %w", err)
	}

	prompt := BuildPrompt(string(data))
	key := cache.Key(c.model, prompt)

	if cached, ok := c.cache.Get(key); ok {
		var entry cachedRefinement
		if err := json.Unmarshal(cached, &entry); err == nil && entry.Content != "" {
			c.logger.Debug("using cached refinement", "model", c.model)
			return newRefinement(c.model, entry.Content, true), nil
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.checkVersion(ctx); err != nil {
		return nil, err
	}

	content, err := c.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if entry, err := json.Marshal(cachedRefinement{Content: content}); err == nil {
		if err := c.cache.Set(key, entry); err != nil {
			c.logger.Debug("failed to cache refinement", "error", err)
		}
	}

	return newRefinement(c.model, content, false), nil
}

// checkVersion probes the server, warning when it predates the chat API we use
func (c *OllamaClient) checkVersion(ctx context.Context) error {
	version, err := c.client.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach ollama: %w", err)
	}

	v := "v" + strings.TrimPrefix(version, "v")
	switch {
	case !semver.IsValid(v):
		c.logger.Debug("unrecognized ollama version", "version", version)
	case semver.Compare(v, minOllamaVersion) < 0:
		c.logger.Warn("ollama server is older than supported", "version", version, "minimum", minOllamaVersion)
	}
	return nil
}

func (c *OllamaClient) chat(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
	}

	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}

	if strings.TrimSpace(content.String()) == "" {
		return "", ErrEmptyResponse
	}
	return content.String(), nil
}

// BuildPrompt wraps a serialized threat model in the refinement instructions
func BuildPrompt(threatModel string) string {
	return "Refine and organize this STRIDE threat model:\n\n" +
		threatModel + "\n\n" +
		"Return a clean, concise, structured list."
}

func newRefinement(model, content string, cached bool) *models.Refinement {
	return &models.Refinement{
		Model:      model,
		Content:    content,
		Structured: decodeStructured(content),
		Cached:     cached,
	}
}

// decodeStructured returns the reply as a JSON object or array when it is one,
// optionally fenced in a markdown code block
func decodeStructured(content string) any {
	var v any
	if err := json.Unmarshal([]byte(cleanJSON(content)), &v); err != nil {
		return nil
	}
	switch v.(type) {
	case map[string]any, []any:
		return v
	}
	return nil
}

func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
