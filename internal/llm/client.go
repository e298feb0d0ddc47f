// Package llm wraps the generative-AI client shared by the query
// classifier and the topic engine's cluster labeling step.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is used when a call site doesn't need a specific model.
const DefaultModel = "gemini-2.5-flash"

const (
	maxRetries     = 3
	baseDelay      = 500 * time.Millisecond
	requestTimeout = 30 * time.Second

	// llmRequestTimeout bounds each text-generation request; embedding
	// requests use requestTimeout.
	llmRequestTimeout = 60 * time.Second
)

// Client is a thin, retry-wrapped wrapper over *genai.Client, constructed
// once at composition-root time and shared across requests (connection
// pooling, no per-call client construction).
type Client struct {
	genai  *genai.Client
	model  string
	logger *slog.Logger
}

// NewClient builds a Client against the Gemini API backend. apiKey must be
// non-empty; the composition root treats a missing key as fatal at
// startup, per the configuration contract.
func NewClient(ctx context.Context, apiKey, baseURL string, logger *slog.Logger) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create genai client: %w", err)
	}

	return &Client{genai: client, model: DefaultModel, logger: logger}, nil
}

// sanitizeJSONResponse strips markdown code fences and any leading
// preamble an LLM adds around a JSON object, so downstream Unmarshal
// sees raw JSON.
func sanitizeJSONResponse(text string) string {
	text = strings.TrimSpace(text)

	if strings.Contains(text, "```json") {
		start := strings.Index(text, "```json")
		text = text[start+len("```json"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	} else if strings.Contains(text, "```") {
		start := strings.Index(text, "```")
		text = text[start+3:]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}

	if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		if start := strings.Index(text, "{"); start != -1 {
			text = text[start:]
		}
	}

	return text
}

// GenerateText issues a single freeform text completion request (backing
// the /generate/text endpoint), with JSON mode disabled.
func (c *Client) GenerateText(ctx context.Context, model, prompt string, maxTokens int, temperature float32) (string, error) {
	if model == "" {
		model = c.model
	}

	config := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}
	if temperature > 0 {
		t := temperature
		config.Temperature = &t
	}

	reqCtx, cancel := context.WithTimeout(ctx, llmRequestTimeout)
	defer cancel()

	result, err := c.genai.Models.GenerateContent(reqCtx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("llm: generate content failed: %w", err)
	}
	return result.Text(), nil
}

// GenerateJSON issues a JSON-mode request and unmarshals the (markdown-
// fence-stripped) response into T, making up to maxRetries attempts in
// all, with exponential backoff between them, on transport and parse
// failures. On total failure it
// returns the last raw response text alongside the error so the caller
// can build a degraded fallback.
func GenerateJSON[T any](ctx context.Context, c *Client, model, prompt string) (*T, string, error) {
	if model == "" {
		model = c.model
	}

	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	var lastErr error
	var lastRaw string

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, lastRaw, ctx.Err()
			case <-time.After(delay):
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, llmRequestTimeout)
		result, err := c.genai.Models.GenerateContent(reqCtx, model, genai.Text(prompt), config)
		if err != nil {
			cancel()
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}

		text := result.Text()
		cancel()
		if text == "" {
			lastErr = fmt.Errorf("attempt %d: empty response", attempt+1)
			continue
		}
		lastRaw = text

		clean := sanitizeJSONResponse(text)
		var out T
		if err := json.Unmarshal([]byte(clean), &out); err != nil {
			c.logger.Warn("llm response failed to parse as JSON",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
				slog.String("raw_response", text))
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}

		return &out, text, nil
	}

	return nil, lastRaw, fmt.Errorf("llm: all %d attempts failed: %w", maxRetries, lastErr)
}

// Close releases client resources. genai.Client currently requires no
// explicit teardown; kept for composition-root symmetry with other
// owned resources.
func (c *Client) Close() error {
	return nil
}
