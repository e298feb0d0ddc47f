// Package classifier implements QueryClassifier: turning a free-text
// query into a models.SourceSelection via an LLM with deterministic
// fallbacks.
package classifier

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"topicfind-backend/internal/llm"
	"topicfind-backend/internal/models"
)

// fallbackSelection is returned whenever the LLM path cannot produce a
// usable answer. It is never an error to the caller.
var fallbackSelection = models.NewArXivSelection("cs.CV", "")

var fillerTokens = map[string]bool{
	"current": true, "latest": true, "recent": true, "research": true,
	"study": true, "studies": true, "trend": true, "trends": true,
	"paper": true, "papers": true, "growing": true, "growth": true,
}

var advancedQueryStopWords = map[string]bool{
	"the": true, "and": true, "or": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
}

const classifyPrompt = `You are a research-discovery query classifier. Given a user's natural-language interest, decide whether it is best served by arXiv (an academic paper archive) or a Reddit community.

Respond with a single raw JSON object, no markdown fences, with exactly these keys:
  "source": either "arxiv" or "reddit"
  "feed": for arxiv, either an arXiv category code like "cs.CV" or an advanced query like all:"graph neural network"+AND+cat:cs.CV; for reddit, a subreddit name.

User query: %s`

// fallbackConfidence is reported whenever Classify resolves through the
// deterministic fallback rather than an LLM answer.
const fallbackConfidence = 0.5

// llmConfidence is reported for a successfully parsed LLM classification.
// The model isn't asked to self-report a confidence score, so this is a
// fixed value rather than one read off the response.
const llmConfidence = 0.9

// classifyResponse is the shape the LLM is asked to produce.
type classifyResponse struct {
	Source string `json:"source"`
	Feed   string `json:"feed"`
}

// jsonGenerator is the downstream collaborator Classify depends on — an
// interface rather than *llm.Client directly so tests can supply a fake
// without making network calls, mirroring topicengine/labeling.go's seam
// around the same generic GenerateJSON function.
type jsonGenerator interface {
	GenerateClassification(ctx context.Context, prompt string) (*classifyResponse, string, error)
}

// clientClassifyGenerator adapts *llm.Client's generic GenerateJSON
// function (generic methods aren't expressible in Go) to jsonGenerator.
type clientClassifyGenerator struct {
	client *llm.Client
}

func (g clientClassifyGenerator) GenerateClassification(ctx context.Context, prompt string) (*classifyResponse, string, error) {
	return llm.GenerateJSON[classifyResponse](ctx, g.client, "", prompt)
}

// Classifier is the concrete QueryClassifier: an LLM client plus the
// deterministic normalization/fallback rules around it.
type Classifier struct {
	llmClient jsonGenerator
	logger    *slog.Logger
}

func New(llmClient *llm.Client, logger *slog.Logger) *Classifier {
	return &Classifier{llmClient: clientClassifyGenerator{client: llmClient}, logger: logger}
}

// newWithGenerator builds a Classifier around an arbitrary jsonGenerator,
// letting tests exercise Classify's LLM-response path with a fake.
func newWithGenerator(llmClient jsonGenerator, logger *slog.Logger) *Classifier {
	return &Classifier{llmClient: llmClient, logger: logger}
}

// Classify never returns an error: every failure path resolves to the
// deterministic fallback, logged rather than surfaced. The returned
// float is Classify's confidence in the selection, per spec.md §6.
func (c *Classifier) Classify(ctx context.Context, query models.Query) (models.SourceSelection, float64) {
	raw := query.String()
	normalized := normalizeQuery(raw)
	if normalized == "" {
		c.logger.Debug("classify: empty query after normalization, using fallback")
		return fallbackSelection, fallbackConfidence
	}

	prompt := sprintfPrompt(normalized)

	resp, raw, err := c.llmClient.GenerateClassification(ctx, prompt)
	if err != nil {
		c.logger.Warn("classify: llm call failed, using fallback",
			slog.String("error", err.Error()), slog.String("raw_response", raw))
		return fallbackSelection, fallbackConfidence
	}

	return toSelection(*resp), llmConfidence
}

func sprintfPrompt(query string) string {
	return strings.Replace(classifyPrompt, "%s", query, 1)
}

// toSelection converts the LLM's raw (source, feed) pair into a
// SourceSelection, applying the documented feed normalization. An
// unrecognized source or empty feed falls back deterministically.
func toSelection(resp classifyResponse) models.SourceSelection {
	source := strings.ToLower(strings.TrimSpace(resp.Source))
	feed := strings.TrimSpace(resp.Feed)

	switch source {
	case "reddit":
		subreddit := strings.TrimPrefix(feed, "r/")
		subreddit = strings.TrimPrefix(subreddit, "R/")
		if subreddit == "" {
			return fallbackSelection
		}
		return models.NewRedditSelection(subreddit)
	case "arxiv":
		feed = normalizeArxivFeed(feed)
		if feed == "" {
			return fallbackSelection
		}
		if looksAdvanced(feed) {
			return models.NewArXivSelection("", feed)
		}
		return models.NewArXivSelection(feed, "")
	default:
		return fallbackSelection
	}
}

var categoryPattern = regexp.MustCompile(`^[a-z]+\.[A-Z]{2,}$`)

func looksAdvanced(feed string) bool {
	return !categoryPattern.MatchString(feed)
}

// normalizeArxivFeed canonicalizes well-known free-text spellings of
// computer vision to the cs.CV category code.
func normalizeArxivFeed(feed string) string {
	lower := strings.ToLower(strings.TrimSpace(feed))
	if lower == "cv" || lower == "computer vision" {
		return "cs.CV"
	}
	return feed
}

// normalizeQuery applies whitespace collapse and case-insensitive
// removal of generic filler tokens. It does not apply Unicode
// normalization (NFC); the query's code points are kept as given.
func normalizeQuery(query string) string {
	fields := strings.Fields(strings.TrimSpace(query))
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if fillerTokens[strings.ToLower(f)] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// BuildAdvancedQuery implements the advanced-query builder for callers
// who supply explicit (terms, category) rather than free text: extract
// meaningful tokens (lowercased, length >= 3, not in the stop set, at
// most five, in encounter order) and emit
// all:"<joined terms>"+AND+cat:<category>, or cat:<category> if no
// tokens remain.
func BuildAdvancedQuery(terms, category string) string {
	fields := strings.Fields(strings.ToLower(terms))
	kept := make([]string, 0, 5)
	for _, f := range fields {
		if len(kept) >= 5 {
			break
		}
		if len(f) < 3 {
			continue
		}
		if advancedQueryStopWords[f] {
			continue
		}
		kept = append(kept, f)
	}

	if len(kept) == 0 {
		return "cat:" + category
	}

	return `all:"` + strings.Join(kept, " ") + `"+AND+cat:` + category
}
