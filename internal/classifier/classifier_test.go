package classifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicfind-backend/internal/models"
)

var errParseFailure = errors.New("llm: all attempts failed: invalid character")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustQuery(t *testing.T, raw string) models.Query {
	t.Helper()
	q, err := models.NewQuery(raw)
	require.NoError(t, err)
	return q
}

func TestNormalizeQuery(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"removes filler tokens", "latest research trends in graph neural networks", "graph neural networks"},
		{"collapses whitespace", "  quantum   computing   ", "quantum computing"},
		{"all filler tokens yields empty", "current latest recent research", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeQuery(tc.input))
		})
	}
}

func TestToSelection(t *testing.T) {
	cases := []struct {
		name string
		resp classifyResponse
		want models.SourceSelection
	}{
		{
			name: "arxiv category",
			resp: classifyResponse{Source: "arxiv", Feed: "cs.CV"},
			want: models.NewArXivSelection("cs.CV", ""),
		},
		{
			name: "arxiv advanced query",
			resp: classifyResponse{Source: "arxiv", Feed: `all:"graph neural network"+AND+cat:cs.LG`},
			want: models.NewArXivSelection("", `all:"graph neural network"+AND+cat:cs.LG`),
		},
		{
			name: "computer vision spelled out normalizes to cs.CV",
			resp: classifyResponse{Source: "ArXiv", Feed: "computer vision"},
			want: models.NewArXivSelection("cs.CV", ""),
		},
		{
			name: "reddit strips r prefix",
			resp: classifyResponse{Source: "reddit", Feed: "r/MachineLearning"},
			want: models.NewRedditSelection("MachineLearning"),
		},
		{
			name: "reddit without prefix",
			resp: classifyResponse{Source: "Reddit", Feed: "datascience"},
			want: models.NewRedditSelection("datascience"),
		},
		{
			name: "unrecognized source falls back",
			resp: classifyResponse{Source: "bing", Feed: "whatever"},
			want: fallbackSelection,
		},
		{
			name: "empty reddit feed falls back",
			resp: classifyResponse{Source: "reddit", Feed: "r/"},
			want: fallbackSelection,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, toSelection(tc.resp))
		})
	}
}

func TestClassify_EmptyQueryFallsBackWithoutLLMContact(t *testing.T) {
	// Classify is exercised through a nil *llm.Client deliberately: an
	// empty (or filler-only) query must short-circuit before any LLM
	// call is attempted, so a nil client never gets dereferenced.
	c := New(nil, discardLogger())

	got, confidence := c.Classify(context.Background(), mustQuery(t, "latest research trends"))
	assert.Equal(t, fallbackSelection, got)
	assert.Equal(t, fallbackConfidence, confidence)
}

// fakeClassifyGenerator is a jsonGenerator stand-in letting Classify's
// LLM-response path run without a real Gemini client.
type fakeClassifyGenerator struct {
	resp *classifyResponse
	raw  string
	err  error
}

func (f fakeClassifyGenerator) GenerateClassification(ctx context.Context, prompt string) (*classifyResponse, string, error) {
	return f.resp, f.raw, f.err
}

func TestClassify_HappyPathUsesLLMResponse(t *testing.T) {
	// S1: the LLM resolves an arxiv advanced query.
	gen := fakeClassifyGenerator{resp: &classifyResponse{
		Source: "arxiv",
		Feed:   `all:"graph neural network"+AND+cat:cs.CV`,
	}}
	c := newWithGenerator(gen, discardLogger())

	got, confidence := c.Classify(context.Background(), mustQuery(t, "graph neural networks in computer vision"))
	assert.Equal(t, models.NewArXivSelection("", `all:"graph neural network"+AND+cat:cs.CV`), got)
	assert.Equal(t, llmConfidence, confidence)
}

func TestClassify_MalformedLLMResponseFallsBack(t *testing.T) {
	// S2: the LLM returns unparseable text, so GenerateClassification
	// reports a parse error and Classify must degrade to the fallback.
	gen := fakeClassifyGenerator{err: errParseFailure, raw: "not json"}
	c := newWithGenerator(gen, discardLogger())

	got, confidence := c.Classify(context.Background(), mustQuery(t, "latest research on AI"))
	assert.Equal(t, fallbackSelection, got)
	assert.Equal(t, fallbackConfidence, confidence)
}

func TestBuildAdvancedQuery(t *testing.T) {
	cases := []struct {
		name     string
		terms    string
		category string
		want     string
	}{
		{
			name:     "filters stop words and short tokens",
			terms:    "the study of graph neural networks in the wild",
			category: "cs.LG",
			want:     `all:"study graph neural networks wild"+AND+cat:cs.LG`,
		},
		{
			name:     "caps at five tokens",
			terms:    "alpha bravo charlie delta echo foxtrot golf",
			category: "cs.CV",
			want:     `all:"alpha bravo charlie delta echo"+AND+cat:cs.CV`,
		},
		{
			name:     "no surviving tokens yields bare category",
			terms:    "in on at to for",
			category: "cs.CL",
			want:     "cat:cs.CL",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BuildAdvancedQuery(tc.terms, tc.category))
		})
	}
}
