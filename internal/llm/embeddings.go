package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"topicfind-backend/internal/models"
)

// DefaultEmbeddingModel is Gemini's text embedding model, producing
// 768-dimensional vectors by default (matching EMBEDDING_DIMENSION's
// default).
const DefaultEmbeddingModel = "text-embedding-004"

// EmbeddingProvider adapts Client to embeddingcache.Provider: one batch
// EmbedContent call per GetOrCompute miss, returning vectors aligned
// positionally with the input texts.
type EmbeddingProvider struct {
	client *Client
	model  string
}

func NewEmbeddingProvider(client *Client) *EmbeddingProvider {
	return &EmbeddingProvider{client: client, model: DefaultEmbeddingModel}
}

func (p *EmbeddingProvider) Embed(ctx context.Context, texts []string) ([]models.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, "user")
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := p.client.genai.Models.EmbedContent(reqCtx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("llm: embed content failed: %w", err)
	}

	out := make([]models.Embedding, len(texts))
	for i, emb := range resp.Embeddings {
		if i >= len(out) {
			break
		}
		out[i] = models.Embedding(emb.Values)
	}
	return out, nil
}
