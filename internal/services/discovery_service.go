// Package services composes the pipeline packages (classifier, fetcher,
// embeddingcache, topicengine, llm) into the operations the HTTP layer
// calls.
package services

import (
	"context"
	"log/slog"
	"time"

	"topicfind-backend/internal/classifier"
	pipelineerrors "topicfind-backend/internal/errors"
	"topicfind-backend/internal/embeddingcache"
	"topicfind-backend/internal/fetcher"
	"topicfind-backend/internal/llm"
	"topicfind-backend/internal/messaging"
	"topicfind-backend/internal/models"
	"topicfind-backend/internal/topicengine"
)

const defaultArticleLimit = 50

// DiscoveryService is the composition root's entry point for every
// pipeline operation the API exposes: classification, query building,
// embeddings, text generation, article fetching, and full topic
// discovery.
type DiscoveryService struct {
	classifier *classifier.Classifier
	fetcher    *fetcher.Fetcher
	cache      *embeddingcache.Cache
	engine     *topicengine.Engine
	llmClient  *llm.Client
	events     *messaging.Client
	logger     *slog.Logger
}

func NewDiscoveryService(
	classifier *classifier.Classifier,
	fetcher *fetcher.Fetcher,
	cache *embeddingcache.Cache,
	engine *topicengine.Engine,
	llmClient *llm.Client,
	events *messaging.Client,
	logger *slog.Logger,
) *DiscoveryService {
	return &DiscoveryService{
		classifier: classifier,
		fetcher:    fetcher,
		cache:      cache,
		engine:     engine,
		llmClient:  llmClient,
		events:     events,
		logger:     logger,
	}
}

// Classify resolves a free-form query into a source selection and the
// classifier's confidence in it.
func (s *DiscoveryService) Classify(ctx context.Context, raw string) (models.SourceSelection, float64, error) {
	query, err := models.NewQuery(raw)
	if err != nil {
		return models.SourceSelection{}, 0, err
	}
	selection, confidence := s.classifier.Classify(ctx, query)
	return selection, confidence, nil
}

// BuildQuery builds the advanced arXiv query expression for a set of
// search terms and an optional category, serving /query/build/arxiv.
func (s *DiscoveryService) BuildQuery(terms, category string) string {
	return classifier.BuildAdvancedQuery(terms, category)
}

// FetchArticles fetches up to limit articles for the given selection,
// applying the fetcher's fallback chain.
func (s *DiscoveryService) FetchArticles(ctx context.Context, selection models.SourceSelection, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = defaultArticleLimit
	}
	return s.fetcher.Fetch(ctx, selection, limit)
}

// ComputeEmbeddings returns the cached-or-computed embedding for each
// (id, text) pair, serving POST /embeddings.
func (s *DiscoveryService) ComputeEmbeddings(ctx context.Context, ids, texts []string) ([]models.Embedding, int) {
	return s.cache.GetOrCompute(ctx, ids, texts)
}

// GetEmbeddings returns only the embeddings already cached for ids,
// serving GET /embeddings.
func (s *DiscoveryService) GetEmbeddings(ctx context.Context, ids []string) ([]models.Embedding, int) {
	return s.cache.GetByIds(ctx, ids)
}

// GenerateText issues a freeform LLM completion, serving /generate/text.
func (s *DiscoveryService) GenerateText(ctx context.Context, model, prompt string, maxTokens int, temperature float32) (string, error) {
	if prompt == "" {
		return "", pipelineerrors.NewInvalidRequestError("prompt must not be empty", "prompt", "")
	}
	return s.llmClient.GenerateText(ctx, model, prompt, maxTokens, temperature)
}

// DiscoverTopics runs the full pipeline: classify the query, fetch
// articles, compute/cache embeddings, cluster into topics. If articles is
// non-empty it is used directly instead of fetching, letting a caller
// pass a pre-selected article set through /topics/discover.
func (s *DiscoveryService) DiscoverTopics(ctx context.Context, raw string, articles []models.Article, params topicengine.Params) (models.DiscoveryResult, error) {
	query, err := models.NewQuery(raw)
	if err != nil {
		return models.DiscoveryResult{}, err
	}

	s.events.Publish(messaging.SubjectDiscoveryRequested, map[string]any{
		"query":     query.String(),
		"timestamp": time.Now().UTC(),
	})

	if len(articles) == 0 {
		selection, _ := s.classifier.Classify(ctx, query)
		fetched, err := s.fetcher.Fetch(ctx, selection, defaultArticleLimit)
		if err != nil {
			return models.DiscoveryResult{}, err
		}
		articles = fetched
	}

	ids := make([]string, len(articles))
	texts := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
		texts[i] = a.DocumentText()
	}
	embeddings, _ := s.cache.GetOrCompute(ctx, ids, texts)

	result := s.engine.Cluster(ctx, query.String(), articles, embeddings, params)

	s.events.Publish(messaging.SubjectDiscoveryCompleted, map[string]any{
		"query":           query.String(),
		"topics_found":    len(result.Topics),
		"articles_total":  result.TotalArticlesProcessed,
		"timestamp":       time.Now().UTC(),
	})

	return result, nil
}
