// Package topicengine implements TopicEngine: clustering embedded
// articles into labeled, ranked topics.
package topicengine

import (
	"context"
	"fmt"
	"log/slog"

	"topicfind-backend/internal/llm"
	"topicfind-backend/internal/models"
)

const (
	defaultMinClusterSize      = 3
	defaultMaxArticlesPerTopic = 40
)

// Params configures one Cluster call.
type Params struct {
	MinClusterSize      int // default 3, effective minimum 2
	NrTopics            int // 0 = unset (no cap beyond the default 10)
	MaxArticlesPerTopic int // default 40
}

func (p Params) normalized() Params {
	if p.MinClusterSize < 2 {
		if p.MinClusterSize == 0 {
			p.MinClusterSize = defaultMinClusterSize
		} else {
			p.MinClusterSize = 2
		}
	}
	if p.MaxArticlesPerTopic <= 0 {
		p.MaxArticlesPerTopic = defaultMaxArticlesPerTopic
	}
	return p
}

// Engine is the concrete TopicEngine.
type Engine struct {
	labelGenerator jsonGenerator
	logger         *slog.Logger
}

func New(llmClient *llm.Client, logger *slog.Logger) *Engine {
	return &Engine{labelGenerator: clientLabelGenerator{client: llmClient}, logger: logger}
}

// Cluster never returns an error: any uncaught failure degrades to the
// single-topic fallback, matching the documented "a best-effort result
// beats a hard failure" propagation policy.
func (e *Engine) Cluster(ctx context.Context, query string, articles []models.Article, embeddings []models.Embedding, params Params) (result models.DiscoveryResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("topic engine panic recovered, returning fallback topic",
				slog.Any("panic", r))
			result = fallbackResult(query, articles, len(articles))
		}
	}()

	params = params.normalized()

	filteredArticles, docs, vectors := dropAbsentEmbeddings(articles, embeddings)
	n := len(filteredArticles)

	threshold := params.MinClusterSize
	if threshold < 2 {
		threshold = 2
	}
	if n < threshold {
		return fallbackResult(query, filteredArticles, n)
	}

	k := chooseK(n)
	assignments := kmeans(vectors, k)
	groups := groupByAssignment(assignments, params.MinClusterSize)

	builds := buildClusters(docs, vectors, groups)
	builds = capBuildsByCount(builds, params.NrTopics)

	expanded := make([]clusterBuild, 0, len(builds))
	for _, b := range builds {
		expanded = append(expanded, expandHierarchical(docs, vectors, b)...)
	}

	labels := labelClusters(ctx, e.labelGenerator, expanded)

	topics := make([]models.Topic, len(expanded))
	for i, build := range expanded {
		clusterArticles := make([]models.Article, len(build.articleIndices))
		for j, idx := range build.articleIndices {
			clusterArticles[j] = filteredArticles[idx]
		}
		topics[i] = models.NewTopic(labels[i].title, labels[i].description, clusterArticles, build.internalID)
	}

	topics = rankTopics(topics)
	topics = capTopics(topics, params.NrTopics, params.MaxArticlesPerTopic)

	return models.DiscoveryResult{
		Query:                  query,
		Topics:                 topics,
		TotalArticlesProcessed: len(articles),
	}
}

// capBuildsByCount applies the clustering-stage nrTopics cap: lowest-
// count clusters are discarded first, before the (expensive) labeling
// and hierarchical-expansion steps run.
func capBuildsByCount(builds []clusterBuild, nrTopics int) []clusterBuild {
	if nrTopics <= 0 || len(builds) <= nrTopics {
		return builds
	}

	sorted := make([]clusterBuild, len(builds))
	copy(sorted, builds)
	// stable selection by count desc, ties by internal id asc, matching
	// the same determinism rule used for final ranking.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			a, b := sorted[j-1], sorted[j]
			if len(a.articleIndices) < len(b.articleIndices) ||
				(len(a.articleIndices) == len(b.articleIndices) && a.internalID > b.internalID) {
				sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
				continue
			}
			break
		}
	}

	return sorted[:nrTopics]
}

func dropAbsentEmbeddings(articles []models.Article, embeddings []models.Embedding) ([]models.Article, []string, [][]float32) {
	n := len(articles)
	if len(embeddings) < n {
		n = len(embeddings)
	}

	filtered := make([]models.Article, 0, n)
	docs := make([]string, 0, n)
	vectors := make([][]float32, 0, n)

	for i := 0; i < n; i++ {
		if !embeddings[i].Present() {
			continue
		}
		filtered = append(filtered, articles[i])
		docs = append(docs, articles[i].DocumentText())
		vectors = append(vectors, []float32(embeddings[i]))
	}

	return filtered, docs, vectors
}

const fallbackArticleCap = 50

func fallbackResult(query string, articles []models.Article, n int) models.DiscoveryResult {
	capped := articles
	if len(capped) > fallbackArticleCap {
		capped = capped[:fallbackArticleCap]
	}

	topic := models.NewTopic(
		fmt.Sprintf("General Topic: %s", query),
		"Could not perform detailed topic modeling.",
		capped,
		0,
	)
	topic.ArticleCount = n
	topic.Relevance = 50

	return models.DiscoveryResult{
		Query:                  query,
		Topics:                 []models.Topic{topic},
		TotalArticlesProcessed: n,
	}
}
