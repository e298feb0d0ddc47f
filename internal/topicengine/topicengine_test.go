package topicengine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicfind-backend/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLabelGenerator stubs jsonGenerator so cluster labeling never makes
// a network call in tests.
type fakeLabelGenerator struct {
	calls int
	err   error
}

func (f *fakeLabelGenerator) GenerateLabel(ctx context.Context, prompt string) (*labelResponse, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "raw response", f.err
	}
	return &labelResponse{
		Label:       fmt.Sprintf("topic %d", f.calls),
		Description: "a generated description",
	}, "", nil
}

func articlesWithVectors(n int, vector []float32) ([]models.Article, []models.Embedding) {
	articles := make([]models.Article, n)
	embeddings := make([]models.Embedding, n)
	for i := 0; i < n; i++ {
		articles[i] = models.Article{
			ID:      fmt.Sprintf("a%d", i),
			Title:   fmt.Sprintf("title %d", i),
			Summary: "quantum computing research advances",
			Source:  models.ArticleSourceArXiv,
		}
		embeddings[i] = append(models.Embedding(nil), vector...)
	}
	return articles, embeddings
}

func TestEngine_Cluster_SingleClusterHappyPath(t *testing.T) {
	fake := &fakeLabelGenerator{}
	engine := &Engine{labelGenerator: fake, logger: discardLogger()}

	articles, embeddings := articlesWithVectors(3, []float32{1, 1, 1})

	result := engine.Cluster(context.Background(), "quantum computing", articles, embeddings, Params{})

	require.Len(t, result.Topics, 1)
	assert.Equal(t, 3, result.Topics[0].ArticleCount)
	assert.Equal(t, 100, result.Topics[0].Relevance)
	assert.Equal(t, 3, result.TotalArticlesProcessed)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "quantum computing", result.Query)
}

func TestEngine_Cluster_ExactlyOneTopicAtRelevance100(t *testing.T) {
	fake := &fakeLabelGenerator{}
	engine := &Engine{labelGenerator: fake, logger: discardLogger()}

	// Two well-separated clusters of unequal size so relevance differs.
	bigArticles, bigEmbeddings := articlesWithVectors(6, []float32{0, 0, 0})
	smallArticles, smallEmbeddings := articlesWithVectors(3, []float32{100, 100, 100})

	articles := append(bigArticles, smallArticles...)
	embeddings := append(bigEmbeddings, smallEmbeddings...)

	result := engine.Cluster(context.Background(), "two groups", articles, embeddings, Params{MinClusterSize: 2})

	require.NotEmpty(t, result.Topics)
	at100 := 0
	for _, topic := range result.Topics {
		if topic.Relevance == 100 {
			at100++
		}
		assert.GreaterOrEqual(t, topic.Relevance, 1)
		assert.LessOrEqual(t, topic.Relevance, 100)
	}
	assert.Equal(t, 1, at100)
}

func TestEngine_Cluster_SortedOrder(t *testing.T) {
	fake := &fakeLabelGenerator{}
	engine := &Engine{labelGenerator: fake, logger: discardLogger()}

	bigArticles, bigEmbeddings := articlesWithVectors(8, []float32{0, 0, 0})
	smallArticles, smallEmbeddings := articlesWithVectors(2, []float32{50, 50, 50})

	articles := append(bigArticles, smallArticles...)
	embeddings := append(bigEmbeddings, smallEmbeddings...)

	result := engine.Cluster(context.Background(), "ordering", articles, embeddings, Params{MinClusterSize: 2})

	for i := 1; i < len(result.Topics); i++ {
		prev, cur := result.Topics[i-1], result.Topics[i]
		if prev.Relevance != cur.Relevance {
			assert.GreaterOrEqual(t, prev.Relevance, cur.Relevance)
			continue
		}
		if prev.ArticleCount != cur.ArticleCount {
			assert.GreaterOrEqual(t, prev.ArticleCount, cur.ArticleCount)
			continue
		}
		assert.LessOrEqual(t, prev.InternalClusterID(), cur.InternalClusterID())
	}
}

func TestEngine_Cluster_ArticleCountSumNeverExceedsTotal(t *testing.T) {
	fake := &fakeLabelGenerator{}
	engine := &Engine{labelGenerator: fake, logger: discardLogger()}

	articles, embeddings := articlesWithVectors(12, []float32{1, 2, 3})
	// Leave some embeddings absent to exercise dropAbsentEmbeddings too.
	embeddings[10] = nil
	embeddings[11] = nil

	result := engine.Cluster(context.Background(), "partial embeddings", articles, embeddings, Params{MinClusterSize: 2})

	sum := 0
	for _, topic := range result.Topics {
		sum += topic.ArticleCount
	}
	assert.LessOrEqual(t, sum, result.TotalArticlesProcessed)
}

func TestEngine_Cluster_BelowThresholdFallsBack(t *testing.T) {
	fake := &fakeLabelGenerator{}
	engine := &Engine{labelGenerator: fake, logger: discardLogger()}

	articles, embeddings := articlesWithVectors(1, []float32{1, 1, 1})

	result := engine.Cluster(context.Background(), "too few", articles, embeddings, Params{})

	require.Len(t, result.Topics, 1)
	assert.Contains(t, result.Topics[0].Title, "General Topic")
	assert.Equal(t, 0, fake.calls)
}

func TestEngine_Cluster_LabelingFailureDegradesGracefully(t *testing.T) {
	fake := &fakeLabelGenerator{err: fmt.Errorf("llm unavailable")}
	engine := &Engine{labelGenerator: fake, logger: discardLogger()}

	articles, embeddings := articlesWithVectors(4, []float32{5, 5, 5})

	result := engine.Cluster(context.Background(), "degraded", articles, embeddings, Params{})

	require.Len(t, result.Topics, 1)
	assert.NotEmpty(t, result.Topics[0].Title)
}

func TestCapBuildsByCount(t *testing.T) {
	builds := []clusterBuild{
		{internalID: 0, articleIndices: []int{0, 1}},
		{internalID: 1, articleIndices: []int{2, 3, 4, 5}},
		{internalID: 2, articleIndices: []int{6, 7, 8}},
	}

	capped := capBuildsByCount(builds, 2)

	require.Len(t, capped, 2)
	assert.Equal(t, 1, capped[0].internalID)
	assert.Equal(t, 2, capped[1].internalID)
}

func TestDropAbsentEmbeddings(t *testing.T) {
	articles := []models.Article{
		{ID: "a0", Title: "t0"},
		{ID: "a1", Title: "t1"},
		{ID: "a2", Title: "t2"},
	}
	embeddings := []models.Embedding{
		{1, 2},
		nil,
		{3, 4},
	}

	filtered, docs, vectors := dropAbsentEmbeddings(articles, embeddings)

	require.Len(t, filtered, 2)
	assert.Equal(t, "a0", filtered[0].ID)
	assert.Equal(t, "a2", filtered[1].ID)
	require.Len(t, docs, 2)
	require.Len(t, vectors, 2)
}
