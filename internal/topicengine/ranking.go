package topicengine

import (
	"math"
	"sort"

	"topicfind-backend/internal/models"
)

const defaultTopicCap = 10

// rankTopics computes each topic's relevance relative to the largest
// topic (the largest topic always scores 100; another topic also scores
// 100 when its count ties or rounds up to the largest) and sorts by
// (relevance desc, articleCount desc, internal cluster id asc) for a
// deterministic final order.
func rankTopics(topics []models.Topic) []models.Topic {
	if len(topics) == 0 {
		return topics
	}

	maxCount := 0
	for _, t := range topics {
		if t.ArticleCount > maxCount {
			maxCount = t.ArticleCount
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for i := range topics {
		rel := int(math.Round(100 * float64(topics[i].ArticleCount) / float64(maxCount)))
		if rel < 1 {
			rel = 1
		}
		if rel > 100 {
			rel = 100
		}
		topics[i].Relevance = rel
	}

	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Relevance != topics[j].Relevance {
			return topics[i].Relevance > topics[j].Relevance
		}
		if topics[i].ArticleCount != topics[j].ArticleCount {
			return topics[i].ArticleCount > topics[j].ArticleCount
		}
		return topics[i].InternalClusterID() < topics[j].InternalClusterID()
	})

	return topics
}

// capTopics keeps the first nrTopics topics (or defaultTopicCap if
// nrTopics is unset) after ranking, and truncates each topic's article
// list to maxArticlesPerTopic.
func capTopics(topics []models.Topic, nrTopics, maxArticlesPerTopic int) []models.Topic {
	limit := defaultTopicCap
	if nrTopics > 0 {
		limit = nrTopics
	}
	if len(topics) > limit {
		topics = topics[:limit]
	}

	for i := range topics {
		topics[i] = topics[i].TruncateArticles(maxArticlesPerTopic)
	}

	return topics
}
