package models

import "github.com/google/uuid"

// Topic is a labeled, ranked cluster of articles — the unit of output of
// a DiscoverTopics call. Topics exist only within the call that produced
// them; they are never persisted.
type Topic struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ArticleCount int       `json:"article_count"`
	Relevance    int       `json:"relevance"`
	Articles     []Article `json:"articles"`

	// internalClusterID is carried through ranking for the deterministic
	// tie-break rule (articleCount desc, then internal cluster id asc)
	// and is not part of the public JSON shape.
	internalClusterID int
}

// NewTopic assigns a fresh UUID v4, matching the rest of the service's ID
// scheme.
func NewTopic(title, description string, articles []Article, internalClusterID int) Topic {
	return Topic{
		ID:                 uuid.New(),
		Title:              title,
		Description:        description,
		ArticleCount:        len(articles),
		Articles:           articles,
		internalClusterID:  internalClusterID,
	}
}

func (t Topic) InternalClusterID() int {
	return t.internalClusterID
}

// TruncateArticles caps the topic's article list to n, without touching
// ArticleCount — the invariant is articleCount = length before truncation.
func (t Topic) TruncateArticles(n int) Topic {
	if n > 0 && len(t.Articles) > n {
		t.Articles = t.Articles[:n]
	}
	return t
}
