package repository

import "time"

// ArticleEmbedding is the GORM model backing the article_embeddings
// table: external_id is the cache key, vector holds the embedding
// (pgvector column on Postgres, TEXT on SQLite — see embedding_vector.go),
// and cached_at records the last write, useful for diagnosing stale
// vectors after a model change without implementing TTL eviction.
type ArticleEmbedding struct {
	ExternalID string    `gorm:"primaryKey;column:external_id"`
	Vector     Vector    `gorm:"column:vector"`
	Source     string    `gorm:"column:source"`
	CachedAt   time.Time `gorm:"column:cached_at"`
}

func (ArticleEmbedding) TableName() string {
	return "article_embeddings"
}
