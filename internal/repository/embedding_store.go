package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"topicfind-backend/internal/models"
)

// EmbeddingStore is the GORM-backed embeddingcache.Store implementation:
// batched reads by external_id IN (...), batched upserts with
// ON CONFLICT (external_id) DO UPDATE so a later re-embed transparently
// replaces the cached vector.
type EmbeddingStore struct {
	db *gorm.DB
}

func NewEmbeddingStore(db *gorm.DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

func (s *EmbeddingStore) GetByIDs(ctx context.Context, ids []string) (map[string]models.Embedding, error) {
	if len(ids) == 0 {
		return map[string]models.Embedding{}, nil
	}

	var rows []ArticleEmbedding
	if err := s.db.WithContext(ctx).Where("external_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repository: embedding read failed: %w", err)
	}

	out := make(map[string]models.Embedding, len(rows))
	for _, row := range rows {
		out[row.ExternalID] = row.Vector.ToEmbedding()
	}
	return out, nil
}

func (s *EmbeddingStore) Upsert(ctx context.Context, entries map[string]models.Embedding) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]ArticleEmbedding, 0, len(entries))
	for id, emb := range entries {
		rows = append(rows, ArticleEmbedding{
			ExternalID: id,
			Vector:     NewVector(emb),
			CachedAt:   now,
		})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vector", "cached_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("repository: embedding upsert failed: %w", err)
	}
	return nil
}
