// Package embeddingcache implements the read-through/write-back vector
// cache described by the EmbeddingCache contract: batched reads keyed
// by external id, at-most-once computation per id per batch, and
// upsert-on-conflict writes that never fail the call.
package embeddingcache

import (
	"context"
	"log/slog"

	"topicfind-backend/internal/models"
)

// Store is the persistence boundary the cache reads from and writes
// to. Implementations must be safe to call with a batched id list and
// must never block indefinitely — the concrete implementation in
// internal/repository backs this with GORM over Postgres/pgvector or
// SQLite.
type Store interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]models.Embedding, error)
	Upsert(ctx context.Context, entries map[string]models.Embedding) error
}

// Provider computes fresh embeddings for a batch of document texts,
// returning vectors aligned positionally with the input texts.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([]models.Embedding, error)
}

// Cache is the concrete EmbeddingCache.
type Cache struct {
	store     Store
	provider  Provider
	dimension int
	logger    *slog.Logger
}

func New(store Store, provider Provider, dimension int, logger *slog.Logger) *Cache {
	return &Cache{store: store, provider: provider, dimension: dimension, logger: logger}
}

// GetByIds returns the cached embedding for each id (absent where
// missing) and the count of ids that were found.
func (c *Cache) GetByIds(ctx context.Context, ids []string) ([]models.Embedding, int) {
	cached := c.readCached(ctx, ids)

	out := make([]models.Embedding, len(ids))
	found := 0
	for i, id := range ids {
		if emb, ok := cached[id]; ok {
			out[i] = emb
			found++
		}
	}
	return out, found
}

// GetOrCompute implements the batch algorithm: read cached, compute
// the missing ids (each id at most once, even if it repeats in ids),
// upsert best-effort, and splice results back into input order.
func (c *Cache) GetOrCompute(ctx context.Context, ids []string, texts []string) ([]models.Embedding, int) {
	if len(ids) != len(texts) {
		panic("embeddingcache: ids and texts must be the same length")
	}

	cached := c.readCached(ctx, ids)
	cachedCount := 0

	missingOrder := make([]string, 0)
	missingTextByID := make(map[string]string)
	seen := make(map[string]bool, len(ids))

	for i, id := range ids {
		if _, ok := cached[id]; ok {
			cachedCount++
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		missingOrder = append(missingOrder, id)
		missingTextByID[id] = texts[i]
	}

	computed := c.computeMissing(ctx, missingOrder, missingTextByID)

	out := make([]models.Embedding, len(ids))
	for i, id := range ids {
		if emb, ok := cached[id]; ok {
			out[i] = emb
			continue
		}
		out[i] = computed[id]
	}

	return out, cachedCount
}

// readCached loads the store's current embeddings for ids, keeping
// only entries whose dimension matches the configured embedding
// dimension. A store-read failure degrades to "everything is a miss"
// and is logged rather than propagated.
func (c *Cache) readCached(ctx context.Context, ids []string) map[string]models.Embedding {
	unique := dedupe(ids)

	rows, err := c.store.GetByIDs(ctx, unique)
	if err != nil {
		c.logger.Warn("embedding cache read failed, treating batch as all-miss",
			slog.String("error", err.Error()), slog.Int("id_count", len(unique)))
		return map[string]models.Embedding{}
	}

	filtered := make(map[string]models.Embedding, len(rows))
	for id, emb := range rows {
		if emb.Present() && (c.dimension <= 0 || emb.Dimension() == c.dimension) {
			filtered[id] = emb
		}
	}
	return filtered
}

// computeMissing calls the provider once for the full set of missing
// ids, upserts the result best-effort, and returns a map from id to
// embedding (absent entries for ids the provider failed to produce).
func (c *Cache) computeMissing(ctx context.Context, missingOrder []string, missingTextByID map[string]string) map[string]models.Embedding {
	result := make(map[string]models.Embedding, len(missingOrder))
	if len(missingOrder) == 0 {
		return result
	}

	texts := make([]string, len(missingOrder))
	for i, id := range missingOrder {
		texts[i] = missingTextByID[id]
	}

	vectors, err := c.provider.Embed(ctx, texts)
	if err != nil {
		c.logger.Warn("embedding provider failed for batch",
			slog.String("error", err.Error()), slog.Int("requested", len(missingOrder)))
		for _, id := range missingOrder {
			result[id] = nil
		}
		return result
	}

	toUpsert := make(map[string]models.Embedding, len(missingOrder))
	for i, id := range missingOrder {
		if i < len(vectors) {
			result[id] = vectors[i]
			if vectors[i].Present() {
				toUpsert[id] = vectors[i]
			}
		} else {
			result[id] = nil
		}
	}

	if len(toUpsert) > 0 {
		if err := c.store.Upsert(ctx, toUpsert); err != nil {
			c.logger.Warn("embedding cache upsert failed, vectors still returned to caller",
				slog.String("error", err.Error()), slog.Int("count", len(toUpsert)))
		}
	}

	return result
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
