package embeddingcache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicfind-backend/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	mu       sync.Mutex
	data     map[string]models.Embedding
	readErr  error
	upsertErr error
	upsertCalls []map[string]models.Embedding
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]models.Embedding{}}
}

func (f *fakeStore) GetByIDs(ctx context.Context, ids []string) (map[string]models.Embedding, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.Embedding)
	for _, id := range ids {
		if emb, ok := f.data[id]; ok {
			out[id] = emb
		}
	}
	return out, nil
}

func (f *fakeStore) Upsert(ctx context.Context, entries map[string]models.Embedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls = append(f.upsertCalls, entries)
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for id, emb := range entries {
		f.data[id] = emb
	}
	return nil
}

type fakeProvider struct {
	mu       sync.Mutex
	calls    [][]string
	embedErr error
	embed    func(texts []string) []models.Embedding
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([]models.Embedding, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.mu.Unlock()

	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if f.embed != nil {
		return f.embed(texts), nil
	}
	out := make([]models.Embedding, len(texts))
	for i := range texts {
		out[i] = models.Embedding{1, 2, 3}
	}
	return out, nil
}

func TestGetOrCompute_AtMostOncePerID(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{}
	c := New(store, provider, 3, discardLogger())

	ids := []string{"a", "b", "a"}
	texts := []string{"text-a", "text-b", "text-a"}

	vectors, cachedCount := c.GetOrCompute(context.Background(), ids, texts)

	require.Len(t, vectors, 3)
	assert.Equal(t, 0, cachedCount)
	assert.Equal(t, vectors[0], vectors[2])
	// provider called once, with only the two distinct missing ids
	require.Len(t, provider.calls, 1)
	assert.ElementsMatch(t, []string{"text-a", "text-b"}, provider.calls[0])
}

func TestGetOrCompute_SplicesCachedAndComputed(t *testing.T) {
	store := newFakeStore()
	store.data["cached-id"] = models.Embedding{9, 9, 9}
	provider := &fakeProvider{}
	c := New(store, provider, 3, discardLogger())

	ids := []string{"cached-id", "fresh-id"}
	texts := []string{"ignored", "fresh text"}

	vectors, cachedCount := c.GetOrCompute(context.Background(), ids, texts)

	require.Len(t, vectors, 2)
	assert.Equal(t, 1, cachedCount)
	assert.Equal(t, models.Embedding{9, 9, 9}, vectors[0])
	assert.Equal(t, models.Embedding{1, 2, 3}, vectors[1])
	require.Len(t, provider.calls, 1)
	assert.Equal(t, []string{"fresh text"}, provider.calls[0])
}

func TestGetOrCompute_StoreReadFailureDegradesToAllMiss(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("connection refused")
	provider := &fakeProvider{}
	c := New(store, provider, 3, discardLogger())

	vectors, cachedCount := c.GetOrCompute(context.Background(), []string{"x"}, []string{"text-x"})

	assert.Equal(t, 0, cachedCount)
	assert.True(t, vectors[0].Present())
	require.Len(t, provider.calls, 1)
}

func TestGetOrCompute_ProviderFailureYieldsAbsentEntries(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{embedErr: errors.New("upstream unavailable")}
	c := New(store, provider, 3, discardLogger())

	vectors, cachedCount := c.GetOrCompute(context.Background(), []string{"x", "y"}, []string{"tx", "ty"})

	assert.Equal(t, 0, cachedCount)
	assert.False(t, vectors[0].Present())
	assert.False(t, vectors[1].Present())
}

func TestGetOrCompute_UpsertFailureStillReturnsVectors(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = errors.New("disk full")
	provider := &fakeProvider{}
	c := New(store, provider, 3, discardLogger())

	vectors, _ := c.GetOrCompute(context.Background(), []string{"x"}, []string{"tx"})

	assert.True(t, vectors[0].Present())
	require.Len(t, store.upsertCalls, 1)
}

func TestGetByIds(t *testing.T) {
	store := newFakeStore()
	store.data["a"] = models.Embedding{1, 1}
	provider := &fakeProvider{}
	c := New(store, provider, 0, discardLogger())

	vectors, found := c.GetByIds(context.Background(), []string{"a", "b"})

	assert.Equal(t, 1, found)
	assert.True(t, vectors[0].Present())
	assert.False(t, vectors[1].Present())
	assert.Empty(t, provider.calls)
}
