package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicfind-backend/internal/classifier"
	"topicfind-backend/internal/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestHandler builds a DiscoveryHandler whose service has a real
// classifier (driven through the nil-client fallback path, same as
// classifier_test.go) and nil everywhere else, enough to exercise the
// handler paths that never reach fetcher/cache/engine/llm/events.
func newTestHandler(t *testing.T) *DiscoveryHandler {
	t.Helper()
	logger := discardLogger()
	svc := services.NewDiscoveryService(
		classifier.New(nil, logger),
		nil, nil, nil, nil, nil,
		logger,
	)
	return NewDiscoveryHandler(svc, logger)
}

func doRequest(h *DiscoveryHandler, method, path string, body string, register func(*gin.Engine, *DiscoveryHandler)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router, h)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClassify_FallbackShapeMatchesSpec(t *testing.T) {
	h := newTestHandler(t)
	// "latest research trends" normalizes to the empty string (all
	// filler tokens), so Classify resolves through the deterministic
	// fallback without touching the nil llm client.
	w := doRequest(h, http.MethodPost, "/classify", `{"query":"latest research trends"}`, func(r *gin.Engine, h *DiscoveryHandler) {
		r.POST("/classify", h.Classify)
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "arxiv", resp.Source)
	assert.Equal(t, "research", resp.SourceType)
	assert.Equal(t, "cs.CV", resp.SuggestedCategory)
	assert.Equal(t, 0.5, resp.Confidence)
}

func TestClassify_EmptyQueryIsBadRequest(t *testing.T) {
	h := newTestHandler(t)
	w := doRequest(h, http.MethodPost, "/classify", `{"query":""}`, func(r *gin.Engine, h *DiscoveryHandler) {
		r.POST("/classify", h.Classify)
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildQuery_ArxivIncludesDescription(t *testing.T) {
	h := newTestHandler(t)
	w := doRequest(h, http.MethodPost, "/query/build/arxiv", `{"search_terms":"graph neural networks","filters":{"category":"cs.LG"}}`, func(r *gin.Engine, h *DiscoveryHandler) {
		r.POST("/query/build/:source", h.BuildQuery)
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp BuildQueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "arxiv", resp.Source)
	assert.Contains(t, resp.Query, "cat:cs.LG")
	assert.NotEmpty(t, resp.Description)
}

func TestBuildQuery_UnknownSourceIsBadRequest(t *testing.T) {
	h := newTestHandler(t)
	w := doRequest(h, http.MethodPost, "/query/build/bing", `{"search_terms":"x"}`, func(r *gin.Engine, h *DiscoveryHandler) {
		r.POST("/query/build/:source", h.BuildQuery)
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSourceCategories_UnknownSourceIsNotFound(t *testing.T) {
	h := newTestHandler(t)
	w := doRequest(h, http.MethodGet, "/sources/reddit/categories", "", func(r *gin.Engine, h *DiscoveryHandler) {
		r.GET("/sources/:source/categories", h.SourceCategories)
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
}

func TestSourceCategories_ArxivReturnsGroups(t *testing.T) {
	h := newTestHandler(t)
	w := doRequest(h, http.MethodGet, "/sources/arxiv/categories", "", func(r *gin.Engine, h *DiscoveryHandler) {
		r.GET("/sources/:source/categories", h.SourceCategories)
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp CategoriesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Groups)
}
