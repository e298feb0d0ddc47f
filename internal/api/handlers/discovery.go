package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"topicfind-backend/internal/api/middleware"
	pipelineerrors "topicfind-backend/internal/errors"
	"topicfind-backend/internal/fetcher"
	"topicfind-backend/internal/llm"
	"topicfind-backend/internal/models"
	"topicfind-backend/internal/services"
	"topicfind-backend/internal/topicengine"
)

// DiscoveryHandler exposes the topic discovery pipeline over HTTP:
// classification, query building, embeddings, text generation, article
// fetching, and full topic discovery.
type DiscoveryHandler struct {
	service *services.DiscoveryService
	logger  *slog.Logger
}

func NewDiscoveryHandler(service *services.DiscoveryService, logger *slog.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{service: service, logger: logger}
}

// ErrorResponse is the JSON error envelope returned for every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (h *DiscoveryHandler) fail(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)
	if pe, ok := err.(*pipelineerrors.PipelineError); ok {
		h.logger.Warn("request failed", slog.String("request_id", requestID), slog.String("code", pe.Code), slog.String("error", pe.Error()))
		c.JSON(pe.HTTPStatus(), ErrorResponse{Error: pe.Code, Message: pe.Message, RequestID: requestID})
		return
	}
	h.logger.Error("request failed", slog.String("request_id", requestID), slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL_ERROR", Message: err.Error(), RequestID: requestID})
}

// ClassifyRequest is the payload for POST /classify.
type ClassifyRequest struct {
	Query string `json:"query" binding:"required"`
}

// ClassifyResponse describes the resolved source selection.
type ClassifyResponse struct {
	Source            string  `json:"source"`
	SourceType        string  `json:"source_type"`
	SuggestedCategory string  `json:"suggested_category"`
	Confidence        float64 `json:"confidence"`
}

// Classify godoc
// @Summary Classify a free-form query into a source selection
// @Router /classify [post]
func (h *DiscoveryHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, pipelineerrors.NewInvalidRequestError(err.Error(), "query", nil))
		return
	}

	selection, confidence, err := h.service.Classify(c.Request.Context(), req.Query)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := ClassifyResponse{Source: string(selection.Kind), Confidence: confidence}
	if selection.IsArXiv() {
		resp.SourceType = "research"
		if selection.AdvancedQuery != "" {
			resp.SuggestedCategory = selection.AdvancedQuery
		} else {
			resp.SuggestedCategory = selection.Category
		}
	} else {
		resp.SourceType = "community"
		resp.SuggestedCategory = selection.Subreddit
	}
	c.JSON(http.StatusOK, resp)
}

// BuildQueryFilters carries the optional per-source filters of a
// BuildQueryRequest.
type BuildQueryFilters struct {
	Category  string `json:"category"`
	Subreddit string `json:"subreddit"`
}

// BuildQueryRequest is the payload for POST /query/build/{source}.
type BuildQueryRequest struct {
	SearchTerms string            `json:"search_terms" binding:"required"`
	Filters     BuildQueryFilters `json:"filters"`
}

// BuildQueryResponse carries the built search expression.
type BuildQueryResponse struct {
	Query       string `json:"query"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// BuildQuery godoc
// @Summary Build the search expression for a source
// @Router /query/build/{source} [post]
func (h *DiscoveryHandler) BuildQuery(c *gin.Context) {
	source := c.Param("source")

	var req BuildQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, pipelineerrors.NewInvalidRequestError(err.Error(), "search_terms", nil))
		return
	}

	switch source {
	case "arxiv":
		query := h.service.BuildQuery(req.SearchTerms, req.Filters.Category)
		description := fmt.Sprintf("arXiv advanced query for %q in category %s", req.SearchTerms, req.Filters.Category)
		c.JSON(http.StatusOK, BuildQueryResponse{Query: query, Description: description, Source: source})
	case "reddit":
		subreddit := req.Filters.Subreddit
		if subreddit == "" {
			subreddit = req.SearchTerms
		}
		description := fmt.Sprintf("Reddit subreddit feed for r/%s", subreddit)
		c.JSON(http.StatusOK, BuildQueryResponse{Query: subreddit, Description: description, Source: source})
	default:
		h.fail(c, pipelineerrors.NewInvalidRequestError("unknown source", "source", source))
	}
}

// EmbeddingsRequest is the payload for POST /embeddings.
type EmbeddingsRequest struct {
	IDs   []string `json:"ids" binding:"required"`
	Texts []string `json:"texts" binding:"required"`
}

// EmbeddingsResponse carries the resulting vectors, aligned positionally
// with the request's ids, plus how many of them were already cached.
type EmbeddingsResponse struct {
	Embeddings  [][]float32 `json:"embeddings"`
	CachedCount int         `json:"cached_count"`
}

// PostEmbeddings godoc
// @Summary Compute or retrieve cached embeddings for (id, text) pairs
// @Router /embeddings [post]
func (h *DiscoveryHandler) PostEmbeddings(c *gin.Context) {
	var req EmbeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, pipelineerrors.NewInvalidRequestError(err.Error(), "ids", nil))
		return
	}
	if len(req.IDs) != len(req.Texts) {
		h.fail(c, pipelineerrors.NewInvalidRequestError("ids and texts must be the same length", "ids", len(req.IDs)))
		return
	}

	embeddings, cachedCount := h.service.ComputeEmbeddings(c.Request.Context(), req.IDs, req.Texts)
	c.JSON(http.StatusOK, EmbeddingsResponse{Embeddings: toFloatSlices(embeddings), CachedCount: cachedCount})
}

// GetEmbeddingsResponse carries only the embeddings already cached.
type GetEmbeddingsResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	FoundCount int         `json:"found_count"`
}

// GetEmbeddings godoc
// @Summary Retrieve only the embeddings already cached for a set of ids
// @Router /embeddings [get]
func (h *DiscoveryHandler) GetEmbeddings(c *gin.Context) {
	ids := c.QueryArray("ids")
	if len(ids) == 0 {
		h.fail(c, pipelineerrors.NewInvalidRequestError("ids query parameter is required", "ids", nil))
		return
	}

	embeddings, found := h.service.GetEmbeddings(c.Request.Context(), ids)
	c.JSON(http.StatusOK, GetEmbeddingsResponse{Embeddings: toFloatSlices(embeddings), FoundCount: found})
}

func toFloatSlices(embeddings []models.Embedding) [][]float32 {
	out := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		out[i] = []float32(e)
	}
	return out
}

// GenerateTextRequest is the payload for POST /generate/text.
type GenerateTextRequest struct {
	Prompt      string  `json:"prompt" binding:"required"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

// GenerateTextResponse carries the LLM's freeform completion together
// with the model that produced it and the prompt it was given.
type GenerateTextResponse struct {
	Text   string `json:"text"`
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// GenerateText godoc
// @Summary Generate freeform text from a prompt
// @Router /generate/text [post]
func (h *DiscoveryHandler) GenerateText(c *gin.Context) {
	var req GenerateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, pipelineerrors.NewInvalidRequestError(err.Error(), "prompt", nil))
		return
	}

	text, err := h.service.GenerateText(c.Request.Context(), req.Model, req.Prompt, req.MaxTokens, req.Temperature)
	if err != nil {
		h.fail(c, err)
		return
	}
	model := req.Model
	if model == "" {
		model = llm.DefaultModel
	}
	c.JSON(http.StatusOK, GenerateTextResponse{Text: text, Model: model, Prompt: req.Prompt})
}

// ArticlesRequest is the payload for POST /articles.
type ArticlesRequest struct {
	Source    string `json:"source" binding:"required"`
	Category  string `json:"category"`
	Subreddit string `json:"subreddit"`
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
}

// ArticlesResponse carries the fetched article set.
type ArticlesResponse struct {
	Articles   []models.Article `json:"articles"`
	TotalFound int              `json:"total_found"`
	Source     string           `json:"source"`
}

// FetchArticles godoc
// @Summary Fetch articles from a source
// @Router /articles [post]
func (h *DiscoveryHandler) FetchArticles(c *gin.Context) {
	var req ArticlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, pipelineerrors.NewInvalidRequestError(err.Error(), "source", nil))
		return
	}

	var selection models.SourceSelection
	switch req.Source {
	case "arxiv":
		selection = models.NewArXivSelection(req.Category, req.Query)
	case "reddit":
		selection = models.NewRedditSelection(req.Subreddit)
	default:
		h.fail(c, pipelineerrors.NewInvalidRequestError("unknown source", "source", req.Source))
		return
	}

	articles, err := h.service.FetchArticles(c.Request.Context(), selection, req.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ArticlesResponse{Articles: articles, TotalFound: len(articles), Source: req.Source})
}

// CategoriesResponse carries the arXiv category catalog grouped by
// discipline.
type CategoriesResponse struct {
	Groups map[string][]string `json:"groups"`
}

// SourceCategories godoc
// @Summary List the category/subreddit catalog for a source
// @Router /sources/{source}/categories [get]
func (h *DiscoveryHandler) SourceCategories(c *gin.Context) {
	source := c.Param("source")
	if source != "arxiv" {
		h.fail(c, pipelineerrors.NewNotFoundError("category catalog only applies to arxiv", "source", source))
		return
	}
	c.JSON(http.StatusOK, CategoriesResponse{Groups: fetcher.CategoriesByGroup()})
}

// DiscoverRequest is the payload for POST /topics/discover.
type DiscoverRequest struct {
	Query               string           `json:"query" binding:"required"`
	Articles            []models.Article `json:"articles,omitempty"`
	MinClusterSize      int              `json:"min_cluster_size"`
	NrTopics            int              `json:"nr_topics"`
	MaxArticlesPerTopic int              `json:"max_articles_per_topic"`
}

// DiscoverTopics godoc
// @Summary Discover topics for a free-form query
// @Router /topics/discover [post]
func (h *DiscoveryHandler) DiscoverTopics(c *gin.Context) {
	var req DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, pipelineerrors.NewInvalidRequestError(err.Error(), "query", nil))
		return
	}
	if len(req.Articles) == 0 {
		h.fail(c, pipelineerrors.NewInvalidRequestError("articles must not be empty", "articles", nil))
		return
	}

	params := topicengine.Params{
		MinClusterSize:      req.MinClusterSize,
		NrTopics:            req.NrTopics,
		MaxArticlesPerTopic: req.MaxArticlesPerTopic,
	}

	result, err := h.service.DiscoverTopics(c.Request.Context(), req.Query, req.Articles, params)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
