package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"topicfind-backend/internal/api/handlers"
	"topicfind-backend/internal/api/middleware"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	discoveryHandler *handlers.DiscoveryHandler,
	healthHandler *handlers.HealthHandler,
	logger *slog.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CorsMiddleware(middleware.DefaultCorsConfig()))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.StructuredLoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(gin.Recovery())

	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", middleware.MetricsHandler())

	v1 := router.Group("/api/v1")
	v1.POST("/classify", discoveryHandler.Classify)
	v1.POST("/query/build/:source", discoveryHandler.BuildQuery)
	v1.POST("/embeddings", discoveryHandler.PostEmbeddings)
	v1.GET("/embeddings", discoveryHandler.GetEmbeddings)
	v1.POST("/generate/text", discoveryHandler.GenerateText)
	v1.POST("/articles", discoveryHandler.FetchArticles)
	v1.GET("/sources/:source/categories", discoveryHandler.SourceCategories)
	v1.POST("/topics/discover", discoveryHandler.DiscoverTopics)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "topicfind-backend",
			"status":  "running",
			"health":  "/health",
		})
	})

	return router
}
