// Package wire holds the provider functions Wire composes into the
// application graph. Kept separate from the wireinject-tagged injector
// declarations so the generated wire_gen.go can import it directly.
package wire

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"topicfind-backend/internal/api"
	"topicfind-backend/internal/api/handlers"
	"topicfind-backend/internal/classifier"
	"topicfind-backend/internal/config"
	"topicfind-backend/internal/embeddingcache"
	"topicfind-backend/internal/fetcher"
	"topicfind-backend/internal/llm"
	"topicfind-backend/internal/messaging"
	"topicfind-backend/internal/repository"
	"topicfind-backend/internal/services"
	"topicfind-backend/internal/topicengine"
)

// Application is the fully wired service instance cmd/server runs.
type Application struct {
	Config           *config.Config
	Database         *repository.Database
	Messaging        *messaging.Client
	LLMClient        *llm.Client
	Router           *gin.Engine
	DiscoveryService *services.DiscoveryService
	Logger           *slog.Logger
}

// ProvideLogger creates the application's structured logger.
func ProvideLogger(cfg *config.Config) (*slog.Logger, error) {
	return config.NewLogger(cfg)
}

// ProvideDatabase opens the GORM connection and migrates the schema.
func ProvideDatabase(cfg *config.Config, logger *slog.Logger) (*repository.Database, error) {
	maxLifetime, err := time.ParseDuration(cfg.Database.MaxLifetime)
	if err != nil {
		maxLifetime = time.Hour
	}
	maxIdleTime, err := time.ParseDuration(cfg.Database.MaxIdleTime)
	if err != nil {
		maxIdleTime = 30 * time.Minute
	}

	dbCfg := repository.DatabaseConfig{
		Type:        cfg.Database.Type,
		DSN:         cfg.DatabaseDSN(),
		MaxConns:    cfg.Database.MaxConns,
		MaxIdle:     cfg.Database.MaxIdle,
		MaxLifetime: maxLifetime,
		MaxIdleTime: maxIdleTime,
		AutoMigrate: cfg.Database.AutoMigrate,
	}
	return repository.NewDatabase(dbCfg, logger)
}

// ProvideMessaging connects to NATS, degrading to a nil client when no
// URL is configured (messaging is an optional side channel).
func ProvideMessaging(cfg *config.Config, logger *slog.Logger) (*messaging.Client, error) {
	client, err := messaging.NewClient(cfg.NATS.URL, logger)
	if err != nil {
		logger.Warn("nats connection failed, continuing without messaging", slog.String("error", err.Error()))
		return nil, nil
	}
	return client, nil
}

// ProvideLLMClient builds the shared Gemini client, preferring
// GoogleAPIKey and falling back to ChairAPIKey per the spec's
// "either key is acceptable" contract.
func ProvideLLMClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*llm.Client, error) {
	apiKey := cfg.LLM.GoogleAPIKey
	if apiKey == "" {
		apiKey = cfg.LLM.ChairAPIKey
	}
	return llm.NewClient(ctx, apiKey, cfg.LLM.BaseURL, logger)
}

// ProvideClassifier wraps the LLM client for source-selection classification.
func ProvideClassifier(llmClient *llm.Client, logger *slog.Logger) *classifier.Classifier {
	return classifier.New(llmClient, logger)
}

// ProvideFetcher builds the arXiv/Reddit article fetcher.
func ProvideFetcher(cfg *config.Config, logger *slog.Logger) *fetcher.Fetcher {
	return fetcher.New(cfg.Fetcher.ArxivBaseURL, cfg.Fetcher.RedditUserAgent, logger)
}

// ProvideEmbeddingProvider wraps the LLM client for embedding computation.
func ProvideEmbeddingProvider(llmClient *llm.Client) *llm.EmbeddingProvider {
	return llm.NewEmbeddingProvider(llmClient)
}

// ProvideEmbeddingStore wraps the database's article_embeddings table.
func ProvideEmbeddingStore(db *repository.Database) *repository.EmbeddingStore {
	return repository.NewEmbeddingStore(db.DB)
}

// ProvideEmbeddingCache composes the read-through/write-back vector cache.
func ProvideEmbeddingCache(store *repository.EmbeddingStore, provider *llm.EmbeddingProvider, cfg *config.Config, logger *slog.Logger) *embeddingcache.Cache {
	return embeddingcache.New(store, provider, cfg.Embedding.Dimension, logger)
}

// ProvideTopicEngine builds the clustering/labeling engine.
func ProvideTopicEngine(llmClient *llm.Client, logger *slog.Logger) *topicengine.Engine {
	return topicengine.New(llmClient, logger)
}

// ProvideDiscoveryService composes every pipeline package into the
// service the HTTP and MCP layers call.
func ProvideDiscoveryService(
	classifier *classifier.Classifier,
	fetcher *fetcher.Fetcher,
	cache *embeddingcache.Cache,
	engine *topicengine.Engine,
	llmClient *llm.Client,
	events *messaging.Client,
	logger *slog.Logger,
) *services.DiscoveryService {
	return services.NewDiscoveryService(classifier, fetcher, cache, engine, llmClient, events, logger)
}

// ProvideHealthService wires the database/messaging health checks.
func ProvideHealthService(db *repository.Database, events *messaging.Client, logger *slog.Logger) *services.HealthService {
	return services.NewHealthService(db, events, logger)
}

// ProvideDiscoveryHandler adapts DiscoveryService to HTTP.
func ProvideDiscoveryHandler(service *services.DiscoveryService, logger *slog.Logger) *handlers.DiscoveryHandler {
	return handlers.NewDiscoveryHandler(service, logger)
}

// ProvideHealthHandler adapts HealthService to HTTP.
func ProvideHealthHandler(service *services.HealthService, logger *slog.Logger) *handlers.HealthHandler {
	return handlers.NewHealthHandler(service, logger)
}

// ProvideRouter assembles the final gin.Engine.
func ProvideRouter(discoveryHandler *handlers.DiscoveryHandler, healthHandler *handlers.HealthHandler, logger *slog.Logger) *gin.Engine {
	return api.NewRouter(discoveryHandler, healthHandler, logger)
}

// ProvideApplication assembles the top-level Application value.
func ProvideApplication(
	cfg *config.Config,
	db *repository.Database,
	events *messaging.Client,
	llmClient *llm.Client,
	router *gin.Engine,
	discoveryService *services.DiscoveryService,
	logger *slog.Logger,
) *Application {
	return &Application{
		Config:           cfg,
		Database:         db,
		Messaging:        events,
		LLMClient:        llmClient,
		Router:           router,
		DiscoveryService: discoveryService,
		Logger:           logger,
	}
}

// ProvideCleanup returns the shutdown function main defers.
func ProvideCleanup(db *repository.Database, events *messaging.Client, llmClient *llm.Client) func() {
	return func() {
		if events != nil {
			events.Close()
		}
		if db != nil {
			db.Close()
		}
		if llmClient != nil {
			llmClient.Close()
		}
	}
}
