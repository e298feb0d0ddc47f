// Hand-written equivalent of the injector the wire tool would generate
// from wire.go.

//go:generate go run github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"context"

	"topicfind-backend/internal/config"
	wireproviders "topicfind-backend/internal/wire"
)

// InitializeApplication builds the full dependency graph in the order
// Wire would have resolved it from wire.go's provider set.
func InitializeApplication(ctx context.Context) (*wireproviders.Application, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, func() {}, err
	}

	logger, err := wireproviders.ProvideLogger(cfg)
	if err != nil {
		return nil, func() {}, err
	}

	db, err := wireproviders.ProvideDatabase(cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}

	events, err := wireproviders.ProvideMessaging(cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}

	llmClient, err := wireproviders.ProvideLLMClient(ctx, cfg, logger)
	if err != nil {
		db.Close()
		return nil, func() {}, err
	}

	classifierInst := wireproviders.ProvideClassifier(llmClient, logger)
	fetcherInst := wireproviders.ProvideFetcher(cfg, logger)
	embeddingProvider := wireproviders.ProvideEmbeddingProvider(llmClient)
	embeddingStore := wireproviders.ProvideEmbeddingStore(db)
	embeddingCache := wireproviders.ProvideEmbeddingCache(embeddingStore, embeddingProvider, cfg, logger)
	topicEngine := wireproviders.ProvideTopicEngine(llmClient, logger)

	discoveryService := wireproviders.ProvideDiscoveryService(classifierInst, fetcherInst, embeddingCache, topicEngine, llmClient, events, logger)
	healthService := wireproviders.ProvideHealthService(db, events, logger)

	discoveryHandler := wireproviders.ProvideDiscoveryHandler(discoveryService, logger)
	healthHandler := wireproviders.ProvideHealthHandler(healthService, logger)

	router := wireproviders.ProvideRouter(discoveryHandler, healthHandler, logger)

	app := wireproviders.ProvideApplication(cfg, db, events, llmClient, router, discoveryService, logger)
	cleanup := wireproviders.ProvideCleanup(db, events, llmClient)

	return app, cleanup, nil
}
