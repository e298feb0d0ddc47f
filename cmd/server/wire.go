//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"topicfind-backend/internal/config"
	wireproviders "topicfind-backend/internal/wire"
)

// InitializeApplication builds the full dependency graph with Wire.
// Run `go generate ./...` (wire) to regenerate wire_gen.go after
// changing a provider's signature.
func InitializeApplication(ctx context.Context) (*wireproviders.Application, func(), error) {
	wire.Build(
		config.LoadConfig,
		wireproviders.ProvideLogger,
		wireproviders.ProvideDatabase,
		wireproviders.ProvideMessaging,
		wireproviders.ProvideLLMClient,
		wireproviders.ProvideClassifier,
		wireproviders.ProvideFetcher,
		wireproviders.ProvideEmbeddingProvider,
		wireproviders.ProvideEmbeddingStore,
		wireproviders.ProvideEmbeddingCache,
		wireproviders.ProvideTopicEngine,
		wireproviders.ProvideDiscoveryService,
		wireproviders.ProvideHealthService,
		wireproviders.ProvideDiscoveryHandler,
		wireproviders.ProvideHealthHandler,
		wireproviders.ProvideRouter,
		wireproviders.ProvideApplication,
		wireproviders.ProvideCleanup,
	)
	return nil, nil, nil
}
