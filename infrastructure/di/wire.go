//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"infinicraft-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideStore,
	ProvideCache,
	ProvideElementRepository,
	ProvideCombinationRepository,
	ProvideBaseElementRepository,
	ProvideDiscoveryRepository,
	ProvideCollector,
	ProvideMetrics,
	ProvideTracing,
	ProvideTextGenerator,
	ProvideEventPublisher,
	ProvideBaseElementSpecs,
	ProvideCatalog,
	ProvideCombinationIndex,
	ProvideDiscoveryTracker,
	ProvideGenerator,
	ProvideCraftingService,
	ProvideErrorHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
