package di

import (
	"go.uber.org/zap"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/application/services"
	"infinicraft-backend/infrastructure/config"
	pkgerrors "infinicraft-backend/pkg/errors"
	"infinicraft-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	Store           ports.Store
	Cache           ports.Cache
	Collector       *observability.Collector
	Tracing         *observability.TracerProvider
	Publisher       ports.EventPublisher
	CraftingService *services.CraftingService
	ErrorHandler    *pkgerrors.ErrorHandler
}
