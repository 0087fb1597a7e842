package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"infinicraft-backend/interfaces/http/rest/handlers"
	"infinicraft-backend/interfaces/http/rest/middleware"
	pkgerrors "infinicraft-backend/pkg/errors"
	"infinicraft-backend/pkg/observability"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	service     handlers.CraftingService
	store       Pinger
	metrics     *observability.Collector
	errors      *pkgerrors.ErrorHandler
	corsOrigins []string
	logger      *zap.Logger
}

// NewRouter creates a new router instance; metrics may be nil
func NewRouter(
	service handlers.CraftingService,
	store Pinger,
	metrics *observability.Collector,
	errorHandler *pkgerrors.ErrorHandler,
	corsOrigins []string,
	logger *zap.Logger,
) *Router {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	return &Router{
		service:     service,
		store:       store,
		metrics:     metrics,
		errors:      errorHandler,
		corsOrigins: corsOrigins,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	crafting := handlers.NewCraftingHandler(rt.service, rt.errors, rt.logger)
	router.Route("/api", func(r chi.Router) {
		r.Get("/", crafting.Root)

		r.Route("/elements", func(r chi.Router) {
			r.Get("/base", crafting.BaseElements)
			r.Get("/all", crafting.AllElements)
			r.Get("/discovered", crafting.DiscoveredElements)
			r.Post("/combine", crafting.Combine)
		})

		r.Route("/user", func(r chi.Router) {
			r.Post("/reset", crafting.ResetProgress)
			r.Get("/progress", crafting.Progress)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeStatus(w, http.StatusOK, "healthy")
}

// readinessCheck pings the store
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.store != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.store.Ping(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	writeStatus(w, http.StatusOK, "ready")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
