package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"infinicraft-backend/application/services"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
	"infinicraft-backend/pkg/utils"
)

// CraftingService is what the handler needs from the application layer
type CraftingService interface {
	Combine(ctx context.Context, a, b valueobjects.ElementID, userID string) (*services.CombineResult, error)
	ListBaseElements(ctx context.Context) ([]*entities.Element, error)
	ListDiscovered(ctx context.Context, userID string) ([]*entities.Element, error)
	ListAllElements(ctx context.Context) ([]*entities.Element, error)
	ResetUser(ctx context.Context, userID string) error
	GetProgress(ctx context.Context, userID string) (*services.ProgressSummary, error)
}

// CraftingHandler handles element and user progress requests
type CraftingHandler struct {
	service CraftingService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewCraftingHandler creates a new crafting handler
func NewCraftingHandler(service CraftingService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *CraftingHandler {
	return &CraftingHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger,
	}
}

// Root handles GET /api
func (h *CraftingHandler) Root(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, MessageResponse{Message: "Infinite Craft API"})
}

// BaseElements handles GET /api/elements/base
func (h *CraftingHandler) BaseElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.service.ListBaseElements(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toElementResponses(elements))
}

// AllElements handles GET /api/elements/all
func (h *CraftingHandler) AllElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.service.ListAllElements(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toElementResponses(elements))
}

// DiscoveredElements handles GET /api/elements/discovered
func (h *CraftingHandler) DiscoveredElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.service.ListDiscovered(r.Context(), userIDFrom(r, ""))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toElementResponses(elements))
}

// Combine handles POST /api/elements/combine
func (h *CraftingHandler) Combine(w http.ResponseWriter, r *http.Request) {
	var req CombineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	a, errA := valueobjects.NewElementIDFromString(req.Element1ID)
	b, errB := valueobjects.NewElementIDFromString(req.Element2ID)
	if errA != nil || errB != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("element ids must not be blank"))
		return
	}

	result, err := h.service.Combine(r.Context(), a, b, userIDFrom(r, req.UserID))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toCombineResponse(result))
}

// ResetProgress handles POST /api/user/reset
func (h *CraftingHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetUser(r.Context(), userIDFrom(r, "")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, MessageResponse{Message: "User progress reset to base elements"})
}

// Progress handles GET /api/user/progress
func (h *CraftingHandler) Progress(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetProgress(r.Context(), userIDFrom(r, ""))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

// userIDFrom prefers the query parameter, then the body value; the
// service maps an empty id to the default user
func userIDFrom(r *http.Request, fallback string) string {
	if id := strings.TrimSpace(r.URL.Query().Get("user_id")); id != "" {
		return id
	}
	return fallback
}

func (h *CraftingHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
