package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// ProgressSummary is a user's discovery progress
type ProgressSummary struct {
	UserID             string   `json:"user_id"`
	DiscoveryCount     int      `json:"discovery_count"`
	DiscoveredElements []string `json:"discovered_elements"`
}

// DiscoveryTracker maintains per-user discovery sets
type DiscoveryTracker struct {
	repo    ports.DiscoveryRepository
	catalog *Catalog
	logger  *zap.Logger
}

// NewDiscoveryTracker creates a new discovery tracker
func NewDiscoveryTracker(repo ports.DiscoveryRepository, catalog *Catalog, logger *zap.Logger) *DiscoveryTracker {
	return &DiscoveryTracker{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// GetOrInit returns the user's set, creating it from the base ids when absent
func (t *DiscoveryTracker) GetOrInit(ctx context.Context, userID string) (*entities.DiscoverySet, error) {
	userID = strings.TrimSpace(userID)
	set, err := t.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if set != nil {
		return set, nil
	}

	baseIDs, err := t.catalog.BaseIDs(ctx)
	if err != nil {
		return nil, err
	}
	fresh, err := entities.NewDiscoverySet(userID, baseIDs)
	if err != nil {
		return nil, err
	}

	stored, err := t.repo.CreateIfAbsent(ctx, fresh)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("Discovery set initialized", zap.String("userID", userID), zap.Int("count", stored.Count()))
	return stored, nil
}

// Contains reports whether the user has discovered id. It never writes: a
// user without a stored set is answered from the base ids.
func (t *DiscoveryTracker) Contains(ctx context.Context, userID string, id valueobjects.ElementID) (bool, error) {
	set, err := t.repo.Get(ctx, strings.TrimSpace(userID))
	if err != nil {
		return false, err
	}
	if set != nil {
		return set.Contains(id), nil
	}

	baseIDs, err := t.catalog.BaseIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, baseID := range baseIDs {
		if baseID.Equals(id) {
			return true, nil
		}
	}
	return false, nil
}

// AddDiscovery atomically adds id to the user's set and reports whether it is new
func (t *DiscoveryTracker) AddDiscovery(ctx context.Context, userID string, id valueobjects.ElementID) (bool, error) {
	userID = strings.TrimSpace(userID)
	isNew, err := t.repo.Add(ctx, userID, id)
	if err == nil {
		return isNew, nil
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeDiscoveryNotFound) {
		return false, err
	}

	if _, err := t.GetOrInit(ctx, userID); err != nil {
		return false, err
	}
	return t.repo.Add(ctx, userID, id)
}

// Reset overwrites the user's set with exactly the base ids and returns the previous count
func (t *DiscoveryTracker) Reset(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	previous := 0
	existing, err := t.repo.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		previous = existing.Count()
	}

	baseIDs, err := t.catalog.BaseIDs(ctx)
	if err != nil {
		return 0, err
	}
	set, err := entities.NewDiscoverySet(userID, baseIDs)
	if err != nil {
		return 0, err
	}
	if err := t.repo.Replace(ctx, set); err != nil {
		return 0, err
	}

	t.logger.Info("Discovery set reset", zap.String("userID", userID), zap.Int("previousCount", previous))
	return previous, nil
}

// Summarize returns the user's progress
func (t *DiscoveryTracker) Summarize(ctx context.Context, userID string) (*ProgressSummary, error) {
	set, err := t.GetOrInit(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProgressSummary{
		UserID:             set.UserID(),
		DiscoveryCount:     set.Count(),
		DiscoveredElements: valueobjects.ElementIDStrings(set.IDs()),
	}, nil
}
