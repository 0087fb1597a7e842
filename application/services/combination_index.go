package services

import (
	"context"

	"go.uber.org/zap"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
)

// CombinationIndex resolves unordered element pairs to a result element
type CombinationIndex struct {
	repo    ports.CombinationRepository
	catalog *Catalog
	metrics ports.Metrics
	logger  *zap.Logger
}

// NewCombinationIndex creates a new combination index
func NewCombinationIndex(repo ports.CombinationRepository, catalog *Catalog, metrics ports.Metrics, logger *zap.Logger) *CombinationIndex {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &CombinationIndex{
		repo:    repo,
		catalog: catalog,
		metrics: metrics,
		logger:  logger,
	}
}

// Lookup returns the combination for {a, b} in either order, or nil when there is none
func (x *CombinationIndex) Lookup(ctx context.Context, a, b valueobjects.ElementID) (*entities.Combination, error) {
	key, err := valueobjects.NewPairKey(a, b)
	if err != nil {
		// an empty id never has an entry
		return nil, nil
	}
	return x.repo.Get(ctx, key)
}

// Insert records {a, b} -> result unless the pair already has an entry.
// The stored entry is returned; on a lost race that is the existing one.
func (x *CombinationIndex) Insert(
	ctx context.Context,
	a, b, result valueobjects.ElementID,
	source entities.CombinationSource,
) (*entities.Combination, bool, error) {
	combination, err := entities.NewCombination(a, b, result, source)
	if err != nil {
		return nil, false, err
	}

	stored, inserted, err := x.repo.InsertIfAbsent(ctx, combination)
	if err != nil {
		return nil, false, err
	}
	if !inserted && !stored.ResultID().Equals(result) {
		x.logger.Info("Combination insert lost race",
			zap.String("pair", combination.Key().String()),
			zap.String("winner", stored.ResultID().String()),
			zap.String("loser", result.String()),
		)
	}
	return stored, inserted, nil
}

// Count returns the number of combinations
func (x *CombinationIndex) Count(ctx context.Context) (int, error) {
	return x.repo.Count(ctx)
}
