package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
)

// Elements and combinations are immutable once written, so positive reads
// can be cached without invalidation. Misses are never cached because a
// later write can fill them.

type cachedElement struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
}

// CachedElementRepository is a read-through cache in front of an ElementRepository
type CachedElementRepository struct {
	inner  ports.ElementRepository
	cache  ports.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedElementRepository wraps inner with cache
func NewCachedElementRepository(inner ports.ElementRepository, cache ports.Cache, ttl time.Duration, logger *zap.Logger) *CachedElementRepository {
	return &CachedElementRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func elementKey(id string) string {
	return "element:" + id
}

// elementNameKey length-prefixes the symbol; a plain separator would let
// ("b:c", "a") and ("c", "a:b") share a key.
func elementNameKey(name, symbol string) string {
	return fmt.Sprintf("element-name:%d:%s:%s", len(symbol), symbol, name)
}

func (r *CachedElementRepository) load(ctx context.Context, key string) *entities.Element {
	data, ok := r.cache.Get(ctx, key)
	if !ok {
		return nil
	}
	var c cachedElement
	if err := json.Unmarshal(data, &c); err != nil {
		r.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = r.cache.Delete(ctx, key)
		return nil
	}
	id, err := valueobjects.NewElementIDFromString(c.ID)
	if err != nil {
		return nil
	}
	return entities.ReconstructElement(id, c.Name, c.Symbol, c.CreatedAt)
}

func (r *CachedElementRepository) store(ctx context.Context, element *entities.Element) {
	data, err := json.Marshal(cachedElement{
		ID:        element.ID().String(),
		Name:      element.Name(),
		Symbol:    element.Symbol(),
		CreatedAt: element.CreatedAt(),
	})
	if err != nil {
		return
	}
	for _, key := range []string{elementKey(element.ID().String()), elementNameKey(element.Name(), element.Symbol())} {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			r.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (r *CachedElementRepository) GetByID(ctx context.Context, id valueobjects.ElementID) (*entities.Element, error) {
	if element := r.load(ctx, elementKey(id.String())); element != nil {
		return element, nil
	}
	element, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, element)
	return element, nil
}

func (r *CachedElementRepository) FindByNameAndSymbol(ctx context.Context, name, symbol string) (*entities.Element, error) {
	if element := r.load(ctx, elementNameKey(name, symbol)); element != nil && element.Matches(name, symbol) {
		return element, nil
	}
	element, err := r.inner.FindByNameAndSymbol(ctx, name, symbol)
	if err != nil || element == nil {
		return element, err
	}
	r.store(ctx, element)
	return element, nil
}

func (r *CachedElementRepository) Save(ctx context.Context, element *entities.Element) error {
	if err := r.inner.Save(ctx, element); err != nil {
		return err
	}
	r.store(ctx, element)
	return nil
}

func (r *CachedElementRepository) List(ctx context.Context) ([]*entities.Element, error) {
	return r.inner.List(ctx)
}

type cachedCombination struct {
	Left      string    `json:"left"`
	Right     string    `json:"right"`
	Result    string    `json:"result"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// CachedCombinationRepository is a read-through cache in front of a CombinationRepository
type CachedCombinationRepository struct {
	inner  ports.CombinationRepository
	cache  ports.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCombinationRepository wraps inner with cache
func NewCachedCombinationRepository(inner ports.CombinationRepository, cache ports.Cache, ttl time.Duration, logger *zap.Logger) *CachedCombinationRepository {
	return &CachedCombinationRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func combinationKey(key valueobjects.PairKey) string {
	return "combo:" + key.String()
}

func (r *CachedCombinationRepository) store(ctx context.Context, c *entities.Combination) {
	data, err := json.Marshal(cachedCombination{
		Left:      c.LeftID().String(),
		Right:     c.RightID().String(),
		Result:    c.ResultID().String(),
		Source:    string(c.Source()),
		CreatedAt: c.CreatedAt(),
	})
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, combinationKey(c.Key()), data, r.ttl); err != nil {
		r.logger.Warn("Cache write failed", zap.String("pair", c.Key().String()), zap.Error(err))
	}
}

func (r *CachedCombinationRepository) Get(ctx context.Context, key valueobjects.PairKey) (*entities.Combination, error) {
	if data, ok := r.cache.Get(ctx, combinationKey(key)); ok {
		var c cachedCombination
		if err := json.Unmarshal(data, &c); err == nil {
			if result, err := valueobjects.NewElementIDFromString(c.Result); err == nil {
				return entities.ReconstructCombination(key, result, entities.CombinationSource(c.Source), c.CreatedAt), nil
			}
		}
		_ = r.cache.Delete(ctx, combinationKey(key))
	}

	combination, err := r.inner.Get(ctx, key)
	if err != nil || combination == nil {
		return combination, err
	}
	r.store(ctx, combination)
	return combination, nil
}

func (r *CachedCombinationRepository) InsertIfAbsent(ctx context.Context, combination *entities.Combination) (*entities.Combination, bool, error) {
	stored, inserted, err := r.inner.InsertIfAbsent(ctx, combination)
	if err != nil {
		return nil, false, err
	}
	r.store(ctx, stored)
	return stored, inserted, nil
}

func (r *CachedCombinationRepository) Count(ctx context.Context) (int, error) {
	return r.inner.Count(ctx)
}
