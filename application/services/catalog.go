package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// BaseElementSpec names one of the starting elements
type BaseElementSpec struct {
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// DefaultBaseElements are the four elements every user starts with
var DefaultBaseElements = []BaseElementSpec{
	{Name: "Water", Symbol: "💧"},
	{Name: "Fire", Symbol: "🔥"},
	{Name: "Wind", Symbol: "💨"},
	{Name: "Earth", Symbol: "🌍"},
}

const lookupConcurrency = 8

// Catalog is the source of truth for elements and the base element set
type Catalog struct {
	elements  ports.ElementRepository
	base      ports.BaseElementRepository
	baseSpecs []BaseElementSpec
	logger    *zap.Logger

	mu      sync.RWMutex
	baseIDs []valueobjects.ElementID
}

// NewCatalog creates a new element catalog
func NewCatalog(
	elements ports.ElementRepository,
	base ports.BaseElementRepository,
	baseSpecs []BaseElementSpec,
	logger *zap.Logger,
) *Catalog {
	if len(baseSpecs) == 0 {
		baseSpecs = DefaultBaseElements
	}
	return &Catalog{
		elements:  elements,
		base:      base,
		baseSpecs: baseSpecs,
		logger:    logger,
	}
}

// GetByID returns the element or a NotFound error
func (c *Catalog) GetByID(ctx context.Context, id valueobjects.ElementID) (*entities.Element, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewElementNotFoundError("")
	}
	return c.elements.GetByID(ctx, id)
}

// FindByNameAndSymbol returns nil when no element has the given name and symbol
func (c *Catalog) FindByNameAndSymbol(ctx context.Context, name, symbol string) (*entities.Element, error) {
	key := entities.NewNameSymbolKey(name, symbol)
	return c.elements.FindByNameAndSymbol(ctx, key.Name, key.Symbol)
}

// Create stores a new element. It fails with a Conflict error when the
// (name, symbol) pair already exists.
func (c *Catalog) Create(ctx context.Context, name, symbol string) (*entities.Element, error) {
	element, err := entities.NewElement(name, symbol)
	if err != nil {
		return nil, err
	}
	if err := c.elements.Save(ctx, element); err != nil {
		return nil, err
	}

	c.logger.Debug("Element created",
		zap.String("elementID", element.ID().String()),
		zap.String("name", element.Name()),
		zap.String("symbol", element.Symbol()),
	)
	return element, nil
}

// GetOrCreate returns the element with the given name and symbol, creating it
// when absent. A lost create race resolves to the winner's record.
func (c *Catalog) GetOrCreate(ctx context.Context, name, symbol string) (*entities.Element, bool, error) {
	existing, err := c.FindByNameAndSymbol(ctx, name, symbol)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	created, err := c.Create(ctx, name, symbol)
	if err == nil {
		return created, true, nil
	}
	if !pkgerrors.IsConflict(err) {
		return nil, false, err
	}

	winner, err := c.FindByNameAndSymbol(ctx, name, symbol)
	if err != nil {
		return nil, false, err
	}
	if winner == nil {
		return nil, false, pkgerrors.NewInternalError("element conflict reported but no element found")
	}
	return winner, false, nil
}

// SeedBaseElements creates the base elements once and records their ids as
// the permanent base set. Later calls return the existing four.
func (c *Catalog) SeedBaseElements(ctx context.Context) ([]*entities.Element, error) {
	ids, err := c.base.GetBaseIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		c.setBaseIDs(ids)
		return c.resolve(ctx, ids, false)
	}

	elements := make([]*entities.Element, 0, len(c.baseSpecs))
	ids = make([]valueobjects.ElementID, 0, len(c.baseSpecs))
	for _, spec := range c.baseSpecs {
		element, _, err := c.GetOrCreate(ctx, spec.Name, spec.Symbol)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "seed base element %s", spec.Name)
		}
		elements = append(elements, element)
		ids = append(ids, element.ID())
	}

	saved, err := c.base.SaveBaseIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if !saved {
		// Another process seeded first; its ids are authoritative
		winner, err := c.base.GetBaseIDs(ctx)
		if err != nil {
			return nil, err
		}
		c.setBaseIDs(winner)
		return c.resolve(ctx, winner, false)
	}

	c.logger.Info("Base elements seeded", zap.Int("count", len(ids)))
	c.setBaseIDs(ids)
	return elements, nil
}

// BaseIDs returns the base element ids, seeding them if needed
func (c *Catalog) BaseIDs(ctx context.Context) ([]valueobjects.ElementID, error) {
	c.mu.RLock()
	cached := c.baseIDs
	c.mu.RUnlock()
	if len(cached) > 0 {
		return copyIDs(cached), nil
	}

	ids, err := c.base.GetBaseIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		c.setBaseIDs(ids)
		return copyIDs(ids), nil
	}

	elements, err := c.SeedBaseElements(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]valueobjects.ElementID, len(elements))
	for i, e := range elements {
		out[i] = e.ID()
	}
	return out, nil
}

// BaseElements returns the base elements in their configured order
func (c *Catalog) BaseElements(ctx context.Context) ([]*entities.Element, error) {
	ids, err := c.BaseIDs(ctx)
	if err != nil {
		return nil, err
	}
	return c.resolve(ctx, ids, false)
}

// Resolve loads the given ids in order, silently dropping ids that no longer resolve
func (c *Catalog) Resolve(ctx context.Context, ids []valueobjects.ElementID) ([]*entities.Element, error) {
	return c.resolve(ctx, ids, true)
}

// All returns every element in the catalog
func (c *Catalog) All(ctx context.Context) ([]*entities.Element, error) {
	return c.elements.List(ctx)
}

func (c *Catalog) resolve(ctx context.Context, ids []valueobjects.ElementID, skipMissing bool) ([]*entities.Element, error) {
	found := make([]*entities.Element, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			element, err := c.elements.GetByID(gctx, id)
			if err != nil {
				if skipMissing && pkgerrors.IsNotFound(err) {
					c.logger.Debug("Skipping dangling element id", zap.String("elementID", id.String()))
					return nil
				}
				return err
			}
			found[i] = element
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*entities.Element, 0, len(found))
	for _, element := range found {
		if element != nil {
			out = append(out, element)
		}
	}
	return out, nil
}

func (c *Catalog) setBaseIDs(ids []valueobjects.ElementID) {
	c.mu.Lock()
	c.baseIDs = copyIDs(ids)
	c.mu.Unlock()
}

func copyIDs(ids []valueobjects.ElementID) []valueobjects.ElementID {
	out := make([]valueobjects.ElementID, len(ids))
	copy(out, ids)
	return out
}
