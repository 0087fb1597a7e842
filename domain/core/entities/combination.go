package entities

import (
	"time"

	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// CombinationSource records how a combination entered the index
type CombinationSource string

const (
	SourceSeed      CombinationSource = "seed"
	SourceGenerated CombinationSource = "generated"
)

// Combination maps an unordered pair of elements to a result element.
// At most one combination exists per pair; it is never mutated or deleted.
type Combination struct {
	key       valueobjects.PairKey
	resultID  valueobjects.ElementID
	source    CombinationSource
	createdAt time.Time
}

// NewCombination creates a combination for {a,b} -> result
func NewCombination(a, b, result valueobjects.ElementID, source CombinationSource) (*Combination, error) {
	key, err := valueobjects.NewPairKey(a, b)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if result.IsZero() {
		return nil, pkgerrors.NewValidationError("combination result cannot be empty")
	}
	if source == "" {
		source = SourceSeed
	}

	return &Combination{
		key:       key,
		resultID:  result,
		source:    source,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructCombination rebuilds a combination from storage
func ReconstructCombination(key valueobjects.PairKey, result valueobjects.ElementID, source CombinationSource, createdAt time.Time) *Combination {
	return &Combination{
		key:       key,
		resultID:  result,
		source:    source,
		createdAt: createdAt,
	}
}

func (c *Combination) Key() valueobjects.PairKey        { return c.key }
func (c *Combination) LeftID() valueobjects.ElementID   { return c.key.Low() }
func (c *Combination) RightID() valueobjects.ElementID  { return c.key.High() }
func (c *Combination) ResultID() valueobjects.ElementID { return c.resultID }
func (c *Combination) Source() CombinationSource        { return c.source }
func (c *Combination) CreatedAt() time.Time             { return c.createdAt }
