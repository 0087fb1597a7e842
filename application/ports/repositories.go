package ports

import (
	"context"
	"time"

	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	"infinicraft-backend/domain/events"
)

// ElementRepository defines the interface for element persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type ElementRepository interface {
	// GetByID retrieves an element by its ID, NotFound when absent
	GetByID(ctx context.Context, id valueobjects.ElementID) (*entities.Element, error)

	// FindByNameAndSymbol returns nil, nil when no element matches
	FindByNameAndSymbol(ctx context.Context, name, symbol string) (*entities.Element, error)

	// Save creates an element; a Conflict error means the (name, symbol) pair is taken
	Save(ctx context.Context, element *entities.Element) error

	// List returns every element
	List(ctx context.Context) ([]*entities.Element, error)
}

// BaseElementRepository stores the ordered list of base element ids
type BaseElementRepository interface {
	// GetBaseIDs returns nil, nil when the base set has not been written yet
	GetBaseIDs(ctx context.Context) ([]valueobjects.ElementID, error)

	// SaveBaseIDs writes the base set once; false means another writer got there first
	SaveBaseIDs(ctx context.Context, ids []valueobjects.ElementID) (bool, error)
}

// CombinationRepository stores the pair -> result index
type CombinationRepository interface {
	// Get returns nil, nil when the pair has no entry
	Get(ctx context.Context, key valueobjects.PairKey) (*entities.Combination, error)

	// InsertIfAbsent stores the combination unless the pair already has one.
	// It returns the stored entry (the existing one on loss) and whether this call inserted it.
	InsertIfAbsent(ctx context.Context, combination *entities.Combination) (*entities.Combination, bool, error)

	// Count returns the number of stored combinations
	Count(ctx context.Context) (int, error)
}

// DiscoveryRepository stores per-user discovery sets
type DiscoveryRepository interface {
	// Get returns nil, nil when the user has no record
	Get(ctx context.Context, userID string) (*entities.DiscoverySet, error)

	// CreateIfAbsent stores set unless the user already has a record and returns the stored record
	CreateIfAbsent(ctx context.Context, set *entities.DiscoverySet) (*entities.DiscoverySet, error)

	// Add atomically inserts id into the user's set and reports whether it was absent.
	// The user record must already exist.
	Add(ctx context.Context, userID string, id valueobjects.ElementID) (bool, error)

	// Replace overwrites the user's record
	Replace(ctx context.Context, set *entities.DiscoverySet) error
}

// Store bundles the repositories of one backend
type Store interface {
	Elements() ElementRepository
	BaseElements() BaseElementRepository
	Combinations() CombinationRepository
	Discoveries() DiscoveryRepository

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error

	// Close releases backend resources
	Close() error
}

// TextGenerator produces a single free-text completion
type TextGenerator interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching serialized records
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in cache; a zero ttl means no expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// Metrics receives crafting measurements
type Metrics interface {
	RecordCombine(outcome string, duration time.Duration)
	RecordGeneration(outcome string, duration time.Duration)
	RecordDiscovery(isNew bool)
	RecordSeed(elements, combinations, skipped int)
}
