package memory

import (
	"context"
	"sync"
	"time"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// InMemoryStore keeps all crafting state in process memory.
// It backs tests and single-process development runs.
type InMemoryStore struct {
	mu           sync.RWMutex
	elements     map[string]*entities.Element
	order        []string
	byKey        map[entities.NameSymbolKey]string
	baseIDs      []valueobjects.ElementID
	combinations map[string]*entities.Combination
	discoveries  map[string]*discoveryRecord
}

type discoveryRecord struct {
	ids       []valueobjects.ElementID
	updatedAt time.Time
}

// NewInMemoryStore creates an empty store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		elements:     make(map[string]*entities.Element),
		byKey:        make(map[entities.NameSymbolKey]string),
		combinations: make(map[string]*entities.Combination),
		discoveries:  make(map[string]*discoveryRecord),
	}
}

var _ ports.Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) Elements() ports.ElementRepository         { return (*elementRepository)(s) }
func (s *InMemoryStore) BaseElements() ports.BaseElementRepository { return (*baseRepository)(s) }
func (s *InMemoryStore) Combinations() ports.CombinationRepository { return (*combinationRepository)(s) }
func (s *InMemoryStore) Discoveries() ports.DiscoveryRepository    { return (*discoveryRepository)(s) }

// Ping always succeeds
func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (s *InMemoryStore) Close() error { return nil }

// RemoveElement deletes an element record. Elements are never deleted in
// normal operation; this exists to simulate dangling references.
func (s *InMemoryStore) RemoveElement(id valueobjects.ElementID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	element, ok := s.elements[id.String()]
	if !ok {
		return
	}
	delete(s.elements, id.String())
	delete(s.byKey, element.Key())
	for i, v := range s.order {
		if v == id.String() {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

type elementRepository InMemoryStore

func (r *elementRepository) GetByID(ctx context.Context, id valueobjects.ElementID) (*entities.Element, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	element, ok := r.elements[id.String()]
	if !ok {
		return nil, pkgerrors.NewElementNotFoundError(id.String())
	}
	return element, nil
}

func (r *elementRepository) FindByNameAndSymbol(ctx context.Context, name, symbol string) (*entities.Element, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[entities.NameSymbolKey{Name: name, Symbol: symbol}]
	if !ok {
		return nil, nil
	}
	return r.elements[id], nil
}

func (r *elementRepository) Save(ctx context.Context, element *entities.Element) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byKey[element.Key()]; taken {
		return pkgerrors.NewDuplicateElementError(element.Name(), element.Symbol())
	}
	if _, taken := r.elements[element.ID().String()]; taken {
		return pkgerrors.NewConflictError("element id already exists")
	}
	r.elements[element.ID().String()] = element
	r.byKey[element.Key()] = element.ID().String()
	r.order = append(r.order, element.ID().String())
	return nil
}

func (r *elementRepository) List(ctx context.Context) ([]*entities.Element, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Element, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.elements[id])
	}
	return out, nil
}

type baseRepository InMemoryStore

func (r *baseRepository) GetBaseIDs(ctx context.Context) ([]valueobjects.ElementID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.baseIDs) == 0 {
		return nil, nil
	}
	out := make([]valueobjects.ElementID, len(r.baseIDs))
	copy(out, r.baseIDs)
	return out, nil
}

func (r *baseRepository) SaveBaseIDs(ctx context.Context, ids []valueobjects.ElementID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.baseIDs) > 0 {
		return false, nil
	}
	r.baseIDs = make([]valueobjects.ElementID, len(ids))
	copy(r.baseIDs, ids)
	return true, nil
}

type combinationRepository InMemoryStore

func (r *combinationRepository) Get(ctx context.Context, key valueobjects.PairKey) (*entities.Combination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.combinations[key.String()], nil
}

func (r *combinationRepository) InsertIfAbsent(ctx context.Context, combination *entities.Combination) (*entities.Combination, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := combination.Key().String()
	if existing, ok := r.combinations[key]; ok {
		return existing, false, nil
	}
	r.combinations[key] = combination
	return combination, true, nil
}

func (r *combinationRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.combinations), nil
}

type discoveryRepository InMemoryStore

func (r *discoveryRepository) Get(ctx context.Context, userID string) (*entities.DiscoverySet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.discoveries[userID]
	if !ok {
		return nil, nil
	}
	return entities.ReconstructDiscoverySet(userID, rec.ids, rec.updatedAt), nil
}

func (r *discoveryRepository) CreateIfAbsent(ctx context.Context, set *entities.DiscoverySet) (*entities.DiscoverySet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.discoveries[set.UserID()]; ok {
		return entities.ReconstructDiscoverySet(set.UserID(), rec.ids, rec.updatedAt), nil
	}
	r.discoveries[set.UserID()] = &discoveryRecord{ids: set.IDs(), updatedAt: set.UpdatedAt()}
	return set, nil
}

func (r *discoveryRepository) Add(ctx context.Context, userID string, id valueobjects.ElementID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.discoveries[userID]
	if !ok {
		return false, pkgerrors.NewNotFoundError("discovery set").WithCode(pkgerrors.CodeDiscoveryNotFound)
	}
	for _, existing := range rec.ids {
		if existing.Equals(id) {
			return false, nil
		}
	}
	rec.ids = append(rec.ids, id)
	rec.updatedAt = time.Now().UTC()
	return true, nil
}

func (r *discoveryRepository) Replace(ctx context.Context, set *entities.DiscoverySet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.discoveries[set.UserID()] = &discoveryRecord{ids: set.IDs(), updatedAt: set.UpdatedAt()}
	return nil
}
