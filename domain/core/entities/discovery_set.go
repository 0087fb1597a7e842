package entities

import (
	"strings"
	"time"

	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// DiscoverySet is the set of element ids a user has discovered.
// Ids keep first-discovery order so display lists are stable.
type DiscoverySet struct {
	userID    string
	ids       []valueobjects.ElementID
	index     map[string]struct{}
	updatedAt time.Time
}

// NewDiscoverySet creates a set seeded with the base element ids
func NewDiscoverySet(userID string, baseIDs []valueobjects.ElementID) (*DiscoverySet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	return ReconstructDiscoverySet(userID, baseIDs, time.Now().UTC()), nil
}

// ReconstructDiscoverySet rebuilds a set from storage; duplicate ids are dropped
func ReconstructDiscoverySet(userID string, ids []valueobjects.ElementID, updatedAt time.Time) *DiscoverySet {
	s := &DiscoverySet{
		userID:    userID,
		ids:       make([]valueobjects.ElementID, 0, len(ids)),
		index:     make(map[string]struct{}, len(ids)),
		updatedAt: updatedAt,
	}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *DiscoverySet) add(id valueobjects.ElementID) bool {
	if id.IsZero() {
		return false
	}
	if _, ok := s.index[id.String()]; ok {
		return false
	}
	s.index[id.String()] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Add inserts id and reports whether it was absent beforehand
func (s *DiscoverySet) Add(id valueobjects.ElementID) bool {
	added := s.add(id)
	if added {
		s.updatedAt = time.Now().UTC()
	}
	return added
}

// Contains reports whether id has been discovered
func (s *DiscoverySet) Contains(id valueobjects.ElementID) bool {
	_, ok := s.index[id.String()]
	return ok
}

// Reset overwrites the set to exactly baseIDs
func (s *DiscoverySet) Reset(baseIDs []valueobjects.ElementID) {
	s.ids = s.ids[:0]
	s.index = make(map[string]struct{}, len(baseIDs))
	for _, id := range baseIDs {
		s.add(id)
	}
	s.updatedAt = time.Now().UTC()
}

func (s *DiscoverySet) UserID() string       { return s.userID }
func (s *DiscoverySet) Count() int           { return len(s.ids) }
func (s *DiscoverySet) UpdatedAt() time.Time { return s.updatedAt }

// IDs returns a copy of the discovered ids in discovery order
func (s *DiscoverySet) IDs() []valueobjects.ElementID {
	out := make([]valueobjects.ElementID, len(s.ids))
	copy(out, s.ids)
	return out
}

// ContainsAll reports whether every id in ids has been discovered
func (s *DiscoverySet) ContainsAll(ids []valueobjects.ElementID) bool {
	for _, id := range ids {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}
