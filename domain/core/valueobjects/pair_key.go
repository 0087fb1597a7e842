package valueobjects

import (
	"errors"
	"strings"
)

// pairSeparator cannot appear in a UUID and is unlikely in opaque ids.
const pairSeparator = "|"

// PairKey is the canonical key of an unordered pair of elements.
// {a,b} and {b,a} produce the same PairKey, so a combination is stored
// once and found from either argument order.
type PairKey struct {
	low  ElementID
	high ElementID
}

// NewPairKey canonicalizes the pair by sorting the two ids
func NewPairKey(a, b ElementID) (PairKey, error) {
	if a.IsZero() || b.IsZero() {
		return PairKey{}, errors.New("pair key requires two element IDs")
	}
	if b.String() < a.String() {
		a, b = b, a
	}
	return PairKey{low: a, high: b}, nil
}

// Low returns the lexicographically smaller id
func (k PairKey) Low() ElementID { return k.low }

// High returns the lexicographically larger id
func (k PairKey) High() ElementID { return k.high }

// IsSelfPair reports whether both sides are the same element
func (k PairKey) IsSelfPair() bool { return k.low.Equals(k.high) }

// Contains reports whether id is one side of the pair
func (k PairKey) Contains(id ElementID) bool {
	return k.low.Equals(id) || k.high.Equals(id)
}

// String returns the storage form "<low>|<high>"
func (k PairKey) String() string {
	return k.low.String() + pairSeparator + k.high.String()
}

// ParsePairKey reverses String
func ParsePairKey(s string) (PairKey, error) {
	low, high, ok := strings.Cut(s, pairSeparator)
	if !ok {
		return PairKey{}, errors.New("malformed pair key")
	}
	lowID, err := NewElementIDFromString(low)
	if err != nil {
		return PairKey{}, err
	}
	highID, err := NewElementIDFromString(high)
	if err != nil {
		return PairKey{}, err
	}
	return NewPairKey(lowID, highID)
}
