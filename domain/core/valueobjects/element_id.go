package valueobjects

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ElementID is a value object representing a stable element identifier.
// Identifiers allocated by this service are UUIDs, but ids are opaque:
// anything non-empty read back from storage is accepted.
type ElementID struct {
	value string
}

// NewElementID creates a new random ElementID
func NewElementID() ElementID {
	return ElementID{value: uuid.New().String()}
}

// NewElementIDFromString creates an ElementID from an existing string
func NewElementIDFromString(id string) (ElementID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ElementID{}, errors.New("element ID cannot be empty")
	}
	return ElementID{value: id}, nil
}

// MustElementID is NewElementIDFromString for ids already known to be valid
func MustElementID(id string) ElementID {
	eid, err := NewElementIDFromString(id)
	if err != nil {
		panic(err)
	}
	return eid
}

// String returns the string representation of the ElementID
func (id ElementID) String() string {
	return id.value
}

// Equals checks if two ElementIDs are equal
func (id ElementID) Equals(other ElementID) bool {
	return id.value == other.value
}

// IsZero checks if the ElementID is the zero value
func (id ElementID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id ElementID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ElementID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("ElementID must be a string")
	}
	id.value = s
	return nil
}

// ElementIDStrings converts ids to their string form
func ElementIDStrings(ids []ElementID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// ElementIDsFromStrings converts strings to ids, skipping empty values
func ElementIDsFromStrings(values []string) []ElementID {
	out := make([]ElementID, 0, len(values))
	for _, v := range values {
		if id, err := NewElementIDFromString(v); err == nil {
			out = append(out, id)
		}
	}
	return out
}
