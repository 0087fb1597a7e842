package entities

import (
	"strings"
	"time"
	"unicode"

	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// Element is a craftable thing: a display name plus a symbol glyph.
// Elements are immutable once created; they are never edited, only created.
type Element struct {
	id        valueobjects.ElementID
	name      string
	symbol    string
	createdAt time.Time
}

// NewElement creates a new element with a freshly allocated id
func NewElement(name, symbol string) (*Element, error) {
	name, symbol, err := normalizeElement(name, symbol)
	if err != nil {
		return nil, err
	}

	return &Element{
		id:        valueobjects.NewElementID(),
		name:      name,
		symbol:    symbol,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructElement rebuilds an element from storage
func ReconstructElement(id valueobjects.ElementID, name, symbol string, createdAt time.Time) *Element {
	return &Element{
		id:        id,
		name:      name,
		symbol:    symbol,
		createdAt: createdAt,
	}
}

func normalizeElement(name, symbol string) (string, string, error) {
	name = collapseSpaces(name)
	symbol = strings.TrimSpace(symbol)
	if name == "" {
		return "", "", pkgerrors.NewValidationError("element name cannot be empty")
	}
	if symbol == "" {
		return "", "", pkgerrors.NewValidationError("element symbol cannot be empty")
	}
	return name, symbol, nil
}

// collapseSpaces trims and joins internal whitespace runs with a single space
func collapseSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func (e *Element) ID() valueobjects.ElementID { return e.id }
func (e *Element) Name() string               { return e.name }
func (e *Element) Symbol() string             { return e.symbol }
func (e *Element) CreatedAt() time.Time       { return e.createdAt }

// Label renders the element as "<symbol> <name>", the form used by
// seed tables and generator prompts.
func (e *Element) Label() string {
	return e.symbol + " " + e.name
}

// Matches reports whether the element has the given display attributes
func (e *Element) Matches(name, symbol string) bool {
	return e.name == collapseSpaces(name) && e.symbol == strings.TrimSpace(symbol)
}

// NameSymbolKey is the structural identity of an element, used to
// deduplicate elements that share a name and symbol.
type NameSymbolKey struct {
	Name   string
	Symbol string
}

// NewNameSymbolKey normalizes name and symbol the same way NewElement does
func NewNameSymbolKey(name, symbol string) NameSymbolKey {
	return NameSymbolKey{Name: collapseSpaces(name), Symbol: strings.TrimSpace(symbol)}
}

// Key returns the element's structural identity
func (e *Element) Key() NameSymbolKey {
	return NameSymbolKey{Name: e.name, Symbol: e.symbol}
}

// String returns the key in label form
func (k NameSymbolKey) String() string {
	return k.Symbol + " " + k.Name
}

// ParseLabel splits a "<symbol> <name>" label on its first whitespace.
// The first token is the symbol and the remainder is the name.
func ParseLabel(label string) (NameSymbolKey, error) {
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return NameSymbolKey{}, pkgerrors.NewValidationError("label must be \"<symbol> <name>\": " + label).
			WithCode(pkgerrors.CodeInvalidSeedRow)
	}
	return NameSymbolKey{Symbol: fields[0], Name: strings.Join(fields[1:], " ")}, nil
}
