package events

import (
	"time"

	"infinicraft-backend/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// Event type names, also used as EventBridge detail types
const (
	TypeElementFabricated = "element.fabricated"
	TypeElementDiscovered = "element.discovered"
	TypeProgressReset     = "progress.reset"
)

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// ElementFabricated is raised when the generator produced a new combination
type ElementFabricated struct {
	BaseEvent
	ElementID valueobjects.ElementID `json:"element_id"`
	Name      string                 `json:"name"`
	Symbol    string                 `json:"symbol"`
	LeftID    valueobjects.ElementID `json:"left_id"`
	RightID   valueobjects.ElementID `json:"right_id"`
	NewRecord bool                   `json:"new_record"`
}

// NewElementFabricated creates an ElementFabricated event
func NewElementFabricated(elementID valueobjects.ElementID, name, symbol string, key valueobjects.PairKey, newRecord bool, timestamp time.Time) ElementFabricated {
	return ElementFabricated{
		BaseEvent: BaseEvent{
			AggregateID: elementID.String(),
			EventType:   TypeElementFabricated,
			Timestamp:   timestamp,
			Version:     1,
		},
		ElementID: elementID,
		Name:      name,
		Symbol:    symbol,
		LeftID:    key.Low(),
		RightID:   key.High(),
		NewRecord: newRecord,
	}
}

// ElementDiscovered is raised when a user discovers an element for the first time
type ElementDiscovered struct {
	BaseEvent
	UserID    string                 `json:"user_id"`
	ElementID valueobjects.ElementID `json:"element_id"`
	Name      string                 `json:"name"`
}

// NewElementDiscovered creates an ElementDiscovered event
func NewElementDiscovered(userID string, elementID valueobjects.ElementID, name string, timestamp time.Time) ElementDiscovered {
	return ElementDiscovered{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   TypeElementDiscovered,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:    userID,
		ElementID: elementID,
		Name:      name,
	}
}

// ProgressReset is raised when a user's discoveries are reset to the base set
type ProgressReset struct {
	BaseEvent
	UserID        string `json:"user_id"`
	PreviousCount int    `json:"previous_count"`
}

// NewProgressReset creates a ProgressReset event
func NewProgressReset(userID string, previousCount int, timestamp time.Time) ProgressReset {
	return ProgressReset{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   TypeProgressReset,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:        userID,
		PreviousCount: previousCount,
	}
}
