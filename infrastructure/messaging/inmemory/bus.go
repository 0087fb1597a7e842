// Package inmemory dispatches domain events to in-process handlers.
package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"infinicraft-backend/domain/events"
)

// HandlerFunc handles one event
type HandlerFunc func(ctx context.Context, event events.DomainEvent) error

// Wildcard subscribes a handler to every event type
const Wildcard = "*"

// Bus is a synchronous in-process event bus that keeps the most recent events
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	recent   []events.DomainEvent
	capacity int
	logger   *zap.Logger
}

// NewBus creates a bus remembering up to capacity events
func NewBus(capacity int, logger *zap.Logger) *Bus {
	if capacity <= 0 {
		capacity = 100
	}
	return &Bus{
		handlers: make(map[string][]HandlerFunc),
		capacity: capacity,
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type or Wildcard
func (b *Bus) Subscribe(eventType string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish dispatches a single event
func (b *Bus) Publish(ctx context.Context, event events.DomainEvent) error {
	return b.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch dispatches events in order; handler failures are counted, not fatal
func (b *Bus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	if len(batch) == 0 {
		return nil
	}

	startTime := time.Now()
	failureCount := 0

	for _, event := range batch {
		b.remember(event)

		b.mu.RLock()
		handlers := append(append([]HandlerFunc(nil), b.handlers[event.GetEventType()]...), b.handlers[Wildcard]...)
		b.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(ctx, event); err != nil {
				failureCount++
				b.logger.Warn("Failed to dispatch event locally",
					zap.String("eventType", event.GetEventType()),
					zap.String("aggregateID", event.GetAggregateID()),
					zap.Error(err))
			}
		}
	}

	b.logger.Debug("Events dispatched locally",
		zap.Int("total", len(batch)),
		zap.Int("failed", failureCount),
		zap.Duration("duration", time.Since(startTime)))

	if failureCount > 0 {
		return fmt.Errorf("%d event handlers failed", failureCount)
	}
	return nil
}

func (b *Bus) remember(event events.DomainEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recent = append(b.recent, event)
	if over := len(b.recent) - b.capacity; over > 0 {
		b.recent = append(b.recent[:0:0], b.recent[over:]...)
	}
}

// Recent returns the remembered events, oldest first
func (b *Bus) Recent() []events.DomainEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.DomainEvent(nil), b.recent...)
}

// LogHandler writes every event to logger
func LogHandler(logger *zap.Logger) HandlerFunc {
	return func(ctx context.Context, event events.DomainEvent) error {
		logger.Info("Domain event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Time("timestamp", event.GetTimestamp()))
		return nil
	}
}
