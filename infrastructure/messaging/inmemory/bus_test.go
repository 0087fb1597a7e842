package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"infinicraft-backend/domain/core/valueobjects"
	"infinicraft-backend/domain/events"
)

func reset(user string) events.DomainEvent {
	return events.NewProgressReset(user, 7, time.Unix(0, 0))
}

func TestBus_DispatchesByTypeAndWildcard(t *testing.T) {
	// Arrange
	bus := NewBus(10, zap.NewNop())
	var typed, all int
	bus.Subscribe(events.TypeProgressReset, func(ctx context.Context, e events.DomainEvent) error {
		typed++
		return nil
	})
	bus.Subscribe(Wildcard, func(ctx context.Context, e events.DomainEvent) error {
		all++
		return nil
	})

	// Act
	require.NoError(t, bus.Publish(context.Background(), reset("u1")))
	require.NoError(t, bus.Publish(context.Background(),
		events.NewElementDiscovered("u1", valueobjects.MustElementID("mud"), "Mud", time.Unix(0, 0))))

	// Assert
	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, all)
}

func TestBus_HandlerFailureIsReportedAfterAllHandlersRun(t *testing.T) {
	bus := NewBus(10, zap.NewNop())
	ran := false
	bus.Subscribe(Wildcard, func(ctx context.Context, e events.DomainEvent) error { return errors.New("boom") })
	bus.Subscribe(Wildcard, func(ctx context.Context, e events.DomainEvent) error {
		ran = true
		return nil
	})

	err := bus.Publish(context.Background(), reset("u1"))

	assert.Error(t, err)
	assert.True(t, ran)
}

func TestBus_RecentIsBounded(t *testing.T) {
	bus := NewBus(2, zap.NewNop())
	for _, u := range []string{"a", "b", "c"} {
		require.NoError(t, bus.Publish(context.Background(), reset(u)))
	}

	recent := bus.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].GetAggregateID())
	assert.Equal(t, "c", recent[1].GetAggregateID())
}
