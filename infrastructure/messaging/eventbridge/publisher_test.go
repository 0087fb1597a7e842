package eventbridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"infinicraft-backend/domain/core/valueobjects"
	"infinicraft-backend/domain/events"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*eventbridge.PutEventsOutput)
	return out, args.Error(1)
}

func newTestPublisher(api API) *Publisher {
	p := NewPublisher(api, "bus", "infinicraft.test", zap.NewNop())
	p.backoff = time.Millisecond
	return p
}

func discovered(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewElementDiscovered("user-1", valueobjects.MustElementID("steam"), "Steam", time.Unix(0, 0))
	}
	return out
}

func TestPublisher_PublishBatchSplitsIntoTens(t *testing.T) {
	// Arrange
	api := new(MockAPI)
	api.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 10
	})).Return(&eventbridge.PutEventsOutput{}, nil).Twice()
	api.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 3
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	// Act
	err := newTestPublisher(api).PublishBatch(context.Background(), discovered(23))

	// Assert
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestPublisher_EntryShape(t *testing.T) {
	api := new(MockAPI)
	var captured *eventbridge.PutEventsInput
	api.On("PutEvents", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*eventbridge.PutEventsInput) }).
		Return(&eventbridge.PutEventsOutput{}, nil)

	err := newTestPublisher(api).Publish(context.Background(), discovered(1)[0])
	require.NoError(t, err)

	require.Len(t, captured.Entries, 1)
	entry := captured.Entries[0]
	assert.Equal(t, "bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, "infinicraft.test", aws.ToString(entry.Source))
	assert.Equal(t, events.TypeElementDiscovered, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "user-1", detail["user_id"])
	assert.Equal(t, "steam", detail["element_id"])
}

func TestPublisher_RetriesPartialFailures(t *testing.T) {
	api := new(MockAPI)
	api.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}, nil).Once()
	api.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	err := newTestPublisher(api).Publish(context.Background(), discovered(1)[0])

	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "PutEvents", 2)
}

func TestPublisher_DoesNotRetryClientErrors(t *testing.T) {
	api := new(MockAPI)
	api.On("PutEvents", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "ValidationException", Fault: smithy.FaultClient}).Once()

	err := newTestPublisher(api).Publish(context.Background(), discovered(1)[0])

	require.Error(t, err)
	api.AssertNumberOfCalls(t, "PutEvents", 1)
}

func TestPublisher_GivesUpAfterMaxRetries(t *testing.T) {
	api := new(MockAPI)
	api.On("PutEvents", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "ThrottlingException", Fault: smithy.FaultClient})

	err := newTestPublisher(api).Publish(context.Background(), discovered(1)[0])

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	api.AssertNumberOfCalls(t, "PutEvents", 3)
}

func TestPublisher_EmptyBatchIsNoop(t *testing.T) {
	api := new(MockAPI)
	require.NoError(t, newTestPublisher(api).PublishBatch(context.Background(), nil))
	api.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
}
