package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// MockAPI is a mock implementation of the DynamoDB API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *MockAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *MockAPI) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *MockAPI) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.TransactWriteItemsOutput)
	return out, args.Error(1)
}

func (m *MockAPI) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func (m *MockAPI) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.DescribeTableOutput)
	return out, args.Error(1)
}

func newTestStore() (*Store, *MockAPI) {
	api := new(MockAPI)
	return NewStore(api, "crafting-test", zap.NewNop()), api
}

func TestElementRepository_SaveDuplicate(t *testing.T) {
	// Arrange
	store, api := newTestStore()
	element, err := entities.NewElement("Steam", "♨️")
	require.NoError(t, err)
	canceled := &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}
	api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == 2 &&
			*in.TransactItems[0].Put.ConditionExpression == "attribute_not_exists(PK)" &&
			*in.TransactItems[1].Put.ConditionExpression == "attribute_not_exists(PK)"
	})).Return(nil, canceled)

	// Act
	err = store.Elements().Save(context.Background(), element)

	// Assert
	assert.True(t, pkgerrors.IsConflict(err))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateElement))
	api.AssertExpectations(t)
}

func TestElementRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store, api := newTestStore()
		id := valueobjects.MustElementID("steam-id")
		av, err := attributevalue.MarshalMap(elementItem{
			PK: elementPK(id), SK: skMetadata, EntityType: entityElement,
			ElementID: id.String(), Name: "Steam", Symbol: "♨️",
		})
		require.NoError(t, err)
		api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			return aws.ToBool(in.ConsistentRead)
		})).Return(&dynamodb.GetItemOutput{Item: av}, nil)

		element, err := store.Elements().GetByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, "Steam", element.Name())
		assert.Equal(t, "♨️", element.Symbol())
		api.AssertExpectations(t)
	})

	t.Run("missing", func(t *testing.T) {
		store, api := newTestStore()
		api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, err := store.Elements().GetByID(context.Background(), valueobjects.MustElementID("ghost"))

		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("throttled", func(t *testing.T) {
		store, api := newTestStore()
		api.On("GetItem", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"})

		_, err := store.Elements().GetByID(context.Background(), valueobjects.MustElementID("x"))

		assert.True(t, pkgerrors.IsStoreUnavailable(err))
	})
}

func TestElementNamePK_Unambiguous(t *testing.T) {
	assert.NotEqual(t, elementNamePK("b:c", "a"), elementNamePK("c", "a:b"))
	assert.NotEqual(t, elementNamePK("b#c", "a"), elementNamePK("c", "a#b"))
	assert.Equal(t, elementNamePK("Steam", "♨️"), elementNamePK("Steam", "♨️"))
}

// pkOf matches a GetItem for the given partition key
func pkOf(pk string) interface{} {
	return mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		attr, ok := in.Key["PK"].(*types.AttributeValueMemberS)
		return ok && attr.Value == pk
	})
}

func TestElementRepository_FindByNameAndSymbol(t *testing.T) {
	id := valueobjects.MustElementID("bc-id")
	elementAV, err := attributevalue.MarshalMap(elementItem{
		PK: elementPK(id), SK: skMetadata, EntityType: entityElement,
		ElementID: id.String(), Name: "b:c", Symbol: "a",
	})
	require.NoError(t, err)

	t.Run("index hit", func(t *testing.T) {
		store, api := newTestStore()
		indexAV, err := attributevalue.MarshalMap(elementNameItem{
			PK: elementNamePK("b:c", "a"), SK: skElementName, EntityType: entityElementName, ElementID: id.String(),
		})
		require.NoError(t, err)
		api.On("GetItem", mock.Anything, pkOf(elementNamePK("b:c", "a"))).Return(&dynamodb.GetItemOutput{Item: indexAV}, nil)
		api.On("GetItem", mock.Anything, pkOf(elementPK(id))).Return(&dynamodb.GetItemOutput{Item: elementAV}, nil)

		element, err := store.Elements().FindByNameAndSymbol(context.Background(), "b:c", "a")

		require.NoError(t, err)
		require.NotNil(t, element)
		assert.True(t, element.ID().Equals(id))
	})

	t.Run("index pointing at another element is a miss", func(t *testing.T) {
		store, api := newTestStore()
		indexAV, err := attributevalue.MarshalMap(elementNameItem{
			PK: elementNamePK("c", "a:b"), SK: skElementName, EntityType: entityElementName, ElementID: id.String(),
		})
		require.NoError(t, err)
		api.On("GetItem", mock.Anything, pkOf(elementNamePK("c", "a:b"))).Return(&dynamodb.GetItemOutput{Item: indexAV}, nil)
		api.On("GetItem", mock.Anything, pkOf(elementPK(id))).Return(&dynamodb.GetItemOutput{Item: elementAV}, nil)

		element, err := store.Elements().FindByNameAndSymbol(context.Background(), "c", "a:b")

		require.NoError(t, err)
		assert.Nil(t, element)
	})
}

func TestCombinationRepository_InsertIfAbsent(t *testing.T) {
	water := valueobjects.MustElementID("water")
	fire := valueobjects.MustElementID("fire")

	t.Run("inserted", func(t *testing.T) {
		store, api := newTestStore()
		combo, err := entities.NewCombination(water, fire, valueobjects.MustElementID("steam"), entities.SourceSeed)
		require.NoError(t, err)
		api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			pk := in.Item["PK"].(*types.AttributeValueMemberS).Value
			return pk == "COMBO#fire|water" && *in.ConditionExpression == "attribute_not_exists(PK)"
		})).Return(&dynamodb.PutItemOutput{}, nil)

		stored, inserted, err := store.Combinations().InsertIfAbsent(context.Background(), combo)

		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Same(t, combo, stored)
	})

	t.Run("lost race returns existing", func(t *testing.T) {
		store, api := newTestStore()
		combo, err := entities.NewCombination(water, fire, valueobjects.MustElementID("mist"), entities.SourceGenerated)
		require.NoError(t, err)
		old, err := attributevalue.MarshalMap(combinationItem{
			PK: "COMBO#fire|water", SK: skCombination, EntityType: entityCombination,
			LeftID: "fire", RightID: "water", ResultID: "steam", Source: "seed",
		})
		require.NoError(t, err)
		api.On("PutItem", mock.Anything, mock.Anything).
			Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("exists"), Item: old})

		stored, inserted, err := store.Combinations().InsertIfAbsent(context.Background(), combo)

		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, "steam", stored.ResultID().String())
		assert.Equal(t, entities.SourceSeed, stored.Source())
	})
}

func TestDiscoveryRepository_Add(t *testing.T) {
	steam := valueobjects.MustElementID("steam")

	t.Run("new", func(t *testing.T) {
		store, api := newTestStore()
		api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			return *in.ConditionExpression == "attribute_exists(PK) AND NOT contains(Discovered, :id)"
		})).Return(&dynamodb.UpdateItemOutput{}, nil)

		isNew, err := store.Discoveries().Add(context.Background(), "u1", steam)

		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("already present", func(t *testing.T) {
		store, api := newTestStore()
		api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{
			Item: map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "USER#u1"}},
		})

		isNew, err := store.Discoveries().Add(context.Background(), "u1", steam)

		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("no record", func(t *testing.T) {
		store, api := newTestStore()
		api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		_, err := store.Discoveries().Add(context.Background(), "u1", steam)

		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDiscoveryNotFound))
	})
}

func TestDiscoveryRepository_GetKeepsOrder(t *testing.T) {
	store, api := newTestStore()
	av, err := attributevalue.MarshalMap(discoveryItem{
		PK: userPK("u1"), SK: skDiscoveries, EntityType: entityDiscoveries, UserID: "u1",
		Discovered: []string{"earth", "fire", "steam", "water", "wind"},
		Ordered:    []string{"water", "fire", "wind", "earth", "steam"},
	})
	require.NoError(t, err)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: av}, nil)

	set, err := store.Discoveries().Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, []string{"water", "fire", "wind", "earth", "steam"}, valueobjects.ElementIDStrings(set.IDs()))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify("op", nil))
	assert.True(t, pkgerrors.IsStoreUnavailable(classify("op", errors.New("dial tcp: connection refused"))))
	assert.True(t, pkgerrors.IsStoreUnavailable(classify("op", context.DeadlineExceeded)))
	assert.True(t, pkgerrors.IsType(
		classify("op", &smithy.GenericAPIError{Code: "ValidationException"}),
		pkgerrors.ErrorTypeDatabase,
	))

	notFound := pkgerrors.NewElementNotFoundError("x")
	assert.Same(t, notFound, classify("op", notFound))
}
