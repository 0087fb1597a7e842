package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// DiscoveryRepository stores one item per user. Discovered is a string set
// used for atomic membership; Ordered keeps first-discovery order.
type DiscoveryRepository struct {
	store *Store
}

type discoveryItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	UserID     string   `dynamodbav:"UserID"`
	Discovered []string `dynamodbav:"Discovered,stringset,omitempty"`
	Ordered    []string `dynamodbav:"Ordered"`
	UpdatedAt  string   `dynamodbav:"UpdatedAt"`
}

func toDiscoveryItem(set *entities.DiscoverySet) discoveryItem {
	ids := valueobjects.ElementIDStrings(set.IDs())
	return discoveryItem{
		PK:         userPK(set.UserID()),
		SK:         skDiscoveries,
		EntityType: entityDiscoveries,
		UserID:     set.UserID(),
		Discovered: ids,
		Ordered:    ids,
		UpdatedAt:  set.UpdatedAt().Format(time.RFC3339Nano),
	}
}

func (r *DiscoveryRepository) unmarshal(userID string, av map[string]types.AttributeValue) (*entities.DiscoverySet, error) {
	var item discoveryItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal discoveries", err)
	}
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)

	// Ordered can only trail Discovered if a write was interrupted; append the rest
	ids := valueobjects.ElementIDsFromStrings(item.Ordered)
	ids = append(ids, valueobjects.ElementIDsFromStrings(item.Discovered)...)
	return entities.ReconstructDiscoverySet(userID, ids, updatedAt), nil
}

// Get returns the user's set or nil
func (r *DiscoveryRepository) Get(ctx context.Context, userID string) (*entities.DiscoverySet, error) {
	result, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.tableName),
		Key:            itemKey(userPK(userID), skDiscoveries),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify("get discoveries", err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}
	return r.unmarshal(userID, result.Item)
}

// CreateIfAbsent writes set unless the user already has an item
func (r *DiscoveryRepository) CreateIfAbsent(ctx context.Context, set *entities.DiscoverySet) (*entities.DiscoverySet, error) {
	av, err := attributevalue.MarshalMap(toDiscoveryItem(set))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal discoveries: %w", err)
	}

	_, err = r.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                           aws.String(r.store.tableName),
		Item:                                av,
		ConditionExpression:                 aws.String("attribute_not_exists(PK)"),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return set, nil
	}

	ccf, ok := isConditionFailed(err)
	if !ok {
		return nil, classify("create discoveries", err)
	}
	if len(ccf.Item) > 0 {
		return r.unmarshal(set.UserID(), ccf.Item)
	}
	existing, err := r.Get(ctx, set.UserID())
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, pkgerrors.NewInternalError("discovery condition failed but no item found")
	}
	return existing, nil
}

// Add inserts id with a single conditional update. The condition fails
// when the id is already present, which is reported as not new.
func (r *DiscoveryRepository) Add(ctx context.Context, userID string, id valueobjects.ElementID) (bool, error) {
	_, err := r.store.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.store.tableName),
		Key:                 itemKey(userPK(userID), skDiscoveries),
		UpdateExpression:    aws.String("SET Ordered = list_append(if_not_exists(Ordered, :empty), :idList), UpdatedAt = :now ADD Discovered :idSet"),
		ConditionExpression: aws.String("attribute_exists(PK) AND NOT contains(Discovered, :id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":     &types.AttributeValueMemberS{Value: id.String()},
			":idSet":  &types.AttributeValueMemberSS{Value: []string{id.String()}},
			":idList": &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: id.String()}}},
			":empty":  &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return true, nil
	}

	ccf, ok := isConditionFailed(err)
	if !ok {
		return false, classify("add discovery", err)
	}
	if len(ccf.Item) == 0 {
		return false, pkgerrors.NewNotFoundError("discovery set").WithCode(pkgerrors.CodeDiscoveryNotFound)
	}
	return false, nil
}

// Replace overwrites the user's item
func (r *DiscoveryRepository) Replace(ctx context.Context, set *entities.DiscoverySet) error {
	av, err := attributevalue.MarshalMap(toDiscoveryItem(set))
	if err != nil {
		return fmt.Errorf("failed to marshal discoveries: %w", err)
	}

	_, err = r.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.store.tableName),
		Item:      av,
	})
	return classify("replace discoveries", err)
}
