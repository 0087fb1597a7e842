package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// BaseElementRepository stores the base element ids on one catalog item
type BaseElementRepository struct {
	store *Store
}

type baseSetItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	ElementIDs []string `dynamodbav:"ElementIDs"`
	CreatedAt  string   `dynamodbav:"CreatedAt"`
}

// GetBaseIDs returns nil when the base set has not been written
func (r *BaseElementRepository) GetBaseIDs(ctx context.Context) ([]valueobjects.ElementID, error) {
	result, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.tableName),
		Key:            itemKey(pkCatalog, skBase),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify("get base set", err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}

	var item baseSetItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal base set", err)
	}
	return valueobjects.ElementIDsFromStrings(item.ElementIDs), nil
}

// SaveBaseIDs writes the base set unless one already exists
func (r *BaseElementRepository) SaveBaseIDs(ctx context.Context, ids []valueobjects.ElementID) (bool, error) {
	av, err := attributevalue.MarshalMap(baseSetItem{
		PK:         pkCatalog,
		SK:         skBase,
		EntityType: entityBaseSet,
		ElementIDs: valueobjects.ElementIDStrings(ids),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal base set: %w", err)
	}

	_, err = r.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.store.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if _, ok := isConditionFailed(err); ok {
			return false, nil
		}
		return false, classify("save base set", err)
	}
	return true, nil
}
