package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// CombinationRepository stores one item per unordered pair
type CombinationRepository struct {
	store *Store
}

type combinationItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	LeftID     string `dynamodbav:"LeftID"`
	RightID    string `dynamodbav:"RightID"`
	ResultID   string `dynamodbav:"ResultID"`
	Source     string `dynamodbav:"Source"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func (i combinationItem) toEntity() (*entities.Combination, error) {
	left, err := valueobjects.NewElementIDFromString(i.LeftID)
	if err != nil {
		return nil, pkgerrors.NewInternalError("stored combination has no left id")
	}
	right, err := valueobjects.NewElementIDFromString(i.RightID)
	if err != nil {
		return nil, pkgerrors.NewInternalError("stored combination has no right id")
	}
	result, err := valueobjects.NewElementIDFromString(i.ResultID)
	if err != nil {
		return nil, pkgerrors.NewInternalError("stored combination has no result id")
	}
	key, err := valueobjects.NewPairKey(left, right)
	if err != nil {
		return nil, pkgerrors.NewInternalError(err.Error())
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	return entities.ReconstructCombination(key, result, entities.CombinationSource(i.Source), createdAt), nil
}

func (r *CombinationRepository) unmarshal(av map[string]types.AttributeValue) (*entities.Combination, error) {
	var item combinationItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal combination", err)
	}
	return item.toEntity()
}

// Get returns the combination for key or nil
func (r *CombinationRepository) Get(ctx context.Context, key valueobjects.PairKey) (*entities.Combination, error) {
	result, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.tableName),
		Key:            itemKey(combinationPK(key), skCombination),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify("get combination", err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}
	return r.unmarshal(result.Item)
}

// InsertIfAbsent writes the combination only when its pair has no item.
// A lost condition returns the item that was already there.
func (r *CombinationRepository) InsertIfAbsent(ctx context.Context, combination *entities.Combination) (*entities.Combination, bool, error) {
	av, err := attributevalue.MarshalMap(combinationItem{
		PK:         combinationPK(combination.Key()),
		SK:         skCombination,
		EntityType: entityCombination,
		LeftID:     combination.LeftID().String(),
		RightID:    combination.RightID().String(),
		ResultID:   combination.ResultID().String(),
		Source:     string(combination.Source()),
		CreatedAt:  combination.CreatedAt().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal combination: %w", err)
	}

	_, err = r.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                           aws.String(r.store.tableName),
		Item:                                av,
		ConditionExpression:                 aws.String("attribute_not_exists(PK)"),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return combination, true, nil
	}

	ccf, ok := isConditionFailed(err)
	if !ok {
		return nil, false, classify("insert combination", err)
	}

	r.store.logger.Debug("Combination already present", zap.String("pair", combination.Key().String()))
	if len(ccf.Item) > 0 {
		existing, err := r.unmarshal(ccf.Item)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	existing, err := r.Get(ctx, combination.Key())
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, pkgerrors.NewInternalError("combination condition failed but no item found")
	}
	return existing, false, nil
}

// Count scans the table counting combination items
func (r *CombinationRepository) Count(ctx context.Context) (int, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityCombination))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build scan expression: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(r.store.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.store.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Select:                    types.SelectCount,
	})

	total := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, classify("count combinations", err)
		}
		total += int(page.Count)
	}
	return total, nil
}
