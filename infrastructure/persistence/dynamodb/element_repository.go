package dynamodb

import (
	"context"
	"fmt"
	"sort"
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

// ElementRepository stores elements plus a name index item per element.
// The name index makes (name, symbol) unique across the table.
type ElementRepository struct {
	store *Store
}

// elementItem represents the DynamoDB item structure for an element
type elementItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ElementID  string `dynamodbav:"ElementID"`
	Name       string `dynamodbav:"Name"`
	Symbol     string `dynamodbav:"Symbol"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// elementNameItem maps a (name, symbol) pair to its element id
type elementNameItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ElementID  string `dynamodbav:"ElementID"`
}

func toElementItem(e *entities.Element) elementItem {
	return elementItem{
		PK:         elementPK(e.ID()),
		SK:         skMetadata,
		EntityType: entityElement,
		ElementID:  e.ID().String(),
		Name:       e.Name(),
		Symbol:     e.Symbol(),
		CreatedAt:  e.CreatedAt().Format(time.RFC3339Nano),
	}
}

func (i elementItem) toEntity() (*entities.Element, error) {
	id, err := valueobjects.NewElementIDFromString(i.ElementID)
	if err != nil {
		return nil, pkgerrors.NewInternalError("stored element has no id")
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	return entities.ReconstructElement(id, i.Name, i.Symbol, createdAt), nil
}

// GetByID retrieves an element by its ID
func (r *ElementRepository) GetByID(ctx context.Context, id valueobjects.ElementID) (*entities.Element, error) {
	result, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.tableName),
		Key:            itemKey(elementPK(id), skMetadata),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify("get element", err)
	}
	if len(result.Item) == 0 {
		return nil, pkgerrors.NewElementNotFoundError(id.String())
	}

	var item elementItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal element", err)
	}
	return item.toEntity()
}

// FindByNameAndSymbol resolves the name index item and then the element
func (r *ElementRepository) FindByNameAndSymbol(ctx context.Context, name, symbol string) (*entities.Element, error) {
	result, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.tableName),
		Key:            itemKey(elementNamePK(name, symbol), skElementName),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify("find element by name", err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}

	var index elementNameItem
	if err := attributevalue.UnmarshalMap(result.Item, &index); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal element name", err)
	}
	id, err := valueobjects.NewElementIDFromString(index.ElementID)
	if err != nil {
		return nil, pkgerrors.NewInternalError("element name index has no id")
	}

	element, err := r.GetByID(ctx, id)
	if pkgerrors.IsNotFound(err) {
		// The index write is transactional with the element, so this is a stale read
		r.store.logger.Warn("Element name index points at missing element",
			zap.String("name", name),
			zap.String("symbol", symbol),
			zap.String("elementID", id.String()),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !element.Matches(name, symbol) {
		r.store.logger.Warn("Element name index points at a different element",
			zap.String("name", name),
			zap.String("symbol", symbol),
			zap.String("elementID", id.String()),
		)
		return nil, nil
	}
	return element, nil
}

// Save writes the element and its name index item in one transaction.
// Both writes require the key to be absent.
func (r *ElementRepository) Save(ctx context.Context, element *entities.Element) error {
	av, err := attributevalue.MarshalMap(toElementItem(element))
	if err != nil {
		return fmt.Errorf("failed to marshal element: %w", err)
	}
	nameAV, err := attributevalue.MarshalMap(elementNameItem{
		PK:         elementNamePK(element.Name(), element.Symbol()),
		SK:         skElementName,
		EntityType: entityElementName,
		ElementID:  element.ID().String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal element name: %w", err)
	}

	_, err = r.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.store.tableName),
					Item:                av,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(r.store.tableName),
					Item:                nameAV,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
		},
	})
	if err != nil {
		if isTransactionConditionFailed(err) {
			return pkgerrors.NewDuplicateElementError(element.Name(), element.Symbol())
		}
		return classify("save element", err)
	}

	r.store.logger.Debug("Element saved",
		zap.String("elementID", element.ID().String()),
		zap.String("name", element.Name()),
	)
	return nil
}

// List scans every element, oldest first
func (r *ElementRepository) List(ctx context.Context) ([]*entities.Element, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityElement))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan expression: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(r.store.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.store.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var items []elementItem
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("list elements", err)
		}
		var pageItems []elementItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal elements", err)
		}
		items = append(items, pageItems...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt < items[j].CreatedAt
	})

	elements := make([]*entities.Element, 0, len(items))
	for _, item := range items {
		element, err := item.toEntity()
		if err != nil {
			r.store.logger.Warn("Skipping malformed element item", zap.String("pk", item.PK))
			continue
		}
		elements = append(elements, element)
	}
	return elements, nil
}
