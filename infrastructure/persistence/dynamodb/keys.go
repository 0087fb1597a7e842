package dynamodb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"infinicraft-backend/domain/core/valueobjects"
)

// Entity types stored in the EntityType attribute
const (
	entityElement     = "ELEMENT"
	entityElementName = "ELEMENT_NAME"
	entityBaseSet     = "BASE_SET"
	entityCombination = "COMBINATION"
	entityDiscoveries = "DISCOVERIES"
)

const (
	skMetadata    = "METADATA"
	skElementName = "ELEMENTNAME"
	skCombination = "COMBINATION"
	skDiscoveries = "DISCOVERIES"
	pkCatalog     = "CATALOG"
	skBase        = "BASE"
)

func elementPK(id valueobjects.ElementID) string {
	return fmt.Sprintf("ELEMENT#%s", id.String())
}

// elementNamePK length-prefixes the symbol so that no two (name, symbol)
// pairs share a key, whatever characters either part contains.
func elementNamePK(name, symbol string) string {
	return fmt.Sprintf("ELEMENTNAME#%d#%s#%s", len(symbol), symbol, name)
}

func combinationPK(key valueobjects.PairKey) string {
	return fmt.Sprintf("COMBO#%s", key.String())
}

func userPK(userID string) string {
	return fmt.Sprintf("USER#%s", userID)
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}
