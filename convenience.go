package dynafile

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynafile-io/dynafile/internal/core"
)

// PutStruct marshals v (a struct tagged the way any AWS SDK v2 consumer
// tags a DynamoDB item) into an Item via
// github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue, and
// puts it.
func (t *Table) PutStruct(v any) error {
	avMap, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("dynafile: marshal struct: %w", err)
	}
	item, err := core.ItemFromDynamoMap(avMap)
	if err != nil {
		return fmt.Errorf("dynafile: marshal struct: %w", err)
	}
	return t.PutItem(item)
}

// GetItemInto fetches key and unmarshals it into out via
// attributevalue.UnmarshalMap. It returns (false, nil) if the item is
// absent or expired.
func (t *Table) GetItemInto(key Key, out any) (bool, error) {
	item, err := t.GetItem(key)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	avMap, err := core.ItemToDynamoMap(item)
	if err != nil {
		return false, fmt.Errorf("dynafile: unmarshal struct: %w", err)
	}
	if err := attributevalue.UnmarshalMap(avMap, out); err != nil {
		return false, fmt.Errorf("dynafile: unmarshal struct: %w", err)
	}
	return true, nil
}

// ItemFromMap builds an Item from a plain map[string]types.AttributeValue,
// the shape used throughout the AWS SDK v2 DynamoDB client, so existing
// item-construction helpers (e.g. &types.AttributeValueMemberS{...})
// can be reused verbatim against Dynafile.
func ItemFromMap(m map[string]types.AttributeValue) (Item, error) {
	return core.ItemFromDynamoMap(m)
}

// ItemToMap projects an Item back onto map[string]types.AttributeValue.
func ItemToMap(item Item) (map[string]types.AttributeValue, error) {
	return core.ItemToDynamoMap(item)
}
