package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Query issues one range query against the index and returns a page of
// entities. The key is built from fields: a full key for MatchExact, a
// truncated prefix otherwise, so non-exact queries may omit trailing
// templated fields. MatchExact on an incomplete key is an IncompleteKeyError
// rather than a silent prefix comparison. Results come back in sort key
// order, ascending unless SortDescending is requested. An empty result set
// is an empty page, not an error; a store failure is a fatal ErrQueryFailed
// and is not retried here.
func (s *Store) Query(ctx context.Context, fields Entity, index Index, config QueryConfig) (*Page, error) {
	expr, err := keyCondition(config.Match)
	if err != nil {
		return nil, err
	}

	if config.Match == MatchExact {
		values := stringValues(fields)
		for _, attr := range []string{index.PartitionKey, index.SortKey} {
			if tpl := s.config.Fields[attr]; !tpl.Complete(values) {
				return nil, &IncompleteKeyError{Attr: attr, Fields: tpl.Fields()}
			}
		}
	}

	keys := s.buildKeys(fields, []string{index.PartitionKey, index.SortKey})

	input := &dynamodb.QueryInput{
		TableName:              aws.String(index.TableName),
		KeyConditionExpression: aws.String(expr),
		ExpressionAttributeNames: map[string]string{
			"#pk": index.PartitionKey,
			"#sk": index.SortKey,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: keys[index.PartitionKey]},
			":sk": &types.AttributeValueMemberS{Value: keys[index.SortKey]},
		},
	}
	if !index.Primary() {
		input.IndexName = aws.String(index.IndexName)
	}
	if config.Limit > 0 {
		input.Limit = aws.Int32(config.Limit)
	}
	if config.Sort == SortDescending {
		input.ScanIndexForward = aws.Bool(false)
	}
	if start := decodeCursor(config.Cursor); start != nil {
		input.ExclusiveStartKey = start
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	page := &Page{
		Items:  make([]Entity, 0, len(result.Items)),
		Cursor: encodeCursor(result.LastEvaluatedKey),
	}
	for _, raw := range result.Items {
		entity, err := s.unmarshalEntity(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		page.Items = append(page.Items, entity)
	}

	s.logger.Debug("query executed",
		"entity", s.config.Entity,
		"index", index.IndexName,
		"items", len(page.Items),
	)

	return page, nil
}

// QueryOne returns the single entity matching the key, or nil when there is
// none. Finding more than one row for a key expected to be unique is an
// IntegrityError, never a silent truncation: it means a uniqueness invariant
// was violated upstream.
func (s *Store) QueryOne(ctx context.Context, fields Entity, index Index, config QueryConfig) (Entity, error) {
	// Limit 2 so a second row is observable.
	config.Limit = 2
	config.Cursor = ""

	page, err := s.Query(ctx, fields, index, config)
	if err != nil {
		return nil, err
	}

	switch len(page.Items) {
	case 0:
		return nil, nil
	case 1:
		return page.Items[0], nil
	default:
		return nil, &IntegrityError{Op: "query_one", Index: -1}
	}
}
