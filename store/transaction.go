package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// Cancellation codes reported per item when an atomic write is aborted.
const (
	cancelCodeNone           = "None"
	cancelCodeConditionCheck = "ConditionalCheckFailed"
)

// cancelKey identifies one entry of the store's cancellation report.
type cancelKey struct {
	code  string
	index int
}

// Transaction accumulates conditional write operations and executes them as
// one atomic unit. A Transaction is owned by a single logical write request:
// create it with [Store.NewTransaction], stage operations, then call
// [Transaction.Execute] exactly once. It must not be shared across
// concurrent requests.
type Transaction struct {
	store    *Store
	items    []types.TransactWriteItem
	onCancel map[cancelKey]error
}

// NewTransaction begins an empty transaction against the store.
func (s *Store) NewTransaction() *Transaction {
	return &Transaction{
		store:    s,
		onCancel: make(map[cancelKey]error),
	}
}

// stage appends one operation and registers the error to surface if its
// condition fails at that position.
func (t *Transaction) stage(item types.TransactWriteItem, failure error) {
	t.onCancel[cancelKey{code: cancelCodeConditionCheck, index: len(t.items)}] = failure
	t.items = append(t.items, item)
}

// reset clears the operation list and error map. Called on every exit path
// of Execute so no scratch state leaks into the next request.
func (t *Transaction) reset() {
	t.items = nil
	t.onCancel = make(map[cancelKey]error)
}

// StageInsert stages the creation of a new entity. The store assigns the id
// and both timestamps and derives every declared index attribute; the write
// is conditioned on the primary key not existing yet, so a collision is a
// conditional failure rather than a silent overwrite.
func (t *Transaction) StageInsert(payload Entity) (Meta, error) {
	now := time.Now().UnixMilli()
	meta := Meta{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	entity := make(Entity, len(payload)+3)
	for field, value := range payload {
		if value != nil {
			entity[field] = value
		}
	}
	entity["id"] = meta.ID
	entity["createdAt"] = meta.CreatedAt
	entity["updatedAt"] = meta.UpdatedAt

	item, err := marshalEntity(entity)
	if err != nil {
		return Meta{}, err
	}
	for attr, value := range t.store.buildKeys(entity, nil) {
		item[attr] = &types.AttributeValueMemberS{Value: value}
	}

	primary := t.store.config.Primary
	t.stage(types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(primary.TableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(#pk) AND attribute_not_exists(#sk)"),
			ExpressionAttributeNames: map[string]string{
				"#pk": primary.PartitionKey,
				"#sk": primary.SortKey,
			},
		},
	}, ErrInsertFailed)

	return meta, nil
}

// StageUpdate stages a partial update of a previously read entity. The
// partial payload is merged over prior so every secondary index attribute can
// be recomputed: changing a templated field migrates the derived keys. The
// item itself is addressed by the primary key built from prior; primary key
// attributes identify the item, they are not mutable payload, and never enter
// the update body. filter, when non-empty, becomes an equality condition on
// the update; its placeholders are kept disjoint from the body's.
func (t *Transaction) StageUpdate(partial, prior, filter Entity) error {
	merged := make(Entity, len(prior)+len(partial)+1)
	for field, value := range prior {
		merged[field] = value
	}
	for field, value := range partial {
		if value != nil {
			merged[field] = value
		}
	}
	merged["updatedAt"] = time.Now().UnixMilli()

	body, err := marshalEntity(merged)
	if err != nil {
		return err
	}

	primary := t.store.config.Primary
	addr := t.store.buildKeys(prior, []string{primary.PartitionKey, primary.SortKey})
	for attr, value := range t.store.buildKeys(merged, nil) {
		if attr == primary.PartitionKey || attr == primary.SortKey {
			continue
		}
		body[attr] = &types.AttributeValueMemberS{Value: value}
	}

	expr, names, values := buildSet(body, "u")
	if expr == "" {
		return fmt.Errorf("dynamodeve: update with no defined fields")
	}

	update := &types.Update{
		TableName: aws.String(primary.TableName),
		Key: map[string]types.AttributeValue{
			primary.PartitionKey: &types.AttributeValueMemberS{Value: addr[primary.PartitionKey]},
			primary.SortKey:      &types.AttributeValueMemberS{Value: addr[primary.SortKey]},
		},
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}

	if len(filter) > 0 {
		filterItem, err := marshalEntity(filter)
		if err != nil {
			return err
		}
		cond, condNames, condValues := buildEquality(filterItem, "f")
		if cond != "" {
			update.ConditionExpression = aws.String(cond)
			for k, v := range condNames {
				update.ExpressionAttributeNames[k] = v
			}
			for k, v := range condValues {
				update.ExpressionAttributeValues[k] = v
			}
		}
	}

	t.stage(types.TransactWriteItem{Update: update}, ErrUpdateFailed)
	return nil
}

// StageDelete stages the deletion of a previously read entity, addressed by
// its primary key. filter, when non-empty, becomes an equality condition; a
// failed condition surfaces as a ConditionCheckError.
func (t *Transaction) StageDelete(prior, filter Entity) error {
	primary := t.store.config.Primary
	keys := t.store.buildKeys(prior, []string{primary.PartitionKey, primary.SortKey})

	del := &types.Delete{
		TableName: aws.String(primary.TableName),
		Key: map[string]types.AttributeValue{
			primary.PartitionKey: &types.AttributeValueMemberS{Value: keys[primary.PartitionKey]},
			primary.SortKey:      &types.AttributeValueMemberS{Value: keys[primary.SortKey]},
		},
	}

	if len(filter) > 0 {
		filterItem, err := marshalEntity(filter)
		if err != nil {
			return err
		}
		cond, condNames, condValues := buildEquality(filterItem, "f")
		if cond != "" {
			del.ConditionExpression = aws.String(cond)
			del.ExpressionAttributeNames = condNames
			del.ExpressionAttributeValues = condValues
		}
	}

	t.stage(types.TransactWriteItem{Delete: del}, &ConditionCheckError{
		Entity: t.store.config.Entity,
		Key:    keys,
	})
	return nil
}

// StageConstraintInsert stages a uniqueness lock on an ordered value tuple.
// The lock is a synthetic row whose key is derived from the tuple; the write
// is conditioned on the row being absent, so a second writer of the same
// tuple fails with a UniqueConstraintError.
func (t *Transaction) StageConstraintInsert(values ...string) {
	primary := t.store.config.Primary
	t.stage(types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(primary.TableName),
			Item:                t.store.constraintKey(values),
			ConditionExpression: aws.String("attribute_not_exists(#pk)"),
			ExpressionAttributeNames: map[string]string{
				"#pk": primary.PartitionKey,
			},
		},
	}, &UniqueConstraintError{
		Entity: t.store.config.Entity,
		Values: append([]string(nil), values...),
	})
}

// StageConstraintRemove stages the unconditional removal of the uniqueness
// lock on an ordered value tuple.
func (t *Transaction) StageConstraintRemove(values ...string) {
	primary := t.store.config.Primary
	t.stage(types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(primary.TableName),
			Key:       t.store.constraintKey(values),
		},
	}, ErrConstraintRemoveFailed)
}

// Execute submits every staged operation as one atomic write. When the store
// aborts the batch it reports one cancellation code per operation in staging
// order; the first entry with a real code is translated to the error
// registered for that position, or to an IntegrityError when no handler was
// registered there. The staged operations and error map are cleared on every
// exit path, success or not.
func (t *Transaction) Execute(ctx context.Context) error {
	defer t.reset()

	if len(t.items) == 0 {
		return nil
	}

	_, err := t.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: t.items,
	})
	if err == nil {
		t.store.logger.Debug("transaction committed",
			"entity", t.store.config.Entity,
			"operations", len(t.items),
		)
		return nil
	}

	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for i, reason := range cancelled.CancellationReasons {
			code := aws.ToString(reason.Code)
			if code == "" || code == cancelCodeNone {
				continue
			}
			if mapped, ok := t.onCancel[cancelKey{code: code, index: i}]; ok {
				return mapped
			}
			return &IntegrityError{Op: "transaction", Index: i, Code: code}
		}
		// Every reported code was the no-op code.
		return nil
	}

	return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
}
