// Package store provides a single-table DynamoDB data access layer built
// around declarative composite-key templates and atomic multi-item writes.
//
// One physical table holds many logical entities; each entity's items are
// distinguished by composite key values of the form
// tenant#entity#field1#field2..., derived from templates declared once per
// key attribute. The same templates drive every declared secondary index, so
// updating a templated field migrates all derived keys in one write.
//
// # Declaring an entity
//
// A [Store] is configured with the table's indexes and one template per key
// attribute. Templates mix literal segments with {field} references:
//
//	cfg := store.Config{
//	    TenantID: "acme",
//	    Entity:   "User",
//	    Primary: store.Index{
//	        TableName:    "app",
//	        PartitionKey: "pk",
//	        SortKey:      "sk",
//	    },
//	    Secondary: []store.Index{
//	        {IndexName: "gsi1", PartitionKey: "gsi1pk", SortKey: "gsi1sk"},
//	    },
//	    Fields: store.IndexFields{
//	        "pk":     keytpl.Parse("{id}"),
//	        "sk":     keytpl.Parse("{id}"),
//	        "gsi1pk": keytpl.Parse("{email}"),
//	        "gsi1sk": keytpl.Parse("{email}"),
//	    },
//	}
//
// A template field missing from an entity truncates the derived value at
// that point, yielding a prefix suitable for begins_with and range queries.
//
// # Reading
//
// [Store.Query] issues a single range query against one index and returns a
// page of entities with an opaque continuation cursor. [Store.QueryOne]
// returns the single match, nil when there is none, and an [IntegrityError]
// when a key expected to be unique matches more than one row.
//
// # Writing
//
// Writes are staged on a [Transaction] and applied atomically:
//
//	tx := s.NewTransaction()
//	meta, _ := tx.StageInsert(store.Entity{"email": "a@b.com"})
//	tx.StageConstraintInsert("a@b.com")
//	err := tx.Execute(ctx)
//
// Each staged operation registers the error to surface if its condition
// fails; when the store aborts the batch, the positional cancellation report
// is translated back to that error. A duplicate constrained value, for
// example, surfaces as a [UniqueConstraintError] naming the offending tuple.
//
// # Errors
//
//   - [ErrQueryFailed], [ErrTransactionFailed] - the store rejected the call
//   - [ErrInsertFailed], [ErrUpdateFailed] - a staged write's condition failed
//   - [ConditionCheckError] - a conditional delete failed
//   - [UniqueConstraintError] - a constrained value tuple already exists
//   - [IntegrityError] - a uniqueness invariant was found violated
//   - [InvalidMatchModeError] - unrecognized comparison mode
package store
