package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/GonzalezAnguita/dynamodeve/internal/keytpl"
)

// Client is the subset of the DynamoDB API the store depends on. It is
// satisfied by *dynamodb.Client and by test doubles.
type Client interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Index describes one physical index of the table.
type Index struct {
	// TableName is the DynamoDB table holding the index.
	TableName string

	// IndexName is the GSI name, or empty for the primary index.
	IndexName string

	// PartitionKey is the partition key attribute name.
	PartitionKey string

	// SortKey is the sort key attribute name.
	SortKey string
}

// Primary reports whether the index is the table's primary index.
func (i Index) Primary() bool {
	return i.IndexName == ""
}

// IndexFields maps a key attribute name to the template its value is derived
// from. Every partition and sort key attribute of every declared index must
// have exactly one entry.
type IndexFields map[string]keytpl.Template

// Entity is an application payload: field name to native value. Index key
// attributes never appear in an Entity; they are derived by the store.
type Entity map[string]any

// Meta holds the store-managed fields assigned to an entity on insert.
type Meta struct {
	// ID is the opaque identifier assigned on creation.
	ID string

	// CreatedAt is the creation timestamp in unix milliseconds.
	CreatedAt int64

	// UpdatedAt is the last-update timestamp in unix milliseconds.
	UpdatedAt int64
}

// Page is one page of query results.
type Page struct {
	// Items are the decoded entities, index attributes stripped.
	Items []Entity

	// Cursor resumes the query after the last item, or empty when the
	// result set is exhausted.
	Cursor string
}

// SortDirection selects the scan direction of a range query.
type SortDirection string

const (
	// SortAscending returns items in ascending sort key order (default).
	SortAscending SortDirection = "asc"

	// SortDescending returns items in descending sort key order.
	SortDescending SortDirection = "desc"
)

// QueryConfig configures a range query.
type QueryConfig struct {
	// Match selects the sort key comparison shape.
	Match MatchMode

	// Limit caps the number of items returned (0 = store default).
	Limit int32

	// Cursor resumes a previous query. Malformed cursors are treated as
	// absent, not as errors.
	Cursor string

	// Sort is the scan direction. Empty means ascending.
	Sort SortDirection
}
