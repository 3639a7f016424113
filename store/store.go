package store

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/GonzalezAnguita/dynamodeve/internal/keytpl"
)

// keySeparator joins the parts of every derived key value.
const keySeparator = keytpl.Separator

// Store derives composite index keys for one logical entity and executes
// range queries and atomic writes against a single DynamoDB table.
//
// A Store is safe for concurrent use: all per-request write state lives in
// the Transaction values it creates.
type Store struct {
	client Client
	config Config
	logger *slog.Logger

	// indexAttrs is the set of key attribute names, stripped from every
	// entity returned to the caller.
	indexAttrs map[string]bool
}

// New creates a Store for the given table layout.
func New(client Client, config Config) (*Store, error) {
	return NewWithLogger(client, config, nil)
}

// NewWithLogger creates a Store that logs through the given logger.
func NewWithLogger(client Client, config Config, logger *slog.Logger) (*Store, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	indexAttrs := make(map[string]bool, len(config.Fields))
	for attr := range config.Fields {
		indexAttrs[attr] = true
	}

	return &Store{
		client:     client,
		config:     config,
		logger:     logger,
		indexAttrs: indexAttrs,
	}, nil
}

// PrimaryIndex returns the declared primary index.
func (s *Store) PrimaryIndex() Index {
	return s.config.Primary
}

// KeyPrefix returns the tenant#entity# prefix carried by every key value the
// store derives. Use it to recognize this entity's items in raw records.
func (s *Store) KeyPrefix() string {
	return s.config.TenantID + keySeparator + s.config.Entity + keySeparator
}

// IsConstraintRow reports whether a raw sort key value marks a uniqueness
// lock row rather than an entity item.
func IsConstraintRow(sortKey string) bool {
	return sortKey == constraintSortValue
}

// buildKeys derives the key attribute values for the entity. When restrictTo
// is non-nil only the named attributes are built. Templates with unresolved
// fields yield truncated prefix values.
func (s *Store) buildKeys(entity Entity, restrictTo []string) map[string]string {
	values := stringValues(entity)
	prefix := []string{s.config.TenantID, s.config.Entity}

	keys := make(map[string]string, len(s.config.Fields))
	for attr, tpl := range s.config.Fields {
		if restrictTo != nil && !containsString(restrictTo, attr) {
			continue
		}
		keys[attr] = keytpl.Render(prefix, tpl, values)
	}
	return keys
}

// constraintKey builds the primary key of the unique constraint row for an
// ordered value tuple.
func (s *Store) constraintKey(values []string) map[string]types.AttributeValue {
	parts := append([]string{s.config.TenantID, s.config.Entity}, values...)
	pk := keytpl.Render(parts, nil, nil)
	return map[string]types.AttributeValue{
		s.config.Primary.PartitionKey: &types.AttributeValueMemberS{Value: pk},
		s.config.Primary.SortKey:      &types.AttributeValueMemberS{Value: constraintSortValue},
	}
}

// marshalEntity converts an entity to DynamoDB attributes, skipping absent
// fields and storing reserved-word fields under their escaped alias.
func marshalEntity(entity Entity) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(entity))
	for field, value := range entity {
		if value == nil {
			continue
		}
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", field, err)
		}
		item[StoredName(field)] = av
	}
	return item, nil
}

// unmarshalEntity converts a raw item back into an entity, dropping index
// key attributes and restoring reserved-word aliases.
func (s *Store) unmarshalEntity(raw map[string]types.AttributeValue) (Entity, error) {
	clean := make(map[string]types.AttributeValue, len(raw))
	for attr, av := range raw {
		if s.indexAttrs[attr] {
			continue
		}
		clean[restoredName(attr)] = av
	}

	var entity Entity
	if err := attributevalue.UnmarshalMap(clean, &entity); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return entity, nil
}

// stringValues coerces the entity's defined fields to strings for template
// substitution. Absent (nil) fields are omitted, never rendered as "".
func stringValues(entity Entity) map[string]string {
	values := make(map[string]string, len(entity))
	for field, value := range entity {
		if value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			values[field] = v
		case bool:
			values[field] = strconv.FormatBool(v)
		case int:
			values[field] = strconv.Itoa(v)
		case int32:
			values[field] = strconv.FormatInt(int64(v), 10)
		case int64:
			values[field] = strconv.FormatInt(v, 10)
		case float32:
			values[field] = strconv.FormatFloat(float64(v), 'f', -1, 32)
		case float64:
			values[field] = strconv.FormatFloat(v, 'f', -1, 64)
		case fmt.Stringer:
			values[field] = v.String()
		default:
			values[field] = fmt.Sprintf("%v", v)
		}
	}
	return values
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
