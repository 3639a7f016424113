package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MatchMode selects the shape of a key condition expression.
type MatchMode string

const (
	// MatchExact matches the full partition and sort key values.
	MatchExact MatchMode = "exact"

	// MatchBeginsWith matches sort keys starting with the built prefix.
	MatchBeginsWith MatchMode = "begins_with"

	// MatchGreaterThan matches sort keys strictly after the built value.
	MatchGreaterThan MatchMode = "greater_than"

	// MatchLessThan matches sort keys strictly before the built value.
	MatchLessThan MatchMode = "less_than"

	// MatchGreaterThanOrEqual matches sort keys at or after the built value.
	MatchGreaterThanOrEqual MatchMode = "greater_than_or_equal"

	// MatchLessThanOrEqual matches sort keys at or before the built value.
	MatchLessThanOrEqual MatchMode = "less_than_or_equal"
)

// constraintSortValue is the fixed sort key of unique constraint rows.
const constraintSortValue = "CONSTRAINT"

// keyCondition returns the key condition expression for the index and match
// mode, over the #pk/#sk and :pk/:sk placeholders.
func keyCondition(mode MatchMode) (string, error) {
	switch mode {
	case MatchExact:
		return "#pk = :pk AND #sk = :sk", nil
	case MatchBeginsWith:
		return "#pk = :pk AND begins_with(#sk, :sk)", nil
	case MatchGreaterThan:
		return "#pk = :pk AND #sk > :sk", nil
	case MatchLessThan:
		return "#pk = :pk AND #sk < :sk", nil
	case MatchGreaterThanOrEqual:
		return "#pk = :pk AND #sk >= :sk", nil
	case MatchLessThanOrEqual:
		return "#pk = :pk AND #sk <= :sk", nil
	default:
		return "", &InvalidMatchModeError{Mode: mode}
	}
}

// buildSet returns a SET update expression over the item's attributes plus
// the name and value placeholder maps. The placeholder prefix keeps the maps
// disjoint from other expressions in the same request. An empty item yields
// an empty expression, meaning no-op.
func buildSet(item map[string]types.AttributeValue, prefix string) (string, map[string]string, map[string]types.AttributeValue) {
	clauses, names, values := buildClauses(item, prefix)
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return "SET " + strings.Join(clauses, ", "), names, values
}

// buildEquality returns an AND-joined equality condition over the item's
// attributes plus the placeholder maps. An empty item yields an empty
// expression, meaning unconditional.
func buildEquality(item map[string]types.AttributeValue, prefix string) (string, map[string]string, map[string]types.AttributeValue) {
	clauses, names, values := buildClauses(item, prefix)
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return strings.Join(clauses, " AND "), names, values
}

// buildClauses produces one "#<p><n> = :<p><n>" clause per attribute, in
// sorted attribute order so generated expressions are deterministic.
func buildClauses(item map[string]types.AttributeValue, prefix string) ([]string, map[string]string, map[string]types.AttributeValue) {
	if len(item) == 0 {
		return nil, nil, nil
	}

	attrs := make([]string, 0, len(item))
	for attr := range item {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	clauses := make([]string, 0, len(attrs))
	names := make(map[string]string, len(attrs))
	values := make(map[string]types.AttributeValue, len(attrs))

	for i, attr := range attrs {
		nameKey := fmt.Sprintf("#%s%d", prefix, i)
		valueKey := fmt.Sprintf(":%s%d", prefix, i)
		names[nameKey] = attr
		values[valueKey] = item[attr]
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}

	return clauses, names, values
}

// reservedWords are DynamoDB reserved words application fields commonly
// collide with. Fields named after one are stored under an escaped alias.
var reservedWords = map[string]bool{
	"comment":   true,
	"count":     true,
	"data":      true,
	"date":      true,
	"day":       true,
	"hash":      true,
	"language":  true,
	"month":     true,
	"name":      true,
	"owner":     true,
	"range":     true,
	"role":      true,
	"session":   true,
	"size":      true,
	"source":    true,
	"state":     true,
	"status":    true,
	"timestamp": true,
	"token":     true,
	"ttl":       true,
	"type":      true,
	"user":      true,
	"uuid":      true,
	"value":     true,
	"values":    true,
	"year":      true,
}

// reservedAliasPrefix marks the stored alias of a reserved-word field.
const reservedAliasPrefix = "_"

// StoredName returns the attribute name a field is stored under: the field
// name itself, or its escaped alias when the name is reserved. The alias is
// an internal detail on the read and write paths; it is exported for
// consumers of raw records, like stream handlers. A raw field that already
// spells an alias, like "_name", is indistinguishable from one and comes
// back as the reserved word on read; avoid the underscore prefix in
// application field names.
func StoredName(field string) string {
	if reservedWords[strings.ToLower(field)] {
		return reservedAliasPrefix + field
	}
	return field
}

// restoredName is the inverse of StoredName, applied when items are returned
// to the caller.
func restoredName(attr string) string {
	if trimmed, ok := strings.CutPrefix(attr, reservedAliasPrefix); ok && reservedWords[strings.ToLower(trimmed)] {
		return trimmed
	}
	return attr
}
