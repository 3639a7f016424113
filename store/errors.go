package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQueryFailed is returned when the store rejects a range query.
	ErrQueryFailed = errors.New("dynamodeve: query failed")

	// ErrTransactionFailed is returned when an atomic write fails for a
	// reason that maps to no staged operation.
	ErrTransactionFailed = errors.New("dynamodeve: transaction failed")

	// ErrInsertFailed is returned when an insert's primary key already exists.
	ErrInsertFailed = errors.New("dynamodeve: insert conditional check failed")

	// ErrUpdateFailed is returned when an update's condition was not met.
	ErrUpdateFailed = errors.New("dynamodeve: update conditional check failed")

	// ErrConstraintRemoveFailed is returned when a unique constraint row
	// could not be removed.
	ErrConstraintRemoveFailed = errors.New("dynamodeve: unique constraint removal failed")
)

// InvalidMatchModeError is returned when a key condition is requested with an
// unrecognized match mode.
type InvalidMatchModeError struct {
	Mode MatchMode
}

func (e *InvalidMatchModeError) Error() string {
	return fmt.Sprintf("dynamodeve: invalid match mode %q", string(e.Mode))
}

// IncompleteKeyError is returned when an exact-match query is issued without
// a value for every field the index key templates reference. Only non-exact
// modes may run on a truncated prefix.
type IncompleteKeyError struct {
	// Attr is the key attribute whose template could not be fully resolved.
	Attr string

	// Fields lists the entity fields the template references.
	Fields []string
}

func (e *IncompleteKeyError) Error() string {
	return fmt.Sprintf("dynamodeve: incomplete key %q: exact match needs values for %v", e.Attr, e.Fields)
}

// ConditionCheckError is returned when a staged conditional delete fails.
type ConditionCheckError struct {
	// Entity is the logical entity name the operation targeted.
	Entity string

	// Key holds the primary key values of the item the condition ran against.
	Key map[string]string
}

func (e *ConditionCheckError) Error() string {
	return fmt.Sprintf("dynamodeve: condition check failed for %s %v", e.Entity, e.Key)
}

// UniqueConstraintError is returned when a constrained value tuple already
// exists for the entity.
type UniqueConstraintError struct {
	// Entity is the logical entity name the constraint belongs to.
	Entity string

	// Values is the ordered value tuple that was already taken.
	Values []string
}

func (e *UniqueConstraintError) Error() string {
	return fmt.Sprintf("dynamodeve: value %q already exists for %s", strings.Join(e.Values, keySeparator), e.Entity)
}

// IntegrityError reports a violated uniqueness invariant: either more than
// one row was found for a key expected to be unique, or an atomic write was
// cancelled at a position with no registered handler. Both indicate a defect
// upstream rather than a recoverable data condition.
type IntegrityError struct {
	// Op names the operation that detected the violation.
	Op string

	// Index is the position of the unmapped cancellation entry, or -1 when
	// the violation was detected outside a transaction.
	Index int

	// Code is the raw cancellation code, when one exists.
	Code string
}

func (e *IntegrityError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("dynamodeve: integrity violation in %s: unmapped cancellation code %q at position %d", e.Op, e.Code, e.Index)
	}
	return fmt.Sprintf("dynamodeve: integrity violation in %s: multiple rows for a unique key", e.Op)
}
