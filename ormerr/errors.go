// Package ormerr defines the error taxonomy shared by every pulseorm layer.
//
// Each failure class is a concrete type so callers can branch with errors.As,
// and every type also matches a package sentinel with errors.Is.
package ormerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below report true for errors.Is against
// the matching sentinel.
var (
	// ErrMapping is matched by MappingError.
	ErrMapping = errors.New("pulseorm: invalid entity mapping")

	// ErrUnmappedMember is matched by UnmappedMemberError.
	ErrUnmappedMember = errors.New("pulseorm: member is not mapped")

	// ErrUnsupportedExpression is matched by UnsupportedExpressionError.
	ErrUnsupportedExpression = errors.New("pulseorm: unsupported expression")

	// ErrMissingKey is matched by MissingKeyError.
	ErrMissingKey = errors.New("pulseorm: entity has no primary key")

	// ErrNoColumns is matched by NoColumnsError.
	ErrNoColumns = errors.New("pulseorm: no writable columns")

	// ErrInvalidArgument is matched by ArgumentError.
	ErrInvalidArgument = errors.New("pulseorm: invalid argument")

	// ErrNotFound is returned when a query expecting a row returns none.
	ErrNotFound = errors.New("pulseorm: entity not found")

	// ErrNotSingular is returned when a query expecting exactly one row
	// returns more.
	ErrNotSingular = errors.New("pulseorm: entity not singular")
)

// MappingError is returned when an entity type cannot be turned into a
// descriptor: no columns, duplicate members, or no mapping source.
type MappingError struct {
	Entity string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("pulseorm: cannot map %s: %s", e.Entity, e.Reason)
}

// Is reports whether target is ErrMapping.
func (e *MappingError) Is(target error) bool { return target == ErrMapping }

// UnmappedMemberError is returned when an expression references a member
// the descriptor does not expose as a column.
type UnmappedMemberError struct {
	Entity string
	Member string
}

func (e *UnmappedMemberError) Error() string {
	return fmt.Sprintf("pulseorm: member %q is not a mapped column of %s", e.Member, e.Entity)
}

// Is reports whether target is ErrUnmappedMember.
func (e *UnmappedMemberError) Is(target error) bool { return target == ErrUnmappedMember }

// UnsupportedExpressionError names the construct the predicate compiler
// could not lower.
type UnsupportedExpressionError struct {
	Construct string
}

func (e *UnsupportedExpressionError) Error() string {
	return fmt.Sprintf("pulseorm: unsupported expression: %s", e.Construct)
}

// Is reports whether target is ErrUnsupportedExpression.
func (e *UnsupportedExpressionError) Is(target error) bool {
	return target == ErrUnsupportedExpression
}

// MissingKeyError is returned when an operation needs a primary key (update,
// delete, default ordering, paged joins) and the entity has none.
type MissingKeyError struct {
	Entity    string
	Operation string
}

func (e *MissingKeyError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("pulseorm: %s requires a primary key on %s", e.Operation, e.Entity)
	}
	return fmt.Sprintf("pulseorm: %s has no primary key", e.Entity)
}

// Is reports whether target is ErrMissingKey.
func (e *MissingKeyError) Is(target error) bool { return target == ErrMissingKey }

// NoColumnsError is returned when a write would touch no columns.
type NoColumnsError struct {
	Entity    string
	Operation string
}

func (e *NoColumnsError) Error() string {
	return fmt.Sprintf("pulseorm: %s on %s has no columns to write", e.Operation, e.Entity)
}

// Is reports whether target is ErrNoColumns.
func (e *NoColumnsError) Is(target error) bool { return target == ErrNoColumns }

// ArgumentError reports an out-of-range caller argument such as a page
// number below one.
type ArgumentError struct {
	Name   string
	Value  any
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("pulseorm: invalid %s (%v): %s", e.Name, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidArgument.
func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// NotSingularError is returned by single-row helpers when more than one row
// matched.
type NotSingularError struct {
	Entity string
	Count  int
}

func (e *NotSingularError) Error() string {
	return fmt.Sprintf("pulseorm: %s not singular (got %d rows)", e.Entity, e.Count)
}

// Is reports whether target is ErrNotSingular.
func (e *NotSingularError) Is(target error) bool { return target == ErrNotSingular }

// NotFoundError is returned by lookup helpers that require a row.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("pulseorm: %s not found (id=%v)", e.Entity, e.ID)
	}
	return fmt.Sprintf("pulseorm: %s not found", e.Entity)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IsMapping reports whether err is a MappingError.
func IsMapping(err error) bool { return errors.Is(err, ErrMapping) }

// IsUnmappedMember reports whether err is an UnmappedMemberError.
func IsUnmappedMember(err error) bool { return errors.Is(err, ErrUnmappedMember) }

// IsUnsupportedExpression reports whether err is an UnsupportedExpressionError.
func IsUnsupportedExpression(err error) bool { return errors.Is(err, ErrUnsupportedExpression) }

// IsMissingKey reports whether err is a MissingKeyError.
func IsMissingKey(err error) bool { return errors.Is(err, ErrMissingKey) }

// IsNoColumns reports whether err is a NoColumnsError.
func IsNoColumns(err error) bool { return errors.Is(err, ErrNoColumns) }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsNotSingular reports whether err is a NotSingularError.
func IsNotSingular(err error) bool { return errors.Is(err, ErrNotSingular) }

// IsValidationError reports whether err originates from query construction
// rather than storage.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range []error{ErrMapping, ErrUnmappedMember, ErrUnsupportedExpression, ErrMissingKey, ErrNoColumns, ErrInvalidArgument} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
