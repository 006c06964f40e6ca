package embedrecord

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry construction.
var (
	// ErrUnknownAttribute indicates a record used an attribute that was never declared.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrReservedAttribute indicates a record passed "id" as a plain attribute.
	ErrReservedAttribute = errors.New("attribute id is reserved")

	// ErrEmptyAttribute indicates Declare was called with an empty name.
	ErrEmptyAttribute = errors.New("attribute name cannot be empty")

	// ErrSchemaClosed indicates Declare was called after the first record was created.
	ErrSchemaClosed = errors.New("attributes must be declared before records")

	// ErrDuplicateID indicates a second record was created with an existing id.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrDuplicateNull indicates a second null record was created.
	ErrDuplicateNull = errors.New("null record already defined")

	// ErrIDTypeMismatch indicates a record id kind differs from the registry's id kind.
	ErrIDTypeMismatch = errors.New("record id type mismatch")

	// ErrCapacityExceeded indicates a registry holds more records than its encoding allows.
	ErrCapacityExceeded = errors.New("registry capacity exceeded")

	// ErrSealed indicates an attempt to modify a sealed registry.
	ErrSealed = errors.New("registry is sealed")

	// ErrUnsupportedID indicates a Go value that cannot be used as a record id.
	ErrUnsupportedID = errors.New("unsupported id value")
)

// Sentinel errors for relations.
var (
	// ErrNotFound indicates no record matches an identifier.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTarget indicates a relation was bound to something that is not a registry.
	ErrInvalidTarget = errors.New("invalid relation target")

	// ErrRelationName indicates a relation was bound without a name.
	ErrRelationName = errors.New("relation name is required")
)

// UnknownAttributeError reports the registry and attribute of a bad record definition.
type UnknownAttributeError struct {
	// Registry is the name of the registry being populated.
	Registry string
	// Attribute is the undeclared attribute name.
	Attribute string
}

// Error implements the error interface.
func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("registry %s: attribute %q not found", e.Registry, e.Attribute)
}

// Unwrap returns ErrUnknownAttribute for errors.Is support.
func (e *UnknownAttributeError) Unwrap() error {
	return ErrUnknownAttribute
}

// NotFoundError reports an identifier with no matching record.
type NotFoundError struct {
	// Registry is the name of the registry that was searched.
	Registry string
	// ID is the identifier after coercion to the registry's id kind.
	ID ID
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("registry %s: record %s not found", e.Registry, e.ID)
}

// Unwrap returns ErrNotFound for errors.Is support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidTargetError reports a relation bound to a value that is not a usable registry.
type InvalidTargetError struct {
	// Relation is the relation being bound.
	Relation string
	// Target is the Go type of the rejected target.
	Target string
	// Reason describes what is missing.
	Reason string
}

// Error implements the error interface.
func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("relation %s: invalid target %s: %s", e.Relation, e.Target, e.Reason)
}

// Unwrap returns ErrInvalidTarget for errors.Is support.
func (e *InvalidTargetError) Unwrap() error {
	return ErrInvalidTarget
}

// DuplicateIDError reports a record id that is already registered.
type DuplicateIDError struct {
	Registry string
	ID       ID
}

// Error implements the error interface.
func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("registry %s: record %s already defined", e.Registry, e.ID)
}

// Unwrap returns ErrDuplicateID for errors.Is support.
func (e *DuplicateIDError) Unwrap() error {
	return ErrDuplicateID
}

// IDTypeError reports a record id whose kind differs from the registry's.
type IDTypeError struct {
	Registry string
	Want     Kind
	Got      Kind
}

// Error implements the error interface.
func (e *IDTypeError) Error() string {
	return fmt.Sprintf("registry %s: id type %s does not match %s", e.Registry, e.Got, e.Want)
}

// Unwrap returns ErrIDTypeMismatch for errors.Is support.
func (e *IDTypeError) Unwrap() error {
	return ErrIDTypeMismatch
}

// CapacityError reports a registry that outgrew the positions its encoding can hold.
type CapacityError struct {
	// Registry is the registry that overflowed.
	Registry string
	// Capacity is the maximum number of non-null records.
	Capacity int
	// Size is the number of records present or requested.
	Size int
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("registry %s: %d records exceed capacity %d", e.Registry, e.Size, e.Capacity)
}

// Unwrap returns ErrCapacityExceeded for errors.Is support.
func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}
