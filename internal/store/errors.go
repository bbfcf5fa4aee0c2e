package store

import "fmt"

// ValidationError reports a field value violating a local constraint (range,
// enum membership, required-ness). The caller fixes the input; retrying the
// same request cannot succeed.
type ValidationError struct {
	Entity string
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s (got %v)", e.Entity, e.Field, e.Reason, e.Value)
}

// UniquenessError reports a proposed value colliding with an existing unique
// key.
type UniquenessError struct {
	Entity string
	Field  string
	Value  interface{}
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("%s.%s already taken: %v", e.Entity, e.Field, e.Value)
}

// ReferenceError reports a foreign reference that does not resolve to an
// existing row.
type ReferenceError struct {
	Entity string // entity holding the dangling reference
	Field  string
	Target string // referenced entity
	ID     int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s.%s: no %s with id %d", e.Entity, e.Field, e.Target, e.ID)
}

// RestrictedDeleteError reports a delete blocked because dependent rows exist
// and the relationship policy is restrict. The caller must remove or
// reassign the dependents first.
type RestrictedDeleteError struct {
	Entity    string
	ID        int64
	Dependent string // entity still referencing the row
}

func (e *RestrictedDeleteError) Error() string {
	return fmt.Sprintf("cannot delete %s %d: %s rows still reference it", e.Entity, e.ID, e.Dependent)
}

// NotFoundError reports that the targeted row does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConflictError reports interference from a concurrent transaction. It is
// transient: the caller is expected to retry.
type ConflictError struct {
	Op  string
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: transaction conflict, retry: %v", e.Op, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }
