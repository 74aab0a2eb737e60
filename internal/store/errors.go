package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a write collides with existing state: a unique
	// key already taken, a stale version, or a row still referenced elsewhere.
	ErrConflict = errors.New("conflict")

	ErrSupplierNotFound = fmt.Errorf("%w: supplier", ErrNotFound)
	ErrContractNotFound = fmt.Errorf("%w: contract", ErrNotFound)
	ErrLineItemNotFound = fmt.Errorf("%w: line item", ErrNotFound)
	ErrBudgetNotFound   = fmt.Errorf("%w: budget", ErrNotFound)
	ErrExpenseNotFound  = fmt.Errorf("%w: expense", ErrNotFound)
	ErrEmployeeNotFound = fmt.Errorf("%w: employee", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)

	ErrSupplierExists  = fmt.Errorf("%w: supplier name already exists", ErrConflict)
	ErrBudgetExists    = fmt.Errorf("%w: budget name already exists for year", ErrConflict)
	ErrEmailExists     = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrVersionMismatch = fmt.Errorf("%w: record was modified concurrently", ErrConflict)
	ErrInUse           = fmt.Errorf("%w: record is still referenced", ErrConflict)
)

// IsNotFound reports whether err is any kind of "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is any kind of conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
