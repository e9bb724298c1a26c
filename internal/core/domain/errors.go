package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransfer rejects a transfer whose source and destination are
	// the same location.
	ErrInvalidTransfer = errors.New("source and destination locations are the same")

	// ErrInvalidQuantity rejects non-positive quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// ValidationError reports malformed or duplicate catalog input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown item, unit or lot.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// ConflictError blocks an operation that would lose state, such as deleting
// an item that still has stock deployed on units.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// InsufficientStockError reports a transfer line whose source location cannot
// cover the requested quantity.
type InsufficientStockError struct {
	ItemID    string
	Location  string
	Requested int
	Available int
}

// Shortfall is how many units the source is short by.
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s at %s: requested %d, available %d (short %d)",
		e.ItemID, e.Location, e.Requested, e.Available, e.Shortfall())
}
