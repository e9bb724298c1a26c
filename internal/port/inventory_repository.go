package port

import (
	"context"

	"github.com/fieldstack/fleetstock/internal/core/domain"
)

// MutateFunc receives working copies of the requested items keyed by id and
// applies a ledger mutation to them. Returning a non-nil TransferRecord asks
// the store to append it in the same atomic unit as the item updates.
// Returning an error discards every change.
type MutateFunc func(items map[string]*domain.InventoryItem) (*domain.TransferRecord, error)

type InventoryRepository interface {
	// CreateItem persists a new catalog item
	CreateItem(ctx context.Context, item domain.InventoryItem) error

	// GetItem retrieves an item by id, NotFoundError if absent
	GetItem(ctx context.Context, id string) (*domain.InventoryItem, error)

	// GetItemBySKU retrieves an item by its human-facing SKU, nil if absent
	GetItemBySKU(ctx context.Context, sku string) (*domain.InventoryItem, error)

	// ListItems returns a consistent snapshot of all items, ordered by SKU
	ListItems(ctx context.Context) ([]domain.InventoryItem, error)

	// DeleteItem removes an item by id
	DeleteItem(ctx context.Context, id string) error

	// Mutate runs fn against the named items and commits item changes plus
	// the returned transfer record atomically, or nothing on error
	Mutate(ctx context.Context, itemIDs []string, fn MutateFunc) error
}

type TransferLog interface {
	// ListTransfers returns all transfer records, newest first
	ListTransfers(ctx context.Context) ([]domain.TransferRecord, error)

	// ListTransfersByLocation filters records touching a location as source
	// or destination, newest first
	ListTransfersByLocation(ctx context.Context, location string) ([]domain.TransferRecord, error)
}
