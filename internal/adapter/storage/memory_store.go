package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/port"
)

// MemoryStore is the in-process implementation of the inventory store. A
// single store-level RWMutex serializes every mutation, so readers only ever
// observe fully committed states and a multi-item transfer can never be seen
// half-applied. All data crossing the boundary is deep-copied.
type MemoryStore struct {
	mu        sync.RWMutex
	items     map[string]*domain.InventoryItem
	transfers []domain.TransferRecord
}

var (
	_ port.InventoryRepository = (*MemoryStore)(nil)
	_ port.TransferLog         = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*domain.InventoryItem),
	}
}

func (s *MemoryStore) CreateItem(ctx context.Context, item domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return &domain.ConflictError{Reason: "item already exists: " + item.ID}
	}
	// SKU uniqueness must hold under the writer lock; the service-level
	// lookup is only a fast path and races with concurrent creates.
	for _, existing := range s.items {
		if existing.SKU == item.SKU {
			return &domain.ValidationError{Field: "sku", Reason: "already exists: " + item.SKU}
		}
	}
	s.items[item.ID] = item.Clone()
	return nil
}

func (s *MemoryStore) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "item", Key: id}
	}
	return item.Clone(), nil
}

func (s *MemoryStore) GetItemBySKU(ctx context.Context, sku string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.SKU == sku {
			return item.Clone(), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, *item.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SKU < items[j].SKU
	})
	return items, nil
}

func (s *MemoryStore) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return &domain.NotFoundError{Kind: "item", Key: id}
	}
	delete(s.items, id)
	return nil
}

// Mutate runs fn against working copies of the named items under the writer
// lock. Copies replace the stored items, and the returned record is appended,
// only when fn succeeds; any error leaves the store untouched.
func (s *MemoryStore) Mutate(ctx context.Context, itemIDs []string, fn port.MutateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := make(map[string]*domain.InventoryItem, len(itemIDs))
	for _, id := range itemIDs {
		item, ok := s.items[id]
		if !ok {
			return &domain.NotFoundError{Kind: "item", Key: id}
		}
		working[id] = item.Clone()
	}

	record, err := fn(working)
	if err != nil {
		return err
	}

	for id, item := range working {
		s.items[id] = item
	}
	if record != nil {
		s.transfers = append(s.transfers, *cloneRecord(record))
	}
	return nil
}

func (s *MemoryStore) ListTransfers(ctx context.Context) ([]domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.TransferRecord, 0, len(s.transfers))
	for i := len(s.transfers) - 1; i >= 0; i-- {
		records = append(records, *cloneRecord(&s.transfers[i]))
	}
	return records, nil
}

func (s *MemoryStore) ListTransfersByLocation(ctx context.Context, location string) ([]domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.TransferRecord
	for i := len(s.transfers) - 1; i >= 0; i-- {
		if s.transfers[i].Touches(location) {
			records = append(records, *cloneRecord(&s.transfers[i]))
		}
	}
	return records, nil
}

func cloneRecord(r *domain.TransferRecord) *domain.TransferRecord {
	cp := *r
	cp.Items = make([]domain.TransferItem, len(r.Items))
	copy(cp.Items, r.Items)
	return &cp
}
