package service

import (
	"context"
	"sync"

	"github.com/fieldstack/fleetstock/internal/adapter/storage"
	"github.com/fieldstack/fleetstock/internal/core/domain"
)

// Shared test doubles. The in-memory store is the canonical repository
// implementation, so services are tested against it directly; only the
// reference-data and cache ports get mocks.

type stubUnitDirectory struct {
	units map[string]domain.MobileUnit
}

func newStubUnits(ids ...string) *stubUnitDirectory {
	d := &stubUnitDirectory{units: make(map[string]domain.MobileUnit)}
	for _, id := range ids {
		d.units[id] = domain.MobileUnit{
			ID:                id,
			DisplayName:       "Unit " + id,
			OperationalStatus: domain.UnitStatusActive,
		}
	}
	return d
}

func (d *stubUnitDirectory) GetUnit(ctx context.Context, id string) (*domain.MobileUnit, error) {
	unit, ok := d.units[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "unit", Key: id}
	}
	return &unit, nil
}

func (d *stubUnitDirectory) ListUnits(ctx context.Context) ([]domain.MobileUnit, error) {
	var units []domain.MobileUnit
	for _, u := range d.units {
		units = append(units, u)
	}
	return units, nil
}

type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	published      []domain.TransferRecord
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	return nil
}

func (m *mockCacheRepo) PublishTransfer(ctx context.Context, record domain.TransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, record)
	return nil
}

func newTestStore() *storage.MemoryStore {
	return storage.NewMemoryStore()
}
