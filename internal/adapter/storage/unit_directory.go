package storage

import (
	"context"
	"sort"

	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/port"
)

// StaticUnitDirectory serves the mobile-unit fleet as read-only reference
// data, loaded once at startup from configuration. The engine validates
// location identifiers against it but never writes to it.
type StaticUnitDirectory struct {
	units map[string]domain.MobileUnit
}

var _ port.UnitDirectory = (*StaticUnitDirectory)(nil)

func NewStaticUnitDirectory(units []domain.MobileUnit) *StaticUnitDirectory {
	d := &StaticUnitDirectory{units: make(map[string]domain.MobileUnit, len(units))}
	for _, u := range units {
		d.units[u.ID] = u
	}
	return d
}

func (d *StaticUnitDirectory) GetUnit(ctx context.Context, id string) (*domain.MobileUnit, error) {
	unit, ok := d.units[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "unit", Key: id}
	}
	return &unit, nil
}

func (d *StaticUnitDirectory) ListUnits(ctx context.Context) ([]domain.MobileUnit, error) {
	units := make([]domain.MobileUnit, 0, len(d.units))
	for _, u := range d.units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].ID < units[j].ID
	})
	return units, nil
}
