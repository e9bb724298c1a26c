package port

import (
	"context"

	"github.com/fieldstack/fleetstock/internal/core/domain"
)

type UnitDirectory interface {
	// GetUnit retrieves a mobile unit by id, NotFoundError if unknown
	GetUnit(ctx context.Context, id string) (*domain.MobileUnit, error)

	// ListUnits returns all known mobile units
	ListUnits(ctx context.Context) ([]domain.MobileUnit, error)
}
