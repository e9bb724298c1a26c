package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/port"
)

// RemovalService consumes quantity from a unit's lot, e.g. parts installed
// on a job. Consumption leaves the warehouse untouched; it is not a transfer
// back.
type RemovalService struct {
	repo   port.InventoryRepository
	units  port.UnitDirectory
	logger *slog.Logger
}

func NewRemovalService(repo port.InventoryRepository, units port.UnitDirectory, logger *slog.Logger) *RemovalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemovalService{repo: repo, units: units, logger: logger}
}

func (s *RemovalService) RemoveFromUnit(ctx context.Context, req domain.RemovalRequest) (*domain.RemovalResult, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("item %s: %w", req.ItemID, domain.ErrInvalidQuantity)
	}
	if req.UnitID == "" || req.UnitID == domain.LocationWarehouse {
		return nil, &domain.ValidationError{Field: "unitId", Reason: "must name a mobile unit"}
	}
	if _, err := s.units.GetUnit(ctx, req.UnitID); err != nil {
		return nil, err
	}

	var result *domain.RemovalResult
	err := s.repo.Mutate(ctx, []string{req.ItemID}, func(items map[string]*domain.InventoryItem) (*domain.TransferRecord, error) {
		item := items[req.ItemID]
		before := item.QuantityAt(req.UnitID)

		full, remaining, err := item.ConsumeLot(req.UnitID, req.InvoiceNumber, req.Quantity)
		if err != nil {
			return nil, err
		}
		item.UpdatedAt = time.Now().UTC()

		result = &domain.RemovalResult{
			ItemID:        req.ItemID,
			UnitID:        req.UnitID,
			InvoiceNumber: req.InvoiceNumber,
			Removed:       before - item.QuantityAt(req.UnitID),
			Remaining:     remaining,
			FullyRemoved:  full,
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock removed from unit",
		slog.String("item", req.ItemID),
		slog.String("unit", req.UnitID),
		slog.Int("removed", result.Removed),
		slog.Bool("full", result.FullyRemoved))
	return result, nil
}
