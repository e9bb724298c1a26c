package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/port"
)

// IsLowStock reports whether warehouse stock has fallen below the item's
// reorder threshold. Deployed mobile stock is deliberately excluded:
// reordering decisions run against the warehouse only.
func IsLowStock(item *domain.InventoryItem) bool {
	return item.WarehouseQuantity < item.MinStock
}

func IsOutOfStock(item *domain.InventoryItem) bool {
	return item.WarehouseQuantity == 0
}

// AlertSummary carries the dashboard badge aggregates for one evaluation.
// It is recomputed on demand and never cached across calls.
type AlertSummary struct {
	LowStockCount   int             `json:"lowStockCount"`
	OutOfStockCount int             `json:"outOfStockCount"`
	TotalValuation  decimal.Decimal `json:"totalValuation"`
}

// AlertService is a pure read-side projector over the current ledger state.
type AlertService struct {
	repo port.InventoryRepository
}

func NewAlertService(repo port.InventoryRepository) *AlertService {
	return &AlertService{repo: repo}
}

func (s *AlertService) Summary(ctx context.Context) (*AlertSummary, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	summary := &AlertSummary{TotalValuation: decimal.Zero}
	for i := range items {
		item := &items[i]
		if IsLowStock(item) {
			summary.LowStockCount++
		}
		if IsOutOfStock(item) {
			summary.OutOfStockCount++
		}
		value := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.WarehouseQuantity)))
		summary.TotalValuation = summary.TotalValuation.Add(value)
	}
	return summary, nil
}
