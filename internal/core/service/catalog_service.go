package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/port"
)

// ItemSpec describes a new catalog item. InitialQuantity becomes the starting
// warehouse quantity; items are always born with no mobile allocations.
type ItemSpec struct {
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	MinStock        int             `json:"minStock"`
	InitialQuantity int             `json:"initialQuantity"`
}

// ItemPatch is a partial catalog update; nil fields are left unchanged.
// WarehouseQuantity is an administrative correction that bypasses the
// transfer path; reconciling it against in-flight transfers is the caller's
// responsibility.
type ItemPatch struct {
	Name              *string          `json:"name,omitempty"`
	Category          *string          `json:"category,omitempty"`
	UnitPrice         *decimal.Decimal `json:"unitPrice,omitempty"`
	MinStock          *int             `json:"minStock,omitempty"`
	WarehouseQuantity *int             `json:"warehouseQuantity,omitempty"`
}

type CatalogService struct {
	repo   port.InventoryRepository
	logger *slog.Logger
}

func NewCatalogService(repo port.InventoryRepository, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{repo: repo, logger: logger}
}

func (s *CatalogService) AddItem(ctx context.Context, spec ItemSpec) (*domain.InventoryItem, error) {
	if spec.SKU == "" {
		return nil, &domain.ValidationError{Field: "sku", Reason: "must not be empty"}
	}
	if spec.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if spec.UnitPrice.IsNegative() {
		return nil, &domain.ValidationError{Field: "unitPrice", Reason: "must not be negative"}
	}
	if spec.MinStock < 0 {
		return nil, &domain.ValidationError{Field: "minStock", Reason: "must not be negative"}
	}
	if spec.InitialQuantity < 0 {
		return nil, &domain.ValidationError{Field: "initialQuantity", Reason: "must not be negative"}
	}

	// Fast path only; the store re-checks under its write lock, which is
	// what actually guarantees uniqueness against concurrent creates.
	existing, err := s.repo.GetItemBySKU(ctx, spec.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ValidationError{Field: "sku", Reason: "already exists: " + spec.SKU}
	}

	now := time.Now().UTC()
	item := domain.InventoryItem{
		ID:                uuid.NewString(),
		SKU:               spec.SKU,
		Name:              spec.Name,
		Category:          spec.Category,
		UnitPrice:         spec.UnitPrice,
		MinStock:          spec.MinStock,
		WarehouseQuantity: spec.InitialQuantity,
		MobileAllocations: []domain.Lot{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("catalog item added", slog.String("id", item.ID), slog.String("sku", item.SKU))
	return &item, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*domain.InventoryItem, error) {
	if patch.UnitPrice != nil && patch.UnitPrice.IsNegative() {
		return nil, &domain.ValidationError{Field: "unitPrice", Reason: "must not be negative"}
	}
	if patch.MinStock != nil && *patch.MinStock < 0 {
		return nil, &domain.ValidationError{Field: "minStock", Reason: "must not be negative"}
	}
	if patch.WarehouseQuantity != nil && *patch.WarehouseQuantity < 0 {
		return nil, &domain.ValidationError{Field: "warehouseQuantity", Reason: "must not be negative"}
	}

	var updated *domain.InventoryItem
	err := s.repo.Mutate(ctx, []string{id}, func(items map[string]*domain.InventoryItem) (*domain.TransferRecord, error) {
		item := items[id]
		if patch.Name != nil {
			item.Name = *patch.Name
		}
		if patch.Category != nil {
			item.Category = *patch.Category
		}
		if patch.UnitPrice != nil {
			item.UnitPrice = *patch.UnitPrice
		}
		if patch.MinStock != nil {
			item.MinStock = *patch.MinStock
		}
		if patch.WarehouseQuantity != nil {
			s.logger.Warn("administrative warehouse quantity override",
				slog.String("id", id),
				slog.Int("from", item.WarehouseQuantity),
				slog.Int("to", *patch.WarehouseQuantity))
			item.WarehouseQuantity = *patch.WarehouseQuantity
		}
		item.UpdatedAt = time.Now().UTC()
		updated = item.Clone()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes a catalog item. Items with stock still deployed on
// units must be repatriated to the warehouse first; deleting them here would
// silently lose the deployed stock records.
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if len(item.MobileAllocations) > 0 {
		return &domain.ConflictError{
			Reason: "item has stock deployed on mobile units; transfer it back to the warehouse first",
		}
	}
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.logger.Info("catalog item deleted", slog.String("id", id), slog.String("sku", item.SKU))
	return nil
}

func (s *CatalogService) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *CatalogService) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.repo.ListItems(ctx)
}
