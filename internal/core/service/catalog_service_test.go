package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fieldstack/fleetstock/internal/core/domain"
)

func TestAddItem_Success(t *testing.T) {
	store := newTestStore()
	svc := NewCatalogService(store, nil)

	item, err := svc.AddItem(context.Background(), ItemSpec{
		SKU:             "CAP-440",
		Name:            "Run Capacitor 440V",
		Category:        "electrical",
		UnitPrice:       decimal.RequireFromString("12.50"),
		MinStock:        5,
		InitialQuantity: 20,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	if item.ID == "" {
		t.Error("expected generated id")
	}
	if item.WarehouseQuantity != 20 {
		t.Errorf("warehouse quantity = %d, want 20", item.WarehouseQuantity)
	}
	if len(item.MobileAllocations) != 0 {
		t.Errorf("new item must have no allocations, got %+v", item.MobileAllocations)
	}
}

func TestAddItem_Validation(t *testing.T) {
	store := newTestStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		spec ItemSpec
	}{
		{"empty sku", ItemSpec{Name: "x"}},
		{"empty name", ItemSpec{SKU: "X-1"}},
		{"negative price", ItemSpec{SKU: "X-1", Name: "x", UnitPrice: decimal.NewFromInt(-1)}},
		{"negative min stock", ItemSpec{SKU: "X-1", Name: "x", MinStock: -1}},
		{"negative initial quantity", ItemSpec{SKU: "X-1", Name: "x", InitialQuantity: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, tc.spec)
			var validation *domain.ValidationError
			if !errors.As(err, &validation) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestAddItem_DuplicateSKU(t *testing.T) {
	store := newTestStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, ItemSpec{SKU: "CAP-440", Name: "Capacitor"}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := svc.AddItem(ctx, ItemSpec{SKU: "CAP-440", Name: "Another"})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for duplicate sku, got %v", err)
	}
}

func TestAddItem_ConcurrentSameSKU(t *testing.T) {
	store := newTestStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	// All goroutines released at once so every one of them passes the
	// service-level lookup before any create lands.
	start := make(chan struct{})
	var created atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := svc.AddItem(ctx, ItemSpec{SKU: "DUP-1", Name: "Part"}); err == nil {
				created.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("%d creates succeeded for one sku, want 1", created.Load())
	}
	items, _ := store.ListItems(ctx)
	count := 0
	for _, it := range items {
		if it.SKU == "DUP-1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("%d items persisted with sku DUP-1, want 1", count)
	}
}

func TestUpdateItem_PartialMerge(t *testing.T) {
	store := newTestStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	item, _ := svc.AddItem(ctx, ItemSpec{SKU: "CAP-440", Name: "Capacitor", MinStock: 5, InitialQuantity: 10})

	name := "Run Capacitor"
	minStock := 8
	updated, err := svc.UpdateItem(ctx, item.ID, ItemPatch{Name: &name, MinStock: &minStock})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != "Run Capacitor" || updated.MinStock != 8 {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.SKU != "CAP-440" || updated.WarehouseQuantity != 10 {
		t.Errorf("untouched fields changed: %+v", updated)
	}
}

func TestUpdateItem_AdministrativeQuantityOverride(t *testing.T) {
	store := newTestStore()
	svc := NewCatalogService(store, nil)
	ctx := context.Background()

	item, _ := svc.AddItem(ctx, ItemSpec{SKU: "CAP-440", Name: "Capacitor", InitialQuantity: 10})

	qty := 3
	updated, err := svc.UpdateItem(ctx, item.ID, ItemPatch{WarehouseQuantity: &qty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.WarehouseQuantity != 3 {
		t.Errorf("override not applied: %d", updated.WarehouseQuantity)
	}
}

func TestUpdateItem_NotFound(t *testing.T) {
	store := newTestStore()
	svc := NewCatalogService(store, nil)

	_, err := svc.UpdateItem(context.Background(), "missing", ItemPatch{})
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteItem_BlockedWhileAllocated(t *testing.T) {
	store := newTestStore()
	catalog := NewCatalogService(store, nil)
	transfers := NewTransferService(store, store, newStubUnits("U1"), nil, nil, 8)
	ctx := context.Background()

	item, _ := catalog.AddItem(ctx, ItemSpec{SKU: "CAP-440", Name: "Capacitor", InitialQuantity: 10})
	_, err := transfers.Transfer(ctx, domain.TransferRequest{
		Source:      domain.LocationWarehouse,
		Destination: "U1",
		Items:       []domain.TransferLine{{ItemID: item.ID, Quantity: 4, InvoiceNumber: "INV-1"}},
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	err = catalog.DeleteItem(ctx, item.ID)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	// Repatriate, then deletion is allowed.
	_, err = transfers.Transfer(ctx, domain.TransferRequest{
		Source:      "U1",
		Destination: domain.LocationWarehouse,
		Items:       []domain.TransferLine{{ItemID: item.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("repatriation: %v", err)
	}
	if err := catalog.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("delete after repatriation: %v", err)
	}
}
