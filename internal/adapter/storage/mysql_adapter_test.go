package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstack/fleetstock/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/fleetstock?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return db
}

func mysqlTestItem(t *testing.T, adapter *MySQLAdapter) domain.InventoryItem {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	item := domain.InventoryItem{
		ID:                "test-" + uuid.NewString(),
		SKU:               "TEST-" + uuid.NewString()[:8],
		Name:              "Test Part",
		Category:          "test",
		UnitPrice:         decimal.RequireFromString("12.50"),
		MinStock:          5,
		WarehouseQuantity: 10,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := adapter.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("create item: %v", err)
	}
	t.Cleanup(func() {
		adapter.DeleteItem(context.Background(), item.ID)
	})
	return item
}

func TestMySQL_CreateAndGetItem(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	item := mysqlTestItem(t, adapter)

	got, err := adapter.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.SKU != item.SKU || got.WarehouseQuantity != 10 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.UnitPrice.Equal(item.UnitPrice) {
		t.Errorf("unit price = %s, want %s", got.UnitPrice, item.UnitPrice)
	}

	bySKU, err := adapter.GetItemBySKU(ctx, item.SKU)
	if err != nil || bySKU == nil || bySKU.ID != item.ID {
		t.Errorf("get by sku: %v %+v", err, bySKU)
	}

	missing, err := adapter.GetItemBySKU(ctx, "NO-SUCH-SKU")
	if err != nil || missing != nil {
		t.Errorf("expected nil,nil for unknown sku, got %v %+v", err, missing)
	}

	_, err = adapter.GetItem(ctx, "no-such-id")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestMySQL_CreateDuplicateSKU(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	item := mysqlTestItem(t, adapter)

	dup := item
	dup.ID = "test-" + uuid.NewString()
	err := adapter.CreateItem(ctx, dup)
	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Field != "sku" {
		t.Errorf("expected sku ValidationError from unique index, got %v", err)
	}
}

func TestMySQL_MutateTransferRoundTrip(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	item := mysqlTestItem(t, adapter)
	recordID := "test-" + uuid.NewString()
	t.Cleanup(func() {
		db.ExecContext(ctx, `DELETE FROM transfer_items WHERE transfer_id = ?`, recordID)
		db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, recordID)
	})

	err := adapter.Mutate(ctx, []string{item.ID}, func(items map[string]*domain.InventoryItem) (*domain.TransferRecord, error) {
		it := items[item.ID]
		it.WarehouseQuantity -= 6
		it.AddLot("U1", "INV-1", 6)
		it.UpdatedAt = time.Now().UTC()
		return &domain.TransferRecord{
			ID:          recordID,
			Timestamp:   time.Now().UTC(),
			Source:      domain.LocationWarehouse,
			Destination: "U1",
			Items:       []domain.TransferItem{{ItemID: it.ID, ItemName: it.Name, Quantity: 6, InvoiceNumber: "INV-1"}},
			PerformedBy: "tester",
		}, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	got, err := adapter.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.WarehouseQuantity != 4 || got.QuantityAt("U1") != 6 {
		t.Errorf("transfer not persisted: warehouse=%d U1=%d", got.WarehouseQuantity, got.QuantityAt("U1"))
	}

	records, err := adapter.ListTransfersByLocation(ctx, "U1")
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	found := false
	for _, r := range records {
		if r.ID == recordID {
			found = true
			if len(r.Items) != 1 || r.Items[0].Quantity != 6 {
				t.Errorf("record items = %+v", r.Items)
			}
		}
	}
	if !found {
		t.Errorf("record %s not in history", recordID)
	}
}

func TestMySQL_MutateErrorRollsBack(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	item := mysqlTestItem(t, adapter)

	boom := errors.New("boom")
	err := adapter.Mutate(ctx, []string{item.ID}, func(items map[string]*domain.InventoryItem) (*domain.TransferRecord, error) {
		items[item.ID].WarehouseQuantity = 0
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := adapter.GetItem(ctx, item.ID)
	if got.WarehouseQuantity != 10 {
		t.Errorf("rollback failed: warehouse=%d", got.WarehouseQuantity)
	}
}

func TestMySQL_LotOrderSurvivesRoundTrip(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	item := mysqlTestItem(t, adapter)

	err := adapter.Mutate(ctx, []string{item.ID}, func(items map[string]*domain.InventoryItem) (*domain.TransferRecord, error) {
		it := items[item.ID]
		it.AddLot("U1", "INV-2", 2)
		it.AddLot("U1", "INV-1", 3)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	got, _ := adapter.GetItem(ctx, item.ID)
	// Creation order, not invoice order: INV-2 was added first and must be
	// drained first.
	if len(got.MobileAllocations) != 2 || got.MobileAllocations[0].InvoiceNumber != "INV-2" {
		t.Errorf("lot order lost: %+v", got.MobileAllocations)
	}
}
