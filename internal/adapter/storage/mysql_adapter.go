package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/port"
)

// MySQLAdapter is the durable inventory store. Expected schema:
//
//	CREATE TABLE items (
//	    id            VARCHAR(36)   PRIMARY KEY,
//	    sku           VARCHAR(64)   NOT NULL UNIQUE,
//	    name          VARCHAR(255)  NOT NULL,
//	    category      VARCHAR(64)   NOT NULL DEFAULT '',
//	    unit_price    DECIMAL(12,2) NOT NULL DEFAULT 0,
//	    min_stock     INT           NOT NULL DEFAULT 0,
//	    warehouse_qty INT           NOT NULL DEFAULT 0,
//	    created_at    DATETIME      NOT NULL,
//	    updated_at    DATETIME      NOT NULL
//	);
//	CREATE TABLE lots (
//	    item_id        VARCHAR(36) NOT NULL,
//	    unit_id        VARCHAR(64) NOT NULL,
//	    invoice_number VARCHAR(64) NOT NULL DEFAULT '',
//	    quantity       INT         NOT NULL,
//	    position       INT         NOT NULL,
//	    PRIMARY KEY (item_id, unit_id, invoice_number)
//	);
//	CREATE TABLE transfers (
//	    id           VARCHAR(36)  PRIMARY KEY,
//	    ts           DATETIME(6)  NOT NULL,
//	    source       VARCHAR(64)  NOT NULL,
//	    destination  VARCHAR(64)  NOT NULL,
//	    performed_by VARCHAR(128) NOT NULL DEFAULT ''
//	);
//	CREATE TABLE transfer_items (
//	    transfer_id    VARCHAR(36)  NOT NULL,
//	    item_id        VARCHAR(36)  NOT NULL,
//	    item_name      VARCHAR(255) NOT NULL,
//	    quantity       INT          NOT NULL,
//	    invoice_number VARCHAR(64)  NOT NULL DEFAULT ''
//	);
//
// The lots position column preserves lot-creation order, which transfers
// rely on for the oldest-first draw.
type MySQLAdapter struct {
	db *sql.DB
}

var (
	_ port.InventoryRepository = (*MySQLAdapter)(nil)
	_ port.TransferLog         = (*MySQLAdapter)(nil)
)

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, item domain.InventoryItem) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO items (id, sku, name, category, unit_price, min_stock, warehouse_qty, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.SKU, item.Name, item.Category, item.UnitPrice.String(),
		item.MinStock, item.WarehouseQuantity, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		// The sku UNIQUE index backs the same invariant the memory store
		// enforces under its writer lock.
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return &domain.ValidationError{Field: "sku", Reason: "already exists: " + item.SKU}
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	item, err := m.scanItem(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &domain.NotFoundError{Kind: "item", Key: id}
	}
	return item, nil
}

func (m *MySQLAdapter) GetItemBySKU(ctx context.Context, sku string) (*domain.InventoryItem, error) {
	return m.scanItem(ctx, `WHERE sku = ?`, sku)
}

func (m *MySQLAdapter) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, sku, name, category, unit_price, min_stock, warehouse_qty, created_at, updated_at
		FROM items ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	index := make(map[string]int)
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, err
		}
		index[item.ID] = len(items)
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	lotRows, err := m.db.QueryContext(ctx, `
		SELECT item_id, unit_id, invoice_number, quantity
		FROM lots ORDER BY item_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query lots: %w", err)
	}
	defer lotRows.Close()

	for lotRows.Next() {
		var itemID string
		var lot domain.Lot
		if err := lotRows.Scan(&itemID, &lot.UnitID, &lot.InvoiceNumber, &lot.Quantity); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].MobileAllocations = append(items[i].MobileAllocations, lot)
		}
	}
	if err := lotRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lots: %w", err)
	}
	return items, nil
}

func (m *MySQLAdapter) DeleteItem(ctx context.Context, id string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lots WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("delete lots: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &domain.NotFoundError{Kind: "item", Key: id}
	}
	return tx.Commit()
}

// Mutate wraps the whole decrement/increment/record-append triple in one
// database transaction. Item rows are locked FOR UPDATE in sorted-id order
// so concurrent multi-item transfers cannot deadlock.
func (m *MySQLAdapter) Mutate(ctx context.Context, itemIDs []string, fn port.MutateFunc) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sorted := make([]string, len(itemIDs))
	copy(sorted, itemIDs)
	sort.Strings(sorted)

	working := make(map[string]*domain.InventoryItem, len(sorted))
	for _, id := range sorted {
		item, err := scanItemForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		working[id] = item
	}

	record, err := fn(working)
	if err != nil {
		return err
	}

	for id, item := range working {
		_, err := tx.ExecContext(ctx, `
			UPDATE items
			SET name = ?, category = ?, unit_price = ?, min_stock = ?, warehouse_qty = ?, updated_at = ?
			WHERE id = ?`,
			item.Name, item.Category, item.UnitPrice.String(), item.MinStock,
			item.WarehouseQuantity, item.UpdatedAt, id,
		)
		if err != nil {
			return fmt.Errorf("update item %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM lots WHERE item_id = ?`, id); err != nil {
			return fmt.Errorf("clear lots for %s: %w", id, err)
		}
		for pos, lot := range item.MobileAllocations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO lots (item_id, unit_id, invoice_number, quantity, position)
				VALUES (?, ?, ?, ?, ?)`,
				id, lot.UnitID, lot.InvoiceNumber, lot.Quantity, pos,
			)
			if err != nil {
				return fmt.Errorf("insert lot for %s: %w", id, err)
			}
		}
	}

	if record != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transfers (id, ts, source, destination, performed_by)
			VALUES (?, ?, ?, ?, ?)`,
			record.ID, record.Timestamp, record.Source, record.Destination, record.PerformedBy,
		)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		for _, line := range record.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transfer_items (transfer_id, item_id, item_name, quantity, invoice_number)
				VALUES (?, ?, ?, ?, ?)`,
				record.ID, line.ItemID, line.ItemName, line.Quantity, line.InvoiceNumber,
			)
			if err != nil {
				return fmt.Errorf("insert transfer item: %w", err)
			}
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListTransfers(ctx context.Context) ([]domain.TransferRecord, error) {
	return m.listTransfers(ctx, `ORDER BY ts DESC, id`)
}

func (m *MySQLAdapter) ListTransfersByLocation(ctx context.Context, location string) ([]domain.TransferRecord, error) {
	return m.listTransfers(ctx, `WHERE source = ? OR destination = ? ORDER BY ts DESC, id`, location, location)
}

func (m *MySQLAdapter) listTransfers(ctx context.Context, clause string, args ...any) ([]domain.TransferRecord, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, ts, source, destination, performed_by FROM transfers `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var records []domain.TransferRecord
	index := make(map[string]int)
	for rows.Next() {
		var r domain.TransferRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Source, &r.Destination, &r.PerformedBy); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		index[r.ID] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	itemRows, err := m.db.QueryContext(ctx,
		`SELECT transfer_id, item_id, item_name, quantity, invoice_number FROM transfer_items`)
	if err != nil {
		return nil, fmt.Errorf("query transfer items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var transferID string
		var line domain.TransferItem
		if err := itemRows.Scan(&transferID, &line.ItemID, &line.ItemName, &line.Quantity, &line.InvoiceNumber); err != nil {
			return nil, fmt.Errorf("scan transfer item: %w", err)
		}
		if i, ok := index[transferID]; ok {
			records[i].Items = append(records[i].Items, line)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer items: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItemRow(row rowScanner) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	var price string
	err := row.Scan(&item.ID, &item.SKU, &item.Name, &item.Category, &price,
		&item.MinStock, &item.WarehouseQuantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.UnitPrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse unit price %q: %w", price, err)
	}
	return &item, nil
}

func (m *MySQLAdapter) scanItem(ctx context.Context, clause string, arg string) (*domain.InventoryItem, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT id, sku, name, category, unit_price, min_stock, warehouse_qty, created_at, updated_at
		FROM items `+clause, arg)
	item, err := scanItemRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}

	lots, err := loadLots(ctx, m.db.QueryContext, item.ID, "")
	if err != nil {
		return nil, err
	}
	item.MobileAllocations = lots
	return item, nil
}

func scanItemForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.InventoryItem, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, sku, name, category, unit_price, min_stock, warehouse_qty, created_at, updated_at
		FROM items WHERE id = ? FOR UPDATE`, id)
	item, err := scanItemRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "item", Key: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query item for update: %w", err)
	}

	lots, err := loadLots(ctx, tx.QueryContext, item.ID, " FOR UPDATE")
	if err != nil {
		return nil, err
	}
	item.MobileAllocations = lots
	return item, nil
}

type queryFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func loadLots(ctx context.Context, query queryFunc, itemID, suffix string) ([]domain.Lot, error) {
	rows, err := query(ctx, `
		SELECT unit_id, invoice_number, quantity
		FROM lots WHERE item_id = ? ORDER BY position`+suffix, itemID)
	if err != nil {
		return nil, fmt.Errorf("query lots: %w", err)
	}
	defer rows.Close()

	var lots []domain.Lot
	for rows.Next() {
		var lot domain.Lot
		if err := rows.Scan(&lot.UnitID, &lot.InvoiceNumber, &lot.Quantity); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lots: %w", err)
	}
	return lots, nil
}
