package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LocationWarehouse is the reserved identifier for the central warehouse.
// Every other location identifier must name a known MobileUnit.
const LocationWarehouse = "warehouse"

// Lot is a batch of one item sitting on a specific mobile unit, tagged with
// the receiving invoice that tracked its movement there. An empty invoice
// number means the batch was moved without one.
type Lot struct {
	UnitID        string `json:"unitId"`
	Quantity      int    `json:"quantity"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
}

// InventoryItem is a stock-keeping item with its quantity split between the
// warehouse and per-unit lots. MobileAllocations is kept in lot-creation
// order; transfers drawing from a unit consume lots front-first.
type InventoryItem struct {
	ID                string          `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	MinStock          int             `json:"minStock"`
	WarehouseQuantity int             `json:"warehouseQuantity"`
	MobileAllocations []Lot           `json:"mobileAllocations"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// TotalQuantity is warehouse stock plus everything deployed on units.
func (it *InventoryItem) TotalQuantity() int {
	total := it.WarehouseQuantity
	for _, lot := range it.MobileAllocations {
		total += lot.Quantity
	}
	return total
}

// QuantityAt returns the stock held at a location: the warehouse figure for
// the warehouse sentinel, otherwise the summed lots on that unit across
// invoices.
func (it *InventoryItem) QuantityAt(location string) int {
	if location == LocationWarehouse {
		return it.WarehouseQuantity
	}
	total := 0
	for _, lot := range it.MobileAllocations {
		if lot.UnitID == location {
			total += lot.Quantity
		}
	}
	return total
}

// LotsAt returns the lots held on one unit, ordered by invoice number for
// display.
func (it *InventoryItem) LotsAt(unitID string) []Lot {
	var lots []Lot
	for _, lot := range it.MobileAllocations {
		if lot.UnitID == unitID {
			lots = append(lots, lot)
		}
	}
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].InvoiceNumber < lots[j].InvoiceNumber
	})
	return lots
}

// Clone returns a deep copy safe to hand across the store boundary.
func (it *InventoryItem) Clone() *InventoryItem {
	cp := *it
	cp.MobileAllocations = make([]Lot, len(it.MobileAllocations))
	copy(cp.MobileAllocations, it.MobileAllocations)
	return &cp
}

// AddLot merges quantity into the lot matching (unitID, invoiceNumber), or
// appends a new lot when none exists. At most one lot per composite key.
func (it *InventoryItem) AddLot(unitID, invoiceNumber string, quantity int) {
	for i := range it.MobileAllocations {
		lot := &it.MobileAllocations[i]
		if lot.UnitID == unitID && lot.InvoiceNumber == invoiceNumber {
			lot.Quantity += quantity
			return
		}
	}
	it.MobileAllocations = append(it.MobileAllocations, Lot{
		UnitID:        unitID,
		Quantity:      quantity,
		InvoiceNumber: invoiceNumber,
	})
}

// DrainUnit removes quantity from a unit's lots in lot-creation order (oldest
// lot first), deleting any lot that reaches zero. The draw is location-level:
// it crosses invoice boundaries when a single lot cannot cover the request.
func (it *InventoryItem) DrainUnit(unitID string, quantity int) error {
	available := it.QuantityAt(unitID)
	if available < quantity {
		return &InsufficientStockError{
			ItemID:    it.ID,
			Location:  unitID,
			Requested: quantity,
			Available: available,
		}
	}

	remaining := quantity
	kept := it.MobileAllocations[:0]
	for _, lot := range it.MobileAllocations {
		if remaining > 0 && lot.UnitID == unitID {
			take := lot.Quantity
			if take > remaining {
				take = remaining
			}
			lot.Quantity -= take
			remaining -= take
		}
		if lot.Quantity > 0 {
			kept = append(kept, lot)
		}
	}
	it.MobileAllocations = kept
	return nil
}

// ConsumeLot removes quantity from the lot matching (unitID, invoiceNumber);
// an empty invoice number targets the unit's first lot. Requesting at least
// the lot's quantity deletes the lot outright. Returns whether the removal
// was full and the quantity left in the lot afterwards.
func (it *InventoryItem) ConsumeLot(unitID, invoiceNumber string, quantity int) (full bool, remaining int, err error) {
	idx := -1
	for i, lot := range it.MobileAllocations {
		if lot.UnitID != unitID {
			continue
		}
		if invoiceNumber == "" || lot.InvoiceNumber == invoiceNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, 0, &NotFoundError{Kind: "lot", Key: unitID + "/" + invoiceNumber}
	}

	lot := &it.MobileAllocations[idx]
	if quantity >= lot.Quantity {
		it.MobileAllocations = append(it.MobileAllocations[:idx], it.MobileAllocations[idx+1:]...)
		return true, 0, nil
	}
	lot.Quantity -= quantity
	return false, lot.Quantity, nil
}
