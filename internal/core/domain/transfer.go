package domain

import "time"

// TransferLine is one item's worth of a transfer request.
type TransferLine struct {
	ItemID        string `json:"itemId"`
	Quantity      int    `json:"quantity"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
}

// TransferRequest moves quantities of one or more items between two
// locations. RequestID is an optional caller-supplied idempotency key.
type TransferRequest struct {
	RequestID   string         `json:"requestId,omitempty"`
	Source      string         `json:"sourceLocation"`
	Destination string         `json:"destinationLocation"`
	Items       []TransferLine `json:"items"`
	Actor       string         `json:"performedBy"`
}

// TransferItem is one line of a committed transfer record.
type TransferItem struct {
	ItemID        string `json:"itemId"`
	ItemName      string `json:"itemName"`
	Quantity      int    `json:"quantity"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
}

// TransferRecord is the append-only audit entry for one executed transfer.
// Records are immutable once created and are the sole source of transfer
// history.
type TransferRecord struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Source      string         `json:"sourceLocation"`
	Destination string         `json:"destinationLocation"`
	Items       []TransferItem `json:"items"`
	PerformedBy string         `json:"performedBy"`
}

// Touches reports whether the record involves a location, as source or
// destination. Used for per-unit history views.
func (r *TransferRecord) Touches(location string) bool {
	return r.Source == location || r.Destination == location
}

// RemovalRequest consumes quantity from a unit's lot, e.g. parts installed
// on a job. This is not a transfer back to the warehouse. An empty invoice
// number targets the unit's first lot for the item.
type RemovalRequest struct {
	ItemID        string `json:"itemId"`
	UnitID        string `json:"unitId"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Quantity      int    `json:"quantity"`
	Actor         string `json:"performedBy"`
}

// RemovalResult reports whether a removal consumed the whole lot and what
// remains in it afterwards (0 when fully removed).
type RemovalResult struct {
	ItemID        string `json:"itemId"`
	UnitID        string `json:"unitId"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Removed       int    `json:"removed"`
	Remaining     int    `json:"remaining"`
	FullyRemoved  bool   `json:"fullyRemoved"`
}
