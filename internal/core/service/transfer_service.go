package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

// TransferService validates and atomically executes quantity moves between
// two locations. It is, together with RemovalService, the only writer of
// item allocations. Every successful call appends exactly one immutable
// TransferRecord in the same atomic unit as the ledger change.
type TransferService struct {
	repo   port.InventoryRepository
	log    port.TransferLog
	units  port.UnitDirectory
	cache  port.CacheRepository // nil disables request dedup
	logger *slog.Logger
	events chan domain.TransferRecord
}

func NewTransferService(repo port.InventoryRepository, log port.TransferLog, units port.UnitDirectory, cache port.CacheRepository, logger *slog.Logger, eventBuffer int) *TransferService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferService{
		repo:   repo,
		log:    log,
		units:  units,
		cache:  cache,
		logger: logger,
		events: make(chan domain.TransferRecord, eventBuffer),
	}
}

// Transfer executes a multi-item move. Every line is pre-flight checked
// before the first mutation, so one invalid line aborts the whole request
// with no partial effect.
func (s *TransferService) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferRecord, error) {
	if err := s.validateLocations(ctx, req.Source, req.Destination); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Reason: "at least one line is required"}
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("item %s: %w", line.ItemID, domain.ErrInvalidQuantity)
		}
	}

	var idempotencyKey string
	if s.cache != nil && req.RequestID != "" {
		idempotencyKey = "transfer:" + req.RequestID
		ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	// Requested totals per item; a request may carry several lines for the
	// same item, and availability is checked against their sum.
	requested := make(map[string]int)
	var itemIDs []string
	for _, line := range req.Items {
		if _, seen := requested[line.ItemID]; !seen {
			itemIDs = append(itemIDs, line.ItemID)
		}
		requested[line.ItemID] += line.Quantity
	}

	var record *domain.TransferRecord
	err := s.repo.Mutate(ctx, itemIDs, func(items map[string]*domain.InventoryItem) (*domain.TransferRecord, error) {
		// Pre-flight every item before touching any of them.
		for _, id := range itemIDs {
			item := items[id]
			available := item.QuantityAt(req.Source)
			if available < requested[id] {
				return nil, &domain.InsufficientStockError{
					ItemID:    id,
					Location:  req.Source,
					Requested: requested[id],
					Available: available,
				}
			}
		}

		now := time.Now().UTC()
		recordItems := make([]domain.TransferItem, 0, len(req.Items))
		for _, line := range req.Items {
			item := items[line.ItemID]

			if req.Source == domain.LocationWarehouse {
				item.WarehouseQuantity -= line.Quantity
			} else if err := item.DrainUnit(req.Source, line.Quantity); err != nil {
				return nil, err
			}

			if req.Destination == domain.LocationWarehouse {
				item.WarehouseQuantity += line.Quantity
			} else {
				item.AddLot(req.Destination, line.InvoiceNumber, line.Quantity)
			}

			item.UpdatedAt = now
			recordItems = append(recordItems, domain.TransferItem{
				ItemID:        item.ID,
				ItemName:      item.Name,
				Quantity:      line.Quantity,
				InvoiceNumber: line.InvoiceNumber,
			})
		}

		record = &domain.TransferRecord{
			ID:          uuid.NewString(),
			Timestamp:   now,
			Source:      req.Source,
			Destination: req.Destination,
			Items:       recordItems,
			PerformedBy: req.Actor,
		}
		return record, nil
	})
	if err != nil {
		// A rejected request must not burn its RequestID; the caller
		// resubmits corrected parameters under the same id.
		if idempotencyKey != "" {
			if rerr := s.cache.ReleaseIdempotency(ctx, idempotencyKey); rerr != nil {
				s.logger.Warn("failed to release idempotency key",
					slog.String("key", idempotencyKey),
					slog.String("error", rerr.Error()))
			}
		}
		return nil, err
	}

	s.logger.Info("transfer executed",
		slog.String("record", record.ID),
		slog.String("source", req.Source),
		slog.String("destination", req.Destination),
		slog.Int("lines", len(record.Items)))
	s.emit(*record)
	return record, nil
}

// History returns transfer records, newest first, optionally filtered to
// those touching one location.
func (s *TransferService) History(ctx context.Context, location string) ([]domain.TransferRecord, error) {
	if location == "" {
		return s.log.ListTransfers(ctx)
	}
	return s.log.ListTransfersByLocation(ctx, location)
}

func (s *TransferService) validateLocations(ctx context.Context, source, destination string) error {
	if source == "" {
		return &domain.ValidationError{Field: "sourceLocation", Reason: "must not be empty"}
	}
	if destination == "" {
		return &domain.ValidationError{Field: "destinationLocation", Reason: "must not be empty"}
	}
	if source == destination {
		return domain.ErrInvalidTransfer
	}
	for _, loc := range []string{source, destination} {
		if loc == domain.LocationWarehouse {
			continue
		}
		unit, err := s.units.GetUnit(ctx, loc)
		if err != nil {
			return err
		}
		// Drawing from an out-of-service unit stays allowed so stranded
		// stock can be brought home; deploying to one does not.
		if loc == destination && unit.OperationalStatus == domain.UnitStatusOutOfService {
			return &domain.ValidationError{Field: "destinationLocation", Reason: "unit " + loc + " is out of service"}
		}
	}
	return nil
}

// emit hands a committed record to the event channel without blocking the
// caller; a full buffer drops the event, which only costs the best-effort
// fan-out, never the ledger.
func (s *TransferService) emit(record domain.TransferRecord) {
	select {
	case s.events <- record:
	default:
		s.logger.Warn("transfer event buffer full, dropping", slog.String("record", record.ID))
	}
}

// Events exposes committed transfer records for asynchronous fan-out.
func (s *TransferService) Events() <-chan domain.TransferRecord {
	return s.events
}

func (s *TransferService) Close() {
	close(s.events)
}
