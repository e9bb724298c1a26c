// stockload hammers the in-memory engine with concurrent transfers and
// removals against a single item and verifies that stock is conserved and
// never negative under contention.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldstack/fleetstock/internal/adapter/storage"
	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/core/service"
)

const (
	initialStock  = 500
	totalRequests = 2000
	unitCount     = 5
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	store := storage.NewMemoryStore()
	var unitIDs []string
	var units []domain.MobileUnit
	for i := 1; i <= unitCount; i++ {
		id := fmt.Sprintf("U%d", i)
		unitIDs = append(unitIDs, id)
		units = append(units, domain.MobileUnit{ID: id, DisplayName: "Van " + id, OperationalStatus: domain.UnitStatusActive})
	}

	catalog := service.NewCatalogService(store, logger)
	transfers := service.NewTransferService(store, store, storage.NewStaticUnitDirectory(units), nil, logger, totalRequests)
	removals := service.NewRemovalService(store, storage.NewStaticUnitDirectory(units), logger)

	item, err := catalog.AddItem(ctx, service.ItemSpec{
		SKU:             "LOAD-1",
		Name:            "Load Test Part",
		UnitPrice:       decimal.NewFromInt(1),
		InitialQuantity: initialStock,
	})
	if err != nil {
		logger.Error("failed to seed item", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var transferred, removed, rejected atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unit := unitIDs[i%unitCount]
			invoice := fmt.Sprintf("INV-%d", i%3)

			if i%4 == 3 {
				result, err := removals.RemoveFromUnit(ctx, domain.RemovalRequest{
					ItemID:        item.ID,
					UnitID:        unit,
					InvoiceNumber: invoice,
					Quantity:      1,
				})
				if err != nil {
					rejected.Add(1)
					return
				}
				removed.Add(int64(result.Removed))
				return
			}

			_, err := transfers.Transfer(ctx, domain.TransferRequest{
				Source:      domain.LocationWarehouse,
				Destination: unit,
				Items:       []domain.TransferLine{{ItemID: item.ID, Quantity: 1, InvoiceNumber: invoice}},
			})
			if err != nil {
				rejected.Add(1)
				return
			}
			transferred.Add(1)
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	final, err := store.GetItem(ctx, item.ID)
	if err != nil {
		logger.Error("failed to read final state", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("requests:    %d in %v\n", totalRequests, elapsed)
	fmt.Printf("transferred: %d\n", transferred.Load())
	fmt.Printf("removed:     %d\n", removed.Load())
	fmt.Printf("rejected:    %d\n", rejected.Load())
	fmt.Printf("warehouse:   %d\n", final.WarehouseQuantity)
	fmt.Printf("deployed:    %d\n", final.TotalQuantity()-final.WarehouseQuantity)

	if final.WarehouseQuantity < 0 {
		fmt.Println("FAIL: negative warehouse stock")
		os.Exit(1)
	}
	for _, lot := range final.MobileAllocations {
		if lot.Quantity <= 0 {
			fmt.Printf("FAIL: zero/negative lot %+v\n", lot)
			os.Exit(1)
		}
	}
	if got, want := int64(final.TotalQuantity()), int64(initialStock)-removed.Load(); got != want {
		fmt.Printf("FAIL: conservation violated: total %d, want %d\n", got, want)
		os.Exit(1)
	}
	fmt.Println("OK: conservation holds, no negative stock, no zero lots")
}
