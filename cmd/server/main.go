package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/fieldstack/fleetstock/internal/adapter/handler"
	"github.com/fieldstack/fleetstock/internal/adapter/storage"
	"github.com/fieldstack/fleetstock/internal/config"
	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/core/service"
	"github.com/fieldstack/fleetstock/internal/port"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: MySQL when configured, otherwise the in-memory store.
	var (
		repo        port.InventoryRepository
		transferLog port.TransferLog
	)
	if cfg.MySQL.DSN != "" {
		db, err := sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			logger.Error("failed to open mysql", slog.String("error", err.Error()))
			os.Exit(1)
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to ping mysql", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
		adapter := storage.NewMySQLAdapter(db)
		repo, transferLog = adapter, adapter
		logger.Info("connected to mysql")
	} else {
		store := storage.NewMemoryStore()
		repo, transferLog = store, store
		logger.Info("running with in-memory store")
	}

	// Redis is optional; without it request dedup and event fan-out are off.
	var cache port.CacheRepository
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, PoolSize: 100})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rdb.Close()
		cache = storage.NewRedisAdapter(rdb)
		logger.Info("connected to redis")
	}

	units := storage.NewStaticUnitDirectory(cfg.MobileUnits())
	logger.Info("loaded mobile units", slog.Int("count", len(cfg.Units)))

	catalog := service.NewCatalogService(repo, logger)
	transfers := service.NewTransferService(repo, transferLog, units, cache, logger, cfg.Events.Buffer)
	removals := service.NewRemovalService(repo, units, logger)
	alerts := service.NewAlertService(repo)

	// Worker pool draining committed transfer events to Redis pub/sub.
	var wg sync.WaitGroup
	if cache != nil {
		for i := 0; i < cfg.Events.Workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				publishLoop(id, transfers.Events(), cache, logger)
			}(i)
		}
		logger.Info("started event workers", slog.Int("count", cfg.Events.Workers))
	}

	mux := http.NewServeMux()
	handler.NewHTTPHandler(catalog, transfers, removals, alerts, units).Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", slog.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	transfers.Close()
	wg.Wait()
	logger.Info("event workers stopped")
}

func publishLoop(id int, events <-chan domain.TransferRecord, cache port.CacheRepository, logger *slog.Logger) {
	for record := range events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cache.PublishTransfer(ctx, record); err != nil {
			logger.Warn("failed to publish transfer event",
				slog.Int("worker", id),
				slog.String("record", record.ID),
				slog.String("error", err.Error()))
		}
		cancel()
	}
}
