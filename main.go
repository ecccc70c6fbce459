package main

import (
	bidding "auction-backend/internal/biddingService"
	"auction-backend/internal/catalog"
	"auction-backend/internal/config"
	"auction-backend/internal/identity"
	"auction-backend/internal/repository"
	"auction-backend/internal/server"
	"auction-backend/utils"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("invalid configuration", map[string]any{"error": err.Error()})
	}
	utils.SetLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		utils.Fatal("failed to open store", map[string]any{"driver": cfg.StoreDriver, "error": err.Error()})
	}
	defer store.Close()

	clock := utils.SystemClock{}
	catalogSvc := catalog.NewCatalogService(store, clock)
	if cfg.SeedItems {
		prepopulateItems(ctx, catalogSvc, clock.Now())
	}

	router := server.SetupRouter(cfg, server.Services{
		Bidding:  bidding.NewBiddingService(store, bidding.WithClock(clock), bidding.WithEnforcedStart(cfg.EnforceAuctionStart)),
		Catalog:  catalogSvc,
		Identity: identity.NewIdentityService(store, clock),
		Clock:    clock,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		utils.Info("Shutting down HTTP server...", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Error("graceful shutdown failed", map[string]any{"error": err.Error()})
		}
	}()

	utils.Info("Starting auction server", map[string]any{"addr": srv.Addr, "store": cfg.StoreDriver})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Fatal("HTTP server failed", map[string]any{"error": err.Error()})
	}
}

// openStore connects the backend selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repository.NewMemoryRepo(), nil
	case config.DriverRedis:
		rdb, err := repository.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisRepo(rdb), nil
	case config.DriverPostgres:
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		pool, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresRepo(pool), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// prepopulateItems adds a few sample listings
func prepopulateItems(ctx context.Context, svc *catalog.CatalogService, now time.Time) {
	existing, err := svc.List(ctx)
	if err != nil {
		utils.Warn("skipping seed items", map[string]any{"error": err.Error()})
		return
	}
	if len(existing) > 0 {
		return
	}

	items := []catalog.ItemInput{
		{Name: "Vintage camera", Description: "Rangefinder in working order", StartingPrice: decimal.NewFromInt(100), AuctionStartTime: now, DurationMinutes: 60},
		{Name: "Oak bookshelf", Description: "Five shelves, solid oak", StartingPrice: decimal.NewFromInt(200), AuctionStartTime: now, DurationMinutes: 120},
		{Name: "Signed poster", Description: "Framed concert poster", StartingPrice: decimal.RequireFromString("150.50"), AuctionStartTime: now.Add(30 * time.Minute), DurationMinutes: 30},
	}

	for _, in := range items {
		item, err := svc.Create(ctx, in)
		if err != nil {
			utils.Warn("failed to seed item", map[string]any{"name": in.Name, "error": err.Error()})
			continue
		}
		utils.Debug("seeded item", map[string]any{"item_id": item.ItemID, "name": item.Name})
	}
}
