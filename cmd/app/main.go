package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/auth"
	"github.com/choshma-zone/storefront/internal/cache"
	"github.com/choshma-zone/storefront/internal/cart"
	"github.com/choshma-zone/storefront/internal/catalog"
	"github.com/choshma-zone/storefront/internal/checkout"
	"github.com/choshma-zone/storefront/internal/config"
	"github.com/choshma-zone/storefront/internal/httpapi"
	"github.com/choshma-zone/storefront/internal/ingest"
	"github.com/choshma-zone/storefront/internal/kafka"
	"github.com/choshma-zone/storefront/internal/legacy"
	"github.com/choshma-zone/storefront/internal/media"
	"github.com/choshma-zone/storefront/internal/observability"
	"github.com/choshma-zone/storefront/internal/pkg/breaker"
	workpool "github.com/choshma-zone/storefront/internal/pkg/pool"
	"github.com/choshma-zone/storefront/internal/storage"
	"github.com/choshma-zone/storefront/internal/wishlist"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Connect(ctx, cfg.DSN())
	if err != nil {
		logger.Fatal("postgres connect failed", zap.Error(err))
	}
	defer db.Close()

	products := storage.NewProductRepository(db)
	wishes := storage.NewWishlistRepository(db)
	orders := storage.NewOrderRepository(db)
	accounts := storage.NewAccountRepository(db)

	metrics := observability.NewInmem(1000)

	ttlCache, err := cache.New(cfg.CacheCap)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	catalogSvc := catalog.NewService(ttlCache, products, cfg.CacheTTL, logger, metrics)

	dispatchPool := workpool.New(4)
	legacyClient := legacy.NewClient(cfg.Legacy, breaker.New(cfg.Breaker), dispatchPool, logger, metrics)
	defer legacyClient.Close()

	authSvc := auth.NewService(accounts, legacyClient, cfg.SessionTTL, logger)

	wishlists := wishlist.NewManager(wishes, logger)
	carts, err := cart.NewManager(cfg.CartDir, logger)
	if err != nil {
		logger.Fatal("cart dir init failed", zap.Error(err))
	}

	orchestrator := checkout.NewOrchestrator(orders, legacyClient, cfg.Delivery, logger, metrics)

	var mediaStore *media.Store
	if cfg.Media.Bucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			logger.Warn("gcs client init failed, media uploads disabled", zap.Error(err))
		} else {
			defer client.Close()
			mediaStore = media.NewStore(client, cfg.Media, logger)
		}
	}

	if cfg.KafkaEnabled() {
		reader := kafka.NewReader(cfg.Kafka)
		defer reader.Close()

		handler := ingest.NewHandler(catalogSvc, breaker.New(cfg.Breaker), cfg.Retry, logger, metrics)
		consumer := kafka.NewConsumer(handler, reader, cfg.Kafka.Workers, logger)
		go consumer.Start(ctx)
	}

	server := httpapi.New(httpapi.Deps{
		Catalog:   catalogSvc,
		Auth:      authSvc,
		Orders:    orders,
		Checkout:  orchestrator,
		Carts:     carts,
		Wishlists: wishlists,
		Media:     mediaStore,
		AdminKey:  cfg.AdminKey,
	}, logger, metrics)

	logger.Info("storefront listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server failed", zap.Error(err))
	}
	logger.Info("storefront stopped")
}
