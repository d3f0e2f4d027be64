package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Snapman5678/ChainWave/internal/cart"
	"github.com/Snapman5678/ChainWave/internal/catalog"
	"github.com/Snapman5678/ChainWave/internal/checkout"
	"github.com/Snapman5678/ChainWave/internal/config"
	"github.com/Snapman5678/ChainWave/internal/httpapi"
	"github.com/Snapman5678/ChainWave/internal/persistence"
	"github.com/Snapman5678/ChainWave/internal/publisher"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	// Catalog (sqlite)
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatalf("failed to open catalog database: %v", err)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		log.Fatalf("failed to run catalog migrations: %v", err)
	}
	catalogService := catalog.NewService(catalogRepo)

	// Orders (postgres)
	orderRepo, err := checkout.NewRepository(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to open orders database: %v", err)
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(cfg.PostgresMigrationsPath); err != nil {
		log.Fatalf("failed to run order migrations: %v", err)
	}
	checkoutService := checkout.NewService(orderRepo, catalogService)

	// Cart persistence; an unreachable backend degrades to session-only carts
	// instead of refusing to start.
	slot := newCartSlot(cfg)
	registry := cart.NewRegistry(slot)

	// Outbox publisher
	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	poller := publisher.NewOutboxPoller(orderRepo, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	cartHandler := httpapi.NewCartHandler(registry, catalogService, cfg.RequestTimeout)
	catalogHandler := httpapi.NewCatalogHandler(catalogService, cfg.RequestTimeout)
	checkoutHandler := httpapi.NewCheckoutHandler(checkoutService, registry, cfg.RequestTimeout)

	router := httpapi.NewRouter(cartHandler, catalogHandler, checkoutHandler, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func newCartSlot(cfg *config.Config) persistence.Slot {
	switch cfg.CartBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable, falling back to in-memory carts: %v", err)
			return persistence.NewMemorySlot()
		}
		return persistence.NewRedisSlot(client)
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := persistence.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Printf("mongodb unreachable, falling back to in-memory carts: %v", err)
			return persistence.NewMemorySlot()
		}
		return persistence.NewMongoSlot(db)
	default:
		return persistence.NewMemorySlot()
	}
}
