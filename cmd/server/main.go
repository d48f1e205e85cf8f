package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	httpapi "lockerhub-backend/internal/api/http"
	"lockerhub-backend/internal/cache"
	"lockerhub-backend/internal/config"
	"lockerhub-backend/internal/events"
	"lockerhub-backend/internal/logger"
	"lockerhub-backend/internal/repository/postgres"
	"lockerhub-backend/internal/security"
	"lockerhub-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting LockerHub Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Redis configuration", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Error("Failed to ping redis", "error", err)
		log.Fatalf("Failed to ping redis: %v", err)
	}
	logger.Info("Redis connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Counter Caches
	availCache := cache.NewAvailabilityCache(rdb)
	capacityCache := cache.NewCapacityCache(rdb)
	statsStore := cache.NewStatsStore(rdb)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// Initialize Event Dispatcher
	dispatcher := events.NewDispatcher(256)
	dispatcher.Subscribe(events.LoggingSubscriber)
	dispatcher.Start()
	defer dispatcher.Close()

	// Initialize Services
	timeout := time.Duration(cfg.Request.PersistenceTimeoutMillis) * time.Millisecond
	inventorySvc := service.NewInventoryService(
		store.LockerRepository,
		availCache,
		dispatcher,
		timeout,
		cfg.Request.ClaimRetries,
	)
	statsSvc := service.NewStatisticsService(
		store.LockerRepository,
		store.RentalRepository,
		store.LocationRepository,
		statsStore,
		availCache,
		timeout,
	)
	rentalSvc := service.NewRentalService(
		store.RentalRepository,
		store.LockerRepository,
		inventorySvc,
		statsSvc,
		dispatcher,
		timeout,
	)
	reservationSvc := service.NewReservationService(
		store.ReservationRepository,
		store.LocationRepository,
		inventorySvc,
		rentalSvc,
		capacityCache,
		dispatcher,
		timeout,
	)

	// Initialize HTTP handlers
	handlers := httpapi.Handlers{
		Rentals:      httpapi.NewRentalHandler(rentalSvc),
		Reservations: httpapi.NewReservationHandler(reservationSvc),
		Locations:    httpapi.NewLocationHandler(store.LocationRepository, inventorySvc),
		Admin:        httpapi.NewAdminHandler(statsSvc, inventorySvc),
		Health: httpapi.HealthHandler(
			db.Ping,
			func() error { return rdb.Ping(context.Background()).Err() },
		),
	}
	router := httpapi.NewRouter(handlers, tokenManager)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
