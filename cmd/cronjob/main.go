package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"lockerhub-backend/internal/cache"
	"lockerhub-backend/internal/config"
	"lockerhub-backend/internal/events"
	"lockerhub-backend/internal/jobs"
	"lockerhub-backend/internal/logger"
	"lockerhub-backend/internal/repository/postgres"
	"lockerhub-backend/internal/scheduler"
	"lockerhub-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'rebuild-statistics', 'reconcile-availability', 'expire-reservations', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting LockerHub Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

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

	// Initialize Repositories and Caches
	store := postgres.NewStore(db)
	availCache := cache.NewAvailabilityCache(rdb)
	capacityCache := cache.NewCapacityCache(rdb)
	statsStore := cache.NewStatsStore(rdb)

	// Jobs run headless; events still flow to the log.
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

	jobServices := &jobs.Services{
		Inventory:   inventorySvc,
		Reservation: reservationSvc,
		Statistics:  statsSvc,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cronScheduler.Stop()
	logger.Info("Cronjob runner stopped")
}

// runJobOnce executes a single named job for manual runs and backfills
func runJobOnce(jr *jobs.JobRunner, name string) {
	switch name {
	case "rebuild-statistics":
		jr.RebuildStatistics()
	case "reconcile-availability":
		jr.ReconcileAvailability()
	case "expire-reservations":
		jr.ExpireReservations()
	case "all":
		jr.RunAll()
	default:
		logger.Error("Unknown job name", "job", name)
		log.Fatalf("Unknown job name: %s", name)
	}
}
