package jobs

import (
	"lockerhub-backend/internal/config"
	"lockerhub-backend/internal/logger"
	"lockerhub-backend/internal/repository/postgres"
	"lockerhub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    *postgres.Store
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Inventory   service.InventoryService
	Reservation service.ReservationService
	Statistics  service.StatisticsService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store *postgres.Store, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		services: services,
		config:   cfg,
	}
}

// Config returns the loaded configuration
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every scheduled job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.RebuildStatistics()
	jr.ReconcileAvailability()
	jr.ExpireReservations()
}
