package main

import (
	"github.com/upyoung/warroom/internal/config"
	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/internal/utils"
	"github.com/upyoung/warroom/pkg/logger"
)

// appServices holds the shared long-lived services of the application.
type appServices struct {
	cfg              *config.Config
	taskQueue        services.TaskQueue
	worker           *services.Worker
	notifications    *services.NotificationService
	handoffService   *services.HandoffService
	reminderService  *services.ReminderService
	systemLogService *services.SystemLogService
	workdayService   *services.WorkdayService
}

// bootstrap initializes the database, queue, schedulers and services.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	services.InitSystemLogger(models.GetDB())

	// Task queue: Redis-backed when enabled, otherwise in-process
	taskQueue := services.InitTaskQueue(cfg)
	notifications := services.NewNotificationService(models.GetDB(), taskQueue, services.GetSSEHub())
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notifications.Deliver)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notifications.Deliver)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start async worker")
			}
		}
	}

	// The handoff service keeps pending late closures in memory, so
	// one instance must serve every request.
	handoffService := services.NewHandoffService(models.GetDB(), notifications)

	reminderService := services.NewReminderService(models.GetDB(), notifications)
	if err := reminderService.Start(&cfg.Reminder); err != nil {
		logger.Warn().Err(err).Msg("Failed to start reminder scheduler")
	}

	systemLogService := services.NewSystemLogService(models.GetDB())
	systemLogService.StartCleanupScheduler(cfg.Log.RetentionDays)

	return &appServices{
		cfg:              cfg,
		taskQueue:        taskQueue,
		worker:           worker,
		notifications:    notifications,
		handoffService:   handoffService,
		reminderService:  reminderService,
		systemLogService: systemLogService,
		workdayService:   services.NewWorkdayService(cfg.Reminder.Region),
	}
}

// shutdown gracefully stops all schedulers and queues.
func (s *appServices) shutdown() {
	s.reminderService.Stop()
	s.systemLogService.StopCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
