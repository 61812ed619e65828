package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dineatlas/dineatlas/backend/internal/config"
	"github.com/dineatlas/dineatlas/backend/internal/handlers"
	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/internal/utils"
	"github.com/dineatlas/dineatlas/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg            *config.Config
	sessionKV      services.KVStore
	sessionService *services.SessionService
	scheduler      *services.Scheduler
	taskQueue      services.TaskQueue
	worker         *services.Worker

	authHandler         *handlers.AuthHandler
	healthHandler       *handlers.HealthHandler
	storeHandler        *handlers.StoreHandler
	reservationHandler  *handlers.ReservationHandler
	reviewHandler       *handlers.ReviewHandler
	userHandler         *handlers.UserHandler
	dashboardHandler    *handlers.DashboardHandler
	systemConfigHandler *handlers.SystemConfigHandler
	systemLogHandler    *handlers.SystemLogHandler

	reauthGate *services.ReauthGate
}

// bootstrap initializes all application dependencies: database, key-value
// stores, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	services.InitSystemLogger(models.GetDB())

	// Key-value wiring. Session activity and session state ride a failover
	// store so an outage degrades rather than logs everyone out; the reauth
	// gate stays on the primary only and fails closed.
	fallback := services.NewMemoryKV()
	var sessionKV services.KVStore
	var reauthKV services.KVStore
	sweepTargets := []*services.ExpiringMap{fallback.Map()}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisKV := services.NewRedisKV(client, cfg.Security.StoreTimeout())
		if err := redisKV.Ping(context.Background()); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable at startup, failover store active")
		}
		sessionKV = services.NewFailoverKV(redisKV, fallback)
		reauthKV = redisKV
	} else {
		memory := services.NewMemoryKV()
		sweepTargets = append(sweepTargets, memory.Map())
		sessionKV = memory
		reauthKV = memory
		logger.Info().Msg("Redis disabled, session state is in-memory")
	}

	activity := services.NewSessionActivityStore(sessionKV, cfg.Security.IdleTimeout())
	reauthGate := services.NewReauthGate(reauthKV, cfg.Security.ReauthWindow())
	attempts := services.NewLoginAttemptTracker(cfg.Security.AttemptWindow(), cfg.Security.AttemptThreshold)

	sessionService := services.NewSessionService(models.GetDB(), activity, sessionKV, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	authService := services.NewAuthService(models.GetDB(), sessionService, attempts, reauthGate)
	userService := services.NewUserService(models.GetDB())

	holidayService := services.NewHolidayService()
	storeService := services.NewStoreService(models.GetDB(), holidayService)
	configService := services.NewSystemConfigService(models.GetDB())
	reservationService := services.NewReservationService(models.GetDB(), holidayService, configService)
	reviewService := services.NewReviewService(models.GetDB())
	emailService := services.NewEmailService(models.GetDB())

	// Notification queue: asynq with Redis, in-process otherwise.
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(emailService.ProcessNotifyTask)
	}
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(emailService.ProcessNotifyTask)
			worker.Start()
		}
	}

	scheduler := services.NewScheduler(models.GetDB(), reservationService, sweepTargets...)
	if err := scheduler.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start scheduler")
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@dineatlas.example"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "ChangeMe-" + uuid.NewString()[:8]
		logger.Warn().Str("password", adminPassword).Msg("ADMIN_PASSWORD not set, generated one-time admin password")
	}
	if err := authService.EnsureAdmin(adminEmail, adminPassword); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:            cfg,
		sessionKV:      sessionKV,
		sessionService: sessionService,
		scheduler:      scheduler,
		taskQueue:      taskQueue,
		worker:         worker,

		authHandler:         handlers.NewAuthHandler(models.GetDB(), authService, userService, cfg),
		healthHandler:       handlers.NewHealthHandler(sessionKV),
		storeHandler:        handlers.NewStoreHandler(storeService, reviewService, holidayService),
		reservationHandler:  handlers.NewReservationHandler(reservationService),
		reviewHandler:       handlers.NewReviewHandler(reviewService, storeService),
		userHandler:         handlers.NewUserHandler(userService),
		dashboardHandler:    handlers.NewDashboardHandler(services.NewDashboardService(models.GetDB())),
		systemConfigHandler: handlers.NewSystemConfigHandler(configService),
		systemLogHandler:    handlers.NewSystemLogHandler(services.NewSystemLogService(models.GetDB())),

		reauthGate: reauthGate,
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
