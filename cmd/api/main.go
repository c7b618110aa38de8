package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/hey-coffee/maintenance-service/internal/api/http"
	"github.com/hey-coffee/maintenance-service/internal/api/http/handlers"
	"github.com/hey-coffee/maintenance-service/internal/config"
	"github.com/hey-coffee/maintenance-service/internal/events"
	"github.com/hey-coffee/maintenance-service/internal/observability"
	"github.com/hey-coffee/maintenance-service/internal/persistence"
	"github.com/hey-coffee/maintenance-service/internal/repository"
	"github.com/hey-coffee/maintenance-service/internal/service"
	"github.com/hey-coffee/maintenance-service/internal/sla"
	"github.com/hey-coffee/maintenance-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	requestRepo := repository.NewRequestRepository(pool)
	pauseRepo := repository.NewPauseIntervalRepository(pool)
	historyRepo := repository.NewRequestHistoryRepository(pool)
	calendarRepo := repository.NewCalendarRepository(pool)
	branchRepo := repository.NewBranchRepository(pool)
	equipmentRepo := repository.NewEquipmentRepository(pool)
	vendorRepo := repository.NewVendorRepository(pool)
	technicianRepo := repository.NewTechnicianRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	engine := sla.NewEngine(logger)
	metrics := observability.NewMetrics()

	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:   requestRepo,
		PauseRepo:     pauseRepo,
		HistoryRepo:   historyRepo,
		CalendarRepo:  calendarRepo,
		BranchRepo:    branchRepo,
		EquipmentRepo: equipmentRepo,
		Engine:        engine,
		Dispatcher:    dispatcher,
		SLAConfig:     cfg.SLA,
		Logger:        logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		RequestRepo:    requestRepo,
		TechnicianRepo: technicianRepo,
		VendorRepo:     vendorRepo,
		HistoryRepo:    historyRepo,
		Dispatcher:     dispatcher,
		Redis:          redis,
		Config:         cfg.Assignment,
		Logger:         logger,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		BranchRepo:     branchRepo,
		EquipmentRepo:  equipmentRepo,
		VendorRepo:     vendorRepo,
		TechnicianRepo: technicianRepo,
		CalendarRepo:   calendarRepo,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	var monitor *worker.SLAMonitor
	if cfg.Monitor.Enabled {
		monitor = worker.NewSLAMonitor(requestService, dispatcher, redis, cfg.Monitor, logger)
		if err := monitor.Start(); err != nil {
			logger.Fatal("failed to start sla monitor", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Requests:   handlers.NewRequestsHandler(requestService),
		Assignment: handlers.NewAssignmentHandler(assignmentService),
		Catalog:    handlers.NewCatalogHandler(catalogService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if monitor != nil {
		monitor.Stop()
	}
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
