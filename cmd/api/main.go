package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/plantops/maintenance-service/internal/api/http"
	"github.com/plantops/maintenance-service/internal/api/http/handlers"
	"github.com/plantops/maintenance-service/internal/auth"
	"github.com/plantops/maintenance-service/internal/config"
	"github.com/plantops/maintenance-service/internal/events"
	"github.com/plantops/maintenance-service/internal/notify"
	"github.com/plantops/maintenance-service/internal/observability"
	"github.com/plantops/maintenance-service/internal/persistence"
	"github.com/plantops/maintenance-service/internal/repository"
	"github.com/plantops/maintenance-service/internal/service"
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
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewStatusHistoryRepository(pool)
	imageRepo := repository.NewTicketImageRepository(pool)
	personRepo := repository.NewPersonRepository(pool)
	grantRepo := repository.NewApprovalGrantRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewAsyncDispatcher(logger, cfg.Notification.DispatchTimeout())

	notificationService := service.NewNotificationService(
		dispatcher,
		personRepo,
		notify.NewSMTPSender(cfg.Notification),
		notify.NewLineClient(cfg.Notification),
		logger,
	)
	notificationService.RegisterHandlers()

	creationNotifier := service.NewCreationNotifier(
		dispatcher,
		redis,
		cfg.Notification.CreationDebounce(),
		cfg.Notification.CreationFallback(),
		cfg.Notification.CreationDedupeTTL(),
		logger,
	)

	permissions := service.NewPermissionService(grantRepo)
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		ImageRepo:   imageRepo,
		PersonRepo:  personRepo,
		Permissions: permissions,
		Dispatcher:  dispatcher,
		Notifier:    creationNotifier,
		Metrics:     metrics,
	})

	authService := service.NewAuthService(*cfg, personRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), personRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, permissions),
		Tickets:        handlers.NewTicketsHandler(workflowService),
		Workflow:       handlers.NewWorkflowHandler(workflowService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	creationNotifier.Stop()
	dispatcher.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
