package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/careportal/complaint-service/internal/api/http"
	"github.com/careportal/complaint-service/internal/api/http/handlers"
	"github.com/careportal/complaint-service/internal/config"
	"github.com/careportal/complaint-service/internal/events"
	"github.com/careportal/complaint-service/internal/observability"
	"github.com/careportal/complaint-service/internal/persistence"
	"github.com/careportal/complaint-service/internal/repository"
	"github.com/careportal/complaint-service/internal/service"
	"github.com/careportal/complaint-service/internal/worker"
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

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		store = repository.NewPostgresStore(pool)
		if redis.Ping(ctx) == nil {
			cached := repository.NewCachedSLASettingRepository(store.SLASettings(), redis.Client, cfg.SLA.CacheTTL(), logger)
			store = repository.WithSLASettings(store, cached)
		}
	} else {
		logger.Warn("running with in-memory store; data will not survive restarts")
		store = repository.NewMemoryStore()
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	slaCalculator := service.NewSLACalculator(store.SLASettings(), cfg.SLA.DefaultDuration(), logger)
	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		Store:      store,
		SLA:        slaCalculator,
		Router:     service.NewEscalationRouter(logger),
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Version),
		Tickets:     handlers.NewTicketsHandler(lifecycle),
		Escalations: handlers.NewEscalationsHandler(lifecycle),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
