package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-mesh/internal/api/http"
	"github.com/spec-kit/support-mesh/internal/api/http/handlers"
	"github.com/spec-kit/support-mesh/internal/auth"
	"github.com/spec-kit/support-mesh/internal/config"
	"github.com/spec-kit/support-mesh/internal/events"
	"github.com/spec-kit/support-mesh/internal/observability"
	"github.com/spec-kit/support-mesh/internal/persistence"
	"github.com/spec-kit/support-mesh/internal/repository"
	"github.com/spec-kit/support-mesh/internal/service"
	"github.com/spec-kit/support-mesh/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "identity")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, "identity", logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	key, err := cfg.Auth.SigningKey()
	if err != nil {
		logger.Fatal("invalid signing key", zap.Error(err))
	}
	codec, err := auth.NewTokenCodec(key, cfg.Auth.AccessTokenTTL(), nil)
	if err != nil {
		logger.Fatal("failed to build token codec", zap.Error(err))
	}
	registry, err := auth.NewRevocationRegistry(cfg.Auth.RevocationBackend, redis.Cmdable())
	if err != nil {
		logger.Fatal("failed to build revocation registry", zap.Error(err))
	}
	if sweeper, ok := registry.(worker.Sweeper); ok {
		worker.StartRevocationSweeper(ctx, sweeper, cfg.Auth.RevocationSweep, logger)
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   repository.NewUserRepository(pg.PoolHandle()),
		Codec:      codec,
		Registry:   registry,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	worker.StartSubscribers(logger, service.NewNotificationService(dispatcher, authService, logger, cfg.Notification))

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterIdentityRoutes(app, httptransport.IdentityRoutes{
		Health: handlers.NewHealthHandler("identity", cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:  handlers.NewAuthHandler(authService),
		Users: handlers.NewUsersHandler(authService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
