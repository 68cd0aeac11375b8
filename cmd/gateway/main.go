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
	"github.com/spec-kit/support-mesh/internal/gateway"
	"github.com/spec-kit/support-mesh/internal/observability"
	"github.com/spec-kit/support-mesh/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "gateway")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	key, err := cfg.Auth.SigningKey()
	if err != nil {
		logger.Fatal("invalid signing key", zap.Error(err))
	}
	codec, err := auth.NewTokenCodec(key, cfg.Auth.AccessTokenTTL(), nil)
	if err != nil {
		logger.Fatal("failed to build token codec", zap.Error(err))
	}

	// Logouts happen in the identity service; the edge must read the same store.
	if err := cfg.Auth.RequireSharedRevocation(); err != nil {
		logger.Fatal("unsupported revocation backend", zap.Error(err))
	}
	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	registry, err := auth.NewRevocationRegistry(cfg.Auth.RevocationBackend, redis.Cmdable())
	if err != nil {
		logger.Fatal("failed to build revocation registry", zap.Error(err))
	}

	routes, err := auth.NewPublicRouteSet(cfg.Gateway.PublicRoutes...)
	if err != nil {
		logger.Fatal("invalid public routes", zap.Error(err))
	}
	upstreams, err := gateway.NewRouter(cfg.Gateway.Upstreams, cfg.App.RequestTimeout(), logger)
	if err != nil {
		logger.Fatal("invalid upstreams", zap.Error(err))
	}
	for _, up := range upstreams.Upstreams() {
		logger.Info("upstream", zap.String("prefix", up.Prefix), zap.String("target", up.Target))
	}

	metrics := observability.NewMetrics()
	validator := auth.NewTokenValidator(codec, registry)
	filter := auth.NewEdgeAuthFilter(routes, validator, logger, metrics)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterGatewayRoutes(app, httptransport.GatewayRoutes{
		Health: handlers.NewHealthHandler("gateway", cfg.App.Version, map[string]handlers.Pinger{"redis": redis}),
		Filter: filter,
		Proxy:  upstreams,
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
