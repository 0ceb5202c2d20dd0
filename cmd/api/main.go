package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/gcmpush/internal/config"
	"github.com/kursadbilgin/gcmpush/internal/handler"
	"github.com/kursadbilgin/gcmpush/internal/observability"
	"github.com/kursadbilgin/gcmpush/internal/provider"
	"github.com/kursadbilgin/gcmpush/internal/service"
	"github.com/kursadbilgin/gcmpush/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	gcm, err := provider.NewGCMProvider()
	if err != nil {
		logger.Fatal("gcm provider initialization failed", zap.Error(err))
	}

	pushService, err := service.NewPushService(gcm, logger)
	if err != nil {
		logger.Fatal("push service initialization failed", zap.Error(err))
	}
	pushService.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, metrics)
	if err := handler.RegisterPushRoutes(app, pushService); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gcmpush api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})
	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("gcmpush api shutting down")
		return app.ShutdownWithTimeout(cfg.ShutdownTimeout())
	})

	if err := g.Wait(); err != nil {
		logger.Error("gcmpush api stopped with error", zap.Error(err))
		return
	}
	logger.Info("gcmpush api stopped")
}
