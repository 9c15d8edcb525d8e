package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/rpgdash/internal/api"
	"github.com/mcoot/rpgdash/internal/config"
	"github.com/mcoot/rpgdash/internal/factory"
	"github.com/mcoot/rpgdash/internal/services/payment"
	"github.com/mcoot/rpgdash/internal/services/payment/mercadopago"
	"github.com/mcoot/rpgdash/internal/services/seed"
	redisstorage "github.com/mcoot/rpgdash/internal/storage/redis"
)

func main() {
	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	app, err := factory.New(ctx, factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.SeedPath != "" {
		if err := seedPlayers(ctx, app, cfg.SeedPath, logger); err != nil {
			logger.Error("failed to seed players", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if err := app.ScheduleMaintenance(cfg.CooldownSweepSchedule); err != nil {
		logger.Error("failed to schedule maintenance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	app.Scheduler.Start()

	router, err := app.Router()
	if err != nil {
		logger.Error("failed to create router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = cfg.Addr
	serverConfig.ShutdownTimeout = cfg.ShutdownTimeout
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	app.Scheduler.Stop(context.Background())
	if err := app.Close(); err != nil {
		logger.Error("failed to close application", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}

// factoryConfig maps process configuration onto the application factory
func factoryConfig(cfg *config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:              logger,
		StorageType:         cfg.StorageType,
		SQLDSN:              cfg.SQLDSN(),
		CatalogPath:         cfg.CatalogPath,
		MaxConflictAttempts: cfg.MaxConflictAttempts,
		Payment: mercadopago.Config{
			BaseURL:     cfg.PaymentBaseURL,
			AccessToken: cfg.PaymentAccessToken,
			Timeout:     cfg.PaymentTimeout,
		},
		Checkout: payment.CheckoutConfig{
			Title:           payment.DefaultCheckoutConfig().Title,
			CurrencyID:      cfg.CurrencyID,
			NotificationURL: cfg.NotificationURL,
			BackURL:         cfg.BackURL,
		},
	}

	if cfg.StorageType == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.PaymentLedgerTTL = cfg.PaymentLedgerTTL
		fc.RedisConfig = &redisCfg
	}

	return fc
}

func seedPlayers(ctx context.Context, app *factory.App, path string, logger *slog.Logger) error {
	fixture, err := seed.Load(path)
	if err != nil {
		return err
	}
	created, err := seed.New(app.Storage, 0, logger).Apply(ctx, fixture)
	if err != nil {
		return err
	}
	logger.Info("seeded players", slog.Int("created", created), slog.String("path", path))
	return nil
}
