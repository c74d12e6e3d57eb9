package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lucas-ioliveira/ordering-system/internal/app"
	"github.com/lucas-ioliveira/ordering-system/internal/auth"
	"github.com/lucas-ioliveira/ordering-system/internal/config"
	"github.com/lucas-ioliveira/ordering-system/internal/repositories"
	"github.com/lucas-ioliveira/ordering-system/pkg/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, logger)
	},
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer repositories.Close(db)

	deps := app.Deps{Config: cfg, DB: db, Logger: logger}

	// --- Refresh token revocations ---
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return errors.Wrap(err, "failed to connect to redis")
		}
		deps.Revocations = auth.NewRedisRevocationStore(client)
		logger.Info("refresh token revocations stored in redis", "addr", cfg.Redis.Addr)
	}

	// --- Order events ---
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange}, logger)
		if err != nil {
			return err
		}
		defer mqClient.Close()
		deps.Events = mqClient
		logger.Info("publishing order events", "exchange", cfg.RabbitMQ.Exchange)
	}

	application, err := app.NewApp(deps)
	if err != nil {
		return err
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.AppPort, "env", cfg.AppEnv)
		listenErr <- application.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return errors.Wrap(err, "server failed to start")
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := application.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("error during shutdown", "error", err)
		return err
	}
	logger.Info("server gracefully stopped")
	return nil
}

