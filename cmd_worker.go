package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"

	"github.com/lucas-ioliveira/ordering-system/internal/services"
	"github.com/lucas-ioliveira/ordering-system/pkg/rabbitmq"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume and log order events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		if cfg.RabbitMQ.URL == "" {
			return errors.New("RABBITMQ_URL is required for the worker")
		}

		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange}, logger)
		if err != nil {
			return err
		}
		defer mqClient.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return mqClient.Consume(ctx, orderEventHandler(logger))
	},
}

// orderEventHandler logs each order event. Undecodable messages are rejected.
func orderEventHandler(logger *slog.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.OrderEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return errors.Wrapf(err, "failed to decode event %s", msg.MessageId)
		}
		logger.Info("order event received",
			"type", event.Type,
			"order_id", event.OrderID,
			"user_id", event.UserID,
			"status", event.Status,
			"price", event.Price.String(),
			"routing_key", msg.RoutingKey,
		)
		return nil
	}
}
