// Package rabbitmq publishes and consumes JSON events on a topic exchange.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
)

// ErrClosed is returned when the delivery channel closes before the context ends.
var ErrClosed = errors.New("rabbitmq: delivery channel closed")

// Config holds RabbitMQ connection details.
type Config struct {
	URL        string
	Exchange   string
	Queue      string
	BindingKey string
}

// channel is the subset of *amqp.Channel the client uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel. Publish is safe for
// concurrent use.
type Client struct {
	conn    io.Closer
	channel channel
	cfg     Config
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewClient connects to RabbitMQ and declares the exchange, the queue and
// their binding.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	client, err := newClient(conn, ch, cfg, logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return client, nil
}

func newClient(conn io.Closer, ch channel, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = "orders"
	}
	if cfg.Queue == "" {
		cfg.Queue = "order_events"
	}
	if cfg.BindingKey == "" {
		cfg.BindingKey = "order.#"
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}
	if err := ch.QueueBind(cfg.Queue, cfg.BindingKey, cfg.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue %s: %w", cfg.Queue, err)
	}

	logger.Info("rabbitmq client ready", "exchange", cfg.Exchange, "queue", cfg.Queue)
	return &Client{conn: conn, channel: ch, cfg: cfg, logger: logger}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message with the given routing key.
func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(c.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// Consume delivers messages of the bound queue to handler until ctx is done.
// Messages are acked when handler returns nil and requeued otherwise.
func (c *Client) Consume(ctx context.Context, handler func(msg amqp.Delivery) error) error {
	msgs, err := c.channel.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for order events", "queue", c.cfg.Queue)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrClosed
			}
			c.handle(msg, handler)
		}
	}
}

func (c *Client) handle(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	if err := handler(msg); err != nil {
		c.logger.Error("failed to process message", "delivery_tag", msg.DeliveryTag, "routing_key", msg.RoutingKey, "error", err)
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			c.logger.Error("failed to nack message", "delivery_tag", msg.DeliveryTag, "error", nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("failed to ack message", "delivery_tag", msg.DeliveryTag, "error", ackErr)
	}
}
