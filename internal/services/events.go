package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lucas-ioliveira/ordering-system/internal/metrics"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

// EventType is the routing key of an order event.
type EventType string

const (
	EventOrderCreated     EventType = "order.created"
	EventOrderCancelled   EventType = "order.cancelled"
	EventOrderFinished    EventType = "order.finished"
	EventOrderItemAdded   EventType = "order.item_added"
	EventOrderItemRemoved EventType = "order.item_removed"
)

// OrderEvent describes a committed change of an order.
type OrderEvent struct {
	Type       EventType          `json:"type"`
	OrderID    uint               `json:"order_id"`
	UserID     uint               `json:"user_id"`
	ItemID     uint               `json:"item_id,omitempty"`
	Status     models.OrderStatus `json:"status"`
	Price      decimal.Decimal    `json:"price"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// EventPublisher sends an encoded event. *rabbitmq.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// eventEmitter publishes events after commit. Publishing failures are logged
// and never fail the request that caused them.
type eventEmitter struct {
	publisher EventPublisher
	logger    *slog.Logger
}

func newEventEmitter(publisher EventPublisher, logger *slog.Logger) eventEmitter {
	return eventEmitter{publisher: publisher, logger: logger}
}

func (e eventEmitter) emit(ctx context.Context, eventType EventType, order *models.Order, itemID uint) {
	if e.publisher == nil {
		metrics.OrderEvents.WithLabelValues(string(eventType), "disabled").Inc()
		return
	}

	body, err := json.Marshal(OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		ItemID:     itemID,
		Status:     order.Status,
		Price:      order.Price,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to encode order event", "type", eventType, "order_id", order.ID, "error", err)
		metrics.OrderEvents.WithLabelValues(string(eventType), "failed").Inc()
		return
	}

	if err := e.publisher.Publish(ctx, string(eventType), body); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish order event", "type", eventType, "order_id", order.ID, "error", err)
		metrics.OrderEvents.WithLabelValues(string(eventType), "failed").Inc()
		return
	}
	metrics.OrderEvents.WithLabelValues(string(eventType), "published").Inc()
}
