package services

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/auth"
	"github.com/lucas-ioliveira/ordering-system/internal/metrics"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
	"github.com/lucas-ioliveira/ordering-system/internal/repositories"
)

// CreateItemInput carries the fields of a new order item.
type CreateItemInput struct {
	OrderID   uint
	Amount    int
	Flavor    string
	Size      string
	UnitPrice decimal.Decimal
}

// OrderItemService adds and removes order items, keeping the order price in
// sync within the same transaction.
type OrderItemService struct {
	tx     repositories.TxManager
	repos  repositories.Registry
	events eventEmitter
	logger *slog.Logger
}

// NewOrderItemService creates a new OrderItemService. publisher may be nil.
func NewOrderItemService(tx repositories.TxManager, repos repositories.Registry, publisher EventPublisher, logger *slog.Logger) *OrderItemService {
	return &OrderItemService{
		tx:     tx,
		repos:  repos,
		events: newEventEmitter(publisher, logger),
		logger: logger,
	}
}

// ListItems lists every active item for admins and items of the requester's
// orders otherwise.
func (s *OrderItemService) ListItems(ctx context.Context, requester *models.User, page repositories.Page) ([]models.OrderItem, error) {
	if requester == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	return s.repos.OrderItems().List(ctx, auth.ListScope(requester), page)
}

// GetItem returns an item to the owner of its order or an admin.
func (s *OrderItemService) GetItem(ctx context.Context, requester *models.User, id uint) (*models.OrderItem, error) {
	if requester == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	item, err := s.repos.OrderItems().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order, err := s.repos.Orders().GetByID(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}
	if err := auth.CanViewSelfOrAdmin(requester, order.UserID); err != nil {
		return nil, err
	}
	return item, nil
}

// CreateItem adds an item to a pending order and recomputes its price.
func (s *OrderItemService) CreateItem(ctx context.Context, requester *models.User, input CreateItemInput) (*models.OrderItem, error) {
	if requester == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	if input.Amount <= 0 {
		return nil, apperrors.ErrValidation.WithCause(errors.New("amount must be positive"))
	}
	if input.UnitPrice.IsNegative() {
		return nil, apperrors.ErrValidation.WithCause(errors.New("unit_price must not be negative"))
	}

	item := &models.OrderItem{
		Amount:    input.Amount,
		Flavor:    input.Flavor,
		Size:      input.Size,
		UnitPrice: input.UnitPrice,
		OrderID:   input.OrderID,
		Active:    true,
	}

	var order *models.Order
	err := s.tx.Execute(ctx, func(repos repositories.Registry) error {
		var err error
		order, err = repos.Orders().GetByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if err := auth.CanViewSelfOrAdmin(requester, order.UserID); err != nil {
			return err
		}
		if err := order.EnsureAcceptsItems(); err != nil {
			return err
		}
		if err := repos.OrderItems().Create(ctx, item); err != nil {
			return err
		}
		return recomputeAndSave(ctx, repos, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order item added", "order_id", order.ID, "item_id", item.ID, "price", order.Price.String())
	s.events.emit(ctx, EventOrderItemAdded, order, item.ID)
	return item, nil
}

// DeactivateItem removes an item from a pending order and recomputes its price.
func (s *OrderItemService) DeactivateItem(ctx context.Context, requester *models.User, id uint) (*models.Order, error) {
	if requester == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	var order *models.Order
	err := s.tx.Execute(ctx, func(repos repositories.Registry) error {
		item, err := repos.OrderItems().GetByID(ctx, id)
		if err != nil {
			return err
		}
		order, err = repos.Orders().GetByID(ctx, item.OrderID)
		if err != nil {
			return err
		}
		if err := auth.CanViewSelfOrAdmin(requester, order.UserID); err != nil {
			return err
		}
		if err := order.EnsureAcceptsItems(); err != nil {
			return err
		}
		if err := repos.OrderItems().Deactivate(ctx, item.ID); err != nil {
			return err
		}
		return recomputeAndSave(ctx, repos, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order item removed", "order_id", order.ID, "item_id", id, "price", order.Price.String())
	s.events.emit(ctx, EventOrderItemRemoved, order, id)
	return order, nil
}

// recomputeAndSave reloads the active items of order, recomputes its price and
// saves it under the version check.
func recomputeAndSave(ctx context.Context, repos repositories.Registry, order *models.Order) error {
	items, err := repos.OrderItems().ListActiveByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Items = items
	order.RecomputePrice()
	metrics.PriceRecomputations.Inc()
	return repos.Orders().Save(ctx, order)
}
