package services

import (
	"context"
	"log/slog"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/auth"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
	"github.com/lucas-ioliveira/ordering-system/internal/repositories"
)

// OrderService handles business logic related to orders.
type OrderService struct {
	tx     repositories.TxManager
	repos  repositories.Registry
	events eventEmitter
	logger *slog.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(tx repositories.TxManager, repos repositories.Registry, publisher EventPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		tx:     tx,
		repos:  repos,
		events: newEventEmitter(publisher, logger),
		logger: logger,
	}
}

// ListOrders lists every active order for admins and the requester's own otherwise.
func (s *OrderService) ListOrders(ctx context.Context, requester *models.User, page repositories.Page) ([]models.Order, error) {
	if requester == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	return s.repos.Orders().List(ctx, auth.ListScope(requester), page)
}

// GetOrder returns an order with its active items.
func (s *OrderService) GetOrder(ctx context.Context, requester *models.User, id uint) (*models.Order, error) {
	if requester == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	order, err := s.repos.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanViewSelfOrAdmin(requester, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrder opens an empty pending order for ownerID, or for the requester
// when ownerID is nil.
func (s *OrderService) CreateOrder(ctx context.Context, requester *models.User, ownerID *uint) (*models.Order, error) {
	if requester == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	owner := requester.ID
	if ownerID != nil {
		owner = *ownerID
	}
	if err := auth.CanViewSelfOrAdmin(requester, owner); err != nil {
		return nil, err
	}

	order := models.NewOrder(owner)
	err := s.tx.Execute(ctx, func(repos repositories.Registry) error {
		user, err := repos.Users().GetByID(ctx, owner)
		if err != nil {
			return err
		}
		if !user.Active {
			return apperrors.ErrUserNotFound
		}
		return repos.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order created", "order_id", order.ID, "user_id", owner)
	s.events.emit(ctx, EventOrderCreated, order, 0)
	return order, nil
}

// CancelOrder cancels a pending order. Owner or admin.
func (s *OrderService) CancelOrder(ctx context.Context, requester *models.User, id uint) (*models.Order, error) {
	order, err := s.transition(ctx, requester, id, func(order *models.Order) error {
		if err := auth.CanViewSelfOrAdmin(requester, order.UserID); err != nil {
			return err
		}
		return order.Cancel()
	})
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, EventOrderCancelled, order, 0)
	return order, nil
}

// FinishOrder marks a pending order as delivered. Admin only.
func (s *OrderService) FinishOrder(ctx context.Context, requester *models.User, id uint) (*models.Order, error) {
	if err := auth.CanAdminOnly(requester); err != nil {
		return nil, err
	}
	order, err := s.transition(ctx, requester, id, func(order *models.Order) error {
		return order.Finish()
	})
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, EventOrderFinished, order, 0)
	return order, nil
}

func (s *OrderService) transition(ctx context.Context, requester *models.User, id uint, apply func(*models.Order) error) (*models.Order, error) {
	if requester == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	var order *models.Order
	err := s.tx.Execute(ctx, func(repos repositories.Registry) error {
		var err error
		order, err = repos.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(order); err != nil {
			return err
		}
		return repos.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order status changed", "order_id", order.ID, "status", order.Status, "by", requester.ID)
	return order, nil
}
