package repositories

import (
	"context"

	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// List returns active orders, restricted to ownerID when it is not nil.
	List(ctx context.Context, ownerID *uint, page Page) ([]models.Order, error)
	// GetByID returns an active order with its active items.
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	// Save writes status and price if the stored version still matches
	// order.Version, then bumps the version.
	Save(ctx context.Context, order *models.Order) error
}

// OrderItemRepository defines the interface for order item data access.
type OrderItemRepository interface {
	// List returns active items, restricted to orders of ownerID when it is not nil.
	List(ctx context.Context, ownerID *uint, page Page) ([]models.OrderItem, error)
	GetByID(ctx context.Context, id uint) (*models.OrderItem, error)
	ListActiveByOrder(ctx context.Context, orderID uint) ([]models.OrderItem, error)
	Create(ctx context.Context, item *models.OrderItem) error
	Deactivate(ctx context.Context, id uint) error
}
