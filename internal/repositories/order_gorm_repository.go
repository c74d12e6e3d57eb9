package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) List(ctx context.Context, ownerID *uint, page Page) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if ownerID != nil {
		query = query.Where("user_id = ?", *ownerID)
	}

	var orders []models.Order
	err := query.Order("id").Offset(page.Offset).Limit(page.Limit).Find(&orders).Error
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list orders")
	}
	return orders, nil
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", "active = ?", true).
		Where("id = ? AND active = ?", id, true).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.Storage(err, "failed to get order")
	}
	return &order, nil
}

func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return apperrors.Storage(err, "failed to create order")
	}
	return nil
}

func (r *GORMOrderRepository) Save(ctx context.Context, order *models.Order) error {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":  order.Status,
			"price":   order.Price,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return apperrors.Storage(result.Error, "failed to update order")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConcurrentModification
	}
	order.Version++
	return nil
}

// GORMOrderItemRepository is a GORM implementation of OrderItemRepository.
type GORMOrderItemRepository struct {
	db *gorm.DB
}

// NewGORMOrderItemRepository creates a new instance of GORMOrderItemRepository.
func NewGORMOrderItemRepository(db *gorm.DB) *GORMOrderItemRepository {
	return &GORMOrderItemRepository{db: db}
}

func (r *GORMOrderItemRepository) List(ctx context.Context, ownerID *uint, page Page) ([]models.OrderItem, error) {
	query := r.db.WithContext(ctx).Where("order_items.active = ?", true)
	if ownerID != nil {
		query = query.
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("orders.user_id = ?", *ownerID)
	}

	var items []models.OrderItem
	err := query.Order("order_items.id").Offset(page.Offset).Limit(page.Limit).Find(&items).Error
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list order items")
	}
	return items, nil
}

func (r *GORMOrderItemRepository) GetByID(ctx context.Context, id uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderItemNotFound
		}
		return nil, apperrors.Storage(err, "failed to get order item")
	}
	return &item, nil
}

func (r *GORMOrderItemRepository) ListActiveByOrder(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND active = ?", orderID, true).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list items of order")
	}
	return items, nil
}

func (r *GORMOrderItemRepository) Create(ctx context.Context, item *models.OrderItem) error {
	item.Active = true
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return apperrors.Storage(err, "failed to create order item")
	}
	return nil
}

func (r *GORMOrderItemRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if result.Error != nil {
		return apperrors.Storage(result.Error, "failed to deactivate order item")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrOrderItemNotFound
	}
	return nil
}
