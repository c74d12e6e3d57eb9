package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusFinished  OrderStatus = "FINISHED"
)

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusFinished
}

// Order represents a customer order. Price always equals the sum of the
// subtotals of its active items.
type Order struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user" gorm:"index;not null"`
	Status    OrderStatus     `json:"status" gorm:"type:varchar(20);not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Active    bool            `json:"active" gorm:"not null;default:true"`
	Version   int             `json:"-" gorm:"not null;default:0"`
	Items     []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewOrder returns a pending, empty order owned by userID.
func NewOrder(userID uint) *Order {
	return &Order{
		UserID: userID,
		Status: StatusPending,
		Price:  decimal.Zero,
		Active: true,
	}
}

// RecomputePrice sets Price from the order's loaded items.
func (o *Order) RecomputePrice() decimal.Decimal {
	o.Price = RecomputePrice(o.Items)
	return o.Price
}

// EnsureAcceptsItems fails when items can no longer be added or removed.
func (o *Order) EnsureAcceptsItems() error {
	switch o.Status {
	case StatusCancelled:
		return apperrors.ErrOrderAlreadyCancelled
	case StatusFinished:
		return apperrors.ErrOrderAlreadyFinished
	}
	return nil
}

// Cancel moves a pending order to CANCELLED.
func (o *Order) Cancel() error {
	if o.Status == StatusCancelled {
		return apperrors.ErrOrderAlreadyCancelled
	}
	return o.transition(StatusCancelled)
}

// Finish moves a pending order to FINISHED.
func (o *Order) Finish() error {
	return o.transition(StatusFinished)
}

func (o *Order) transition(to OrderStatus) error {
	if o.Status != StatusPending {
		return apperrors.ErrInvalidStatusTransition
	}
	o.Status = to
	return nil
}

// RecomputePrice sums unit price times amount over the active items.
func RecomputePrice(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if !item.Active {
			continue
		}
		total = total.Add(item.Subtotal())
	}
	return total
}
