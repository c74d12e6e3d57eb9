package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is a line of an order.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Amount    int             `json:"amount" gorm:"not null"`
	Flavor    string          `json:"flavor" gorm:"type:varchar(100);not null"`
	Size      string          `json:"size" gorm:"type:varchar(50);not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	OrderID   uint            `json:"order" gorm:"index;not null"`
	Active    bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Subtotal is UnitPrice times Amount.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Amount)))
}
