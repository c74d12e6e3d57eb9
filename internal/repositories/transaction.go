package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
)

// Registry hands out repositories bound to one database handle, either the
// pool or a single transaction.
type Registry interface {
	Users() UserRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
}

// TxManager runs a unit of work atomically.
type TxManager interface {
	Execute(ctx context.Context, fn func(repos Registry) error) error
}

type gormRegistry struct {
	db *gorm.DB
}

// NewRegistry returns repositories bound to db.
func NewRegistry(db *gorm.DB) Registry {
	return &gormRegistry{db: db}
}

func (r *gormRegistry) Users() UserRepository           { return NewGORMUserRepository(r.db) }
func (r *gormRegistry) Orders() OrderRepository         { return NewGORMOrderRepository(r.db) }
func (r *gormRegistry) OrderItems() OrderItemRepository { return NewGORMOrderItemRepository(r.db) }

// GORMTxManager implements TxManager with GORM transactions.
type GORMTxManager struct {
	db *gorm.DB
}

// NewTxManager creates a GORMTxManager.
func NewTxManager(db *gorm.DB) *GORMTxManager {
	return &GORMTxManager{db: db}
}

// Execute commits when fn returns nil and rolls back on error or panic.
func (tm *GORMTxManager) Execute(ctx context.Context, fn func(repos Registry) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return apperrors.Storage(tx.Error, "failed to begin transaction")
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(NewRegistry(tx)); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return apperrors.Storage(rbErr, "transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.Storage(err, "failed to commit transaction")
	}
	return nil
}
