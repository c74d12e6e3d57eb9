package repositories

import (
	"context"

	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// ListActive returns active users whose admin flag equals admin.
	ListActive(ctx context.Context, admin bool, page Page) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsAdmin(ctx context.Context) (bool, error)
}

// Page is an offset/limit window.
type Page struct {
	Offset int
	Limit  int
}
