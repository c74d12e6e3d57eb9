package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{db: db}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrEmailAlreadyRegistered
		}
		return apperrors.Storage(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID, active or not.
func (r *GORMUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "failed to get user by id", "id = ?", id)
}

// GetByEmail retrieves a user by email, active or not.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "failed to get user by email", "email = ?", email)
}

func (r *GORMUserRepository) first(ctx context.Context, msg string, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Storage(err, msg)
	}
	return &user, nil
}

// ListActive returns one page of active users with the given admin flag.
func (r *GORMUserRepository) ListActive(ctx context.Context, admin bool, page Page) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("active = ? AND admin = ?", true, admin).
		Order("id").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&users).Error
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list users")
	}
	return users, nil
}

// Update saves name, email, active and admin of an existing user.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":   user.Name,
			"email":  user.Email,
			"active": user.Active,
			"admin":  user.Admin,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrEmailAlreadyRegistered
		}
		return apperrors.Storage(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// ExistsAdmin reports whether at least one admin account exists.
func (r *GORMUserRepository) ExistsAdmin(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("admin = ?", true).Count(&count).Error; err != nil {
		return false, apperrors.Storage(err, "failed to count admins")
	}
	return count > 0, nil
}
