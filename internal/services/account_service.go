package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/auth"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
	"github.com/lucas-ioliveira/ordering-system/internal/repositories"
)

// UpdateAccountInput lists the fields that may change. Nil means unchanged.
type UpdateAccountInput struct {
	Name  *string
	Email *string
}

// AccountService reads and updates accounts.
type AccountService struct {
	users repositories.UserRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(users repositories.UserRepository) *AccountService {
	return &AccountService{users: users}
}

// ListAccounts lists active regular accounts. Admin only.
func (s *AccountService) ListAccounts(ctx context.Context, requester *models.User, page repositories.Page) ([]models.User, error) {
	if err := auth.CanAdminOnly(requester); err != nil {
		return nil, err
	}
	return s.users.ListActive(ctx, false, page)
}

// ListAdminAccounts lists active admin accounts. Admin only.
func (s *AccountService) ListAdminAccounts(ctx context.Context, requester *models.User, page repositories.Page) ([]models.User, error) {
	if err := auth.CanAdminOnly(requester); err != nil {
		return nil, err
	}
	return s.users.ListActive(ctx, true, page)
}

// GetAccount returns an active account to its owner or an admin.
func (s *AccountService) GetAccount(ctx context.Context, requester *models.User, id uint) (*models.User, error) {
	if err := auth.CanViewSelfOrAdmin(requester, id); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// UpdateAccount changes name and email of an account.
func (s *AccountService) UpdateAccount(ctx context.Context, requester *models.User, id uint, input UpdateAccountInput) (*models.User, error) {
	user, err := s.GetAccount(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email != user.Email {
			existing, err := s.users.GetByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, apperrors.ErrEmailAlreadyRegistered
			case err != nil && !errors.Is(err, apperrors.ErrUserNotFound):
				return nil, err
			}
			user.Email = email
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
