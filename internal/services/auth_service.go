// Package services holds the business operations behind the HTTP handlers.
// Every operation receives the authenticated requester and applies the
// authorization policy before touching storage.
package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/auth"
	"github.com/lucas-ioliveira/ordering-system/internal/metrics"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
	"github.com/lucas-ioliveira/ordering-system/internal/repositories"
)

// CreateAccountInput carries the fields of a new account.
type CreateAccountInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService handles account creation, login and token verification.
type AuthService struct {
	users  repositories.UserRepository
	hasher auth.PasswordHasher
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, hasher auth.PasswordHasher, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// CreateAccount registers a regular, active account.
func (s *AuthService) CreateAccount(ctx context.Context, input CreateAccountInput) (*models.User, error) {
	return s.createAccount(ctx, input, false)
}

// CreateAdminAccount registers an admin account. Only admins may do this.
func (s *AuthService) CreateAdminAccount(ctx context.Context, requester *models.User, input CreateAccountInput) (*models.User, error) {
	if err := auth.CanAdminOnly(requester); err != nil {
		return nil, err
	}
	return s.createAccount(ctx, input, true)
}

func (s *AuthService) createAccount(ctx context.Context, input CreateAccountInput, admin bool) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.ErrEmailAlreadyRegistered
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: hashed,
		Active:   true,
		Admin:    admin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account created", "user_id", user.ID, "admin", admin)
	return user, nil
}

// Login checks the credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return auth.TokenPair{}, s.authFailure(apperrors.ErrInvalidCredentials)
		}
		return auth.TokenPair{}, err
	}
	if !s.hasher.Check(password, user.Password) {
		return auth.TokenPair{}, s.authFailure(apperrors.ErrInvalidCredentials)
	}
	if !user.Active {
		return auth.TokenPair{}, s.authFailure(apperrors.ErrUserNotActive)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return auth.TokenPair{}, apperrors.ErrInternal.WithCause(err)
	}
	metrics.TokensIssued.WithLabelValues("login").Inc()
	return pair, nil
}

// Refresh rotates a refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	pair, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return auth.TokenPair{}, s.authFailure(err)
	}
	metrics.TokensIssued.WithLabelValues("refresh").Inc()
	return pair, nil
}

// Authenticate resolves a bearer token to its active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	user, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, s.authFailure(err)
	}
	return user, nil
}

func (s *AuthService) authFailure(err error) error {
	reason := "unknown"
	if appErr, ok := apperrors.As(err); ok {
		reason = appErr.ErrorCode()
	}
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	return err
}
