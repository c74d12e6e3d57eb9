// Package middleware holds the Fiber middleware of the API.
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

// UserKey is the fiber.Ctx Locals key of the authenticated user.
const UserKey = "user"

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// authenticated user in Locals.
func AuthRequired(authenticator Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return err
		}

		user, err := authenticator.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(UserKey, user)
		return c.Next()
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperrors.ErrNotAuthenticated
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.ErrNotAuthenticated
	}
	return strings.TrimSpace(parts[1]), nil
}

// CurrentUser returns the user stored by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(UserKey).(*models.User)
	return user
}
