package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lucas-ioliveira/ordering-system/internal/middleware"
	"github.com/lucas-ioliveira/ordering-system/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validator   *requestValidator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   newRequestValidator(),
	}
}

// RegisterRoutes registers the authentication routes. authRequired guards
// admin account creation only.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/create-account", h.HandleCreateAccount)
	authRoutes.Post("/create-account-admin", authRequired, h.HandleCreateAdminAccount)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/login-form", h.HandleLoginForm)
	authRoutes.Get("/refresh-token", h.HandleRefreshToken)
}

// CreateAccountRequest represents the request body for account creation.
type CreateAccountRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (r CreateAccountRequest) input() services.CreateAccountInput {
	return services.CreateAccountInput{Name: r.Name, Email: r.Email, Password: r.Password}
}

// HandleCreateAccount registers a regular account.
func (h *AuthHandler) HandleCreateAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := h.validator.bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.CreateAccount(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Usuário criado com sucesso.", user)
}

// HandleCreateAdminAccount registers an admin account.
func (h *AuthHandler) HandleCreateAdminAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := h.validator.bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.CreateAdminAccount(c.UserContext(), middleware.CurrentUser(c), req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Usuário criado com sucesso.", user)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles JSON login and issues a token pair.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := h.validator.bind(c, &req); err != nil {
		return err
	}
	return h.login(c, req.Email, req.Password)
}

// LoginFormRequest is the OAuth2 password-grant style form.
type LoginFormRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// HandleLoginForm handles form login; the username field carries the email.
func (h *AuthHandler) HandleLoginForm(c *fiber.Ctx) error {
	var req LoginFormRequest
	if err := h.validator.bind(c, &req); err != nil {
		return err
	}
	return h.login(c, req.Username, req.Password)
}

func (h *AuthHandler) login(c *fiber.Ctx, email, password string) error {
	pair, err := h.authService.Login(c.UserContext(), email, password)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Login realizado com sucesso.", pair)
}

// HandleRefreshToken exchanges the bearer refresh token for a new pair.
func (h *AuthHandler) HandleRefreshToken(c *fiber.Ctx) error {
	token, err := middleware.BearerToken(c)
	if err != nil {
		return err
	}

	pair, err := h.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Token atualizado com sucesso.", pair)
}
