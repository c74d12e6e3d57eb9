package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lucas-ioliveira/ordering-system/internal/middleware"
	"github.com/lucas-ioliveira/ordering-system/internal/services"
)

// AccountHandler handles HTTP requests for accounts.
type AccountHandler struct {
	service   *services.AccountService
	validator *requestValidator
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{service: service, validator: newRequestValidator()}
}

// RegisterRoutes registers the account routes.
func (h *AccountHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	accountRoutes := router.Group("/accounts", authRequired)
	accountRoutes.Get("/", h.HandleListAccounts)
	accountRoutes.Get("/admin", h.HandleListAdminAccounts)
	accountRoutes.Get("/:id", h.HandleGetAccount)
	accountRoutes.Post("/:id/update", h.HandleUpdateAccount)
}

// HandleListAccounts lists active regular accounts.
func (h *AccountHandler) HandleListAccounts(c *fiber.Ctx) error {
	page, err := pageQuery(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListAccounts(c.UserContext(), middleware.CurrentUser(c), page)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Accounts found", users)
}

// HandleListAdminAccounts lists active admin accounts.
func (h *AccountHandler) HandleListAdminAccounts(c *fiber.Ctx) error {
	page, err := pageQuery(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListAdminAccounts(c.UserContext(), middleware.CurrentUser(c), page)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Accounts found", users)
}

// HandleGetAccount returns one account.
func (h *AccountHandler) HandleGetAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.GetAccount(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Account found", user)
}

// UpdateAccountRequest represents the request body for account updates.
type UpdateAccountRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

// HandleUpdateAccount changes name and email of an account.
func (h *AccountHandler) HandleUpdateAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateAccountRequest
	if err := h.validator.bind(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateAccount(c.UserContext(), middleware.CurrentUser(c), id, services.UpdateAccountInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Conta atualizada com sucesso.", user)
}
