package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lucas-ioliveira/ordering-system/internal/middleware"
	"github.com/lucas-ioliveira/ordering-system/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service   *services.OrderService
	validator *requestValidator
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service, validator: newRequestValidator()}
}

// RegisterRoutes registers the order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	orderRoutes := router.Group("/orders", authRequired)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Post("/:id/finish", h.HandleFinishOrder)
}

// HandleGetOrders lists orders visible to the requester.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	page, err := pageQuery(c)
	if err != nil {
		return err
	}
	orders, err := h.service.ListOrders(c.UserContext(), middleware.CurrentUser(c), page)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Orders found", orders)
}

// CreateOrderRequest represents the optional body of order creation.
type CreateOrderRequest struct {
	User *uint `json:"user" validate:"omitempty,gt=0"`
}

// HandleCreateOrder opens an empty order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if len(c.Body()) > 0 {
		if err := h.validator.bind(c, &req); err != nil {
			return err
		}
	}

	order, err := h.service.CreateOrder(c.UserContext(), middleware.CurrentUser(c), req.User)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Pedido criado com sucesso.", order)
}

// HandleGetOrderByID returns one order with its active items.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Order found", order)
}

// HandleCancelOrder cancels a pending order.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.CancelOrder(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Order canceled", order)
}

// HandleFinishOrder marks a pending order as finished.
func (h *OrderHandler) HandleFinishOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.FinishOrder(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Pedido finalizado com sucesso.", order)
}
