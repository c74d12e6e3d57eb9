package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/lucas-ioliveira/ordering-system/internal/middleware"
	"github.com/lucas-ioliveira/ordering-system/internal/services"
)

// OrderItemHandler handles HTTP requests for order items.
type OrderItemHandler struct {
	service   *services.OrderItemService
	validator *requestValidator
}

// NewOrderItemHandler creates a new OrderItemHandler.
func NewOrderItemHandler(service *services.OrderItemService) *OrderItemHandler {
	return &OrderItemHandler{service: service, validator: newRequestValidator()}
}

// RegisterRoutes registers the order item routes.
func (h *OrderItemHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	itemRoutes := router.Group("/order-items", authRequired)
	itemRoutes.Get("/", h.HandleGetItems)
	itemRoutes.Post("/", h.HandleCreateItem)
	itemRoutes.Get("/:id", h.HandleGetItemByID)
	itemRoutes.Delete("/:id", h.HandleDeleteItem)
}

// HandleGetItems lists items visible to the requester.
func (h *OrderItemHandler) HandleGetItems(c *fiber.Ctx) error {
	page, err := pageQuery(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListItems(c.UserContext(), middleware.CurrentUser(c), page)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Order items found", items)
}

// CreateOrderItemRequest represents the request body for item creation.
type CreateOrderItemRequest struct {
	Amount    int              `json:"amount" validate:"required,gt=0"`
	Flavor    string           `json:"flavor" validate:"required,max=100"`
	Size      string           `json:"size" validate:"required,max=50"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Order     uint             `json:"order" validate:"required,gt=0"`
}

// HandleCreateItem adds an item to an order.
func (h *OrderItemHandler) HandleCreateItem(c *fiber.Ctx) error {
	var req CreateOrderItemRequest
	if err := h.validator.bind(c, &req); err != nil {
		return err
	}
	if req.UnitPrice == nil {
		return &ValidationError{Fields: map[string]string{"UnitPrice": "Field 'UnitPrice' failed on the 'required' tag"}}
	}
	if req.UnitPrice.IsNegative() {
		return &ValidationError{Fields: map[string]string{"UnitPrice": "Field 'UnitPrice' must not be negative"}}
	}

	item, err := h.service.CreateItem(c.UserContext(), middleware.CurrentUser(c), services.CreateItemInput{
		OrderID:   req.Order,
		Amount:    req.Amount,
		Flavor:    req.Flavor,
		Size:      req.Size,
		UnitPrice: *req.UnitPrice,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Item do pedido criado com sucesso.", item)
}

// HandleGetItemByID returns one item.
func (h *OrderItemHandler) HandleGetItemByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.service.GetItem(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Order item found", item)
}

// HandleDeleteItem removes an item and returns the updated order.
func (h *OrderItemHandler) HandleDeleteItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.DeactivateItem(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Item do pedido removido com sucesso.", order)
}
