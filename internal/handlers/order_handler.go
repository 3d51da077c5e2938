package handlers

import (
	"unishop/internal/middleware"
	"unishop/internal/models"
	"unishop/internal/repositories"
	"unishop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for checkout and orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Post("/checkout/quote", auth, h.HandleQuote)

	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/", middleware.RequireRoles(models.RoleCustomer, models.RoleStudent), h.HandleCreateOrder)
	orderRoutes.Get("/", middleware.RequireRoles(models.RoleAdmin, models.RoleDealer), h.HandleGetOrders)
	orderRoutes.Get("/user/:userId", h.HandleGetUserOrders)
	orderRoutes.Get("/:orderId", h.HandleGetOrderByID)
	orderRoutes.Patch("/:orderId", middleware.RequireRoles(models.RoleAdmin, models.RoleDealer), h.HandleUpdateOrder)
	orderRoutes.Post("/:orderId/accept", middleware.RequireRoles(models.RoleDealer), h.HandleAcceptOrder)
	orderRoutes.Post("/:orderId/reject", middleware.RequireRoles(models.RoleDealer), h.HandleRejectOrder)
	orderRoutes.Post("/:orderId/ship", middleware.RequireRoles(models.RoleAdmin), h.HandleShipOrder)
}

// HandleQuote prices the posted items, or the caller's cart, with tax and
// shipping.
func (h *OrderHandler) HandleQuote(c *fiber.Ctx) error {
	var body struct {
		Items []models.CartItem `json:"items"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return invalidBody(c, err)
		}
	}

	quote, err := h.service.QuoteOrder(c.UserContext(), actorOf(c), body.Items)
	if err != nil {
		return respondError(c, err, "Could not price order")
	}
	return c.JSON(quote)
}

// HandleCreateOrder places an order from the posted items or the cart.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var input services.CheckoutInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	createdOrder, err := h.service.PlaceOrder(c.UserContext(), actorOf(c), input)
	if err != nil {
		return respondError(c, err, "Could not create order")
	}

	// Return the created order with its new ID and a 201 Created status
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order placed successfully",
		"order":   createdOrder,
	})
}

// HandleGetOrders lists orders for the admin and dealer portals.
// Supported query parameters: status, userId, assignedDealerId and
// unassigned=true.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	filter := repositories.OrderFilter{
		UserID:           c.Query("userId"),
		AssignedDealerID: c.Query("assignedDealerId"),
		Unassigned:       c.QueryBool("unassigned"),
		Status:           models.OrderStatus(c.Query("status")),
	}

	orders, err := h.service.ListOrders(c.UserContext(), actorOf(c), filter)
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetUserOrders lists the orders placed by a user.
func (h *OrderHandler) HandleGetUserOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListUserOrders(c.UserContext(), actorOf(c), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), actorOf(c), c.Params("orderId"))
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleUpdateOrder applies a partial update: status, assignedDealerId or
// dealerRejectionReason.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	var patch services.OrderPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.UpdateOrder(c.UserContext(), actorOf(c), c.Params("orderId"), patch)
	if err != nil {
		return respondError(c, err, "Could not update order")
	}
	return c.JSON(fiber.Map{
		"message": "Order updated successfully",
		"order":   order,
	})
}

// HandleAcceptOrder lets a dealer take an order.
func (h *OrderHandler) HandleAcceptOrder(c *fiber.Ctx) error {
	order, err := h.service.AcceptOrder(c.UserContext(), actorOf(c), c.Params("orderId"))
	if err != nil {
		return respondError(c, err, "Could not accept order")
	}
	return c.JSON(fiber.Map{
		"message": "Order accepted",
		"order":   order,
	})
}

// HandleRejectOrder returns an order to the unassigned pool.
func (h *OrderHandler) HandleRejectOrder(c *fiber.Ctx) error {
	var body struct {
		Reason                string `json:"reason"`
		DealerRejectionReason string `json:"dealerRejectionReason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, err)
	}
	reason := body.Reason
	if reason == "" {
		reason = body.DealerRejectionReason
	}

	order, err := h.service.RejectOrder(c.UserContext(), actorOf(c), c.Params("orderId"), reason)
	if err != nil {
		return respondError(c, err, "Could not reject order")
	}
	return c.JSON(fiber.Map{
		"message": "Order rejected",
		"order":   order,
	})
}

// HandleShipOrder marks an order shipped.
func (h *OrderHandler) HandleShipOrder(c *fiber.Ctx) error {
	order, err := h.service.ShipOrder(c.UserContext(), actorOf(c), c.Params("orderId"))
	if err != nil {
		return respondError(c, err, "Could not ship order")
	}
	return c.JSON(fiber.Map{
		"message": "Order shipped",
		"order":   order,
	})
}
