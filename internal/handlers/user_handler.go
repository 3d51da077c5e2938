package handlers

import (
	"unishop/internal/middleware"
	"unishop/internal/models"
	"unishop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles profile, avatar and cart requests.
type UserHandler struct {
	users *services.UserService
	carts *services.CartService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService, carts *services.CartService) *UserHandler {
	return &UserHandler{users: users, carts: carts}
}

// RegisterRoutes registers the user routes. All of them need a session.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/users", auth, middleware.RequireRoles(models.RoleAdmin), h.HandleListUsers)

	userRoutes := router.Group("/user/:id", auth)
	userRoutes.Get("/", h.HandleGetUser)
	userRoutes.Put("/", h.HandleUpdateUser)
	userRoutes.Post("/avatar", h.HandleSetAvatar)

	userRoutes.Get("/cart", h.HandleGetCart)
	userRoutes.Post("/cart", h.HandleAddToCart)
	userRoutes.Put("/cart", h.HandleUpdateCart)
	userRoutes.Delete("/cart/items", h.HandleRemoveFromCart)
	userRoutes.Delete("/cart", h.HandleClearCart)
}

// HandleListUsers lists users, optionally of one role.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext(), actorOf(c), models.Role(c.Query("role")))
	if err != nil {
		return respondError(c, err, "Could not retrieve users")
	}
	return c.JSON(users)
}

// HandleGetUser returns a profile.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.UserContext(), actorOf(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve user")
	}
	return c.JSON(user)
}

// HandleUpdateUser applies a partial profile update.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var input services.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.users.UpdateUser(c.UserContext(), actorOf(c), c.Params("id"), input)
	if err != nil {
		return respondError(c, err, "Could not update user")
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// HandleSetAvatar stores a data URL image as the caller's avatar.
func (h *UserHandler) HandleSetAvatar(c *fiber.Ctx) error {
	var body struct {
		Avatar string `json:"avatar"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.users.SetAvatar(c.UserContext(), actorOf(c), c.Params("id"), body.Avatar)
	if err != nil {
		return respondError(c, err, "Could not update avatar")
	}
	return c.JSON(fiber.Map{
		"message":   "Avatar updated successfully",
		"avatarUrl": user.AvatarURL,
	})
}

// HandleGetCart returns the caller's cart.
func (h *UserHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.carts.GetCart(c.UserContext(), actorOf(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve cart")
	}
	return c.JSON(cart)
}

// HandleAddToCart adds a product variant to the cart.
func (h *UserHandler) HandleAddToCart(c *fiber.Ctx) error {
	var input services.AddToCartInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	cart, err := h.carts.AddItem(c.UserContext(), actorOf(c), c.Params("id"), input)
	if err != nil {
		return respondError(c, err, "Could not add to cart")
	}
	return c.JSON(cart)
}

// HandleUpdateCart sets the quantity of one cart line.
func (h *UserHandler) HandleUpdateCart(c *fiber.Ctx) error {
	var input services.UpdateCartInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	cart, err := h.carts.UpdateQuantity(c.UserContext(), actorOf(c), c.Params("id"), input)
	if err != nil {
		return respondError(c, err, "Could not update cart")
	}
	return c.JSON(cart)
}

// HandleRemoveFromCart drops the line named by the productId, size and
// color query parameters.
func (h *UserHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	var key models.CartKey
	if err := c.QueryParser(&key); err != nil {
		return invalidBody(c, err)
	}

	cart, err := h.carts.RemoveItem(c.UserContext(), actorOf(c), c.Params("id"), key)
	if err != nil {
		return respondError(c, err, "Could not remove cart item")
	}
	return c.JSON(cart)
}

// HandleClearCart empties the cart.
func (h *UserHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.carts.ClearCart(c.UserContext(), actorOf(c), c.Params("id")); err != nil {
		return respondError(c, err, "Could not clear cart")
	}
	return c.JSON(fiber.Map{
		"message": "Cart cleared",
	})
}
