package handlers

import (
	"strings"
	"time"

	"unishop/internal/middleware"
	"unishop/internal/models"
	"unishop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService  *services.AuthService
	userService  *services.UserService
	validate     *validator.Validate
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. cookieSecure marks the session
// cookie HTTPS-only.
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		validate:     validator.New(),
		cookieSecure: cookieSecure,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Get("/me", auth, h.HandleMe)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.authService.RegisterUser(c.UserContext(), input)
	if err != nil {
		return respondError(c, err, "Could not register user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login. Students send their
// roll number, everyone else an email address; identifier accepts either.
type LoginRequest struct {
	Identifier string      `json:"identifier"`
	Email      string      `json:"email"`
	RollNumber string      `json:"rollNumber"`
	Password   string      `json:"password" validate:"required"`
	Role       models.Role `json:"role" validate:"required"`
}

func (r LoginRequest) identifier() string {
	for _, v := range []string{r.Identifier, r.Email, r.RollNumber} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// HandleLogin handles user login, issues a JWT token and sets it as the
// session cookie.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if err := h.validate.Struct(req); err != nil {
		return respondError(c, validationFailed(err), "Validation failed")
	}
	identifier := req.identifier()
	if identifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fiber.Map{"Identifier": "Field 'Identifier' failed on the 'required' tag"},
		})
	}

	user, token, err := h.authService.LoginUser(c.UserContext(), identifier, req.Password, req.Role)
	if err != nil {
		return respondError(c, err, "Authentication failed")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.authService.TokenTTL()),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// HandleLogout clears the session cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

// HandleMe returns the user behind the session token.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	actor := actorOf(c)
	user, err := h.userService.GetUser(c.UserContext(), actor, actor.ID)
	if err != nil {
		return respondError(c, err, "Could not load current user")
	}
	return c.JSON(fiber.Map{
		"user": user,
	})
}
