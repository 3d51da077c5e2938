package middleware

import (
	"log"
	"strings"

	"unishop/internal/models"
	"unishop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TokenCookie is the name of the HTTP-only cookie carrying the session token.
const TokenCookie = "token"

const actorKey = "actor"

// tokenFrom returns the token from the session cookie, falling back to an
// "Authorization: Bearer <token>" header.
func tokenFrom(c *fiber.Ctx) (string, bool) {
	if token := c.Cookies(TokenCookie); token != "" {
		return token, true
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := tokenFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}

		actor, err := authService.ActorFromToken(tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		// Store the verified caller for subsequent handlers
		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// RequireRoles rejects callers whose verified role is not listed. It must
// run after AuthRequired.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Access denied",
			"error":   "role " + string(actor.Role) + " may not access this resource",
		})
	}
}

// CurrentActor returns the caller stored by AuthRequired.
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(actorKey).(services.Actor)
	return actor, ok
}
