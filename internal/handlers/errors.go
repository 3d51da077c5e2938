package handlers

import (
	"errors"
	"fmt"
	"log"

	"unishop/internal/middleware"
	"unishop/internal/repositories"
	"unishop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError writes the JSON error response for err. message describes
// the failed operation and is used for unexpected errors.
func respondError(c *fiber.Ctx, err error, message string) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		body := fiber.Map{
			"message": validationErr.Message,
			"error":   validationErr.Error(),
		}
		if len(validationErr.Fields) > 0 {
			body["errors"] = validationErr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Access denied",
			"error":   err.Error(),
		})
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
			"error":   err.Error(),
		})
	case errors.Is(err, repositories.ErrDuplicate),
		errors.Is(err, repositories.ErrVersionConflict),
		errors.Is(err, services.ErrTerminalStatus),
		errors.Is(err, services.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}

	log.Printf("%s: %v", message, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// validationFailed converts validator errors on a request DTO into a
// services.ValidationError.
func validationFailed(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &services.ValidationError{Message: "Validation failed", Fields: errorMessages}
}

// invalidBody answers a request whose body could not be parsed.
func invalidBody(c *fiber.Ctx, err error) error {
	log.Printf("Error parsing request body for %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// actorOf returns the authenticated caller. Routes using it sit behind
// middleware.AuthRequired.
func actorOf(c *fiber.Ctx) services.Actor {
	actor, _ := middleware.CurrentActor(c)
	return actor
}
