// Package app assembles repositories, services and HTTP handlers into a
// Fiber application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"unishop/internal/config"
	"unishop/internal/database"
	"unishop/internal/events"
	"unishop/internal/handlers"
	"unishop/internal/middleware"
	"unishop/internal/repositories"
	"unishop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const defaultBodyLimit = 4 * 1024 * 1024

// App is a wired UniShop server.
type App struct {
	Fiber     *fiber.App
	Store     *repositories.Store
	Publisher events.Publisher

	closeStore database.Closer
}

// New opens the configured store and event publisher and wires the server.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, closeStore, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	publisher, err := events.NewPublisher(cfg)
	if err != nil {
		_ = closeStore(ctx)
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	a := NewWithStore(store, cfg, publisher)
	a.closeStore = closeStore
	return a, nil
}

// NewWithStore wires the server over an already opened store. A nil
// publisher drops events.
func NewWithStore(store *repositories.Store, cfg *config.Config, publisher events.Publisher) *App {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	// --- Initialize Services ---
	authService := services.NewAuthService(store.Users, cfg.JWTSecret, cfg.TokenTTL)
	userService := services.NewUserService(store.Users, cfg.MaxAvatarBytes)
	cartService := services.NewCartService(store.Users, store.Products)
	productService := services.NewProductService(store.Products, store.Categories, store.Reviews, store.Users)
	orderService := services.NewOrderService(store.Orders, store.Products, store.Users, publisher, services.Pricing{
		TaxRate:     cfg.TaxRate,
		ShippingFee: cfg.ShippingFee,
	})
	paymentService := services.NewPaymentService(orderService, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.PaymentMock)
	orderService.SetSignatureVerifier(paymentService)
	dashboardService := services.NewDashboardService(store.Users, store.Products, store.Orders)
	donationService := services.NewDonationService(store.Donations)

	// --- Initialize Fiber App ---
	bodyLimit := defaultBodyLimit
	if avatarLimit := cfg.MaxAvatarBytes*4/3 + 64*1024; avatarLimit > bodyLimit {
		bodyLimit = avatarLimit
	}
	app := fiber.New(fiber.Config{
		AppName:      "UniShop",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	// --- API Routes ---
	api := app.Group("/api")
	auth := middleware.AuthRequired(authService)

	handlers.NewAuthHandler(authService, userService, cfg.CookieSecure).RegisterRoutes(api, auth)
	handlers.NewProductHandler(productService).RegisterRoutes(api, auth)
	handlers.NewUserHandler(userService, cartService).RegisterRoutes(api, auth)
	handlers.NewOrderHandler(orderService).RegisterRoutes(api, auth)
	handlers.NewPaymentHandler(paymentService).RegisterRoutes(api, auth)
	handlers.NewDashboardHandler(dashboardService).RegisterRoutes(api, auth)
	handlers.NewDonationHandler(donationService).RegisterRoutes(api, auth)

	// --- Health Check Endpoint ---
	storage := cfg.DBDriver
	if cfg.UseMockData {
		storage = "mock"
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"time":    time.Now().Format(time.RFC3339),
			"storage": storage,
			"events":  cfg.EventsDriver,
		})
	})

	return &App{
		Fiber:      app,
		Store:      store,
		Publisher:  publisher,
		closeStore: func(context.Context) error { return nil },
	}
}

// errorHandler answers errors no handler turned into a response, such as
// unknown routes and recovered panics.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"message": statusMessage(code),
		"error":   err.Error(),
	})
}

func statusMessage(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return "Route not found"
	case fiber.StatusMethodNotAllowed:
		return "Method not allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "Request body too large"
	case fiber.StatusInternalServerError:
		return "Internal server error"
	}
	return "Request failed"
}

// Listen serves HTTP on addr until Shutdown is called.
func (a *App) Listen(addr string) error {
	return a.Fiber.Listen(addr)
}

// Shutdown stops the HTTP server, then closes the publisher and the store.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
	}
	if err := a.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := a.closeStore(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
