package handlers

import (
	"unishop/internal/middleware"
	"unishop/internal/models"
	"unishop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler exposes the mock payment gateway.
type PaymentHandler struct {
	service *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers the payment routes.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	paymentRoutes := router.Group("/payment", auth)
	paymentRoutes.Post("/create-order", h.HandleCreateOrder)
	paymentRoutes.Post("/verify-signature", h.HandleVerifySignature)
}

// HandleCreateOrder opens a gateway order for an amount.
func (h *PaymentHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var input services.CreatePaymentInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.CreateOrder(c.UserContext(), input)
	if err != nil {
		return respondError(c, err, "Could not create payment order")
	}
	return c.JSON(order)
}

// HandleVerifySignature checks a payment signature and records the payment
// on the store order when one is named.
func (h *PaymentHandler) HandleVerifySignature(c *fiber.Ctx) error {
	var input services.VerifyPaymentInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	valid, order, err := h.service.VerifyPayment(c.UserContext(), actorOf(c), input)
	if err != nil {
		return respondError(c, err, "Could not verify payment")
	}
	if !valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Payment verification failed",
			"valid":   false,
		})
	}
	body := fiber.Map{
		"message": "Payment verified",
		"valid":   true,
	}
	if order != nil {
		body["order"] = order
	}
	return c.JSON(body)
}

// DashboardHandler serves the per-role dashboards.
type DashboardHandler struct {
	service *services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// RegisterRoutes registers the dashboard routes, one per portal role.
func (h *DashboardHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	dashboardRoutes := router.Group("/dashboard", auth)
	dashboardRoutes.Get("/admin", middleware.RequireRoles(models.RoleAdmin), h.HandleAdmin)
	dashboardRoutes.Get("/dealer", middleware.RequireRoles(models.RoleDealer), h.HandleDealer)
	dashboardRoutes.Get("/institution", middleware.RequireRoles(models.RoleInstitution), h.HandleInstitution)
}

func (h *DashboardHandler) HandleAdmin(c *fiber.Ctx) error {
	d, err := h.service.Admin(c.UserContext(), actorOf(c))
	if err != nil {
		return respondError(c, err, "Could not build dashboard")
	}
	return c.JSON(d)
}

func (h *DashboardHandler) HandleDealer(c *fiber.Ctx) error {
	d, err := h.service.Dealer(c.UserContext(), actorOf(c))
	if err != nil {
		return respondError(c, err, "Could not build dashboard")
	}
	return c.JSON(d)
}

func (h *DashboardHandler) HandleInstitution(c *fiber.Ctx) error {
	d, err := h.service.Institution(c.UserContext(), actorOf(c))
	if err != nil {
		return respondError(c, err, "Could not build dashboard")
	}
	return c.JSON(d)
}

// DonationHandler handles uniform donation pledges.
type DonationHandler struct {
	service *services.DonationService
}

// NewDonationHandler creates a new DonationHandler.
func NewDonationHandler(service *services.DonationService) *DonationHandler {
	return &DonationHandler{service: service}
}

// RegisterRoutes registers the donation routes.
func (h *DonationHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	donationRoutes := router.Group("/donations", auth)
	donationRoutes.Post("/", h.HandleSubmit)
	donationRoutes.Get("/", h.HandleList)
	donationRoutes.Patch("/:id", middleware.RequireRoles(models.RoleAdmin), h.HandleUpdateStatus)
}

// HandleSubmit records a donation pledge.
func (h *DonationHandler) HandleSubmit(c *fiber.Ctx) error {
	var donation models.Donation
	if err := c.BodyParser(&donation); err != nil {
		return invalidBody(c, err)
	}

	if err := h.service.Submit(c.UserContext(), actorOf(c), &donation); err != nil {
		return respondError(c, err, "Could not submit donation")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Thank you for your donation",
		"donation": donation,
	})
}

// HandleList lists donations visible to the caller.
func (h *DonationHandler) HandleList(c *fiber.Ctx) error {
	donations, err := h.service.List(c.UserContext(), actorOf(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve donations")
	}
	return c.JSON(donations)
}

// HandleUpdateStatus moves a donation along its collection status.
func (h *DonationHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var body struct {
		Status models.DonationStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, err)
	}

	donation, err := h.service.UpdateStatus(c.UserContext(), actorOf(c), c.Params("id"), body.Status)
	if err != nil {
		return respondError(c, err, "Could not update donation")
	}
	return c.JSON(donation)
}
