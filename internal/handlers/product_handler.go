package handlers

import (
	"fmt"

	"unishop/internal/middleware"
	"unishop/internal/models"
	"unishop/internal/repositories"
	"unishop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog and its reviews.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product, review and category routes.
// Reads are public.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/categories", h.HandleGetCategories)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Get("/:id/reviews", h.HandleGetReviews)
	productRoutes.Post("/:id/reviews", auth, middleware.RequireRoles(models.RoleCustomer, models.RoleStudent), h.HandleAddReview)

	admin := middleware.RequireRoles(models.RoleAdmin)
	productRoutes.Post("/", auth, admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", auth, admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, admin, h.HandleDeleteProduct)
}

// HandleGetProducts lists products, optionally filtered by category,
// institution, featured flag and a search term.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Category:    models.ProductCategory(c.Query("category")),
		Institution: c.Query("institution"),
		Query:       c.Query("q"),
	}
	if c.Query("featured") != "" {
		featured := c.QueryBool("featured")
		filter.Featured = &featured
	}

	products, err := h.service.GetAllProducts(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(c.UserContext(), productID)
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return invalidBody(c, err)
	}

	if err := h.service.CreateProduct(c.UserContext(), actorOf(c), &product); err != nil {
		return respondError(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies the request body over the stored product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(c.UserContext(), productID)
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	if err := c.BodyParser(product); err != nil {
		return invalidBody(c, err)
	}
	product.ID = productID

	if err := h.service.UpdateProduct(c.UserContext(), actorOf(c), product); err != nil {
		return respondError(c, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product from the catalog.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.DeleteProduct(c.UserContext(), actorOf(c), productID); err != nil {
		return respondError(c, err, "Could not delete product")
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product with ID %s deleted successfully", productID),
	})
}

// HandleGetCategories lists the catalog sections.
func (h *ProductHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetCategories(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve categories")
	}
	return c.JSON(categories)
}

// HandleGetReviews lists the reviews of a product, newest first.
func (h *ProductHandler) HandleGetReviews(c *fiber.Ctx) error {
	reviews, err := h.service.GetReviews(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve reviews")
	}
	return c.JSON(reviews)
}

// HandleAddReview stores a new review by the caller.
func (h *ProductHandler) HandleAddReview(c *fiber.Ctx) error {
	var input services.ReviewInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	review, err := h.service.AddReview(c.UserContext(), actorOf(c), c.Params("id"), input)
	if err != nil {
		return respondError(c, err, "Could not add review")
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
