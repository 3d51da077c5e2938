package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"unishop/internal/models"
	"unishop/internal/repositories"

	"github.com/google/uuid"
)

// ProductService handles business logic related to products, categories
// and reviews.
type ProductService struct {
	repo         repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
	reviewRepo   repositories.ReviewRepository
	userRepo     repositories.UserRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categoryRepo repositories.CategoryRepository, reviewRepo repositories.ReviewRepository, userRepo repositories.UserRepository) *ProductService {
	return &ProductService{
		repo:         repo,
		categoryRepo: categoryRepo,
		reviewRepo:   reviewRepo,
		userRepo:     userRepo,
	}
}

// GetAllProducts retrieves the products passing filter.
func (s *ProductService) GetAllProducts(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, invalidField("category", fmt.Sprintf("Unknown category '%s'", filter.Category))
	}
	return s.repo.GetAll(ctx, filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func normalizeProduct(product *models.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	if err := validateStruct(product); err != nil {
		return err
	}
	if product.Price.IsNegative() {
		return invalidField("Price", "Field 'Price' must not be negative")
	}
	product.Price = product.Price.Round(2)
	return nil
}

// CreateProduct validates and stores a new product. Admin only.
func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, product *models.Product) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := normalizeProduct(product); err != nil {
		return err
	}
	return s.repo.Create(ctx, product)
}

// UpdateProduct replaces an existing product. Admin only.
func (s *ProductService) UpdateProduct(ctx context.Context, actor Actor, product *models.Product) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := normalizeProduct(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, product)
}

// DeleteProduct deletes a product by its ID. Orders keep their snapshot. Admin only.
func (s *ProductService) DeleteProduct(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// GetCategories lists the catalog sections.
func (s *ProductService) GetCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.GetAll(ctx)
}

// GetReviews returns the reviews of productID, newest first.
func (s *ProductService) GetReviews(ctx context.Context, productID string) ([]models.Review, error) {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.reviewRepo.GetByProduct(ctx, productID)
}

// ReviewInput is the body of a new review.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// AddReview stores a review of productID by the actor. Reviews cannot be
// edited afterwards.
func (s *ProductService) AddReview(ctx context.Context, actor Actor, productID string, in ReviewInput) (*models.Review, error) {
	if actor.Role != models.RoleCustomer && actor.Role != models.RoleStudent {
		return nil, ErrForbidden
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	author, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer %s: %w", actor.ID, err)
	}

	review := &models.Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    actor.ID,
		UserName:  author.DisplayName(),
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: time.Now(),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	return review, nil
}
