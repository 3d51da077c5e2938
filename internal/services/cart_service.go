package services

import (
	"context"
	"fmt"

	"unishop/internal/models"
	"unishop/internal/repositories"
)

// CartService keeps the server-side copy of each user's cart.
type CartService struct {
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(userRepo repositories.UserRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{userRepo: userRepo, productRepo: productRepo}
}

// AddToCartInput selects a product variant and quantity.
type AddToCartInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// UpdateCartInput sets the quantity of an existing line.
type UpdateCartInput struct {
	models.CartKey
	Quantity int `json:"quantity" validate:"gte=1"`
}

func (s *CartService) owner(ctx context.Context, actor Actor, userID string) (*models.User, error) {
	if actor.ID != userID {
		return nil, ErrForbidden
	}
	return s.userRepo.GetByID(ctx, userID)
}

func (s *CartService) save(ctx context.Context, user *models.User) ([]models.CartItem, error) {
	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save cart of user %s: %w", user.ID, err)
	}
	return user.Cart, nil
}

// GetCart returns userID's cart.
func (s *CartService) GetCart(ctx context.Context, actor Actor, userID string) ([]models.CartItem, error) {
	user, err := s.owner(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if user.Cart == nil {
		return []models.CartItem{}, nil
	}
	return user.Cart, nil
}

// AddItem snapshots the product's name, price and image into the cart. A
// line with the same product, size and color has its quantity increased.
func (s *CartService) AddItem(ctx context.Context, actor Actor, userID string, in AddToCartInput) ([]models.CartItem, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.owner(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.HasSize(in.Size) {
		return nil, invalidField("size", fmt.Sprintf("Size '%s' is not offered for %s", in.Size, product.Name))
	}
	if !product.HasColor(in.Color) {
		return nil, invalidField("color", fmt.Sprintf("Color '%s' is not offered for %s", in.Color, product.Name))
	}

	user.Cart = models.MergeCartItem(user.Cart, models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		ImageURL:  product.ImageURL,
		Quantity:  in.Quantity,
		Size:      in.Size,
		Color:     in.Color,
	})
	return s.save(ctx, user)
}

// UpdateQuantity sets the quantity of the line identified by in.CartKey.
func (s *CartService) UpdateQuantity(ctx context.Context, actor Actor, userID string, in UpdateCartInput) ([]models.CartItem, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.owner(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	for i := range user.Cart {
		if user.Cart[i].Key() == in.CartKey {
			user.Cart[i].Quantity = in.Quantity
			return s.save(ctx, user)
		}
	}
	return nil, fmt.Errorf("cart line %s: %w", in.ProductID, repositories.ErrNotFound)
}

// RemoveItem drops the line identified by key.
func (s *CartService) RemoveItem(ctx context.Context, actor Actor, userID string, key models.CartKey) ([]models.CartItem, error) {
	user, err := s.owner(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	cart, ok := models.RemoveCartItem(user.Cart, key)
	if !ok {
		return nil, fmt.Errorf("cart line %s: %w", key.ProductID, repositories.ErrNotFound)
	}
	user.Cart = cart
	return s.save(ctx, user)
}

// ClearCart empties userID's cart.
func (s *CartService) ClearCart(ctx context.Context, actor Actor, userID string) error {
	user, err := s.owner(ctx, actor, userID)
	if err != nil {
		return err
	}
	user.Cart = []models.CartItem{}
	_, err = s.save(ctx, user)
	return err
}
