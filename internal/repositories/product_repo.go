package repositories

import (
	"context"
	"strings"

	"unishop/internal/models"
)

// ProductFilter narrows a product listing. Zero fields match everything.
type ProductFilter struct {
	Category    models.ProductCategory
	Institution string
	Featured    *bool
	Query       string // case-insensitive substring of name or description
}

// Matches reports whether p passes the filter.
func (f ProductFilter) Matches(p *models.Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Institution != "" && !strings.EqualFold(p.Institution, f.Institution) {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
}
