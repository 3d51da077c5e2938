package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices are sent to clients as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductCategory is the fixed set of catalog sections used for filtering.
type ProductCategory string

const (
	CategorySchool     ProductCategory = "School"
	CategoryCorporate  ProductCategory = "Corporate"
	CategoryHealthcare ProductCategory = "Healthcare"
)

// ProductCategories lists every catalog section.
var ProductCategories = []ProductCategory{CategorySchool, CategoryCorporate, CategoryHealthcare}

// Valid reports whether c is one of the catalog sections.
func (c ProductCategory) Valid() bool {
	for _, known := range ProductCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a uniform in the catalog.
type Product struct {
	ID          string          `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	Name        string          `json:"name" bson:"name" validate:"required,min=3,max=100"`
	Description string          `json:"description" bson:"description" validate:"omitempty,max=1000"`
	Price       decimal.Decimal `json:"price" bson:"price" gorm:"type:numeric(12,2)"`
	Category    ProductCategory `json:"category" bson:"category" gorm:"type:varchar(20);index" validate:"required,oneof=School Corporate Healthcare"`
	Institution string          `json:"institution,omitempty" bson:"institution,omitempty" gorm:"index"` // affiliation that scopes institution dashboards
	ImageURL    string          `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Sizes       []string        `json:"sizes" bson:"sizes" gorm:"serializer:json" validate:"required,min=1,dive,required"`
	Colors      []string        `json:"colors,omitempty" bson:"colors,omitempty" gorm:"serializer:json" validate:"omitempty,dive,required"`
	Stock       int             `json:"stock" bson:"stock" validate:"gte=0"`
	Featured    bool            `json:"featured" bson:"featured"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// HasSize reports whether size is offered. An empty size always matches.
func (p *Product) HasSize(size string) bool {
	return size == "" || contains(p.Sizes, size)
}

// HasColor reports whether color is offered. Products without a color list
// accept any color.
func (p *Product) HasColor(color string) bool {
	return color == "" || len(p.Colors) == 0 || contains(p.Colors, color)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Category is a browsable catalog section.
type Category struct {
	ID          string          `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	Name        ProductCategory `json:"name" bson:"name" gorm:"type:varchar(20);uniqueIndex"`
	Description string          `json:"description" bson:"description"`
	ImageURL    string          `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}
