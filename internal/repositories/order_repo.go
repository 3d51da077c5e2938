package repositories

import (
	"context"

	"unishop/internal/models"
)

// OrderFilter narrows an order listing. Zero fields match everything.
type OrderFilter struct {
	UserID           string
	AssignedDealerID string
	Unassigned       bool
	Status           models.OrderStatus
}

// Matches reports whether o passes the filter.
func (f OrderFilter) Matches(o *models.Order) bool {
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if f.AssignedDealerID != "" && !o.AssignedTo(f.AssignedDealerID) {
		return false
	}
	if f.Unassigned && o.AssignedDealerID != nil {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}

// OrderRepository defines the interface for order data access. Orders are
// never deleted.
type OrderRepository interface {
	GetAll(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	// Update replaces the stored order if its version still equals
	// order.Version, then increments order.Version. A stale version yields
	// ErrVersionConflict.
	Update(ctx context.Context, order *models.Order) error
}
