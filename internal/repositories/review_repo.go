package repositories

import (
	"context"

	"unishop/internal/models"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	GetByProduct(ctx context.Context, productID string) ([]models.Review, error)
	Create(ctx context.Context, review *models.Review) error
}

// DonationRepository defines the interface for donation data access.
type DonationRepository interface {
	// GetAll returns the donations of userID, or every donation when userID is empty.
	GetAll(ctx context.Context, userID string) ([]models.Donation, error)
	GetByID(ctx context.Context, id string) (*models.Donation, error)
	Create(ctx context.Context, donation *models.Donation) error
	Update(ctx context.Context, donation *models.Donation) error
}
