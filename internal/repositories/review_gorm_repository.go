package repositories

import (
	"context"
	"fmt"
	"time"

	"unishop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

// GetByProduct retrieves the reviews of a product, newest first.
func (r *GORMReviewRepository) GetByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	reviews := make([]models.Review, 0)
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for product %s: %w", productID, err)
	}
	return reviews, nil
}

// Create inserts a review.
func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return gormError(err, "failed to create review")
	}
	return nil
}

// GORMDonationRepository is a GORM implementation of DonationRepository.
type GORMDonationRepository struct {
	db *gorm.DB
}

// NewGORMDonationRepository creates a new instance of GORMDonationRepository.
func NewGORMDonationRepository(db *gorm.DB) *GORMDonationRepository {
	return &GORMDonationRepository{db: db}
}

// GetAll retrieves donations of userID, or all donations when userID is empty.
func (r *GORMDonationRepository) GetAll(ctx context.Context, userID string) ([]models.Donation, error) {
	q := r.db.WithContext(ctx).Order("submission_date DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	donations := make([]models.Donation, 0)
	if err := q.Find(&donations).Error; err != nil {
		return nil, fmt.Errorf("failed to get donations: %w", err)
	}
	return donations, nil
}

// GetByID retrieves a donation by its ID.
func (r *GORMDonationRepository) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	var donation models.Donation
	if err := r.db.WithContext(ctx).First(&donation, "id = ?", id).Error; err != nil {
		return nil, gormError(err, "donation with ID %s", id)
	}
	return &donation, nil
}

// Create inserts a donation.
func (r *GORMDonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		return gormError(err, "failed to create donation")
	}
	return nil
}

// Update writes every field of a donation.
func (r *GORMDonationRepository) Update(ctx context.Context, donation *models.Donation) error {
	res := r.db.WithContext(ctx).Model(&models.Donation{}).
		Where("id = ?", donation.ID).
		Select("*").Omit("id").
		Updates(donation)
	if res.Error != nil {
		return fmt.Errorf("failed to update donation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("donation with ID %s not found for update: %w", donation.ID, ErrNotFound)
	}
	return nil
}
