package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"unishop/internal/models"

	"github.com/google/uuid"
)

// MockReviewRepository is an in-memory implementation of ReviewRepository.
type MockReviewRepository struct {
	reviews []models.Review
	mu      sync.RWMutex
}

// NewMockReviewRepository creates a new instance of MockReviewRepository.
func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{}
}

// GetByProduct returns the reviews of a product, newest first.
func (r *MockReviewRepository) GetByProduct(_ context.Context, productID string) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reviews := make([]models.Review, 0)
	for _, review := range r.reviews {
		if review.ProductID == productID {
			reviews = append(reviews, review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

// Create appends a review.
func (r *MockReviewRepository) Create(_ context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	r.reviews = append(r.reviews, *review)
	return nil
}

// MockDonationRepository is an in-memory implementation of DonationRepository.
type MockDonationRepository struct {
	donations map[string]models.Donation
	mu        sync.RWMutex
}

// NewMockDonationRepository creates a new instance of MockDonationRepository.
func NewMockDonationRepository() *MockDonationRepository {
	return &MockDonationRepository{
		donations: make(map[string]models.Donation),
	}
}

// GetAll returns donations of userID, or all when userID is empty, newest first.
func (r *MockDonationRepository) GetAll(_ context.Context, userID string) ([]models.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	donations := make([]models.Donation, 0, len(r.donations))
	for _, d := range r.donations {
		if userID == "" || d.UserID == userID {
			donations = append(donations, d)
		}
	}
	sort.Slice(donations, func(i, j int) bool { return donations[i].SubmissionDate.After(donations[j].SubmissionDate) })
	return donations, nil
}

// GetByID returns a donation by its ID.
func (r *MockDonationRepository) GetByID(_ context.Context, id string) (*models.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.donations[id]
	if !ok {
		return nil, fmt.Errorf("donation with ID %s: %w", id, ErrNotFound)
	}
	return &d, nil
}

// Create adds a donation.
func (r *MockDonationRepository) Create(_ context.Context, donation *models.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if donation.ID == "" {
		donation.ID = uuid.New().String()
	}
	r.donations[donation.ID] = *donation
	return nil
}

// Update replaces a donation.
func (r *MockDonationRepository) Update(_ context.Context, donation *models.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.donations[donation.ID]; !ok {
		return fmt.Errorf("donation with ID %s not found for update: %w", donation.ID, ErrNotFound)
	}
	r.donations[donation.ID] = *donation
	return nil
}
