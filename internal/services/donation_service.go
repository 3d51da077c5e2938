package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"unishop/internal/models"
	"unishop/internal/repositories"

	"github.com/google/uuid"
)

// DonationService records uniform donations and their collection status.
type DonationService struct {
	repo repositories.DonationRepository
}

// NewDonationService creates a new DonationService.
func NewDonationService(repo repositories.DonationRepository) *DonationService {
	return &DonationService{repo: repo}
}

// Submit stores a donation pledge as Pending.
func (s *DonationService) Submit(ctx context.Context, actor Actor, donation *models.Donation) error {
	if err := validateStruct(donation); err != nil {
		return err
	}
	donation.ID = uuid.New().String()
	donation.UserID = actor.ID
	donation.Status = models.DonationStatusPending
	donation.SubmissionDate = time.Now()
	if err := s.repo.Create(ctx, donation); err != nil {
		return fmt.Errorf("failed to save donation: %w", err)
	}
	log.Printf("Donation %s of %d %s submitted by %s", donation.ID, donation.Quantity, donation.UniformType, actor.ID)
	return nil
}

// List returns every donation to admins and the actor's own otherwise.
func (s *DonationService) List(ctx context.Context, actor Actor) ([]models.Donation, error) {
	if actor.IsAdmin() {
		return s.repo.GetAll(ctx, "")
	}
	return s.repo.GetAll(ctx, actor.ID)
}

// UpdateStatus moves a donation to status. Admin only.
func (s *DonationService) UpdateStatus(ctx context.Context, actor Actor, id string, status models.DonationStatus) (*models.Donation, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, invalidField("status", fmt.Sprintf("Unknown donation status '%s'", status))
	}
	donation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	donation.Status = status
	if err := s.repo.Update(ctx, donation); err != nil {
		return nil, fmt.Errorf("failed to update donation %s: %w", id, err)
	}
	return donation, nil
}
