package services_test

import (
	"context"
	"testing"

	"unishop/internal/models"
	"unishop/internal/repositories"
	"unishop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDonation() *models.Donation {
	return &models.Donation{
		UniformType:  "School blazer",
		Quantity:     2,
		Condition:    "Good",
		ContactName:  "Priya Sharma",
		ContactEmail: "priya@example.com",
	}
}

func TestDonationService(t *testing.T) {
	ctx := context.Background()
	service := services.NewDonationService(repositories.NewMockDonationRepository())

	donation := newDonation()
	donation.Status = models.DonationStatusDistributed
	require.NoError(t, service.Submit(ctx, customerActor, donation))
	assert.NotEmpty(t, donation.ID)
	assert.Equal(t, models.DonationStatusPending, donation.Status)
	assert.Equal(t, customerActor.ID, donation.UserID)
	assert.False(t, donation.SubmissionDate.IsZero())

	require.NoError(t, service.Submit(ctx, studentActor, newDonation()))

	mine, err := service.List(ctx, customerActor)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := service.List(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	updated, err := service.UpdateStatus(ctx, adminActor, donation.ID, models.DonationStatusCollected)
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusCollected, updated.Status)

	_, err = service.UpdateStatus(ctx, customerActor, donation.ID, models.DonationStatusCollected)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = service.UpdateStatus(ctx, adminActor, donation.ID, "Lost")
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = service.UpdateStatus(ctx, adminActor, "missing", models.DonationStatusCollected)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestDonationService_Validation(t *testing.T) {
	service := services.NewDonationService(repositories.NewMockDonationRepository())

	bad := newDonation()
	bad.Condition = "Torn"
	bad.Quantity = 0
	err := service.Submit(context.Background(), customerActor, bad)

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "Condition")
	assert.Contains(t, validationErr.Fields, "Quantity")
}
