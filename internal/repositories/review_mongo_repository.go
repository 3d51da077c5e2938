package repositories

import (
	"context"
	"fmt"
	"time"

	"unishop/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReviewRepository is a MongoDB implementation of ReviewRepository.
type MongoReviewRepository struct {
	reviews *mongo.Collection
}

// NewMongoReviewRepository creates a new instance of MongoReviewRepository.
func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{reviews: db.Collection(reviewsCollection)}
}

// GetByProduct returns the reviews of a product, newest first.
func (r *MongoReviewRepository) GetByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	cursor, err := r.reviews.Find(ctx, bson.M{"productId": productID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

// Create inserts a review.
func (r *MongoReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	if _, err := r.reviews.InsertOne(ctx, review); err != nil {
		return mongoError(err, "failed to insert review")
	}
	return nil
}

// MongoDonationRepository is a MongoDB implementation of DonationRepository.
type MongoDonationRepository struct {
	donations *mongo.Collection
}

// NewMongoDonationRepository creates a new instance of MongoDonationRepository.
func NewMongoDonationRepository(db *mongo.Database) *MongoDonationRepository {
	return &MongoDonationRepository{donations: db.Collection(donationsCollection)}
}

// GetAll returns donations of userID, or all donations when userID is empty.
func (r *MongoDonationRepository) GetAll(ctx context.Context, userID string) ([]models.Donation, error) {
	query := bson.M{}
	if userID != "" {
		query["userId"] = userID
	}
	cursor, err := r.donations.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "submissionDate", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find donations: %w", err)
	}
	donations := make([]models.Donation, 0)
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, fmt.Errorf("failed to decode donations: %w", err)
	}
	return donations, nil
}

// GetByID returns a donation by its ID.
func (r *MongoDonationRepository) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	var donation models.Donation
	if err := r.donations.FindOne(ctx, bson.M{"_id": id}).Decode(&donation); err != nil {
		return nil, mongoError(err, "donation with ID %s", id)
	}
	return &donation, nil
}

// Create inserts a donation.
func (r *MongoDonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.New().String()
	}
	if _, err := r.donations.InsertOne(ctx, donation); err != nil {
		return mongoError(err, "failed to insert donation")
	}
	return nil
}

// Update replaces a donation.
func (r *MongoDonationRepository) Update(ctx context.Context, donation *models.Donation) error {
	res, err := r.donations.ReplaceOne(ctx, bson.M{"_id": donation.ID}, donation)
	if err != nil {
		return fmt.Errorf("failed to update donation %s: %w", donation.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("donation with ID %s not found for update: %w", donation.ID, ErrNotFound)
	}
	return nil
}
