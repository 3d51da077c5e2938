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

// MongoUserRepository is a MongoDB implementation of UserRepository.
type MongoUserRepository struct {
	users *mongo.Collection
}

// NewMongoUserRepository creates a new instance of MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{users: db.Collection(usersCollection)}
}

// Create inserts a user. The unique (role, identifier) index rejects duplicates.
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Identifier = user.LoginIdentifier()
	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err := r.users.InsertOne(ctx, user); err != nil {
		return mongoError(err, "failed to insert %s %s", user.Role, user.Identifier)
	}
	return nil
}

// GetByID returns a user by its ID.
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mongoError(err, "user with ID %s", id)
	}
	return &user, nil
}

// GetByIdentifier returns the user of role with the given identifier.
func (r *MongoUserRepository) GetByIdentifier(ctx context.Context, role models.Role, identifier string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"role": role, "identifier": identifier}).Decode(&user)
	if err != nil {
		return nil, mongoError(err, "%s %s", role, identifier)
	}
	return &user, nil
}

// List returns users of role, or every user when role is empty.
func (r *MongoUserRepository) List(ctx context.Context, role models.Role) ([]models.User, error) {
	query := bson.M{}
	if role != "" {
		query["role"] = role
	}
	cursor, err := r.users.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// Update replaces a user document. Role, identifier and creation time are
// taken from the stored document.
func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) error {
	existing, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	user.Role = existing.Role
	user.Identifier = existing.Identifier
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, ErrNotFound)
	}
	return nil
}
