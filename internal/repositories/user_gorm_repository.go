package repositories

import (
	"context"
	"fmt"

	"unishop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Identifier = user.LoginIdentifier()
	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return gormError(err, "failed to create %s %s", user.Role, user.Identifier)
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, gormError(err, "user with ID %s", id)
	}
	return &user, nil
}

// GetByIdentifier retrieves a user by role and role-scoped identifier.
func (r *GORMUserRepository) GetByIdentifier(ctx context.Context, role models.Role, identifier string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "role = ? AND identifier = ?", role, identifier).Error
	if err != nil {
		return nil, gormError(err, "%s %s", role, identifier)
	}
	return &user, nil
}

// List retrieves users of role, or all users when role is empty.
func (r *GORMUserRepository) List(ctx context.Context, role models.Role) ([]models.User, error) {
	q := r.db.WithContext(ctx).Order("created_at")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update writes every mutable field of user. Role and identifier are kept.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Select("*").Omit("id", "role", "identifier", "created_at").
		Updates(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, ErrNotFound)
	}
	return nil
}
