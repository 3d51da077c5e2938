package repositories

import (
	"context"

	"unishop/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIdentifier looks a user up by its role-scoped identifier.
	GetByIdentifier(ctx context.Context, role models.Role, identifier string) (*models.User, error)
	// List returns users of the given role, or all users when role is empty.
	List(ctx context.Context, role models.Role) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
}
