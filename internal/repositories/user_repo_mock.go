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

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a user. The role-scoped identifier must be unique.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Identifier = user.LoginIdentifier()
	for _, existing := range r.users {
		if existing.Role == user.Role && existing.Identifier == user.Identifier {
			return fmt.Errorf("%s %s: %w", user.Role, user.Identifier, ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(*user)
	return nil
}

// GetByID returns a user by its ID.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	user = cloneUser(user)
	return &user, nil
}

// GetByIdentifier returns the user of role whose identifier matches.
func (r *MockUserRepository) GetByIdentifier(_ context.Context, role models.Role, identifier string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Role == role && user.Identifier == identifier {
			user = cloneUser(user)
			return &user, nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", role, identifier, ErrNotFound)
}

// List returns users of role ordered by creation time.
func (r *MockUserRepository) List(_ context.Context, role models.Role) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		if role == "" || user.Role == role {
			userList = append(userList, cloneUser(user))
		}
	}
	sort.Slice(userList, func(i, j int) bool { return userList[i].CreatedAt.Before(userList[j].CreatedAt) })
	return userList, nil
}

// Update replaces a stored user.
func (r *MockUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, ErrNotFound)
	}
	user.Identifier = existing.Identifier
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func cloneUser(u models.User) models.User {
	u.Cart = append([]models.CartItem(nil), u.Cart...)
	return u
}
