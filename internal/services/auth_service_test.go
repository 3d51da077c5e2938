package services_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"unishop/internal/models"
	"unishop/internal/repositories"
	"unishop/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIdentifier(ctx context.Context, role models.Role, identifier string) (*models.User, error) {
	args := m.Called(ctx, role, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

const testJWTSecret = "test_jwt_secret"

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
}

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, 0)

	input := services.RegisterInput{
		Role:     models.RoleCustomer,
		Email:    "Test@Example.com",
		Name:     "Test User",
		Password: "password123",
	}

	mockRepo.On("GetByIdentifier", ctx, models.RoleCustomer, "test@example.com").Return(nil, notFound("customer")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := authService.RegisterUser(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotNil(t, user.Cart)
	assert.Empty(t, user.Cart)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_Duplicate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, 0)

	existing := &models.User{ID: "u1", Role: models.RoleStudent, RollNumber: "R-1"}
	mockRepo.On("GetByIdentifier", ctx, models.RoleStudent, "R-1").Return(existing, nil).Once()

	_, err := authService.RegisterUser(ctx, services.RegisterInput{
		Role: models.RoleStudent, RollNumber: "R-1", Name: "Student", InstitutionName: "School", Password: "pw",
	})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterUser_RoleFields(t *testing.T) {
	ctx := context.Background()
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, 0)

	tests := []struct {
		name  string
		input services.RegisterInput
		field string
	}{
		{"student without roll number", services.RegisterInput{Role: models.RoleStudent, Name: "S", InstitutionName: "X", Password: "pw"}, "RollNumber"},
		{"dealer without gstin", services.RegisterInput{Role: models.RoleDealer, Email: "d@x.test", DealerName: "D", Password: "pw"}, "GSTINNumber"},
		{"institution without address", services.RegisterInput{Role: models.RoleInstitution, Email: "i@x.test", InstitutionName: "I", Password: "pw"}, "InstitutionalAddress"},
		{"customer without email", services.RegisterInput{Role: models.RoleCustomer, Name: "C", Password: "pw"}, "Email"},
		{"unknown role", services.RegisterInput{Role: "guest", Email: "g@x.test", Password: "pw"}, "Role"},
		{"missing password", services.RegisterInput{Role: models.RoleCustomer, Email: "c@x.test", Name: "C"}, "Password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authService.RegisterUser(ctx, tt.input)
			var validationErr *services.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, tt.field)
		})
	}
}

func TestAuthService_RegisterUser_AdminForbidden(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, 0)

	_, err := authService.RegisterUser(context.Background(), services.RegisterInput{Role: models.RoleAdmin, Email: "a@x.test", Password: "pw"})
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	testUser := &models.User{ID: "user-1", Role: models.RoleDealer, Email: "dealer@example.com", PasswordHash: string(hashedPassword)}

	// Test successful login
	mockRepo.On("GetByIdentifier", ctx, models.RoleDealer, "dealer@example.com").Return(testUser, nil).Once()
	user, token, err := authService.LoginUser(ctx, "Dealer@Example.com", "password123", models.RoleDealer)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.NotEmpty(t, token)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "dealer", claims["role"])

	// Test wrong password
	mockRepo.On("GetByIdentifier", ctx, models.RoleDealer, "dealer@example.com").Return(testUser, nil).Once()
	_, _, err = authService.LoginUser(ctx, "dealer@example.com", "wrongpassword", models.RoleDealer)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Test role mismatch: the identifier is unknown within the customer role
	mockRepo.On("GetByIdentifier", ctx, models.RoleCustomer, "dealer@example.com").Return(nil, notFound("customer")).Once()
	_, _, err = authService.LoginUser(ctx, "dealer@example.com", "password123", models.RoleCustomer)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, 0)

	validToken, err := authService.IssueToken(&models.User{ID: "user-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	actor, err := authService.ActorFromToken(validToken)
	require.NoError(t, err)
	assert.Equal(t, services.Actor{ID: "user-1", Role: models.RoleAdmin}, actor)

	// Test with an expired token
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"role":    "admin",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.Error(t, err)

	// Test with a token signed by another secret
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	forgedString, _ := forged.SignedString([]byte("another_secret"))
	_, err = authService.ActorFromToken(forgedString)
	assert.Error(t, err)

	// Test with a token missing the role claim
	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	noRoleString, _ := noRole.SignedString([]byte(testJWTSecret))
	_, err = authService.ActorFromToken(noRoleString)
	assert.Error(t, err)

	_, err = authService.ValidateToken("not.a.token")
	assert.Error(t, err)
}
