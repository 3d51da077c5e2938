package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"unishop/internal/models"
	"unishop/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService. A zero tokenTTL means 24 hours.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// TokenTTL is how long issued tokens stay valid.
func (s *AuthService) TokenTTL() time.Duration { return s.tokenTTL }

// RegisterInput is the registration payload. Which profile fields are
// required depends on Role.
type RegisterInput struct {
	Role       models.Role `json:"role" validate:"required"`
	Email      string      `json:"email" validate:"omitempty,email"`
	RollNumber string      `json:"rollNumber"`
	Password   string      `json:"password" validate:"required"`

	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	InstitutionName      string `json:"institutionName"`
	ClassName            string `json:"className"`
	InstitutionalAddress string `json:"institutionalAddress"`
	ContactPerson        string `json:"contactPerson"`

	DealerName      string `json:"dealerName"`
	GSTINNumber     string `json:"gstinNumber"`
	BusinessAddress string `json:"businessAddress"`
}

// validate checks the fields each role must provide.
func (in *RegisterInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if !in.Role.Valid() {
		return invalidField("Role", fmt.Sprintf("Unknown role '%s'", in.Role))
	}

	missing := map[string]string{}
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing[field] = fmt.Sprintf("Field '%s' is required for role %s", field, in.Role)
		}
	}
	switch in.Role {
	case models.RoleStudent:
		require("RollNumber", in.RollNumber)
		require("Name", in.Name)
		require("InstitutionName", in.InstitutionName)
	case models.RoleInstitution:
		require("Email", in.Email)
		require("InstitutionName", in.InstitutionName)
		require("InstitutionalAddress", in.InstitutionalAddress)
	case models.RoleDealer:
		require("Email", in.Email)
		require("DealerName", in.DealerName)
		require("GSTINNumber", in.GSTINNumber)
	default:
		require("Email", in.Email)
		require("Name", in.Name)
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "Validation failed", Fields: missing}
	}
	return nil
}

// RegisterUser creates an account with an empty cart. Administrators cannot
// register themselves.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Role = models.Role(strings.ToLower(string(in.Role)))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.RollNumber = strings.TrimSpace(in.RollNumber)
	if in.Role == models.RoleAdmin {
		return nil, fmt.Errorf("admin accounts cannot be self-registered: %w", ErrForbidden)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	identifier := models.IdentifierFor(in.Role, in.Email, in.RollNumber)
	if _, err := s.userRepo.GetByIdentifier(ctx, in.Role, identifier); err == nil {
		return nil, fmt.Errorf("%s '%s' already registered: %w", in.Role, identifier, repositories.ErrDuplicate)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Role:                 in.Role,
		PasswordHash:         string(hashedPassword),
		Name:                 in.Name,
		Phone:                in.Phone,
		Address:              in.Address,
		InstitutionName:      in.InstitutionName,
		ClassName:            in.ClassName,
		InstitutionalAddress: in.InstitutionalAddress,
		ContactPerson:        in.ContactPerson,
		DealerName:           in.DealerName,
		GSTINNumber:          in.GSTINNumber,
		BusinessAddress:      in.BusinessAddress,
		Email:                in.Email,
		Cart:                 []models.CartItem{},
	}
	if in.Role == models.RoleStudent {
		user.RollNumber = in.RollNumber
	}

	// The repository enforces uniqueness too, covering concurrent registrations.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	log.Printf("Registered %s %s", user.Role, user.ID)
	return user, nil
}

// LoginUser checks the password of the user identified by role and
// identifier and returns the user with a signed token. Unknown identifiers,
// role mismatches and wrong passwords all yield ErrInvalidCredentials.
func (s *AuthService) LoginUser(ctx context.Context, identifier, password string, role models.Role) (*models.User, string, error) {
	role = models.Role(strings.ToLower(string(role)))
	identifier = strings.TrimSpace(identifier)
	if role != models.RoleStudent {
		identifier = strings.ToLower(identifier)
	}

	user, err := s.userRepo.GetByIdentifier(ctx, role, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken signs an HS256 token carrying the user's id and role.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ActorFromToken validates tokenString and returns the caller it names.
func (s *AuthService) ActorFromToken(tokenString string) (Actor, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return Actor{}, err
	}
	id, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if id == "" || !models.Role(role).Valid() {
		return Actor{}, fmt.Errorf("invalid token: missing user or role claim")
	}
	return Actor{ID: id, Role: models.Role(role)}, nil
}
