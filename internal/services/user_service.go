package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"unishop/internal/models"
	"unishop/internal/repositories"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles profile reads and updates.
type UserService struct {
	userRepo       repositories.UserRepository
	maxAvatarBytes int
}

// NewUserService creates a new UserService. maxAvatarBytes caps the decoded
// size of uploaded avatars.
func NewUserService(userRepo repositories.UserRepository, maxAvatarBytes int) *UserService {
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = 2 << 20
	}
	return &UserService{userRepo: userRepo, maxAvatarBytes: maxAvatarBytes}
}

// GetUser returns userID's profile if actor may see it.
func (s *UserService) GetUser(ctx context.Context, actor Actor, userID string) (*models.User, error) {
	if !actor.CanAccessUser(userID) {
		return nil, ErrForbidden
	}
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers returns users of role, or everyone when role is empty. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor Actor, role models.Role) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if role != "" && !role.Valid() {
		return nil, invalidField("role", fmt.Sprintf("Unknown role '%s'", role))
	}
	return s.userRepo.List(ctx, role)
}

// UpdateProfileInput is a partial profile update. Nil fields are left
// unchanged. Role, Email and RollNumber may only repeat the stored value.
type UpdateProfileInput struct {
	Role       *models.Role `json:"role"`
	Email      *string      `json:"email"`
	RollNumber *string      `json:"rollNumber"`

	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`

	InstitutionName      *string `json:"institutionName"`
	ClassName            *string `json:"className"`
	InstitutionalAddress *string `json:"institutionalAddress"`
	ContactPerson        *string `json:"contactPerson"`

	DealerName      *string `json:"dealerName"`
	GSTINNumber     *string `json:"gstinNumber"`
	BusinessAddress *string `json:"businessAddress"`

	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateUser applies in to userID's profile. A password change needs the
// current password unless an admin is editing another user.
func (s *UserService) UpdateUser(ctx context.Context, actor Actor, userID string, in UpdateProfileInput) (*models.User, error) {
	if !actor.CanAccessUser(userID) {
		return nil, ErrForbidden
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Role != nil && *in.Role != user.Role {
		return nil, invalidField("role", "Role cannot be changed")
	}
	if in.Email != nil && !strings.EqualFold(*in.Email, user.Email) {
		return nil, invalidField("email", "Email cannot be changed")
	}
	if in.RollNumber != nil && *in.RollNumber != user.RollNumber {
		return nil, invalidField("rollNumber", "Roll number cannot be changed")
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&user.Name, in.Name)
	set(&user.Phone, in.Phone)
	set(&user.Address, in.Address)
	set(&user.InstitutionName, in.InstitutionName)
	set(&user.ClassName, in.ClassName)
	set(&user.InstitutionalAddress, in.InstitutionalAddress)
	set(&user.ContactPerson, in.ContactPerson)
	set(&user.DealerName, in.DealerName)
	set(&user.GSTINNumber, in.GSTINNumber)
	set(&user.BusinessAddress, in.BusinessAddress)

	if in.NewPassword != "" {
		if actor.ID == userID {
			if in.CurrentPassword == "" {
				return nil, invalidField("currentPassword", "Current password is required to change the password")
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
				return nil, ErrInvalidCredentials
			}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
		log.Printf("Password changed for user %s by %s", userID, actor.ID)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	return user, nil
}

var avatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// SetAvatar stores a base64 image data URL as userID's avatar. The decoded
// content must be an image of the declared type and within the size cap.
func (s *UserService) SetAvatar(ctx context.Context, actor Actor, userID, dataURL string) (*models.User, error) {
	if actor.ID != userID {
		return nil, ErrForbidden
	}

	declared, payload, ok := parseDataURL(dataURL)
	if !ok {
		return nil, invalidField("avatar", "Avatar must be a base64 data URL")
	}
	if !avatarTypes[declared] {
		return nil, invalidField("avatar", fmt.Sprintf("Unsupported avatar type '%s'", declared))
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > s.maxAvatarBytes+2 {
		return nil, invalidField("avatar", fmt.Sprintf("Avatar exceeds %d bytes", s.maxAvatarBytes))
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, invalidField("avatar", "Avatar is not valid base64")
	}
	if len(raw) > s.maxAvatarBytes {
		return nil, invalidField("avatar", fmt.Sprintf("Avatar exceeds %d bytes", s.maxAvatarBytes))
	}
	if detected := mimetype.Detect(raw); !detected.Is(declared) {
		return nil, invalidField("avatar", fmt.Sprintf("Avatar content is %s, not %s", detected.String(), declared))
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = dataURL
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update avatar of user %s: %w", userID, err)
	}
	return user, nil
}

// parseDataURL splits "data:<type>;base64,<payload>".
func parseDataURL(s string) (mediaType, payload string, ok bool) {
	rest, found := strings.CutPrefix(s, "data:")
	if !found {
		return "", "", false
	}
	header, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mediaType, found = strings.CutSuffix(header, ";base64")
	if !found || mediaType == "" {
		return "", "", false
	}
	return strings.ToLower(mediaType), payload, true
}
