package models

import "time"

// Role identifies which portal a user belongs to. It is fixed at registration.
type Role string

const (
	RoleCustomer    Role = "customer"
	RoleStudent     Role = "student"
	RoleInstitution Role = "institution"
	RoleDealer      Role = "dealer"
	RoleAdmin       Role = "admin"
)

// Roles lists every known role.
var Roles = []Role{RoleCustomer, RoleStudent, RoleInstitution, RoleDealer, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User represents an account of any role. Fields that belong to a different
// role than the user's own are left empty.
type User struct {
	ID           string `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Role         Role   `json:"role" bson:"role" gorm:"type:varchar(20);uniqueIndex:idx_users_role_identifier"`
	Identifier   string `json:"-" bson:"identifier" gorm:"type:varchar(255);uniqueIndex:idx_users_role_identifier"`
	Email        string `json:"email,omitempty" bson:"email,omitempty" gorm:"type:varchar(255)"`
	RollNumber   string `json:"rollNumber,omitempty" bson:"rollNumber,omitempty" gorm:"type:varchar(64)"`
	PasswordHash string `json:"-" bson:"passwordHash" gorm:"type:varchar(255)"` // never serialized to clients

	Name      string `json:"name,omitempty" bson:"name,omitempty"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty" gorm:"type:text"`
	Address   string `json:"address,omitempty" bson:"address,omitempty"`

	// student, institution
	InstitutionName string `json:"institutionName,omitempty" bson:"institutionName,omitempty" gorm:"index"`
	// student
	ClassName string `json:"className,omitempty" bson:"className,omitempty"`
	// institution
	InstitutionalAddress string `json:"institutionalAddress,omitempty" bson:"institutionalAddress,omitempty"`
	ContactPerson        string `json:"contactPerson,omitempty" bson:"contactPerson,omitempty"`
	// dealer
	DealerName      string `json:"dealerName,omitempty" bson:"dealerName,omitempty"`
	GSTINNumber     string `json:"gstinNumber,omitempty" bson:"gstinNumber,omitempty"`
	BusinessAddress string `json:"businessAddress,omitempty" bson:"businessAddress,omitempty"`

	Cart      []CartItem `json:"cart" bson:"cart" gorm:"serializer:json"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// LoginIdentifier returns the role-scoped identifier: the roll number for
// students and the email address for everyone else.
func (u *User) LoginIdentifier() string {
	return IdentifierFor(u.Role, u.Email, u.RollNumber)
}

// IdentifierFor picks the identifier a user of the given role logs in with.
func IdentifierFor(role Role, email, rollNumber string) string {
	if role == RoleStudent {
		return rollNumber
	}
	return email
}

// DisplayName is the name shown on reviews and dashboards.
func (u *User) DisplayName() string {
	switch {
	case u.Role == RoleDealer && u.DealerName != "":
		return u.DealerName
	case u.Role == RoleInstitution && u.InstitutionName != "":
		return u.InstitutionName
	case u.Name != "":
		return u.Name
	}
	return u.LoginIdentifier()
}
