package models

import "time"

// Review is a customer rating of a product. Reviews are never edited.
type Review struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" bson:"productId" gorm:"type:varchar(64);index"`
	UserID    string    `json:"userId" bson:"userId" gorm:"type:varchar(36)"`
	UserName  string    `json:"userName" bson:"userName"`
	Rating    int       `json:"rating" bson:"rating" validate:"gte=1,lte=5"`
	Comment   string    `json:"comment" bson:"comment" validate:"max=2000"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// DonationStatus tracks a donated uniform from pledge to hand-over.
type DonationStatus string

const (
	DonationStatusPending     DonationStatus = "Pending"
	DonationStatusCollected   DonationStatus = "Collected"
	DonationStatusDistributed DonationStatus = "Distributed"
)

// Valid reports whether s is a known donation status.
func (s DonationStatus) Valid() bool {
	return s == DonationStatusPending || s == DonationStatusCollected || s == DonationStatusDistributed
}

// Donation is a pledge of used uniforms.
type Donation struct {
	ID             string         `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string         `json:"userId,omitempty" bson:"userId,omitempty" gorm:"type:varchar(36);index"`
	UniformType    string         `json:"uniformType" bson:"uniformType" validate:"required"`
	Quantity       int            `json:"quantity" bson:"quantity" validate:"gte=1"`
	Condition      string         `json:"condition" bson:"condition" validate:"required,oneof=New Good Fair"`
	ContactName    string         `json:"contactName" bson:"contactName" validate:"required"`
	ContactEmail   string         `json:"contactEmail" bson:"contactEmail" validate:"required,email"`
	ContactPhone   string         `json:"contactPhone,omitempty" bson:"contactPhone,omitempty"`
	PickupAddress  string         `json:"pickupAddress,omitempty" bson:"pickupAddress,omitempty"`
	SubmissionDate time.Time      `json:"submissionDate" bson:"submissionDate"`
	Status         DonationStatus `json:"status" bson:"status" gorm:"type:varchar(20)"`
}
