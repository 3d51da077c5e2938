package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPlaced                   OrderStatus = "Placed"
	OrderStatusConfirmed                OrderStatus = "Confirmed"
	OrderStatusPendingDealerAssignment  OrderStatus = "Pending Dealer Assignment"
	OrderStatusAwaitingDealerAcceptance OrderStatus = "Awaiting Dealer Acceptance"
	OrderStatusProcessingByDealer       OrderStatus = "Processing by Dealer"
	OrderStatusShipped                  OrderStatus = "Shipped"
	OrderStatusDelivered                OrderStatus = "Delivered"
	OrderStatusCancelled                OrderStatus = "Cancelled"
	OrderStatusDealerRejected           OrderStatus = "Dealer Rejected"
)

// OrderStatuses is the closed set of order states.
var OrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusConfirmed,
	OrderStatusPendingDealerAssignment,
	OrderStatusAwaitingDealerAcceptance,
	OrderStatusProcessingByDealer,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusDealerRejected,
}

// Valid reports whether s belongs to the closed set of order states.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// DealerSettable reports whether an assigned dealer may set s directly.
func (s OrderStatus) DealerSettable() bool {
	switch s {
	case OrderStatusProcessingByDealer, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks the gateway state of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// ShippingAddress is the contact and address snapshot taken at checkout.
type ShippingAddress struct {
	FullName     string `json:"fullName" bson:"fullName" validate:"required"`
	Email        string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone        string `json:"phone" bson:"phone" validate:"required"`
	AddressLine1 string `json:"addressLine1" bson:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2,omitempty" bson:"addressLine2,omitempty"`
	City         string `json:"city" bson:"city" validate:"required"`
	State        string `json:"state" bson:"state"`
	PostalCode   string `json:"postalCode" bson:"postalCode" validate:"required"`
	Country      string `json:"country" bson:"country"`
}

// StatusChange is one applied status transition.
type StatusChange struct {
	From      OrderStatus `json:"from,omitempty" bson:"from,omitempty"`
	To        OrderStatus `json:"to" bson:"to"`
	ActorID   string      `json:"actorId" bson:"actorId"`
	ActorRole Role        `json:"actorRole" bson:"actorRole"`
	Reason    string      `json:"reason,omitempty" bson:"reason,omitempty"`
	At        time.Time   `json:"at" bson:"at"`
}

// Order represents a placed order. Items are copied from the cart and do
// not follow later product changes.
type Order struct {
	ID                    string          `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID                string          `json:"userId" bson:"userId" gorm:"type:varchar(36);index"`
	Items                 []CartItem      `json:"items" bson:"items" gorm:"serializer:json"`
	TotalAmount           decimal.Decimal `json:"totalAmount" bson:"totalAmount" gorm:"type:numeric(12,2)"`
	Status                OrderStatus     `json:"status" bson:"status" gorm:"type:varchar(40);index"`
	OrderDate             time.Time       `json:"orderDate" bson:"orderDate" gorm:"index"`
	ShippingAddress       ShippingAddress `json:"shippingAddress" bson:"shippingAddress" gorm:"serializer:json"`
	PaymentMethod         string          `json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus         PaymentStatus   `json:"paymentStatus" bson:"paymentStatus" gorm:"type:varchar(20)"`
	AssignedDealerID      *string         `json:"assignedDealerId" bson:"assignedDealerId" gorm:"type:varchar(36);index"`
	DealerRejectionReason string          `json:"dealerRejectionReason,omitempty" bson:"dealerRejectionReason,omitempty"`
	RazorpayOrderID       string          `json:"razorpayOrderId,omitempty" bson:"razorpayOrderId,omitempty"`
	RazorpayPaymentID     string          `json:"razorpayPaymentId,omitempty" bson:"razorpayPaymentId,omitempty"`
	RazorpaySignature     string          `json:"razorpaySignature,omitempty" bson:"razorpaySignature,omitempty"`
	StatusHistory         []StatusChange  `json:"statusHistory" bson:"statusHistory" gorm:"serializer:json"`
	Version               int             `json:"version" bson:"version"`
	UpdatedAt             time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// AssignedTo reports whether the order is assigned to dealerID.
func (o *Order) AssignedTo(dealerID string) bool {
	return o.AssignedDealerID != nil && *o.AssignedDealerID == dealerID
}

// Contains reports whether any line of the order is for productID.
func (o *Order) Contains(productID string) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
