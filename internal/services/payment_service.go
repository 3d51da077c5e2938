package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"unishop/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxPaymentAmount caps a single gateway order, in major units.
var maxPaymentAmount = decimal.NewFromInt(10_000_000)

// PaymentService mimics the Razorpay order and signature endpoints. In mock
// mode every signature is accepted.
type PaymentService struct {
	orders    *OrderService
	keyID     string
	keySecret string
	mock      bool
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(orders *OrderService, keyID, keySecret string, mock bool) *PaymentService {
	return &PaymentService{orders: orders, keyID: keyID, keySecret: keySecret, mock: mock}
}

// CreatePaymentInput is the body of POST /payment/create-order. Amount is
// in major units.
type CreatePaymentInput struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
}

// GatewayOrder is the gateway-side order the client pays against.
type GatewayOrder struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"` // minor units
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt,omitempty"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
	KeyID     string `json:"key_id"`
}

// CreateOrder returns a new gateway order for the amount.
func (s *PaymentService) CreateOrder(_ context.Context, in CreatePaymentInput) (*GatewayOrder, error) {
	if !in.Amount.IsPositive() {
		return nil, invalidField("amount", "Amount must be greater than zero")
	}
	if in.Amount.GreaterThan(maxPaymentAmount) {
		return nil, invalidField("amount", fmt.Sprintf("Amount must not exceed %s", maxPaymentAmount))
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "INR"
	}

	order := &GatewayOrder{
		ID:        "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Entity:    "order",
		Amount:    in.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:  currency,
		Receipt:   in.Receipt,
		Status:    "created",
		CreatedAt: time.Now().Unix(),
		KeyID:     s.keyID,
	}
	log.Printf("Created payment order %s for %d %s", order.ID, order.Amount, order.Currency)
	return order, nil
}

// Sign returns the hex HMAC-SHA256 of "gatewayOrderID|paymentID".
func (s *PaymentService) Sign(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature implements SignatureVerifier.
func (s *PaymentService) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	if s.mock {
		return true
	}
	expected := s.Sign(gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// VerifyPaymentInput is the body of POST /payment/verify-signature. OrderID
// optionally names the store order to mark paid.
type VerifyPaymentInput struct {
	RazorpayOrderID   string `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string `json:"razorpaySignature"`
	OrderID           string `json:"orderId"`
}

// VerifyPayment checks the signature and, when in.OrderID is set, records
// the payment on that order.
func (s *PaymentService) VerifyPayment(ctx context.Context, actor Actor, in VerifyPaymentInput) (bool, *models.Order, error) {
	if err := validateStruct(in); err != nil {
		return false, nil, err
	}
	if !s.VerifySignature(in.RazorpayOrderID, in.RazorpayPaymentID, in.RazorpaySignature) {
		log.Printf("Payment signature mismatch for %s/%s", in.RazorpayOrderID, in.RazorpayPaymentID)
		return false, nil, nil
	}
	if in.OrderID == "" {
		return true, nil, nil
	}
	order, err := s.orders.RecordPayment(ctx, actor, in.OrderID, in.RazorpayOrderID, in.RazorpayPaymentID, in.RazorpaySignature)
	if err != nil {
		return false, nil, err
	}
	return true, order, nil
}
