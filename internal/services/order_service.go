package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"unishop/internal/events"
	"unishop/internal/models"
	"unishop/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pricing holds the checkout tax rate and flat shipping fee.
type Pricing struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
}

// Quote is the price breakdown shown before checkout.
type Quote struct {
	Items    []models.CartItem `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Tax      decimal.Decimal   `json:"tax"`
	Shipping decimal.Decimal   `json:"shipping"`
	Total    decimal.Decimal   `json:"total"`
}

// Quote computes tax and shipping for items. An empty cart ships free.
func (p Pricing) Quote(items []models.CartItem) Quote {
	subtotal := models.Subtotal(items)
	tax := subtotal.Mul(p.TaxRate).Round(2)
	shipping := decimal.Zero
	if len(items) > 0 {
		shipping = p.ShippingFee
	}
	return Quote{
		Items:    items,
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// SignatureVerifier checks a gateway payment signature.
type SignatureVerifier interface {
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	publisher   events.Publisher
	pricing     Pricing
	verifier    SignatureVerifier
	now         func() time.Time
}

// NewOrderService creates a new OrderService. A nil publisher drops events.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository, publisher events.Publisher, pricing Pricing) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		pricing:     pricing,
		now:         time.Now,
	}
}

// SetSignatureVerifier enables payment signature checks at checkout.
func (s *OrderService) SetSignatureVerifier(v SignatureVerifier) { s.verifier = v }

// CheckoutInput is the body of POST /orders. When Items is empty the
// user's server-side cart is ordered.
type CheckoutInput struct {
	Items             []models.CartItem      `json:"items" validate:"omitempty,dive"`
	ShippingAddress   models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod     string                 `json:"paymentMethod" validate:"required"`
	RazorpayOrderID   string                 `json:"razorpayOrderId"`
	RazorpayPaymentID string                 `json:"razorpayPaymentId"`
	RazorpaySignature string                 `json:"razorpaySignature"`
}

// priceItems re-snapshots items from the catalog. Client-side names and
// prices are ignored.
func (s *OrderService) priceItems(ctx context.Context, items []models.CartItem) ([]models.CartItem, error) {
	if len(items) == 0 {
		return nil, invalidField("items", "Order must contain at least one item")
	}
	priced := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, invalidField("quantity", fmt.Sprintf("Quantity of %s must be at least 1", item.ProductID))
		}
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, invalidField("productId", fmt.Sprintf("Product %s is not available", item.ProductID))
			}
			return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		if !product.HasSize(item.Size) || !product.HasColor(item.Color) {
			return nil, invalidField("items", fmt.Sprintf("Variant %s/%s of %s is not offered", item.Size, item.Color, product.Name))
		}
		priced = models.MergeCartItem(priced, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			ImageURL:  product.ImageURL,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}
	return priced, nil
}

// QuoteOrder prices items, or the actor's cart when items is empty.
func (s *OrderService) QuoteOrder(ctx context.Context, actor Actor, items []models.CartItem) (Quote, error) {
	if len(items) == 0 {
		user, err := s.userRepo.GetByID(ctx, actor.ID)
		if err != nil {
			return Quote{}, err
		}
		items = user.Cart
	}
	if len(items) == 0 {
		return s.pricing.Quote([]models.CartItem{}), nil
	}
	priced, err := s.priceItems(ctx, items)
	if err != nil {
		return Quote{}, err
	}
	return s.pricing.Quote(priced), nil
}

// PlaceOrder turns items (or the actor's cart) into an order waiting for a
// dealer. The total is the pre-tax sum of the line totals. Stock is not
// decremented. The actor's cart is cleared afterwards.
func (s *OrderService) PlaceOrder(ctx context.Context, actor Actor, in CheckoutInput) (*models.Order, error) {
	if actor.Role != models.RoleCustomer && actor.Role != models.RoleStudent {
		return nil, ErrForbidden
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	items := in.Items
	if len(items) == 0 {
		items = user.Cart
	}
	priced, err := s.priceItems(ctx, items)
	if err != nil {
		return nil, err
	}

	paymentStatus := models.PaymentStatusPending
	if in.RazorpayPaymentID != "" {
		if s.verifier != nil && !s.verifier.VerifySignature(in.RazorpayOrderID, in.RazorpayPaymentID, in.RazorpaySignature) {
			return nil, invalidField("razorpaySignature", "Payment signature verification failed")
		}
		paymentStatus = models.PaymentStatusPaid
	}

	now := s.now()
	order := &models.Order{
		ID:                uuid.New().String(),
		UserID:            actor.ID,
		Items:             priced,
		TotalAmount:       models.Subtotal(priced),
		Status:            models.OrderStatusPendingDealerAssignment,
		OrderDate:         now,
		ShippingAddress:   in.ShippingAddress,
		PaymentMethod:     strings.TrimSpace(in.PaymentMethod),
		PaymentStatus:     paymentStatus,
		AssignedDealerID:  nil,
		RazorpayOrderID:   in.RazorpayOrderID,
		RazorpayPaymentID: in.RazorpayPaymentID,
		RazorpaySignature: in.RazorpaySignature,
		StatusHistory: []models.StatusChange{{
			To:        models.OrderStatusPendingDealerAssignment,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			At:        now,
		}},
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}
	log.Printf("Order %s placed by %s for %s", order.ID, actor.ID, order.TotalAmount)

	user.Cart = []models.CartItem{}
	if err := s.userRepo.Update(ctx, user); err != nil {
		// The order stands; a stale cart is only an inconvenience.
		log.Printf("Warning: failed to clear cart of user %s after order %s: %v", actor.ID, order.ID, err)
	}

	s.publish(ctx, events.NewOrderEvent(events.TypeOrderCreated, order, "", actor.ID, actor.Role))
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", event.Type, event.OrderID, err)
	}
}

// canView reports whether actor may read order. Dealers also see orders
// that wait for any dealer.
func canView(actor Actor, order *models.Order) bool {
	switch {
	case actor.IsAdmin(), order.UserID == actor.ID:
		return true
	case actor.Role == models.RoleDealer:
		return order.AssignedTo(actor.ID) || order.AssignedDealerID == nil
	}
	return false
}

// GetOrder returns an order visible to actor.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, order) {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListOrders returns orders for the admin and dealer portals. Dealers only
// see orders assigned to them, or unassigned orders when filter.Unassigned
// is set.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, filter repositories.OrderFilter) ([]models.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalidField("status", fmt.Sprintf("Unknown order status '%s'", filter.Status))
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleDealer:
		if filter.Unassigned {
			filter.AssignedDealerID = ""
		} else {
			filter.AssignedDealerID = actor.ID
		}
	default:
		return nil, ErrForbidden
	}
	return s.orderRepo.GetAll(ctx, filter)
}

// ListUserOrders returns the orders placed by userID, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, actor Actor, userID string) ([]models.Order, error) {
	if !actor.CanAccessUser(userID) {
		return nil, ErrForbidden
	}
	return s.orderRepo.GetAll(ctx, repositories.OrderFilter{UserID: userID})
}

// mutate loads an order, applies change and writes it back guarded by the
// loaded version. A concurrent writer makes the write fail with
// repositories.ErrVersionConflict.
func (s *OrderService) mutate(ctx context.Context, actor Actor, id string, change func(*models.Order, time.Time) (transition, error)) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t, err := change(order, s.now())
	if err != nil {
		return nil, err
	}
	if !t.changed {
		return order, nil
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	log.Printf("Order %s updated by %s %s: %q -> %q", order.ID, actor.Role, actor.ID, t.previous, order.Status)

	s.publish(ctx, events.NewOrderEvent(events.TypeOrderStatusUpdated, order, t.previous, actor.ID, actor.Role))
	return order, nil
}

// UpdateOrder applies a PATCH from an admin or a dealer.
func (s *OrderService) UpdateOrder(ctx context.Context, actor Actor, id string, patch OrderPatch) (*models.Order, error) {
	if patch.Empty() {
		return nil, Invalid("Nothing to update")
	}
	if actor.IsAdmin() && patch.AssignedDealerID != nil && strings.TrimSpace(*patch.AssignedDealerID) != "" {
		if err := s.ensureDealer(ctx, strings.TrimSpace(*patch.AssignedDealerID)); err != nil {
			return nil, err
		}
	}
	return s.mutate(ctx, actor, id, func(order *models.Order, now time.Time) (transition, error) {
		return applyPatch(order, actor, patch, now)
	})
}

func (s *OrderService) ensureDealer(ctx context.Context, dealerID string) error {
	dealer, err := s.userRepo.GetByID(ctx, dealerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return invalidField("assignedDealerId", fmt.Sprintf("Dealer %s does not exist", dealerID))
		}
		return err
	}
	if dealer.Role != models.RoleDealer {
		return invalidField("assignedDealerId", fmt.Sprintf("User %s is not a dealer", dealerID))
	}
	return nil
}

// AcceptOrder assigns the order to the acting dealer and starts processing.
func (s *OrderService) AcceptOrder(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	if actor.Role != models.RoleDealer {
		return nil, ErrForbidden
	}
	return s.mutate(ctx, actor, id, func(order *models.Order, now time.Time) (transition, error) {
		return applyAccept(order, actor, now)
	})
}

// RejectOrder returns the order to the unassigned pool with reason.
func (s *OrderService) RejectOrder(ctx context.Context, actor Actor, id, reason string) (*models.Order, error) {
	if actor.Role != models.RoleDealer {
		return nil, ErrForbidden
	}
	return s.mutate(ctx, actor, id, func(order *models.Order, now time.Time) (transition, error) {
		return applyReject(order, actor, reason, now)
	})
}

// ShipOrder marks the order shipped through the admin update path.
func (s *OrderService) ShipOrder(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	shipped := models.OrderStatusShipped
	return s.UpdateOrder(ctx, actor, id, OrderPatch{Status: &shipped})
}

// RecordPayment stores verified gateway identifiers on the order and marks
// it paid. Only the owner or an admin may do so.
func (s *OrderService) RecordPayment(ctx context.Context, actor Actor, id, gatewayOrderID, paymentID, signature string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessUser(order.UserID) {
		return nil, ErrForbidden
	}
	order.RazorpayOrderID = gatewayOrderID
	order.RazorpayPaymentID = paymentID
	order.RazorpaySignature = signature
	order.PaymentStatus = models.PaymentStatusPaid
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to record payment on order %s: %w", id, err)
	}
	return order, nil
}
