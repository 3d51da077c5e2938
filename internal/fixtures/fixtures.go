// Package fixtures holds the demo dataset served in mock mode and written by
// the seed command.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"unishop/internal/models"
	"unishop/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password of every fixture account.
const DemoPassword = "password123"

// Fixed IDs so fixture orders can reference fixture users.
const (
	AdminID       = "user_admin"
	DealerID      = "user_dealer"
	InstitutionID = "user_institution"
	StudentID     = "user_student"
	CustomerID    = "user_customer"
)

// InstitutionName is the school the fixture institution and student belong to.
const InstitutionName = "Green Valley Public School"

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Categories returns the catalog sections.
func Categories() []models.Category {
	return []models.Category{
		{ID: "cat_school", Name: models.CategorySchool, Description: "School uniforms, blazers and sportswear", ImageURL: "/images/categories/school.jpg"},
		{ID: "cat_corporate", Name: models.CategoryCorporate, Description: "Office shirts, trousers and branded wear", ImageURL: "/images/categories/corporate.jpg"},
		{ID: "cat_healthcare", Name: models.CategoryHealthcare, Description: "Scrubs, lab coats and nursing wear", ImageURL: "/images/categories/healthcare.jpg"},
	}
}

// Products returns the fixture catalog.
func Products() []models.Product {
	return []models.Product{
		{ID: "prod_1", Name: "Classic School Shirt", Description: "Half-sleeve white cotton shirt with school crest pocket.", Price: price("20"), Category: models.CategorySchool, Institution: InstitutionName, ImageURL: "/images/products/school-shirt.jpg", Sizes: []string{"XS", "S", "M", "L"}, Colors: []string{"White"}, Stock: 120, Featured: true},
		{ID: "prod_2", Name: "School Trousers", Description: "Navy poly-viscose trousers with adjustable waist.", Price: price("28.50"), Category: models.CategorySchool, Institution: InstitutionName, ImageURL: "/images/products/school-trousers.jpg", Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"Navy", "Grey"}, Stock: 80},
		{ID: "prod_3", Name: "School Blazer", Description: "Wool-blend blazer with embroidered badge.", Price: price("64"), Category: models.CategorySchool, Institution: InstitutionName, ImageURL: "/images/products/school-blazer.jpg", Sizes: []string{"S", "M", "L"}, Colors: []string{"Maroon"}, Stock: 8, Featured: true},
		{ID: "prod_4", Name: "Sports Track Suit", Description: "Breathable track suit for PE classes.", Price: price("39.99"), Category: models.CategorySchool, Institution: "Riverside Academy", ImageURL: "/images/products/track-suit.jpg", Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"Blue", "Black"}, Stock: 45},
		{ID: "prod_5", Name: "Formal Office Shirt", Description: "Wrinkle-free long-sleeve shirt.", Price: price("32"), Category: models.CategoryCorporate, ImageURL: "/images/products/office-shirt.jpg", Sizes: []string{"S", "M", "L", "XL", "XXL"}, Colors: []string{"White", "Light Blue"}, Stock: 60, Featured: true},
		{ID: "prod_6", Name: "Corporate Polo", Description: "Pique polo ready for logo embroidery.", Price: price("18.75"), Category: models.CategoryCorporate, ImageURL: "/images/products/polo.jpg", Sizes: []string{"M", "L", "XL"}, Colors: []string{"Black", "Navy", "White"}, Stock: 5},
		{ID: "prod_7", Name: "Medical Scrub Set", Description: "Four-way stretch top and pants.", Price: price("45"), Category: models.CategoryHealthcare, ImageURL: "/images/products/scrubs.jpg", Sizes: []string{"XS", "S", "M", "L", "XL"}, Colors: []string{"Teal", "Navy", "Wine"}, Stock: 70, Featured: true},
		{ID: "prod_8", Name: "Lab Coat", Description: "Knee-length poly-cotton lab coat.", Price: price("29"), Category: models.CategoryHealthcare, ImageURL: "/images/products/lab-coat.jpg", Sizes: []string{"S", "M", "L"}, Stock: 0},
	}
}

// Users returns one account per role, all using DemoPassword.
func Users() ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash fixture password: %w", err)
	}
	h := string(hash)
	return []models.User{
		{ID: AdminID, Role: models.RoleAdmin, Email: "admin@unishop.test", PasswordHash: h, Name: "Store Admin"},
		{ID: DealerID, Role: models.RoleDealer, Email: "dealer@unishop.test", PasswordHash: h, Name: "Ravi Traders", DealerName: "Ravi Uniform Traders", GSTINNumber: "29ABCDE1234F1Z5", BusinessAddress: "14 Market Road, Bengaluru"},
		{ID: InstitutionID, Role: models.RoleInstitution, Email: "office@greenvalley.test", PasswordHash: h, InstitutionName: InstitutionName, InstitutionalAddress: "2 Lake View, Bengaluru", ContactPerson: "Meera Nair"},
		{ID: StudentID, Role: models.RoleStudent, RollNumber: "GV2024-017", PasswordHash: h, Name: "Arjun Rao", InstitutionName: InstitutionName, ClassName: "8B"},
		{ID: CustomerID, Role: models.RoleCustomer, Email: "customer@unishop.test", PasswordHash: h, Name: "Priya Sharma", Phone: "+91 98450 00000", Address: "88 Residency Road, Bengaluru"},
	}, nil
}

// Orders returns sample orders in several lifecycle states.
func Orders(now time.Time) []models.Order {
	dealer := DealerID
	address := models.ShippingAddress{FullName: "Priya Sharma", Phone: "+91 98450 00000", AddressLine1: "88 Residency Road", City: "Bengaluru", State: "KA", PostalCode: "560025", Country: "IN"}
	line := func(p models.Product, qty int, size string) models.CartItem {
		return models.CartItem{ProductID: p.ID, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL, Quantity: qty, Size: size}
	}
	products := Products()

	pending := []models.CartItem{line(products[0], 2, "M"), line(products[1], 1, "M")}
	processing := []models.CartItem{line(products[6], 3, "L")}
	delivered := []models.CartItem{line(products[2], 1, "S")}

	return []models.Order{
		{
			ID: "order_1001", UserID: CustomerID, Items: pending, TotalAmount: models.Subtotal(pending),
			Status: models.OrderStatusPendingDealerAssignment, OrderDate: now.AddDate(0, 0, -2),
			ShippingAddress: address, PaymentMethod: "razorpay", PaymentStatus: models.PaymentStatusPaid,
			StatusHistory: []models.StatusChange{{To: models.OrderStatusPendingDealerAssignment, ActorID: CustomerID, ActorRole: models.RoleCustomer, At: now.AddDate(0, 0, -2)}},
		},
		{
			ID: "order_1002", UserID: CustomerID, Items: processing, TotalAmount: models.Subtotal(processing),
			Status: models.OrderStatusProcessingByDealer, OrderDate: now.AddDate(0, -1, 0),
			ShippingAddress: address, PaymentMethod: "cod", PaymentStatus: models.PaymentStatusPending, AssignedDealerID: &dealer,
			StatusHistory: []models.StatusChange{
				{To: models.OrderStatusPendingDealerAssignment, ActorID: CustomerID, ActorRole: models.RoleCustomer, At: now.AddDate(0, -1, 0)},
				{From: models.OrderStatusPendingDealerAssignment, To: models.OrderStatusProcessingByDealer, ActorID: DealerID, ActorRole: models.RoleDealer, At: now.AddDate(0, -1, 1)},
			},
		},
		{
			ID: "order_1003", UserID: StudentID, Items: delivered, TotalAmount: models.Subtotal(delivered),
			Status: models.OrderStatusDelivered, OrderDate: now.AddDate(0, -2, 0),
			ShippingAddress: models.ShippingAddress{FullName: "Arjun Rao", Phone: "+91 90000 11111", AddressLine1: "2 Lake View", City: "Bengaluru", PostalCode: "560001", Country: "IN"},
			PaymentMethod: "razorpay", PaymentStatus: models.PaymentStatusPaid, AssignedDealerID: &dealer,
			StatusHistory: []models.StatusChange{
				{To: models.OrderStatusPendingDealerAssignment, ActorID: StudentID, ActorRole: models.RoleStudent, At: now.AddDate(0, -2, 0)},
				{From: models.OrderStatusProcessingByDealer, To: models.OrderStatusDelivered, ActorID: DealerID, ActorRole: models.RoleDealer, At: now.AddDate(0, -2, 5)},
			},
		},
	}
}

// Reviews returns sample product reviews.
func Reviews(now time.Time) []models.Review {
	return []models.Review{
		{ID: "review_1", ProductID: "prod_1", UserID: CustomerID, UserName: "Priya Sharma", Rating: 5, Comment: "Good fabric and the size chart is accurate.", CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "review_2", ProductID: "prod_7", UserID: CustomerID, UserName: "Priya Sharma", Rating: 4, Comment: "Comfortable for long shifts.", CreatedAt: now.AddDate(0, 0, -3)},
	}
}

// Seed writes the fixture dataset into store. Records that already exist
// are skipped so seeding can be repeated.
func Seed(ctx context.Context, store *repositories.Store) error {
	now := time.Now()
	skip := func(what string, err error) error {
		if err == nil || errors.Is(err, repositories.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("seed %s: %w", what, err)
	}

	for _, c := range Categories() {
		if err := skip("category "+string(c.Name), store.Categories.Create(ctx, &c)); err != nil {
			return err
		}
	}
	for _, p := range Products() {
		if err := skip("product "+p.ID, store.Products.Create(ctx, &p)); err != nil {
			return err
		}
	}
	users, err := Users()
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := skip("user "+u.ID, store.Users.Create(ctx, &u)); err != nil {
			return err
		}
	}
	for _, o := range Orders(now) {
		if err := skip("order "+o.ID, store.Orders.Create(ctx, &o)); err != nil {
			return err
		}
	}
	// Reviews have no natural key, so only seed them into an empty product.
	for _, r := range Reviews(now) {
		existing, err := store.Reviews.GetByProduct(ctx, r.ProductID)
		if err != nil {
			return fmt.Errorf("seed reviews: %w", err)
		}
		if len(existing) > 0 {
			continue
		}
		if err := store.Reviews.Create(ctx, &r); err != nil {
			return fmt.Errorf("seed review %s: %w", r.ID, err)
		}
	}

	log.Printf("Seeded %d categories, %d products, %d users, %d orders", len(Categories()), len(Products()), len(users), len(Orders(now)))
	return nil
}
