package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"unishop/internal/fixtures"
	"unishop/internal/handlers"
	"unishop/internal/middleware"
	"unishop/internal/models"
	"unishop/internal/repositories"
	"unishop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite seeded
// with the fixture dataset and all handlers/services.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	// Configure Viper for testing
	v := viper.New()
	v.SetDefault("JWT_SECRET", "test_jwt_secret")
	v.AutomaticEnv()
	jwtSecret := v.GetString("JWT_SECRET")

	// Initialize a private in-memory SQLite database
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to connect to in-memory database")
	require.NoError(t, repositories.MigrateGORM(db), "failed to auto-migrate database")

	store := repositories.NewGORMStore(db)
	require.NoError(t, fixtures.Seed(context.Background(), store))

	// Initialize Services
	authService := services.NewAuthService(store.Users, jwtSecret, time.Hour)
	userService := services.NewUserService(store.Users, 1<<20)
	cartService := services.NewCartService(store.Users, store.Products)
	productService := services.NewProductService(store.Products, store.Categories, store.Reviews, store.Users)
	orderService := services.NewOrderService(store.Orders, store.Products, store.Users, nil, services.Pricing{
		TaxRate:     decimal.RequireFromString("0.10"),
		ShippingFee: decimal.NewFromInt(50),
	})
	dashboardService := services.NewDashboardService(store.Users, store.Products, store.Orders)

	app := fiber.New()

	// API Routes
	api := app.Group("/api")
	auth := middleware.AuthRequired(authService)

	handlers.NewAuthHandler(authService, userService, false).RegisterRoutes(api, auth)
	handlers.NewProductHandler(productService).RegisterRoutes(api, auth)
	handlers.NewUserHandler(userService, cartService).RegisterRoutes(api, auth)
	handlers.NewOrderHandler(orderService).RegisterRoutes(api, auth)
	handlers.NewDashboardHandler(dashboardService).RegisterRoutes(api, auth)

	return app
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func login(t *testing.T, app *fiber.App, credentials map[string]string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", credentials, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]any
	decode(t, resp, &loginResp)
	token, _ := loginResp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func loginAs(t *testing.T, app *fiber.App, email string, role models.Role) string {
	return login(t, app, map[string]string{"email": email, "password": fixtures.DemoPassword, "role": string(role)})
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	// Test Registration
	userToRegister := map[string]string{
		"role":     "customer",
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", userToRegister, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp map[string]any
	decode(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	registered := registerResp["user"].(map[string]any)
	assert.NotContains(t, registered, "passwordHash")
	assert.Equal(t, []any{}, registered["cart"])

	// Test Duplicate Registration
	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", userToRegister, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Test Login
	loginCredentials := map[string]string{"email": "test@example.com", "password": "password123", "role": "customer"}
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", loginCredentials, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.TokenCookie {
			session = cookie
		}
	}
	require.NotNil(t, session, "login sets the session cookie")
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)

	var loginResp map[string]any
	decode(t, resp, &loginResp)
	assert.Equal(t, session.Value, loginResp["token"])
	assert.NotContains(t, loginResp["user"], "passwordHash")

	// The cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: session.Value})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var meResp map[string]map[string]any
	decode(t, resp, &meResp)
	assert.Equal(t, "test@example.com", meResp["user"]["email"])

	// Wrong role and wrong password look the same
	for _, bad := range []map[string]string{
		{"email": "test@example.com", "password": "password123", "role": "dealer"},
		{"email": "test@example.com", "password": "nope", "role": "customer"},
		{"email": "nobody@example.com", "password": "password123", "role": "customer"},
	} {
		resp = doJSON(t, app, http.MethodPost, "/api/auth/login", bad, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var failed map[string]any
		decode(t, resp, &failed)
		assert.Equal(t, "Invalid credentials", failed["message"])
	}

	// Missing fields
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{"email": "test@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Logout expires the cookie
	resp = doJSON(t, app, http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.TokenCookie {
			assert.Empty(t, cookie.Value)
		}
	}
	resp.Body.Close()
}

func TestStudentLoginByRollNumber(t *testing.T) {
	app := setupApp(t)

	token := login(t, app, map[string]string{"rollNumber": "GV2024-017", "password": fixtures.DemoPassword, "role": "student"})
	assert.NotEmpty(t, token)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]string{
		"role": "student", "rollNumber": "GV2024-017", "name": "Copy", "institutionName": fixtures.InstitutionName, "password": "x",
	}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]string{"role": "admin", "email": "root@x.test", "password": "x"}, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestProductEndpoints(t *testing.T) {
	app := setupApp(t)

	// Catalog reads are public
	resp := doJSON(t, app, http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	decode(t, resp, &products)
	assert.Len(t, products, 8)

	resp = doJSON(t, app, http.MethodGet, "/api/products?category=Healthcare", nil, "")
	decode(t, resp, &products)
	assert.Len(t, products, 2)

	resp = doJSON(t, app, http.MethodGet, "/api/categories", nil, "")
	var categories []models.Category
	decode(t, resp, &categories)
	assert.Len(t, categories, 3)

	newProduct := map[string]any{
		"name":     "Nursing Tunic",
		"price":    24.5,
		"category": "Healthcare",
		"sizes":    []string{"S", "M"},
		"stock":    12,
	}

	// Writes need an admin session
	resp = doJSON(t, app, http.MethodPost, "/api/products", newProduct, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	customerToken := loginAs(t, app, "customer@unishop.test", models.RoleCustomer)
	resp = doJSON(t, app, http.MethodPost, "/api/products", newProduct, customerToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	adminToken := loginAs(t, app, "admin@unishop.test", models.RoleAdmin)
	resp = doJSON(t, app, http.MethodPost, "/api/products", newProduct, adminToken)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var createdProduct models.Product
	decode(t, resp, &createdProduct)
	assert.NotEmpty(t, createdProduct.ID)
	assert.Equal(t, "24.5", createdProduct.Price.String())

	// --- Test PUT /products/:id ---
	resp = doJSON(t, app, http.MethodPut, "/api/products/"+createdProduct.ID, map[string]any{"name": "Nursing Tunic Pro", "stock": 3}, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updatedProduct models.Product
	decode(t, resp, &updatedProduct)
	assert.Equal(t, "Nursing Tunic Pro", updatedProduct.Name)
	assert.Equal(t, 3, updatedProduct.Stock)
	assert.Equal(t, []string{"S", "M"}, updatedProduct.Sizes, "fields not sent are kept")

	resp = doJSON(t, app, http.MethodPost, "/api/products", map[string]any{"name": "No sizes", "category": "School", "price": 1}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var invalid map[string]any
	decode(t, resp, &invalid)
	assert.Contains(t, invalid, "errors")

	// --- Test DELETE /products/:id ---
	resp = doJSON(t, app, http.MethodDelete, "/api/products/"+createdProduct.ID, nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var deleteResp map[string]string
	decode(t, resp, &deleteResp)
	assert.Contains(t, deleteResp["message"], "deleted successfully")

	// Verify deletion
	resp = doJSON(t, app, http.MethodGet, "/api/products/"+createdProduct.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestReviewEndpoints(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/products/prod_1/reviews", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var reviews []models.Review
	decode(t, resp, &reviews)
	assert.Len(t, reviews, 1)

	studentToken := login(t, app, map[string]string{"rollNumber": "GV2024-017", "password": fixtures.DemoPassword, "role": "student"})
	resp = doJSON(t, app, http.MethodPost, "/api/products/prod_1/reviews", map[string]any{"rating": 4, "comment": "Fits well"}, studentToken)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var review models.Review
	decode(t, resp, &review)
	assert.Equal(t, "Arjun Rao", review.UserName)

	resp = doJSON(t, app, http.MethodPost, "/api/products/prod_1/reviews", map[string]any{"rating": 0}, studentToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	dealerToken := loginAs(t, app, "dealer@unishop.test", models.RoleDealer)
	resp = doJSON(t, app, http.MethodPost, "/api/products/prod_1/reviews", map[string]any{"rating": 5}, dealerToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestCheckoutFlow(t *testing.T) {
	app := setupApp(t)
	token := loginAs(t, app, "customer@unishop.test", models.RoleCustomer)
	cartPath := "/api/user/" + fixtures.CustomerID + "/cart"

	resp := doJSON(t, app, http.MethodPost, cartPath, map[string]any{"productId": "prod_1", "quantity": 2, "size": "M"}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var cart []models.CartItem
	decode(t, resp, &cart)
	require.Len(t, cart, 1)
	assert.Equal(t, "20", cart[0].Price.String())

	// Other users cannot read the cart
	studentToken := login(t, app, map[string]string{"rollNumber": "GV2024-017", "password": fixtures.DemoPassword, "role": "student"})
	resp = doJSON(t, app, http.MethodGet, cartPath, nil, studentToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/checkout/quote", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var quote map[string]any
	decode(t, resp, &quote)
	assert.EqualValues(t, 40, quote["subtotal"])
	assert.EqualValues(t, 4, quote["tax"])
	assert.EqualValues(t, 94, quote["total"])

	checkout := map[string]any{
		"paymentMethod": "cod",
		"shippingAddress": map[string]string{
			"fullName": "Priya Sharma", "phone": "+91 98450 00000", "addressLine1": "88 Residency Road",
			"city": "Bengaluru", "postalCode": "560025",
		},
	}
	resp = doJSON(t, app, http.MethodPost, "/api/orders", checkout, token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Order map[string]any `json:"order"`
	}
	decode(t, resp, &created)
	assert.EqualValues(t, 40, created.Order["totalAmount"])
	assert.Equal(t, "Pending Dealer Assignment", created.Order["status"])
	assert.Contains(t, created.Order, "assignedDealerId")
	assert.Nil(t, created.Order["assignedDealerId"])

	resp = doJSON(t, app, http.MethodGet, cartPath, nil, token)
	decode(t, resp, &cart)
	assert.Empty(t, cart)

	resp = doJSON(t, app, http.MethodGet, "/api/orders/user/"+fixtures.CustomerID, nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []models.Order
	decode(t, resp, &mine)
	assert.Len(t, mine, 3)

	// Institutions view but do not buy
	institutionToken := loginAs(t, app, "office@greenvalley.test", models.RoleInstitution)
	resp = doJSON(t, app, http.MethodPost, "/api/orders", checkout, institutionToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderAssignmentFlow(t *testing.T) {
	app := setupApp(t)
	adminToken := loginAs(t, app, "admin@unishop.test", models.RoleAdmin)
	dealerToken := loginAs(t, app, "dealer@unishop.test", models.RoleDealer)

	// Admin assigns a dealer; the status stays as it is
	resp := doJSON(t, app, http.MethodPatch, "/api/orders/order_1001", map[string]any{"assignedDealerId": fixtures.DealerID}, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Order models.Order `json:"order"`
	}
	decode(t, resp, &updated)
	assert.True(t, updated.Order.AssignedTo(fixtures.DealerID))
	assert.Equal(t, models.OrderStatusPendingDealerAssignment, updated.Order.Status)

	// Dealer rejects by clearing the assignment
	resp = doJSON(t, app, http.MethodPatch, "/api/orders/order_1001", map[string]any{
		"assignedDealerId":      nil,
		"status":                "Pending Dealer Assignment",
		"dealerRejectionReason": "No stock in size M",
	}, dealerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &updated)
	assert.Nil(t, updated.Order.AssignedDealerID)
	assert.Equal(t, "No stock in size M", updated.Order.DealerRejectionReason)

	// Dealer accepts from the open pool
	resp = doJSON(t, app, http.MethodGet, "/api/orders?unassigned=true", nil, dealerToken)
	var open []models.Order
	decode(t, resp, &open)
	require.Len(t, open, 1)

	resp = doJSON(t, app, http.MethodPost, "/api/orders/order_1001/accept", nil, dealerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &updated)
	assert.Equal(t, models.OrderStatusProcessingByDealer, updated.Order.Status)

	resp = doJSON(t, app, http.MethodPost, "/api/orders/order_1001/ship", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Delivered orders are final
	resp = doJSON(t, app, http.MethodPatch, "/api/orders/order_1003", map[string]any{"status": "Cancelled"}, adminToken)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPatch, "/api/orders/order_1002", map[string]any{"status": "Lost"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	customerToken := loginAs(t, app, "customer@unishop.test", models.RoleCustomer)
	resp = doJSON(t, app, http.MethodPatch, "/api/orders/order_1002", map[string]any{"status": "Cancelled"}, customerToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/orders", nil, customerToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/orders/order_9999", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDashboardEndpoints(t *testing.T) {
	app := setupApp(t)
	adminToken := loginAs(t, app, "admin@unishop.test", models.RoleAdmin)
	dealerToken := loginAs(t, app, "dealer@unishop.test", models.RoleDealer)
	institutionToken := loginAs(t, app, "office@greenvalley.test", models.RoleInstitution)

	resp := doJSON(t, app, http.MethodGet, "/api/dashboard/admin", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var adminDashboard services.AdminDashboard
	decode(t, resp, &adminDashboard)
	assert.Equal(t, 3, adminDashboard.TotalOrders)

	resp = doJSON(t, app, http.MethodGet, "/api/dashboard/institution", nil, institutionToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var institutionDashboard services.InstitutionDashboard
	decode(t, resp, &institutionDashboard)
	assert.Equal(t, 1, institutionDashboard.Students)

	resp = doJSON(t, app, http.MethodGet, "/api/dashboard/admin", nil, dealerToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/dashboard/dealer", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
