package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"unishop/internal/models"
	"unishop/internal/repositories"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the stock level below which products are flagged.
const LowStockThreshold = 10

const (
	topProductsLimit  = 5
	recentOrdersLimit = 5
)

// MonthlyBucket aggregates orders placed in one calendar month (UTC).
type MonthlyBucket struct {
	Month   string          `json:"month"` // YYYY-MM
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ProductSales is the quantity and revenue sold of one product.
type ProductSales struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// AdminDashboard is the store-wide overview.
type AdminDashboard struct {
	TotalUsers         int                                        `json:"totalUsers"`
	UsersByRole        map[models.Role]int                        `json:"usersByRole"`
	TotalProducts      int                                        `json:"totalProducts"`
	TotalOrders        int                                        `json:"totalOrders"`
	OrdersByStatus     map[models.OrderStatus]int                 `json:"ordersByStatus"`
	PendingAssignments int                                        `json:"pendingAssignments"`
	Revenue            decimal.Decimal                            `json:"revenue"`
	RevenueByCategory  map[models.ProductCategory]decimal.Decimal `json:"revenueByCategory"`
	MonthlyRevenue     []MonthlyBucket                            `json:"monthlyRevenue"`
	TopProducts        []ProductSales                             `json:"topProducts"`
	LowStock           []models.Product                           `json:"lowStock"`
}

// DealerDashboard summarises the orders handled by one dealer.
type DealerDashboard struct {
	AssignedOrders  int                        `json:"assignedOrders"`
	OrdersByStatus  map[models.OrderStatus]int `json:"ordersByStatus"`
	OpenAssignments int                        `json:"openAssignments"`
	Revenue         decimal.Decimal            `json:"revenue"`
	MonthlyRevenue  []MonthlyBucket            `json:"monthlyRevenue"`
	RecentOrders    []models.Order             `json:"recentOrders"`
}

// InstitutionDashboard covers the uniforms affiliated with an institution
// and the orders of its students.
type InstitutionDashboard struct {
	InstitutionName string           `json:"institutionName"`
	Products        []models.Product `json:"products"`
	Students        int              `json:"students"`
	Orders          int              `json:"orders"`
	Revenue         decimal.Decimal  `json:"revenue"`
	ProductSales    []ProductSales   `json:"productSales"`
	MonthlyRevenue  []MonthlyBucket  `json:"monthlyRevenue"`
	RecentOrders    []models.Order   `json:"recentOrders"`
}

// DashboardService computes role dashboards from repository reads on every
// request.
type DashboardService struct {
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(userRepo repositories.UserRepository, productRepo repositories.ProductRepository, orderRepo repositories.OrderRepository) *DashboardService {
	return &DashboardService{userRepo: userRepo, productRepo: productRepo, orderRepo: orderRepo}
}

// countsRevenue reports whether an order contributes to revenue.
func countsRevenue(o *models.Order) bool {
	return o.Status != models.OrderStatusCancelled
}

func monthlyRevenue(orders []models.Order) []MonthlyBucket {
	byMonth := map[string]*MonthlyBucket{}
	for i := range orders {
		o := &orders[i]
		month := o.OrderDate.UTC().Format("2006-01")
		b, ok := byMonth[month]
		if !ok {
			b = &MonthlyBucket{Month: month, Revenue: decimal.Zero}
			byMonth[month] = b
		}
		b.Orders++
		if countsRevenue(o) {
			b.Revenue = b.Revenue.Add(o.TotalAmount)
		}
	}
	buckets := make([]MonthlyBucket, 0, len(byMonth))
	for _, b := range byMonth {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Month < buckets[j].Month })
	return buckets
}

// productSales totals the lines accepted by include across revenue orders,
// best sellers first.
func productSales(orders []models.Order, include func(models.CartItem) bool) []ProductSales {
	byProduct := map[string]*ProductSales{}
	for i := range orders {
		if !countsRevenue(&orders[i]) {
			continue
		}
		for _, item := range orders[i].Items {
			if !include(item) {
				continue
			}
			ps, ok := byProduct[item.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: item.ProductID, Name: item.Name, Revenue: decimal.Zero}
				byProduct[item.ProductID] = ps
			}
			ps.Quantity += item.Quantity
			ps.Revenue = ps.Revenue.Add(item.LineTotal())
		}
	}
	sales := make([]ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		sales = append(sales, *ps)
	}
	sort.Slice(sales, func(i, j int) bool {
		if sales[i].Quantity != sales[j].Quantity {
			return sales[i].Quantity > sales[j].Quantity
		}
		return sales[i].ProductID < sales[j].ProductID
	})
	return sales
}

func revenue(orders []models.Order) decimal.Decimal {
	total := decimal.Zero
	for i := range orders {
		if countsRevenue(&orders[i]) {
			total = total.Add(orders[i].TotalAmount)
		}
	}
	return total
}

func recent(orders []models.Order) []models.Order {
	sorted := append([]models.Order(nil), orders...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderDate.After(sorted[j].OrderDate) })
	if len(sorted) > recentOrdersLimit {
		sorted = sorted[:recentOrdersLimit]
	}
	return sorted
}

func countByStatus(orders []models.Order) map[models.OrderStatus]int {
	counts := map[models.OrderStatus]int{}
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}

// Admin builds the store-wide dashboard.
func (s *DashboardService) Admin(ctx context.Context, actor Actor) (*AdminDashboard, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	users, err := s.userRepo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	products, err := s.productRepo.GetAll(ctx, repositories.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	orders, err := s.orderRepo.GetAll(ctx, repositories.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	d := &AdminDashboard{
		TotalUsers:        len(users),
		UsersByRole:       map[models.Role]int{},
		TotalProducts:     len(products),
		TotalOrders:       len(orders),
		OrdersByStatus:    countByStatus(orders),
		Revenue:           revenue(orders),
		RevenueByCategory: map[models.ProductCategory]decimal.Decimal{},
		MonthlyRevenue:    monthlyRevenue(orders),
		LowStock:          []models.Product{},
	}
	for _, u := range users {
		d.UsersByRole[u.Role]++
	}

	categoryOf := make(map[string]models.ProductCategory, len(products))
	for _, p := range products {
		categoryOf[p.ID] = p.Category
		if p.Stock < LowStockThreshold {
			d.LowStock = append(d.LowStock, p)
		}
	}
	sort.Slice(d.LowStock, func(i, j int) bool { return d.LowStock[i].Stock < d.LowStock[j].Stock })

	for i := range orders {
		o := &orders[i]
		if o.Status == models.OrderStatusPendingDealerAssignment && o.AssignedDealerID == nil {
			d.PendingAssignments++
		}
		if !countsRevenue(o) {
			continue
		}
		for _, item := range o.Items {
			category, ok := categoryOf[item.ProductID]
			if !ok {
				continue // product removed from the catalog
			}
			d.RevenueByCategory[category] = d.RevenueByCategory[category].Add(item.LineTotal())
		}
	}

	d.TopProducts = productSales(orders, func(models.CartItem) bool { return true })
	if len(d.TopProducts) > topProductsLimit {
		d.TopProducts = d.TopProducts[:topProductsLimit]
	}
	return d, nil
}

// Dealer builds the dashboard of the acting dealer.
func (s *DashboardService) Dealer(ctx context.Context, actor Actor) (*DealerDashboard, error) {
	if actor.Role != models.RoleDealer {
		return nil, ErrForbidden
	}
	assigned, err := s.orderRepo.GetAll(ctx, repositories.OrderFilter{AssignedDealerID: actor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned orders: %w", err)
	}
	open, err := s.orderRepo.GetAll(ctx, repositories.OrderFilter{Unassigned: true, Status: models.OrderStatusPendingDealerAssignment})
	if err != nil {
		return nil, fmt.Errorf("failed to load open orders: %w", err)
	}

	return &DealerDashboard{
		AssignedOrders:  len(assigned),
		OrdersByStatus:  countByStatus(assigned),
		OpenAssignments: len(open),
		Revenue:         revenue(assigned),
		MonthlyRevenue:  monthlyRevenue(assigned),
		RecentOrders:    recent(assigned),
	}, nil
}

// Institution builds the dashboard of the acting institution: products
// carrying its name and orders by its students or for those products.
func (s *DashboardService) Institution(ctx context.Context, actor Actor) (*InstitutionDashboard, error) {
	if actor.Role != models.RoleInstitution {
		return nil, ErrForbidden
	}
	institution, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	name := institution.InstitutionName

	products, err := s.productRepo.GetAll(ctx, repositories.ProductFilter{Institution: name})
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	affiliated := make(map[string]bool, len(products))
	for _, p := range products {
		affiliated[p.ID] = true
	}

	students, err := s.userRepo.List(ctx, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	studentIDs := map[string]bool{}
	for _, u := range students {
		if strings.EqualFold(u.InstitutionName, name) {
			studentIDs[u.ID] = true
		}
	}

	all, err := s.orderRepo.GetAll(ctx, repositories.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	var orders []models.Order
	for i := range all {
		o := &all[i]
		if studentIDs[o.UserID] || containsAny(o, affiliated) {
			orders = append(orders, *o)
		}
	}

	return &InstitutionDashboard{
		InstitutionName: name,
		Products:        products,
		Students:        len(studentIDs),
		Orders:          len(orders),
		Revenue:         revenue(orders),
		ProductSales:    productSales(orders, func(item models.CartItem) bool { return affiliated[item.ProductID] }),
		MonthlyRevenue:  monthlyRevenue(orders),
		RecentOrders:    recent(orders),
	}, nil
}

func containsAny(o *models.Order, productIDs map[string]bool) bool {
	for _, item := range o.Items {
		if productIDs[item.ProductID] {
			return true
		}
	}
	return false
}
