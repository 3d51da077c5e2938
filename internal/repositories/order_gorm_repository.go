package repositories

import (
	"context"
	"fmt"
	"time"

	"unishop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// GetAll retrieves the orders matching filter, newest first.
func (r *GORMOrderRepository) GetAll(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.AssignedDealerID != "" {
		q = q.Where("assigned_dealer_id = ?", filter.AssignedDealerID)
	}
	if filter.Unassigned {
		q = q.Where("assigned_dealer_id IS NULL")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var orders []models.Order
	if err := q.Order("order_date DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, gormError(err, "order with ID %s", id)
	}
	return &order, nil
}

// Create inserts a new order.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return gormError(err, "failed to create order %s", order.ID)
	}
	return nil
}

// Update writes order only if the stored version still matches.
func (r *GORMOrderRepository) Update(ctx context.Context, order *models.Order) error {
	expected := order.Version
	order.Version = expected + 1
	order.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expected).
		Select("*").Omit("id").
		Updates(order)
	if res.Error != nil {
		order.Version = expected
		return fmt.Errorf("failed to update order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	order.Version = expected
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check order %s: %w", order.ID, err)
	}
	if count == 0 {
		return fmt.Errorf("order with ID %s not found for update: %w", order.ID, ErrNotFound)
	}
	return fmt.Errorf("order %s changed since version %d: %w", order.ID, expected, ErrVersionConflict)
}

