package repositories

import (
	"context"
	"fmt"
	"time"

	"unishop/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderRepository is a MongoDB implementation of OrderRepository.
type MongoOrderRepository struct {
	orders *mongo.Collection
}

// NewMongoOrderRepository creates a new instance of MongoOrderRepository.
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{orders: db.Collection(ordersCollection)}
}

func orderQuery(f OrderFilter) bson.M {
	query := bson.M{}
	if f.UserID != "" {
		query["userId"] = f.UserID
	}
	if f.AssignedDealerID != "" {
		query["assignedDealerId"] = f.AssignedDealerID
	} else if f.Unassigned {
		query["assignedDealerId"] = nil
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	return query
}

// GetAll returns the orders matching filter, newest first.
func (r *MongoOrderRepository) GetAll(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	if filter.AssignedDealerID != "" && filter.Unassigned {
		return []models.Order{}, nil
	}
	cursor, err := r.orders.Find(ctx, orderQuery(filter), options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// GetByID returns an order by its ID.
func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, mongoError(err, "order with ID %s", id)
	}
	return &order, nil
}

// Create inserts an order.
func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now()
	}
	order.UpdatedAt = time.Now()
	if _, err := r.orders.InsertOne(ctx, order); err != nil {
		return mongoError(err, "failed to insert order %s", order.ID)
	}
	return nil
}

// Update replaces the order document only while its version is unchanged.
func (r *MongoOrderRepository) Update(ctx context.Context, order *models.Order) error {
	expected := order.Version
	order.Version = expected + 1
	order.UpdatedAt = time.Now()

	res, err := r.orders.ReplaceOne(ctx, bson.M{"_id": order.ID, "version": expected}, order)
	if err != nil {
		order.Version = expected
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	order.Version = expected
	count, err := r.orders.CountDocuments(ctx, bson.M{"_id": order.ID})
	if err != nil {
		return fmt.Errorf("failed to check order %s: %w", order.ID, err)
	}
	if count == 0 {
		return fmt.Errorf("order with ID %s not found for update: %w", order.ID, ErrNotFound)
	}
	return fmt.Errorf("order %s changed since version %d: %w", order.ID, expected, ErrVersionConflict)
}
